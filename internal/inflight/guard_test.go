package inflight

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestGuard_TryAcquireRelease(t *testing.T) {
	g := NewGuard()

	if !g.TryAcquire("delete:a1") {
		t.Fatal("first acquire should succeed")
	}
	if g.TryAcquire("delete:a1") {
		t.Error("second acquire of a held key should fail")
	}
	if !g.TryAcquire("delete:a2") {
		t.Error("unrelated key should be acquirable")
	}

	g.Release("delete:a1")
	if !g.TryAcquire("delete:a1") {
		t.Error("acquire after release should succeed")
	}
}

func TestGuard_ReleaseUnheldIsNoOp(t *testing.T) {
	g := NewGuard()
	g.Release("never-held")
	if g.Held("never-held") {
		t.Error("key should not be held")
	}
}

// Two concurrent bursts for the same key run the operation exactly
// once per burst.
func TestGuard_DoSuppressesDuplicates(t *testing.T) {
	g := NewGuard()

	var ran atomic.Int32
	release := make(chan struct{})
	var wg sync.WaitGroup

	const n = 10
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Do("toggle:bm-3", func() {
				ran.Add(1)
				<-release
			})
		}()
	}

	close(release)
	wg.Wait()

	if got := ran.Load(); got < 1 || got > n {
		t.Fatalf("ran = %d, want between 1 and %d", got, n)
	}
	if g.Held("toggle:bm-3") {
		t.Error("key should be released after Do returns")
	}
}

func TestGuard_DoReturnsFalseWhenHeld(t *testing.T) {
	g := NewGuard()
	g.TryAcquire("save:a1")

	if g.Do("save:a1", func() { t.Error("fn should not run") }) {
		t.Error("Do should report suppression")
	}
}
