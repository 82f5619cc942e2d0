package speech

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
)

// EspeakSynthesizer drives the espeak command-line synthesizer.
type EspeakSynthesizer struct {
	binary string

	mu  sync.Mutex
	cmd *exec.Cmd
}

// NewEspeakSynthesizer locates espeak on the host. It returns
// ErrUnsupported when no binary is found; the caller treats that as a
// terminal capability failure.
func NewEspeakSynthesizer() (*EspeakSynthesizer, error) {
	for _, name := range []string{"espeak-ng", "espeak"} {
		if path, err := exec.LookPath(name); err == nil {
			return &EspeakSynthesizer{binary: path}, nil
		}
	}
	return nil, ErrUnsupported
}

// Voices lists installed espeak voices.
func (s *EspeakSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, s.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("speech: list voices: %w", err)
	}

	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Scan() // header line
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		// Pty Language Age/Gender VoiceName File Other
		if len(fields) < 5 {
			continue
		}
		voices = append(voices, Voice{
			ID:       fields[4],
			Name:     fields[3],
			Language: fields[1],
		})
	}
	return voices, nil
}

// Speak utters text through espeak, blocking until playback finishes.
// Cancellation of ctx (the controller's Stop path) is reported as
// ErrInterrupted, never as a failure.
func (s *EspeakSynthesizer) Speak(ctx context.Context, text string, opts Options) error {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	opts = opts.Normalized()

	args := []string{
		// espeak rate is words per minute; 175 is its default.
		"-s", fmt.Sprintf("%d", int(opts.Rate*175)),
		// pitch is 0-99 with 50 as default.
		"-p", fmt.Sprintf("%d", int(opts.Pitch*50)),
		// amplitude is 0-200 with 100 as default.
		"-a", fmt.Sprintf("%d", int(opts.Volume*200)),
	}
	if opts.Voice != "" {
		args = append(args, "-v", opts.Voice)
	}

	cmd := exec.CommandContext(ctx, s.binary, args...)
	cmd.Stdin = strings.NewReader(text)

	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.cmd = nil
		s.mu.Unlock()
	}()

	err := cmd.Run()
	if ctx.Err() != nil {
		return ErrInterrupted
	}
	if err != nil {
		return fmt.Errorf("speech: espeak: %w", err)
	}
	return nil
}

// Stop kills the current espeak process, if any.
func (s *EspeakSynthesizer) Stop() {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}

var _ Synthesizer = (*EspeakSynthesizer)(nil)
