package state

import (
	"time"

	"github.com/dshills/folio/internal/annotation"
)

// Action is a dispatched intent. The set of actions is closed: each
// slice declares the transitions it understands and ignores the rest.
type Action interface {
	action()
}

// Viewer actions.

// SetDocument installs a newly opened document.
type SetDocument struct {
	ID         string
	TotalUnits int
}

// SetCurrentUnit navigates to a unit and synchronizes the textual
// unit-input field with it.
type SetCurrentUnit struct {
	Unit int
}

// SetUnitInput updates the free-form unit input field as the reader
// types, before it is committed to navigation.
type SetUnitInput struct {
	Text string
}

// AdjustScale changes zoom by a delta, clamped to the legal range.
type AdjustScale struct {
	Delta float64
}

// SetScale sets zoom directly, clamped to the legal range.
type SetScale struct {
	Scale float64
}

// Rotate adds a rotation delta in degrees; the result is normalized
// to {0, 90, 180, 270}.
type Rotate struct {
	Delta int
}

// UI actions.

// ToggleFullscreen flips fullscreen mode.
type ToggleFullscreen struct{}

// SetTextSelection enables or disables text selection mode.
type SetTextSelection struct {
	Enabled bool
}

// SetColorFilter sets the annotation color filter; empty means no
// filter.
type SetColorFilter struct {
	Color string
}

// SetCustomBackground sets the reader background; empty restores the
// default.
type SetCustomBackground struct {
	Background string
}

// TogglePanel flips one panel's visibility.
type TogglePanel struct {
	Panel Panel
}

// CloseAllPanels closes every panel regardless of prior state.
type CloseAllPanels struct{}

// Data actions.

// SetAnnotations replaces the annotation list, normally from a remote
// fetch.
type SetAnnotations struct {
	Annotations []annotation.Annotation
}

// AddAnnotation inserts one annotation; the list is re-sorted by
// (unit, creation time).
type AddAnnotation struct {
	Annotation annotation.Annotation
}

// DeleteAnnotation removes an annotation by id. A missing id is a
// no-op: a local delete can race a remote eviction.
type DeleteAnnotation struct {
	ID string
}

// UpdateAnnotation updates note and/or color of an annotation by id.
// A missing id is a no-op. Nil fields are left unchanged.
type UpdateAnnotation struct {
	ID    string
	Note  *string
	Color *string
}

// SetBookmarks replaces the bookmark list.
type SetBookmarks struct {
	Bookmarks []annotation.Bookmark
}

// AddBookmark inserts one bookmark.
type AddBookmark struct {
	Bookmark annotation.Bookmark
}

// DeleteBookmark removes a bookmark by id; missing ids are no-ops.
type DeleteBookmark struct {
	ID string
}

// SetLoading flips a named loading flag.
type SetLoading struct {
	Key     LoadKey
	Loading bool
}

// SetEditingTarget records which annotation is being edited; empty
// clears it.
type SetEditingTarget struct {
	ID string
}

// Session actions.

// StartSession begins a reading session: it stamps the clock and
// starting unit and always marks the window active.
type StartSession struct {
	Unit int
	At   time.Time
}

// ResetSession restamps the clock and starting unit but preserves the
// window-active flag, unlike StartSession.
type ResetSession struct {
	Unit int
	At   time.Time
}

// SetWindowActive records window focus/visibility.
type SetWindowActive struct {
	Active bool
}

func (SetDocument) action()         {}
func (SetCurrentUnit) action()      {}
func (SetUnitInput) action()        {}
func (AdjustScale) action()         {}
func (SetScale) action()            {}
func (Rotate) action()              {}
func (ToggleFullscreen) action()    {}
func (SetTextSelection) action()    {}
func (SetColorFilter) action()      {}
func (SetCustomBackground) action() {}
func (TogglePanel) action()         {}
func (CloseAllPanels) action()      {}
func (SetAnnotations) action()      {}
func (AddAnnotation) action()       {}
func (DeleteAnnotation) action()    {}
func (UpdateAnnotation) action()    {}
func (SetBookmarks) action()        {}
func (AddBookmark) action()         {}
func (DeleteBookmark) action()      {}
func (SetLoading) action()          {}
func (SetEditingTarget) action()    {}
func (StartSession) action()        {}
func (ResetSession) action()        {}
func (SetWindowActive) action()     {}
