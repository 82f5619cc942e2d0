package state

// Panel names one of the reader's side panels.
type Panel uint8

const (
	PanelOutline Panel = iota
	PanelAnnotations
	PanelBookmarks
	PanelSearch
	PanelSpeech
	PanelSettings
	PanelColors
)

// String returns the string representation of the panel.
func (p Panel) String() string {
	switch p {
	case PanelOutline:
		return "outline"
	case PanelAnnotations:
		return "annotations"
	case PanelBookmarks:
		return "bookmarks"
	case PanelSearch:
		return "search"
	case PanelSpeech:
		return "speech"
	case PanelSettings:
		return "settings"
	case PanelColors:
		return "colors"
	default:
		return "unknown"
	}
}

// PanelVisibility tracks which panels are open. The zero value is
// everything closed.
type PanelVisibility struct {
	Outline     bool
	Annotations bool
	Bookmarks   bool
	Search      bool
	Speech      bool
	Settings    bool
	Colors      bool
}

// IsOpen reports whether the named panel is visible.
func (v PanelVisibility) IsOpen(p Panel) bool {
	switch p {
	case PanelOutline:
		return v.Outline
	case PanelAnnotations:
		return v.Annotations
	case PanelBookmarks:
		return v.Bookmarks
	case PanelSearch:
		return v.Search
	case PanelSpeech:
		return v.Speech
	case PanelSettings:
		return v.Settings
	case PanelColors:
		return v.Colors
	default:
		return false
	}
}

func (v PanelVisibility) toggled(p Panel) PanelVisibility {
	switch p {
	case PanelOutline:
		v.Outline = !v.Outline
	case PanelAnnotations:
		v.Annotations = !v.Annotations
	case PanelBookmarks:
		v.Bookmarks = !v.Bookmarks
	case PanelSearch:
		v.Search = !v.Search
	case PanelSpeech:
		v.Speech = !v.Speech
	case PanelSettings:
		v.Settings = !v.Settings
	case PanelColors:
		v.Colors = !v.Colors
	}
	return v
}

// UIState holds chrome visibility and reader presentation toggles.
type UIState struct {
	Fullscreen       bool
	TextSelection    bool
	ColorFilter      string
	CustomBackground string
	Panels           PanelVisibility
}

// DefaultUIState returns the UI slice with every panel closed.
func DefaultUIState() UIState {
	return UIState{}
}

// reduceUI applies one action to the UI slice.
func reduceUI(s UIState, a Action) UIState {
	switch act := a.(type) {
	case ToggleFullscreen:
		s.Fullscreen = !s.Fullscreen

	case SetTextSelection:
		s.TextSelection = act.Enabled

	case SetColorFilter:
		s.ColorFilter = act.Color

	case SetCustomBackground:
		s.CustomBackground = act.Background

	case TogglePanel:
		s.Panels = s.Panels.toggled(act.Panel)

	case CloseAllPanels:
		// Total reset, independent of prior per-panel state.
		s.Panels = PanelVisibility{}
	}
	return s
}
