package state

import "testing"

var allPanels = []Panel{
	PanelOutline, PanelAnnotations, PanelBookmarks, PanelSearch,
	PanelSpeech, PanelSettings, PanelColors,
}

func TestReduceUI_TogglePanel(t *testing.T) {
	s := DefaultUIState()

	for _, p := range allPanels {
		s = reduceUI(s, TogglePanel{Panel: p})
		if !s.Panels.IsOpen(p) {
			t.Errorf("panel %v should be open after toggle", p)
		}
		s = reduceUI(s, TogglePanel{Panel: p})
		if s.Panels.IsOpen(p) {
			t.Errorf("panel %v should be closed after second toggle", p)
		}
	}
}

func TestReduceUI_TogglePanelIndependent(t *testing.T) {
	s := DefaultUIState()
	s = reduceUI(s, TogglePanel{Panel: PanelSearch})
	s = reduceUI(s, TogglePanel{Panel: PanelOutline})

	if !s.Panels.Search || !s.Panels.Outline {
		t.Errorf("Panels = %+v, want search and outline open", s.Panels)
	}
	if s.Panels.Bookmarks || s.Panels.Speech {
		t.Errorf("Panels = %+v, untouched panels should stay closed", s.Panels)
	}
}

// CloseAllPanels is a total reset: applying it twice yields the same
// state as once.
func TestReduceUI_CloseAllPanelsIdempotent(t *testing.T) {
	s := DefaultUIState()
	for _, p := range allPanels {
		s = reduceUI(s, TogglePanel{Panel: p})
	}

	once := reduceUI(s, CloseAllPanels{})
	twice := reduceUI(once, CloseAllPanels{})

	if once.Panels != (PanelVisibility{}) {
		t.Errorf("Panels after close-all = %+v, want all closed", once.Panels)
	}
	if once != twice {
		t.Errorf("close-all not idempotent: once %+v, twice %+v", once, twice)
	}
}

func TestReduceUI_Toggles(t *testing.T) {
	s := DefaultUIState()

	s = reduceUI(s, ToggleFullscreen{})
	if !s.Fullscreen {
		t.Error("Fullscreen should be on")
	}
	s = reduceUI(s, SetTextSelection{Enabled: true})
	if !s.TextSelection {
		t.Error("TextSelection should be on")
	}
	s = reduceUI(s, SetColorFilter{Color: "green"})
	if s.ColorFilter != "green" {
		t.Errorf("ColorFilter = %q, want green", s.ColorFilter)
	}
	s = reduceUI(s, SetCustomBackground{Background: "#202020"})
	if s.CustomBackground != "#202020" {
		t.Errorf("CustomBackground = %q, want #202020", s.CustomBackground)
	}
}

func TestPanel_String(t *testing.T) {
	tests := []struct {
		panel Panel
		want  string
	}{
		{PanelOutline, "outline"},
		{PanelAnnotations, "annotations"},
		{PanelBookmarks, "bookmarks"},
		{PanelSearch, "search"},
		{PanelSpeech, "speech"},
		{PanelSettings, "settings"},
		{PanelColors, "colors"},
		{Panel(100), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.panel.String(); got != tt.want {
			t.Errorf("Panel(%d).String() = %q, want %q", tt.panel, got, tt.want)
		}
	}
}
