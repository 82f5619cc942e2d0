package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/folio/internal/annotation"
	"github.com/dshills/folio/internal/document"
	"github.com/dshills/folio/internal/paint"
	"github.com/dshills/folio/internal/state"
)

const outlinePanelWidth = 32

func (u *UI) draw() {
	u.screen.Clear()
	width, height := u.screen.Size()
	if width < 10 || height < 3 {
		u.screen.Show()
		return
	}

	s := u.app.Store().State()

	base := tcell.StyleDefault
	if s.UI.CustomBackground != "" {
		base = base.Background(tcell.GetColor(s.UI.CustomBackground))
	}

	textWidth := width
	if s.UI.Panels.Outline && width > outlinePanelWidth*2 {
		textWidth = width - outlinePanelWidth
		u.drawOutline(textWidth, width, height-1, s)
	}

	u.drawText(textWidth, height-1, s, base)
	u.drawStatus(width, height-1, s)
	u.screen.Show()
}

func (u *UI) drawText(width, height int, s state.State, base tcell.Style) {
	unit := s.Viewer.CurrentUnit

	text, err := u.app.UnitText(context.Background(), unit)
	var segs []paint.Segment
	if err == nil {
		segs, err = u.app.PaintUnit(context.Background(), unit, u.currentLiveRange(text, unit))
	}
	if err != nil {
		drawString(u.screen, 0, 0, width, "cannot display unit: "+err.Error(), base.Foreground(tcell.ColorRed))
		return
	}

	colorByID := annotationColors(s.Data.Annotations)

	u.mu.Lock()
	scroll := u.scroll
	u.mu.Unlock()

	row, col := 0, 0
	for _, seg := range segs {
		style := base
		switch seg.Kind {
		case paint.KindAnnotation:
			hex := colorByID[seg.AnnotationID]
			if hex == "" {
				hex = annotation.HexForName("")
			}
			style = base.Background(tcell.GetColor(annotation.Tint(hex, 0.2))).
				Foreground(tcell.ColorBlack)
		case paint.KindSearch:
			style = base.Reverse(true).Bold(true)
		}

		for _, r := range seg.Text {
			if r == '\n' {
				row, col = row+1, 0
				continue
			}
			if col >= width {
				row, col = row+1, 0
			}
			if row-scroll >= height {
				return
			}
			if row >= scroll && r != '\r' {
				u.screen.SetContent(col, row-scroll, r, nil, style)
			}
			if r != '\r' {
				col++
			}
		}
	}
}

func (u *UI) drawOutline(x0, x1, height int, s state.State) {
	style := tcell.StyleDefault.Dim(true)
	header := tcell.StyleDefault.Bold(true)

	for y := 0; y < height; y++ {
		u.screen.SetContent(x0, y, '│', nil, style)
	}
	drawString(u.screen, x0+2, 0, x1-x0-2, "Outline", header)

	items := flattenOutline(u.app.Surface().Outline(), 0)
	for i, item := range items {
		y := i + 1
		if y >= height {
			break
		}
		line := strings.Repeat("  ", item.depth) + item.title
		st := tcell.StyleDefault
		if item.unit == s.Viewer.CurrentUnit {
			st = st.Bold(true)
		}
		drawString(u.screen, x0+2, y, x1-x0-3, line, st)
	}
}

func (u *UI) drawStatus(width, y int, s state.State) {
	u.mu.Lock()
	prompt := u.prompt
	input := u.input
	status := u.status
	matches := len(u.matches)
	matchIdx := u.matchIdx
	searching := u.searching
	progress := u.progress
	u.mu.Unlock()

	style := tcell.StyleDefault.Reverse(true)
	for x := 0; x < width; x++ {
		u.screen.SetContent(x, y, ' ', nil, style)
	}

	switch prompt {
	case promptSearch:
		drawString(u.screen, 0, y, width, "/"+input, style)
		return
	case promptGoto:
		drawString(u.screen, 0, y, width, "go to unit: "+input, style)
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, " %s  %d/%d (%d%%)", s.Viewer.DocumentID,
		s.Viewer.CurrentUnit, s.Viewer.TotalUnits, s.ProgressPercent())
	fmt.Fprintf(&b, "  %.1fx", s.Viewer.Scale)
	if s.Viewer.Rotation != 0 {
		fmt.Fprintf(&b, "  %d°", s.Viewer.Rotation)
	}
	if s.IsUnitBookmarked(s.Viewer.CurrentUnit) {
		b.WriteString("  ⚑")
	}
	if searching {
		fmt.Fprintf(&b, "  searching %d%%", progress)
	} else if matches > 0 {
		fmt.Fprintf(&b, "  match %d/%d", matchIdx+1, matches)
	}
	if u.app.Speaking() {
		b.WriteString("  ♪")
	}
	if s.Data.LoadingAnnotations || s.Data.LoadingBookmarks {
		b.WriteString("  syncing…")
	}
	if status != "" {
		b.WriteString("  " + status)
	}
	drawString(u.screen, 0, y, width, b.String(), style)
}

func drawString(screen tcell.Screen, x, y, maxWidth int, text string, style tcell.Style) {
	col := x
	for _, r := range text {
		if col-x >= maxWidth {
			break
		}
		screen.SetContent(col, y, r, nil, style)
		col++
	}
}

// annotationColors maps annotation ids to their display hex.
func annotationColors(annots []annotation.Annotation) map[string]string {
	m := make(map[string]string, len(annots))
	for _, a := range annots {
		hex := a.ColorHex
		if hex == "" {
			hex = annotation.HexForName(a.Color)
		}
		m[a.ID] = hex
	}
	return m
}

type outlineRow struct {
	title string
	unit  int
	depth int
}

// flattenOutline turns the nested outline into indented rows.
func flattenOutline(items []document.OutlineItem, depth int) []outlineRow {
	var rows []outlineRow
	for _, item := range items {
		rows = append(rows, outlineRow{title: item.Title, unit: item.Unit, depth: depth})
		rows = append(rows, flattenOutline(item.Children, depth+1)...)
	}
	return rows
}
