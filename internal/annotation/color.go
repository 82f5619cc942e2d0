package annotation

import (
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Named highlight colors offered by the reader UI. The hex values are
// what gets persisted alongside the name so other clients can render
// the highlight without this table.
var namedColors = map[string]string{
	"yellow": "#FFEB3B",
	"green":  "#4CAF50",
	"blue":   "#2196F3",
	"pink":   "#E91E63",
	"orange": "#FF9800",
	"purple": "#9C27B0",
}

// DefaultColor is used when a highlight intent carries no color.
const DefaultColor = "yellow"

// HexForName resolves a color name to its hex value. Unknown names
// fall back to the default highlight color.
func HexForName(name string) string {
	if hex, ok := namedColors[strings.ToLower(name)]; ok {
		return hex
	}
	return namedColors[DefaultColor]
}

// ValidHex reports whether s parses as a CSS-style hex color.
func ValidHex(s string) bool {
	_, err := colorful.Hex(s)
	return err == nil
}

// Tint returns the highlight color blended toward white, used for
// rendering saved highlights behind text without drowning it. amount
// is in [0,1]; 0 returns the color unchanged.
func Tint(hex string, amount float64) string {
	c, err := colorful.Hex(hex)
	if err != nil {
		c, _ = colorful.Hex(namedColors[DefaultColor])
	}
	white, _ := colorful.Hex("#FFFFFF")
	return c.BlendLab(white, amount).Clamped().Hex()
}
