package models

import (
	"fmt"
	"math"
)

// Color is an RGBA display color with channels in [0,1].
type Color struct {
	Red   float64 `json:"red"`
	Green float64 `json:"green"`
	Blue  float64 `json:"blue"`
	Alpha float64 `json:"alpha"`
}

// RGB returns an opaque color.
func RGB(r, g, b float64) Color {
	return Color{Red: r, Green: g, Blue: b, Alpha: 1}
}

// Valid reports whether every channel lies in [0,1].
func (c Color) Valid() bool {
	for _, v := range []float64{c.Red, c.Green, c.Blue, c.Alpha} {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return false
		}
	}
	return true
}

// Hex renders the color as #rrggbb, ignoring alpha. Used for terminal styling.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", channel(c.Red), channel(c.Green), channel(c.Blue))
}

func channel(v float64) int {
	v = math.Max(0, math.Min(1, v))
	return int(math.Round(v * 255))
}

// Palette holds the named colors offered when creating a habit.
var Palette = map[string]Color{
	"blue":   RGB(0.0, 0.478, 1.0),
	"green":  RGB(0.204, 0.780, 0.349),
	"orange": RGB(1.0, 0.584, 0.0),
	"red":    RGB(1.0, 0.231, 0.188),
	"purple": RGB(0.686, 0.322, 0.871),
	"cyan":   RGB(0.196, 0.678, 0.902),
	"pink":   RGB(1.0, 0.176, 0.333),
	"yellow": RGB(1.0, 0.800, 0.0),
	"indigo": RGB(0.345, 0.337, 0.839),
	"mint":   RGB(0.0, 0.780, 0.745),
}

// PaletteOrder lists Palette keys in display order.
var PaletteOrder = []string{"blue", "green", "orange", "red", "purple", "cyan", "pink", "yellow", "indigo", "mint"}

// Icons offered when creating a habit.
var Icons = []string{
	"star.fill", "heart.fill", "book.fill", "figure.run", "leaf.fill",
	"drop.fill", "moon.fill", "sun.max.fill", "brain.head.profile", "dumbbell.fill",
}

// IconGlyphs maps icon references to an emoji for terminal display.
var IconGlyphs = map[string]string{
	"star.fill":          "⭐",
	"heart.fill":         "❤️",
	"book.fill":          "📖",
	"figure.run":         "🏃",
	"leaf.fill":          "🍃",
	"drop.fill":          "💧",
	"moon.fill":          "🌙",
	"sun.max.fill":       "☀️",
	"brain.head.profile": "🧠",
	"dumbbell.fill":      "🏋️",
}

// Glyph returns the emoji for an icon reference, or the reference itself
// when it is already an emoji or unknown.
func Glyph(icon string) string {
	if g, ok := IconGlyphs[icon]; ok {
		return g
	}
	return icon
}
