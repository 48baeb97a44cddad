package css

import (
	"strconv"
	"strings"
)

// Style holds the declarations of a single inline style attribute, with
// shorthands already expanded into their longhand properties.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	if s == nil {
		return "", false
	}
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) GetLength(property string) (float64, bool) {
	val, ok := s.Get(property)
	if !ok {
		return 0, false
	}
	return ParseLength(val)
}

// ParseLength parses a length value ("100px" or "100"). Percentages,
// ems and keywords such as "auto" are rejected.
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(val, "px")
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// BoxEdge represents the four sides of a box (top, right, bottom, left)
type BoxEdge struct {
	Top    float64
	Right  float64
	Bottom float64
	Left   float64
}

func (s *Style) GetMargin() BoxEdge {
	return s.edge("margin-%s")
}

func (s *Style) GetPadding() BoxEdge {
	return s.edge("padding-%s")
}

func (s *Style) GetBorderWidth() BoxEdge {
	return s.edge("border-%s-width")
}

func (s *Style) edge(pattern string) BoxEdge {
	side := func(name string) float64 {
		return s.getLengthOrZero(strings.Replace(pattern, "%s", name, 1))
	}
	return BoxEdge{
		Top:    side("top"),
		Right:  side("right"),
		Bottom: side("bottom"),
		Left:   side("left"),
	}
}

func (s *Style) getLengthOrZero(property string) float64 {
	val, ok := s.GetLength(property)
	if !ok {
		return 0
	}
	return val
}

type PositionType string

const (
	PositionStatic   PositionType = "static"
	PositionRelative PositionType = "relative"
	PositionAbsolute PositionType = "absolute"
	PositionFixed    PositionType = "fixed"
)

// GetPosition returns the position type (default: static)
func (s *Style) GetPosition() PositionType {
	if pos, ok := s.Get("position"); ok {
		switch pos {
		case "relative":
			return PositionRelative
		case "absolute":
			return PositionAbsolute
		case "fixed":
			return PositionFixed
		}
	}
	return PositionStatic
}

// IsPositioned reports whether the box establishes an offset parent for
// its descendants.
func (s *Style) IsPositioned() bool {
	return s.GetPosition() != PositionStatic
}

type DisplayType string

const (
	DisplayBlock DisplayType = "block"
	DisplayNone  DisplayType = "none"
)

// GetDisplay returns the display value. Layout treats every displayed
// element as a block, so anything other than "none" reads as block.
func (s *Style) GetDisplay() DisplayType {
	if display, ok := s.Get("display"); ok && strings.TrimSpace(display) == "none" {
		return DisplayNone
	}
	return DisplayBlock
}

func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for _, decl := range strings.Split(styleAttr, ";") {
		decl = strings.TrimSpace(decl)
		if decl == "" {
			continue
		}
		property, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		property = strings.TrimSpace(strings.ToLower(property))
		value = strings.TrimSpace(value)
		value = strings.TrimSpace(strings.TrimSuffix(value, "!important"))
		expandShorthand(style, property, value)
	}
	return style
}

func expandShorthand(style *Style, property, value string) {
	switch property {
	case "margin", "padding":
		expandBoxProperty(style, property+"-%s", value)
	case "border-width":
		expandBoxProperty(style, "border-%s-width", value)
	case "border":
		expandBorderProperty(style, value)
	default:
		style.Set(property, value)
	}
}

// expandBoxProperty expands 1 to 4 value box shorthands in the usual
// top/right/bottom/left order.
func expandBoxProperty(style *Style, pattern, value string) {
	parts := strings.Fields(value)
	var t, r, b, l string
	switch len(parts) {
	case 1:
		t, r, b, l = parts[0], parts[0], parts[0], parts[0]
	case 2:
		t, r, b, l = parts[0], parts[1], parts[0], parts[1]
	case 3:
		t, r, b, l = parts[0], parts[1], parts[2], parts[1]
	case 4:
		t, r, b, l = parts[0], parts[1], parts[2], parts[3]
	default:
		return
	}
	set := func(side, v string) {
		style.Set(strings.Replace(pattern, "%s", side, 1), v)
	}
	set("top", t)
	set("right", r)
	set("bottom", b)
	set("left", l)
}

// expandBorderProperty expands "1px solid black" style shorthands.
func expandBorderProperty(style *Style, value string) {
	for _, part := range strings.Fields(value) {
		switch {
		case strings.HasSuffix(part, "px"):
			expandBoxProperty(style, "border-%s-width", part)
		case part == "solid" || part == "dotted" || part == "dashed" || part == "double" || part == "none":
			style.Set("border-style", part)
		default:
			style.Set("border-color", part)
		}
	}
}

type Color struct {
	R, G, B uint8
}

var namedColors = map[string]Color{
	"red":    {255, 0, 0},
	"green":  {0, 128, 0},
	"blue":   {0, 0, 255},
	"yellow": {255, 255, 0},
	"white":  {255, 255, 255},
	"black":  {0, 0, 0},
	"gray":   {128, 128, 128},
	"grey":   {128, 128, 128},
	"orange": {255, 165, 0},
	"purple": {128, 0, 128},
	"pink":   {255, 192, 203},
	"navy":   {0, 0, 128},
	"teal":   {0, 128, 128},
	"silver": {192, 192, 192},
}

// ParseColor understands named colors and #rgb / #rrggbb hex notation.
func ParseColor(colorStr string) (Color, bool) {
	colorStr = strings.ToLower(strings.TrimSpace(colorStr))
	if c, ok := namedColors[colorStr]; ok {
		return c, true
	}
	if !strings.HasPrefix(colorStr, "#") {
		return Color{}, false
	}
	hex := colorStr[1:]
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return Color{}, false
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, true
}

// GetBackgroundColor returns the background color, if one is set.
func (s *Style) GetBackgroundColor() (Color, bool) {
	if v, ok := s.Get("background-color"); ok {
		return ParseColor(v)
	}
	if v, ok := s.Get("background"); ok {
		for _, part := range strings.Fields(v) {
			if c, ok := ParseColor(part); ok {
				return c, true
			}
		}
	}
	return Color{}, false
}
