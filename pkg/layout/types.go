package layout

import (
	"particlex/pkg/css"
	"particlex/pkg/html"
)

// Box is the layout result for one element. X and Y locate the border
// box in page coordinates; Width and Height are the content size.
type Box struct {
	Node     *html.Node
	Style    *css.Style
	X        float64
	Y        float64
	Width    float64
	Height   float64
	Margin   css.BoxEdge
	Padding  css.BoxEdge
	Border   css.BoxEdge
	Children []*Box
	Parent   *Box
	Position css.PositionType
}

// BorderBoxHeight is the height from the top border edge to the bottom
// border edge.
func (b *Box) BorderBoxHeight() float64 {
	return b.Border.Top + b.Padding.Top + b.Height + b.Padding.Bottom + b.Border.Bottom
}

func (b *Box) BorderBoxWidth() float64 {
	return b.Border.Left + b.Padding.Left + b.Width + b.Padding.Right + b.Border.Right
}

// ContentTop is the page Y of the content edge.
func (b *Box) ContentTop() float64 {
	return b.Y + b.Border.Top + b.Padding.Top
}

func (b *Box) ContentLeft() float64 {
	return b.X + b.Border.Left + b.Padding.Left
}

// IsPositioned returns true if the box has position != static
func (b *Box) IsPositioned() bool {
	return b.Position != css.PositionStatic
}

// InFlow reports whether the box takes up space in its parent.
func (b *Box) InFlow() bool {
	return b.Position != css.PositionAbsolute && b.Position != css.PositionFixed
}

// findNearestPositionedAncestor finds the nearest ancestor with position != static
func (b *Box) findNearestPositionedAncestor() *Box {
	for current := b.Parent; current != nil; current = current.Parent {
		if current.IsPositioned() {
			return current
		}
	}
	return nil
}

func (b *Box) shift(dx, dy float64) {
	b.X += dx
	b.Y += dy
	for _, c := range b.Children {
		c.shift(dx, dy)
	}
}

// Tree is the laid-out form of a document.
type Tree struct {
	Root  *Box
	boxes map[*html.Node]*Box
	order []*Box
}

// Box returns the box generated for n, or nil when n is detached,
// hidden, or not rendered at all.
func (t *Tree) Box(n *html.Node) *Box {
	if t == nil || n == nil {
		return nil
	}
	return t.boxes[n]
}

// Boxes returns every box in document order.
func (t *Tree) Boxes() []*Box {
	return t.order
}

// Height is the height of the scrollable document: the lowest margin
// edge of any box.
func (t *Tree) Height() float64 {
	var h float64
	for _, b := range t.order {
		if bottom := b.Y + b.BorderBoxHeight() + b.Margin.Bottom; bottom > h {
			h = bottom
		}
	}
	return h
}
