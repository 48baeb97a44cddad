package layout

import (
	"particlex/pkg/css"
	"particlex/pkg/html"
)

// OffsetParent mirrors HTMLElement.offsetParent: the nearest positioned
// ancestor, or <body> when there is none. It is nil for <body> and
// <html> themselves, for fixed boxes, and for nodes without a box.
func (t *Tree) OffsetParent(n *html.Node) *html.Node {
	if p := t.offsetParentBox(t.Box(n)); p != nil {
		return p.Node
	}
	return nil
}

func (t *Tree) offsetParentBox(b *Box) *Box {
	if b == nil || b.Position == css.PositionFixed {
		return nil
	}
	switch b.Node.TagName {
	case "body", "html":
		return nil
	}
	for p := b.Parent; p != nil; p = p.Parent {
		if p.IsPositioned() || p.Node.TagName == "body" {
			return p
		}
	}
	return nil
}

// OffsetTop mirrors HTMLElement.offsetTop: the distance from the top
// border edge of n to the padding edge of its offset parent, or to the
// top of the page when n has no offset parent. Nodes without a box
// report 0.
func (t *Tree) OffsetTop(n *html.Node) float64 {
	b := t.Box(n)
	if b == nil {
		return 0
	}
	p := t.offsetParentBox(b)
	if p == nil {
		return b.Y
	}
	return b.Y - (p.Y + p.Border.Top)
}

// PageTop sums OffsetTop along the offset parent chain.
func (t *Tree) PageTop(n *html.Node) float64 {
	var sum float64
	for cur := n; cur != nil; cur = t.OffsetParent(cur) {
		sum += t.OffsetTop(cur)
	}
	return sum
}
