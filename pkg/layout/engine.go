package layout

import (
	"math"
	"strings"
	"unicode/utf8"

	"particlex/pkg/css"
	"particlex/pkg/html"
)

const (
	// CharWidth and LineHeight approximate text metrics; text only
	// matters here for how far it pushes later content down.
	CharWidth  = 8.0
	LineHeight = 20.0

	// DefaultImageHeight is used for images that declare no height.
	DefaultImageHeight = 150.0
)

// Elements that never generate a box.
var unrendered = map[string]bool{
	"head": true, "title": true, "meta": true, "link": true,
	"script": true, "style": true, "noscript": true, "template": true,
}

type LayoutEngine struct {
	viewport struct {
		width  float64
		height float64
	}
	tree    *Tree
	cascade *css.Cascade
}

func NewLayoutEngine(viewportWidth, viewportHeight float64) *LayoutEngine {
	le := &LayoutEngine{}
	le.viewport.width = viewportWidth
	le.viewport.height = viewportHeight
	return le
}

// Layout lays out the document as a stack of block boxes. Only the
// document element and its descendants produce boxes. The document's
// stylesheets are evaluated against the current viewport width, so a
// resize can move content through @media rules.
func (le *LayoutEngine) Layout(doc *html.Document) *Tree {
	le.tree = &Tree{boxes: make(map[*html.Node]*Box)}
	le.cascade = css.NewCascade(doc.Stylesheets, le.viewport.width)
	root := doc.DocumentElement()
	if root == nil {
		return le.tree
	}
	le.tree.Root = le.layoutNode(root, 0, 0, le.viewport.width, nil)
	return le.tree
}

// layoutNode lays out node with its border box starting at (x, y+margin)
// inside a containing width of availableWidth. It returns nil for nodes
// that generate no box.
func (le *LayoutEngine) layoutNode(node *html.Node, x, y, availableWidth float64, parent *Box) *Box {
	if node.Type != html.ElementNode || unrendered[node.TagName] {
		return nil
	}
	style := le.cascade.Compute(node)
	if style.GetDisplay() == css.DisplayNone {
		return nil
	}

	box := &Box{
		Node:     node,
		Style:    style,
		Margin:   style.GetMargin(),
		Padding:  style.GetPadding(),
		Border:   style.GetBorderWidth(),
		Parent:   parent,
		Position: style.GetPosition(),
	}
	le.tree.boxes[node] = box
	le.tree.order = append(le.tree.order, box)

	top, hasTop := style.GetLength("top")
	left, _ := style.GetLength("left")

	box.X = x + box.Margin.Left
	box.Y = y + box.Margin.Top
	switch box.Position {
	case css.PositionAbsolute:
		cbX, cbY := 0.0, 0.0
		if cb := box.findNearestPositionedAncestor(); cb != nil {
			cbX, cbY = cb.X+cb.Border.Left, cb.Y+cb.Border.Top
		}
		box.X = cbX + left + box.Margin.Left
		if hasTop {
			box.Y = cbY + top + box.Margin.Top
		}
	case css.PositionFixed:
		box.X = left + box.Margin.Left
		box.Y = top + box.Margin.Top
	}

	if w, ok := le.declaredSize(node, style, "width"); ok {
		box.Width = w
	} else {
		box.Width = availableWidth - box.Margin.Left - box.Margin.Right -
			box.Border.Left - box.Border.Right - box.Padding.Left - box.Padding.Right
	}
	if box.Width < 0 {
		box.Width = 0
	}

	cursor := box.ContentTop()
	for _, child := range node.Children {
		if child.Type == html.TextNode {
			cursor += textHeight(child.Text, box.Width)
			continue
		}
		cb := le.layoutNode(child, box.ContentLeft(), cursor, box.Width, box)
		if cb == nil {
			continue
		}
		box.Children = append(box.Children, cb)
		if cb.InFlow() {
			cursor = cb.Y + cb.BorderBoxHeight() + cb.Margin.Bottom
		}
	}

	if h, ok := le.declaredSize(node, style, "height"); ok {
		box.Height = h
	} else if node.TagName == "img" {
		box.Height = DefaultImageHeight
	} else {
		box.Height = cursor - box.ContentTop()
	}

	if box.Position == css.PositionRelative {
		box.shift(left, top)
	}
	return box
}

// declaredSize reads a size from the style, falling back to the HTML
// width/height attributes for replaced elements.
func (le *LayoutEngine) declaredSize(node *html.Node, style *css.Style, property string) (float64, bool) {
	if v, ok := style.GetLength(property); ok && v >= 0 {
		return v, true
	}
	switch node.TagName {
	case "img", "video", "iframe", "canvas":
		if attr, ok := node.GetAttribute(property); ok {
			if v, ok := css.ParseLength(attr); ok && v >= 0 {
				return v, true
			}
		}
	}
	return 0, false
}

// textHeight estimates the height of a run of text wrapped to width.
func textHeight(text string, width float64) float64 {
	n := utf8.RuneCountInString(strings.TrimSpace(text))
	if n == 0 {
		return 0
	}
	perLine := math.Floor(width / CharWidth)
	if perLine < 1 {
		perLine = 1
	}
	return math.Ceil(float64(n)/perLine) * LineHeight
}
