package css

import (
	"strings"

	"particlex/pkg/html"
)

// Matches reports whether node is the subject of sel.
func (sel Selector) Matches(node *html.Node) bool {
	if node == nil || node.Type != html.ElementNode || len(sel.Parts) == 0 {
		return false
	}
	return sel.matchFrom(node, len(sel.Parts)-1)
}

// matchFrom matches Parts[i] against node and Parts[:i] against its
// surroundings, right to left.
func (sel Selector) matchFrom(node *html.Node, i int) bool {
	if !sel.Parts[i].Matches(node) {
		return false
	}
	if i == 0 {
		return true
	}
	switch sel.Combinators[i-1] {
	case Descendant:
		for anc := parentElement(node); anc != nil; anc = parentElement(anc) {
			if sel.matchFrom(anc, i-1) {
				return true
			}
		}
	case Child:
		if parent := parentElement(node); parent != nil {
			return sel.matchFrom(parent, i-1)
		}
	case Adjacent:
		if prev := previousElement(node); prev != nil {
			return sel.matchFrom(prev, i-1)
		}
	case Sibling:
		for prev := previousElement(node); prev != nil; prev = previousElement(prev) {
			if sel.matchFrom(prev, i-1) {
				return true
			}
		}
	}
	return false
}

// Matches reports whether node satisfies every simple selector in c.
func (c Compound) Matches(node *html.Node) bool {
	if c.Tag != "" && c.Tag != "*" && node.TagName != c.Tag {
		return false
	}
	if c.ID != "" {
		if id, _ := node.GetAttribute("id"); id != c.ID {
			return false
		}
	}
	if len(c.Classes) > 0 {
		class, _ := node.GetAttribute("class")
		have := strings.Fields(class)
		for _, want := range c.Classes {
			if !contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.Attributes {
		if !a.Matches(node) {
			return false
		}
	}
	return true
}

func (a AttributeSelector) Matches(node *html.Node) bool {
	value, ok := node.GetAttribute(a.Name)
	if !ok {
		return false
	}
	switch a.Operator {
	case "":
		return true
	case "=":
		return value == a.Value
	case "^=":
		return a.Value != "" && strings.HasPrefix(value, a.Value)
	case "$=":
		return a.Value != "" && strings.HasSuffix(value, a.Value)
	case "*=":
		return a.Value != "" && strings.Contains(value, a.Value)
	case "~=":
		return contains(strings.Fields(value), a.Value)
	case "|=":
		return value == a.Value || strings.HasPrefix(value, a.Value+"-")
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// parentElement skips the synthetic document root.
func parentElement(n *html.Node) *html.Node {
	p := n.Parent
	if p == nil || p.Type != html.ElementNode || p.TagName == "document" {
		return nil
	}
	return p
}

func previousElement(n *html.Node) *html.Node {
	if n.Parent == nil {
		return nil
	}
	var prev *html.Node
	for _, sib := range n.Parent.Children {
		if sib == n {
			return prev
		}
		if sib.Type == html.ElementNode {
			prev = sib
		}
	}
	return nil
}
