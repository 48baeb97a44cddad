package html

import (
	"fmt"
	"io"
	"strings"
	"unicode"

	xhtml "golang.org/x/net/html"
)

// Parse parses an HTML document. The HTML5 tree construction rules of
// x/net/html supply the implied <html>, <head> and <body> elements, so
// every parsed document has a body. <script> contents are collected
// into Document.Scripts and <style> contents into Document.Stylesheets;
// neither element, nor comments and doctypes, are part of the resulting
// tree.
func Parse(src string) (*Document, error) {
	return ParseReader(strings.NewReader(src))
}

func ParseReader(r io.Reader) (*Document, error) {
	root, err := xhtml.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	doc := NewDocument()
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		convert(doc, doc.Root, c)
	}
	return doc, nil
}

func convert(doc *Document, parent *Node, n *xhtml.Node) {
	switch n.Type {
	case xhtml.ElementNode:
		tag := strings.ToLower(n.Data)
		switch tag {
		case "script":
			if n.FirstChild != nil {
				doc.Scripts = append(doc.Scripts, n.FirstChild.Data)
			}
			return
		case "style":
			if n.FirstChild != nil {
				doc.Stylesheets = append(doc.Stylesheets, n.FirstChild.Data)
			}
			return
		case "template":
			return
		}
		attrs := make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			attrs[strings.ToLower(a.Key)] = a.Val
		}
		node := NewElement(tag, attrs)
		parent.AddChild(node)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			convert(doc, node, c)
		}
	case xhtml.TextNode:
		if strings.TrimSpace(n.Data) == "" {
			return
		}
		parent.AppendText(normalizeWhitespace(n.Data))
	}
}

// normalizeWhitespace collapses runs of whitespace to a single space,
// preserving a single space at boundaries.
func normalizeWhitespace(s string) string {
	hasLeading := len(s) > 0 && unicode.IsSpace(rune(s[0]))
	hasTrailing := len(s) > 0 && unicode.IsSpace(rune(s[len(s)-1]))

	result := strings.Join(strings.Fields(s), " ")
	if hasLeading {
		result = " " + result
	}
	if hasTrailing {
		result = result + " "
	}
	return result
}
