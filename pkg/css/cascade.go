package css

import (
	"sort"

	"particlex/pkg/html"
)

// User agent declarations, applied beneath every stylesheet.
var userAgent = map[string]string{
	"body": "margin: 8px",
	"p":    "margin: 16px 0",
}

// Cascade computes element styles from a document's stylesheets for a
// given viewport width.
type Cascade struct {
	sheets []*Stylesheet
	width  float64
}

// NewCascade parses each stylesheet source in document order.
func NewCascade(sources []string, viewportWidth float64) *Cascade {
	c := &Cascade{width: viewportWidth}
	for _, src := range sources {
		c.sheets = append(c.sheets, ParseStylesheet(src))
	}
	return c
}

// Compute returns node's style: user agent defaults, then matching rules
// by ascending specificity and source order, then the style attribute.
// A nil Cascade applies only the defaults and the style attribute.
func (c *Cascade) Compute(node *html.Node) *Style {
	style := ParseInlineStyle(userAgent[node.TagName])

	if c != nil {
		type match struct {
			rule  Rule
			sheet int
		}
		var matches []match
		for i, sheet := range c.sheets {
			for _, rule := range sheet.Rules {
				if rule.Media.Matches(c.width) && rule.Selector.Matches(node) {
					matches = append(matches, match{rule, i})
				}
			}
		}
		sort.SliceStable(matches, func(i, j int) bool {
			a, b := matches[i], matches[j]
			if a.rule.Selector.Specificity != b.rule.Selector.Specificity {
				return a.rule.Selector.Specificity < b.rule.Selector.Specificity
			}
			if a.sheet != b.sheet {
				return a.sheet < b.sheet
			}
			return a.rule.Order < b.rule.Order
		})
		for _, m := range matches {
			for k, v := range m.rule.Declarations {
				style.Set(k, v)
			}
		}
	}

	if inline, ok := node.GetAttribute("style"); ok {
		for k, v := range ParseInlineStyle(inline).Properties {
			style.Set(k, v)
		}
	}
	return style
}
