package css

import (
	"strconv"
	"strings"
)

// Combinator joins two compound selectors.
type Combinator int

const (
	Descendant Combinator = iota // a b
	Child                        // a > b
	Adjacent                     // a + b
	Sibling                      // a ~ b
)

// AttributeSelector is one [name], [name=value] or [name op value] test.
type AttributeSelector struct {
	Name     string
	Operator string // "", "=", "^=", "$=", "*=", "~=" or "|="
	Value    string
}

// Compound is a run of simple selectors with no combinator between them,
// such as img.lazy[data-src].
type Compound struct {
	Tag        string // "" or "*" matches any element
	ID         string
	Classes    []string
	Attributes []AttributeSelector
}

// Selector is a complex selector. Parts[i] and Parts[i+1] are joined by
// Combinators[i]; the last part is the subject.
type Selector struct {
	Raw         string
	Parts       []Compound
	Combinators []Combinator
	Specificity int
}

// MediaQuery restricts a rule to viewports within a width range. A zero
// bound is open.
type MediaQuery struct {
	MinWidth float64
	MaxWidth float64
}

// Matches reports whether a viewport of the given width satisfies q.
func (q *MediaQuery) Matches(width float64) bool {
	if q == nil {
		return true
	}
	if q.MinWidth > 0 && width < q.MinWidth {
		return false
	}
	if q.MaxWidth > 0 && width > q.MaxWidth {
		return false
	}
	return true
}

type Rule struct {
	Selector     Selector
	Declarations map[string]string
	Media        *MediaQuery
	Order        int // source position, breaks specificity ties
}

type Stylesheet struct {
	Rules []Rule
}

// ParseStylesheet parses the contents of a <style> element. Rules it
// cannot understand (unknown at-rules, unsupported selectors or media
// features) are dropped.
func ParseStylesheet(src string) *Stylesheet {
	sheet := &Stylesheet{}
	sheet.parseBlock(stripComments(src), nil)
	return sheet
}

func (s *Stylesheet) parseBlock(src string, media *MediaQuery) {
	for _, block := range splitBlocks(src) {
		prelude, body := block.prelude, block.body
		if strings.HasPrefix(prelude, "@") {
			if q, ok := parseMedia(prelude); ok {
				s.parseBlock(body, q)
			}
			continue
		}
		decls := parseDeclarations(body)
		if len(decls) == 0 {
			continue
		}
		for _, raw := range strings.Split(prelude, ",") {
			sel, ok := ParseSelector(raw)
			if !ok {
				continue
			}
			s.Rules = append(s.Rules, Rule{
				Selector:     sel,
				Declarations: decls,
				Media:        media,
				Order:        len(s.Rules),
			})
		}
	}
}

type block struct {
	prelude string
	body    string
}

// splitBlocks splits src into top-level "prelude { body }" blocks.
func splitBlocks(src string) []block {
	var blocks []block
	depth, start, open := 0, 0, 0
	for i := 0; i < len(src); i++ {
		switch src[i] {
		case '{':
			if depth == 0 {
				open = i
			}
			depth++
		case '}':
			if depth == 0 {
				start = i + 1
				continue
			}
			depth--
			if depth == 0 {
				blocks = append(blocks, block{
					prelude: strings.TrimSpace(src[start:open]),
					body:    src[open+1 : i],
				})
				start = i + 1
			}
		case ';':
			// Statement at-rules such as @import or @charset.
			if depth == 0 {
				start = i + 1
			}
		}
	}
	return blocks
}

func stripComments(src string) string {
	var sb strings.Builder
	for {
		i := strings.Index(src, "/*")
		if i < 0 {
			sb.WriteString(src)
			return sb.String()
		}
		sb.WriteString(src[:i])
		j := strings.Index(src[i+2:], "*/")
		if j < 0 {
			return sb.String()
		}
		src = src[i+2+j+2:]
	}
}

// parseMedia understands "@media [screen|all] [and] (min-width: N) and
// (max-width: M)".
func parseMedia(prelude string) (*MediaQuery, bool) {
	rest, ok := strings.CutPrefix(prelude, "@media")
	if !ok {
		return nil, false
	}
	q := &MediaQuery{}
	for _, term := range strings.Split(rest, " and ") {
		term = strings.TrimSpace(term)
		switch {
		case term == "" || term == "screen" || term == "all":
		case strings.HasPrefix(term, "(") && strings.HasSuffix(term, ")"):
			name, val, ok := strings.Cut(term[1:len(term)-1], ":")
			if !ok {
				return nil, false
			}
			px, ok := ParseLength(val)
			if !ok {
				return nil, false
			}
			switch strings.TrimSpace(name) {
			case "min-width":
				q.MinWidth = px
			case "max-width":
				q.MaxWidth = px
			default:
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return q, true
}

func parseDeclarations(body string) map[string]string {
	return ParseInlineStyle(body).Properties
}

// ParseSelector parses one complex selector. Pseudo-classes and
// pseudo-elements are not supported.
func ParseSelector(raw string) (Selector, bool) {
	raw = strings.TrimSpace(raw)
	sel := Selector{Raw: raw}
	tokens, ok := tokenizeSelector(raw)
	if !ok || len(tokens) == 0 {
		return sel, false
	}
	pending := Descendant
	expectCompound := true
	for _, tok := range tokens {
		if comb, isComb := combinators[tok]; isComb {
			if expectCompound {
				return sel, false
			}
			pending = comb
			expectCompound = true
			continue
		}
		c, spec, ok := parseCompound(tok)
		if !ok {
			return sel, false
		}
		if len(sel.Parts) > 0 {
			sel.Combinators = append(sel.Combinators, pending)
		}
		sel.Parts = append(sel.Parts, c)
		sel.Specificity += spec
		pending = Descendant
		expectCompound = false
	}
	return sel, !expectCompound
}

var combinators = map[string]Combinator{">": Child, "+": Adjacent, "~": Sibling}

// tokenizeSelector splits a selector into compounds and explicit
// combinators, leaving anything inside [...] untouched.
func tokenizeSelector(raw string) ([]string, bool) {
	var tokens []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	inBracket := false
	for i := 0; i < len(raw); i++ {
		ch := raw[i]
		switch {
		case inBracket:
			cur.WriteByte(ch)
			inBracket = ch != ']'
		case ch == '[':
			cur.WriteByte(ch)
			inBracket = true
		case ch == ':':
			return nil, false
		case ch == '>' || ch == '+' || ch == '~':
			flush()
			tokens = append(tokens, string(ch))
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '\f':
			flush()
		default:
			cur.WriteByte(ch)
		}
	}
	if inBracket {
		return nil, false
	}
	flush()
	return tokens, true
}

// parseCompound parses something like div#main.post[lazy]. Specificity
// counts ids as 100, classes and attributes as 10 and tags as 1.
func parseCompound(s string) (Compound, int, bool) {
	var c Compound
	spec := 0
	i := 0
	name := func() string {
		j := i
		for j < len(s) && !strings.ContainsRune("#.[", rune(s[j])) {
			j++
		}
		n := s[i:j]
		i = j
		return n
	}
	if s[0] != '#' && s[0] != '.' && s[0] != '[' {
		c.Tag = strings.ToLower(name())
		if c.Tag != "*" {
			spec++
		}
	}
	for i < len(s) {
		switch s[i] {
		case '#':
			i++
			if c.ID = name(); c.ID == "" {
				return c, 0, false
			}
			spec += 100
		case '.':
			i++
			class := name()
			if class == "" {
				return c, 0, false
			}
			c.Classes = append(c.Classes, class)
			spec += 10
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, 0, false
			}
			a, ok := parseAttribute(s[i+1 : i+end])
			if !ok {
				return c, 0, false
			}
			c.Attributes = append(c.Attributes, a)
			spec += 10
			i += end + 1
		default:
			return c, 0, false
		}
	}
	return c, spec, true
}

func parseAttribute(s string) (AttributeSelector, bool) {
	for _, op := range []string{"^=", "$=", "*=", "~=", "|=", "="} {
		if name, val, ok := strings.Cut(s, op); ok {
			if v, err := strconv.Unquote(val); err == nil {
				val = v
			} else {
				val = strings.Trim(val, `'"`)
			}
			return AttributeSelector{Name: strings.ToLower(strings.TrimSpace(name)), Operator: op, Value: val}, name != ""
		}
	}
	s = strings.ToLower(strings.TrimSpace(s))
	return AttributeSelector{Name: s}, s != ""
}
