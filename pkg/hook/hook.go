// Package hook holds the text filters a blog build runs around
// markdown rendering: one before a post is rendered and one after.
package hook

import (
	"fmt"
	"sort"
	"strings"
)

// Filter rewrites post content.
type Filter func(content string) string

// Stage names when a filter runs relative to rendering.
type Stage string

const (
	BeforeRender Stage = "before"
	AfterRender  Stage = "after"
)

var stages = map[Stage]Filter{
	BeforeRender: EscapeFencedCode,
	AfterRender:  DoubleEscapeEntities,
}

// Lookup returns the filter registered for the named stage.
func Lookup(name string) (Filter, error) {
	f, ok := stages[Stage(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return nil, fmt.Errorf("unknown hook stage %q (want one of %s)", name, strings.Join(StageNames(), ", "))
	}
	return f, nil
}

// StageNames lists the registered stages in sorted order.
func StageNames() []string {
	names := make([]string, 0, len(stages))
	for s := range stages {
		names = append(names, string(s))
	}
	sort.Strings(names)
	return names
}

// Chain applies filters left to right.
func Chain(filters ...Filter) Filter {
	return func(content string) string {
		for _, f := range filters {
			if f != nil {
				content = f(content)
			}
		}
		return content
	}
}

const fence = "```"

var codeEscaper = strings.NewReplacer("<", "&lt;", ">", "&gt;")

// EscapeFencedCode escapes angle brackets inside ``` fenced blocks so
// the markdown renderer cannot mistake code for markup. A fence is any
// run of three or more backticks; text outside fences, and the fences
// themselves, are left alone. An unclosed fence runs to the end.
func EscapeFencedCode(content string) string {
	var sb strings.Builder
	sb.Grow(len(content))
	rest := content
	for {
		open := strings.Index(rest, fence)
		if open < 0 {
			sb.WriteString(rest)
			return sb.String()
		}
		bodyStart := open + backtickRun(rest[open:])
		sb.WriteString(rest[:bodyStart])
		rest = rest[bodyStart:]

		close := strings.Index(rest, fence)
		if close < 0 {
			sb.WriteString(codeEscaper.Replace(rest))
			return sb.String()
		}
		sb.WriteString(codeEscaper.Replace(rest[:close]))
		closeEnd := close + backtickRun(rest[close:])
		sb.WriteString(rest[close:closeEnd])
		rest = rest[closeEnd:]
	}
}

func backtickRun(s string) int {
	n := 0
	for n < len(s) && s[n] == '`' {
		n++
	}
	return n
}

var entityEscaper = strings.NewReplacer("&lt;", "&amp;lt;", "&gt;", "&amp;gt;")

// DoubleEscapeEntities turns rendered &lt; and &gt; into &amp;lt; and
// &amp;gt; so they survive a second round of HTML decoding.
func DoubleEscapeEntities(content string) string {
	return entityEscaper.Replace(content)
}
