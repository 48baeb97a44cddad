package hook

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeFencedCode(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"no fences", "a <b> c", "a <b> c"},
		{"one block", "<p>\n```xml\n<a>1</a>\n```\n<p>", "<p>\n```xml\n&lt;a&gt;1&lt;/a&gt;\n```\n<p>"},
		{"two blocks", "```<x>``` <y> ```<z>```", "```&lt;x&gt;``` <y> ```&lt;z&gt;```"},
		{"unclosed", "intro <i>\n```\nif a < b {", "intro <i>\n```\nif a &lt; b {"},
		{"long fence", "````\n<t>\n````", "````\n&lt;t&gt;\n````"},
		{"inline code untouched", "`a<b` and ``c>d``", "`a<b` and ``c>d``"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EscapeFencedCode(tt.in))
		})
	}
}

func TestDoubleEscapeEntities(t *testing.T) {
	assert.Equal(t, "&amp;lt;div&amp;gt; &amp;", DoubleEscapeEntities("&lt;div&gt; &amp;"))
}

func TestLookupAndChain(t *testing.T) {
	before, err := Lookup("Before")
	require.NoError(t, err)
	after, err := Lookup("after")
	require.NoError(t, err)

	_, err = Lookup("during")
	assert.ErrorContains(t, err, "after, before")

	both := Chain(before, nil, after)
	assert.Equal(t, "```&amp;lt;b&amp;gt;```", both("```<b>```"))
}

func TestEscapeFencedCodeProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	pieces := []string{"a", " ", "\n", "<", ">", "`", "```"}
	piece := gen.IntRange(0, len(pieces)-1).Map(func(i int) string { return pieces[i] })
	text := gen.SliceOf(piece).Map(func(parts []string) string { return strings.Join(parts, "") })

	properties.Property("text without fences is untouched", prop.ForAll(
		func(s string) bool {
			s = strings.ReplaceAll(s, "`", "")
			return EscapeFencedCode(s) == s
		},
		text,
	))
	properties.Property("only angle brackets change", prop.ForAll(
		func(s string) bool {
			out := strings.NewReplacer("&lt;", "<", "&gt;", ">").Replace(EscapeFencedCode(s))
			return out == s
		},
		text,
	))

	properties.TestingRun(t)
}
