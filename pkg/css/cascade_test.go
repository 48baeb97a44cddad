package css

import (
	"testing"

	"particlex/pkg/html"
)

const page = `<html><body>
<article id="post" class="post wide">
  <p>intro</p>
  <img id="first" class="lazy" lazy="/a.png">
  <img id="second" lazy="/b.png" style="height: 50px">
</article>
</body></html>`

func parse(t *testing.T) *html.Document {
	t.Helper()
	doc, err := html.Parse(page)
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestMatches(t *testing.T) {
	doc := parse(t)
	first := doc.Root.GetElementByID("first")
	second := doc.Root.GetElementByID("second")

	tests := []struct {
		sel  string
		node *html.Node
		want bool
	}{
		{"img", first, true},
		{"article img", first, true},
		{"body > img", first, false},
		{"article > img.lazy", first, true},
		{".post.wide img[lazy]", second, true},
		{".post.narrow img", second, false},
		{"p + img", first, true},
		{"p + img", second, false},
		{"p ~ img", second, true},
		{"img ~ p", first, false},
		{`img[lazy$=".png"]`, second, true},
		{`img[lazy="/a.png"]`, second, false},
		{"#post", first, false},
	}
	for _, tt := range tests {
		sel, ok := ParseSelector(tt.sel)
		if !ok {
			t.Fatalf("ParseSelector(%q) failed", tt.sel)
		}
		if got := sel.Matches(tt.node); got != tt.want {
			t.Errorf("%q matches #%s = %v, want %v", tt.sel, tt.node.Attributes["id"], got, tt.want)
		}
	}
}

func TestCascade_Order(t *testing.T) {
	doc := parse(t)
	sheets := []string{
		`img { height: 300px } .lazy { height: 200px } img { height: 250px }`,
		`@media (max-width: 500px) { article img { height: 100px } }`,
	}

	wide := NewCascade(sheets, 800)
	if h, _ := wide.Compute(doc.Root.GetElementByID("first")).GetLength("height"); h != 200 {
		t.Errorf("class rule should beat later tag rule, got %v", h)
	}
	if h, _ := wide.Compute(doc.Root.GetElementByID("second")).GetLength("height"); h != 50 {
		t.Errorf("style attribute should win, got %v", h)
	}

	narrow := NewCascade(sheets, 400)
	if h, _ := narrow.Compute(doc.Root.GetElementByID("first")).GetLength("height"); h != 200 {
		t.Errorf("class rule outranks the media rule's specificity, got %v", h)
	}
	if h, _ := narrow.Compute(doc.Root.GetElementByID("post").Children[0]).GetLength("margin-top"); h != 16 {
		t.Errorf("user agent margin for <p> missing, got %v", h)
	}
}

func TestCascade_Nil(t *testing.T) {
	var c *Cascade
	body := parse(t).Body()
	if m := c.Compute(body).GetMargin(); m.Top != 8 {
		t.Errorf("expected default body margin, got %+v", m)
	}
}
