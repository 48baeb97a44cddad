package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlex/pkg/html"
)

func layoutHTML(t *testing.T, src string, width float64) (*html.Document, *Tree) {
	t.Helper()
	doc, err := html.Parse(src)
	require.NoError(t, err)
	return doc, NewLayoutEngine(width, 600).Layout(doc)
}

func byID(t *testing.T, doc *html.Document, id string) *html.Node {
	t.Helper()
	n := doc.Root.GetElementByID(id)
	require.NotNil(t, n, "no element with id %q", id)
	return n
}

func TestBlockStacking(t *testing.T) {
	doc, tree := layoutHTML(t, `<body style="margin:0">
		<div id="d" style="height:100px"></div>
		<img id="i" lazy="/a.png" height="50">
		<img id="j">
	</body>`, 800)

	assert.Equal(t, 0.0, tree.Box(byID(t, doc, "d")).Y)
	img := tree.Box(byID(t, doc, "i"))
	assert.Equal(t, 100.0, img.Y)
	assert.Equal(t, 50.0, img.Height)
	j := tree.Box(byID(t, doc, "j"))
	assert.Equal(t, 150.0, j.Y)
	assert.Equal(t, DefaultImageHeight, j.Height)
	assert.Equal(t, 300.0, tree.Height())
}

func TestBodyDefaultMargin(t *testing.T) {
	doc, tree := layoutHTML(t, `<div id="d" style="height:10px"></div>`, 800)
	d := byID(t, doc, "d")

	assert.Equal(t, doc.Body(), tree.OffsetParent(d))
	assert.Equal(t, 0.0, tree.OffsetTop(d))
	assert.Nil(t, tree.OffsetParent(doc.Body()))
	assert.Equal(t, 8.0, tree.OffsetTop(doc.Body()))
	assert.Equal(t, 8.0, tree.PageTop(d))
}

func TestRelativeOffsetParent(t *testing.T) {
	doc, tree := layoutHTML(t, `<body style="margin:0">
		<div id="c" style="position:relative; top:20px; margin-top:30px; border:5px solid red">
			<section><img id="i" style="height:10px; margin-top:7px"></section>
		</div>
	</body>`, 800)
	c, i := byID(t, doc, "c"), byID(t, doc, "i")

	assert.Equal(t, 50.0, tree.Box(c).Y)
	assert.Equal(t, 62.0, tree.Box(i).Y)
	assert.Equal(t, c, tree.OffsetParent(i), "static section is skipped")
	assert.Equal(t, 7.0, tree.OffsetTop(i))
	assert.Equal(t, 50.0, tree.OffsetTop(c))
	assert.Equal(t, 57.0, tree.PageTop(i))
}

func TestAbsoluteOutOfFlow(t *testing.T) {
	doc, tree := layoutHTML(t, `<body style="margin:0">
		<div id="c" style="position:relative; height:500px">
			<img id="abs" style="position:absolute; top:300px; height:10px">
		</div>
		<img id="after" style="height:10px">
	</body>`, 800)

	assert.Equal(t, 300.0, tree.OffsetTop(byID(t, doc, "abs")))
	assert.Equal(t, 500.0, tree.Box(byID(t, doc, "after")).Y)
}

func TestFixedHasNoOffsetParent(t *testing.T) {
	doc, tree := layoutHTML(t, `<body style="margin:0"><div style="height:900px"></div>
		<img id="f" style="position:fixed; top:40px"></body>`, 800)
	f := byID(t, doc, "f")

	assert.Nil(t, tree.OffsetParent(f))
	assert.Equal(t, 40.0, tree.OffsetTop(f))
}

func TestHiddenAndDetached(t *testing.T) {
	doc, tree := layoutHTML(t, `<div style="display:none"><img id="h"></div>`, 800)
	h := byID(t, doc, "h")

	assert.Nil(t, tree.Box(h))
	assert.Nil(t, tree.OffsetParent(h))
	assert.Equal(t, 0.0, tree.OffsetTop(h))

	detached := html.NewElement("img", nil)
	assert.Nil(t, tree.OffsetParent(detached))
	assert.Equal(t, 0.0, tree.PageTop(detached))
}

func TestTextWrapsWithWidth(t *testing.T) {
	src := `<body style="margin:0"><p style="margin:0">` + strings.Repeat("a", 100) +
		`</p><img id="i" height="10"></body>`

	doc, wide := layoutHTML(t, src, 400)
	assert.Equal(t, 40.0, wide.PageTop(byID(t, doc, "i")))

	doc, narrow := layoutHTML(t, src, 200)
	assert.Equal(t, 80.0, narrow.PageTop(byID(t, doc, "i")))
}

func TestEmptyDocument(t *testing.T) {
	tree := NewLayoutEngine(800, 600).Layout(html.NewDocument())
	assert.Nil(t, tree.Root)
	assert.Equal(t, 0.0, tree.Height())
}

func TestStylesheetRules(t *testing.T) {
	src := `<html><head><style>
		body { margin: 0 }
		.banner { height: 400px }
		article img[lazy] { height: 200px; margin-bottom: 20px }
		@media (max-width: 600px) { .banner { display: none } }
	</style></head><body>
		<div id="banner" class="banner"></div>
		<article><img id="i" lazy="/a.png" height="50"><img id="j" lazy="/b.png"></article>
	</body></html>`

	doc, wide := layoutHTML(t, src, 800)
	i, j := byID(t, doc, "i"), byID(t, doc, "j")
	assert.Equal(t, 400.0, wide.PageTop(i))
	assert.Equal(t, 200.0, wide.Box(i).Height, "css height beats the height attribute")
	assert.Equal(t, 620.0, wide.PageTop(j))

	narrow := NewLayoutEngine(500, 600).Layout(doc)
	assert.Nil(t, narrow.Box(byID(t, doc, "banner")))
	assert.Equal(t, 0.0, narrow.PageTop(i))
	assert.Equal(t, 220.0, narrow.PageTop(j))
}
