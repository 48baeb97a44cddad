package js

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"particlex/pkg/html"
	"particlex/pkg/lazyload"
	"particlex/pkg/logging"
	"particlex/pkg/page"
)

const article = `<html><body style="margin:0">
  <div id="spacer" style="height:100px"></div>
  <img id="a" lazy="/img/a.png" height="100">
  <div style="height:500px"></div>
  <img id="b" lazy="/img/b.png" height="100">
  <div style="height:400px"></div>
  <img id="c" lazy="/img/c.png" height="100">
  <img id="eager" src="/img/logo.png" height="0">
</body></html>`

func openPage(t *testing.T, src string) *page.Page {
	t.Helper()
	doc, err := html.Parse(src)
	require.NoError(t, err)
	return page.Open(doc, 800, 600, page.WithLogger(logging.Discard()))
}

func newEngine(t *testing.T, src string) (*Engine, *page.Page, *lazyload.Loader) {
	t.Helper()
	p := openPage(t, src)
	l := lazyload.New(p, lazyload.WithLogger(logging.Discard()))
	l.Install()
	return New(p, WithLoader(l), WithLogger(logging.Discard())), p, l
}

func run(t *testing.T, e *Engine, src string) {
	t.Helper()
	_, err := e.Run(t.Name(), src)
	require.NoError(t, err)
}

func TestGetElementById(t *testing.T) {
	e, _, _ := newEngine(t, article)
	run(t, e, `
		var el = document.getElementById("a");
		if (el === null) throw new Error("element not found");
		if (el.tagName !== "IMG") throw new Error("wrong tagName: " + el.tagName);
		if (el !== document.getElementById("a")) throw new Error("proxy identity lost");
		if (document.getElementById("nope") !== null) throw new Error("expected null");
	`)
}

func TestGetElementsByTagNameIsArrayLike(t *testing.T) {
	e, _, _ := newEngine(t, article)
	v, err := e.Run("list", `
		var imgs = document.getElementsByTagName("IMG");
		if (Array.isArray(imgs)) throw new Error("node list must not be an Array");
		if (imgs.item(1) !== imgs[1]) throw new Error("item() disagrees with indexing");
		if (imgs[9] !== undefined) throw new Error("out of range index");
		imgs.length;
	`)
	require.NoError(t, err)
	assert.Equal(t, int64(4), v.Export())
}

func TestGeometryProperties(t *testing.T) {
	e, _, _ := newEngine(t, article)
	v, err := e.Run("geometry", `
		var b = document.getElementById("b");
		if (b.offsetParent !== document.body) throw new Error("offsetParent is not body");
		if (document.body.offsetParent !== null) throw new Error("body has an offsetParent");
		b.offsetTop;
	`)
	require.NoError(t, err)
	assert.Equal(t, 700.0, v.ToFloat())
}

func TestStyleChangeRelayouts(t *testing.T) {
	e, p, _ := newEngine(t, article)
	run(t, e, `
		var s = document.getElementById("spacer");
		s.style.height = "300px";
		if (s.style.height !== "300px") throw new Error("style not stored");
	`)
	a := p.Document().Root.GetElementByID("a")
	assert.Equal(t, 300.0, p.OffsetTop(a))

	style, _ := p.Document().Root.GetElementByID("spacer").GetAttribute("style")
	assert.Equal(t, "height: 300px", style)
}

func TestWindowDrivesLoader(t *testing.T) {
	e, p, l := newEngine(t, article)
	run(t, e, `
		window.dispatchLoad();
		if (lazyload.pending !== 3) throw new Error("pending after load: " + lazyload.pending);
		window.scrollTo(0);
		if (lazyload.pending !== 2) throw new Error("pending after first scroll: " + lazyload.pending);
		window.scrollTo(0, 100);
		if (window.scrollY !== 100) throw new Error("scrollY " + window.scrollY);
		if (document.getElementById("b").src !== "/img/b.png") throw new Error("b not loaded");
	`)
	assert.Equal(t, 1, l.Pending())
	assert.Equal(t, 2, l.Loaded())
	assert.Equal(t, 100.0, p.ScrollTop())
}

func TestResizeAdvancesGeneration(t *testing.T) {
	e, p, l := newEngine(t, article)
	v, err := e.Run("resize", `
		window.resizeTo(400, 300);
		window.innerWidth + "x" + window.innerHeight + "@" + lazyload.generation;
	`)
	require.NoError(t, err)
	assert.Equal(t, "400x300@1", v.String())
	assert.Equal(t, uint64(1), l.Cache().Generation())
	assert.Equal(t, 300.0, p.ViewportHeight())

	_, err = e.Run("bad-resize", `window.resizeTo(0, 300)`)
	assert.ErrorContains(t, err, "invalid viewport")
}

func TestObserveAddsLateImages(t *testing.T) {
	e, _, l := newEngine(t, article)
	run(t, e, `
		window.dispatchLoad();
		var img = document.createElement("img");
		img.setAttribute("lazy", "/img/late.png");
		img.setAttribute("height", "10");
		document.body.appendChild(img);
		var n = lazyload.observe(document.getElementsByTagName("img"));
		if (n !== 4) throw new Error("pending after observe: " + n);
		if (img.offsetTop !== 1300) throw new Error("late image at " + img.offsetTop);
	`)
	assert.Equal(t, 4, l.Pending())

	run(t, e, `lazyload.observe([document.getElementById("c"), 42, null])`)
	assert.Equal(t, 4, l.Pending(), "already queued or not elements")
}

func TestObserveRejectsNonArrayLike(t *testing.T) {
	e, _, l := newEngine(t, article)
	run(t, e, `
		var msg = "";
		try { lazyload.observe("img"); } catch (err) { msg = err.message; }
		if (msg.indexOf("not an array-like value") < 0) throw new Error("unexpected: " + msg);
	`)
	assert.Nil(t, l.Queue(), "failed observe leaves no queue")

	_, err := e.Run("observe-undefined", `lazyload.observe()`)
	assert.ErrorContains(t, err, "not an array-like value")

	_, err = e.Run("observe-huge", `lazyload.observe({length: 1e15})`)
	assert.ErrorContains(t, err, "not an array-like value")
	assert.Nil(t, l.Queue())
}

func TestScriptListeners(t *testing.T) {
	e, p, _ := newEngine(t, article)
	run(t, e, `
		var hits = 0;
		window.addEventListener("scroll", function () { hits++; });
		window.addEventListener("scroll", function () { throw new Error("listener broke"); });
	`)
	err := p.ScrollTo(50)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listener broke")

	v, err := e.Run("hits", `hits`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v.Export())

	_, err = e.Run("bad-listener", `window.addEventListener("scroll", 3)`)
	assert.ErrorContains(t, err, "not a function")
}

func TestConsoleLogsThroughSlog(t *testing.T) {
	var buf bytes.Buffer
	p := openPage(t, article)
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	e := New(p, WithLogger(logger))

	run(t, e, `console.warn("offset", document.getElementById("c").offsetTop)`)
	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="offset 1200"`)
	assert.Contains(t, out, "component=js")
}

func TestExecutePageScripts(t *testing.T) {
	p := openPage(t, `<body><p id="t">x</p><script>document.getElementById("t").textContent = "changed";</script></body>`)
	require.NoError(t, New(p).Execute())
	assert.Equal(t, "changed", p.Document().Root.GetElementByID("t").TextContent())

	p = openPage(t, `<body><script>var ok = 1;</script><script>throw new Error("boom");</script></body>`)
	err := New(p).Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "script 1")
}

func TestLoaderGlobalIsOptional(t *testing.T) {
	e := New(openPage(t, article))
	v, err := e.Run("typeof", `typeof lazyload`)
	require.NoError(t, err)
	assert.Equal(t, "undefined", v.String())
}

func TestCamelToKebab(t *testing.T) {
	tests := []struct {
		input, want string
	}{
		{"color", "color"},
		{"backgroundColor", "background-color"},
		{"marginTop", "margin-top"},
		{"borderTopWidth", "border-top-width"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, camelToKebab(tt.input))
	}
}

func TestInlineStyleRoundTrip(t *testing.T) {
	m := parseInlineStyle("position: relative; top:4px;;bogus")
	assert.Equal(t, map[string]string{"position": "relative", "top": "4px"}, m)
	assert.Equal(t, "position: relative; top: 4px", serializeInlineStyle(m))
}
