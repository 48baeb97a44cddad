package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const post = `<html><body style="margin:0">
  <div style="height:100px"></div>
  <img id="a" lazy="/img/a.png" height="100">
  <div style="height:500px"></div>
  <img id="b" lazy="/img/b.png" height="100">
  <div style="height:400px"></div>
  <img id="c" lazy="/img/c.png" height="100">
</body></html>`

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLazyLoadScrolls(t *testing.T) {
	page := writeTemp(t, "post.html", post)
	out, _, err := execute(t, "", "lazyload", page, "--scroll", "0,100", "--report", "-")
	require.NoError(t, err)

	assert.Contains(t, out, "loaded /img/a.png at 100\n")
	assert.Contains(t, out, "loaded /img/b.png at 700\n")
	assert.NotContains(t, out, "/img/c.png at")
	assert.Contains(t, out, "2 loaded, 1 pending\n")

	var tr trace
	require.NoError(t, yaml.Unmarshal([]byte(out[strings.Index(out, "page:"):]), &tr))
	require.Len(t, tr.Steps, 3)
	assert.Equal(t, "load", tr.Steps[0].Action)
	assert.Equal(t, 3, tr.Steps[0].Pending, "nothing loads before the first scroll")
	assert.Equal(t, []string{"/img/b.png"}, tr.Steps[2].Loaded)
	assert.Equal(t, "800x600", tr.Viewport)
	require.Len(t, tr.Images, 3)
	assert.True(t, tr.Images[2].Pending)
	assert.Equal(t, 1200.0, tr.Images[2].Top)
}

func TestLazyLoadScanOnLoad(t *testing.T) {
	page := writeTemp(t, "post.html", post)
	out, _, err := execute(t, "", "lazyload", page, "--scan-on-load", "--report", "-")
	require.NoError(t, err)

	var tr trace
	require.NoError(t, yaml.Unmarshal([]byte(out[strings.Index(out, "page:"):]), &tr))
	assert.Equal(t, "load", tr.Steps[0].Action)
	assert.Equal(t, []string{"/img/a.png"}, tr.Steps[0].Loaded)
	assert.Equal(t, 2, tr.Steps[0].Pending)
}

func TestLazyLoadScript(t *testing.T) {
	page := writeTemp(t, "post.html", post)
	script := writeTemp(t, "drive.js", `
		window.dispatchLoad();
		for (var y = 0; y <= 1000; y += 250) window.scrollTo(0, y);
		console.log("pending", lazyload.pending);
	`)
	out, stderr, err := execute(t, "", "lazyload", page, "--script", script)
	require.NoError(t, err)
	assert.Contains(t, out, "3 loaded, 0 pending\n")
	assert.Contains(t, stderr, "pending 0")

	bad := writeTemp(t, "bad.js", `lazyload.observe(42)`)
	_, _, err = execute(t, "", "lazyload", page, "--script", bad)
	assert.ErrorContains(t, err, "not an array-like value")
}

func TestLazyLoadResize(t *testing.T) {
	page := writeTemp(t, "wrap.html", `<body style="margin:0"><div style="height:560px"></div><p style="margin:0">`+
		strings.Repeat("a", 100)+`</p><img lazy="/i.png" height="10"></body>`)
	out, _, err := execute(t, "", "lazyload", page, "--width", "200", "--resize", "400x600")
	require.NoError(t, err)
	assert.Contains(t, out, "loaded /i.png at 600\n")
	assert.Contains(t, out, "1 loaded, 0 pending\n")

	_, _, err = execute(t, "", "lazyload", page, "--resize", "wide")
	assert.ErrorContains(t, err, "want WxH")
}

func TestLazyLoadSnapshotAndConfig(t *testing.T) {
	page := writeTemp(t, "post.html", strings.ReplaceAll(post, "lazy=", "data-src="))
	cfg := writeTemp(t, "particlex.yml", "lazyload:\n  attribute: data-src\n  viewport_height: 2000\n")
	png := filepath.Join(t.TempDir(), "snap.png")

	out, _, err := execute(t, "", "--config", cfg, "lazyload", page, "--png", png, "--png-width", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "3 loaded, 0 pending\n")
	assert.FileExists(t, png)
}

func TestCDN(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "source", "post.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0o755))
	require.NoError(t, os.WriteFile(src, []byte("![x](https://xds.asia/x.png)"), 0o644))

	out, _, err := execute(t, "", "cdn", "--root", root, "--new", "https://cdn.example")
	require.NoError(t, err)
	assert.Equal(t, "scanned 1 files, rewrote 1 (1 replacements), 5 missing\n", out)

	data, err := os.ReadFile(src)
	require.NoError(t, err)
	assert.Equal(t, "![x](https://cdn.example/x.png)", string(data))
}

func TestFilter(t *testing.T) {
	out, _, err := execute(t, "```\n<b>\n```\n<i>", "filter", "before")
	require.NoError(t, err)
	assert.Equal(t, "```\n&lt;b&gt;\n```\n<i>", out)

	file := writeTemp(t, "rendered.html", "&lt;x&gt;")
	out, _, err = execute(t, "", "filter", "after", file)
	require.NoError(t, err)
	assert.Equal(t, "&amp;lt;x&amp;gt;", out)

	_, _, err = execute(t, "", "filter", "during")
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	out, _, err := execute(t, "<p>members only</p>", "encrypt", "-p", "s3cret")
	require.NoError(t, err)
	var sealed map[string]string
	require.NoError(t, yaml.Unmarshal([]byte(out), &sealed))
	require.NotEmpty(t, sealed["encrypted"])

	out, _, err = execute(t, sealed["encrypted"]+"\n", "decrypt", "-p", "s3cret", "--shasum", sealed["shasum"])
	require.NoError(t, err)
	assert.Equal(t, "<p>members only</p>", out)

	_, _, err = execute(t, sealed["encrypted"], "decrypt", "-p", "guess", "--shasum", sealed["shasum"])
	assert.ErrorContains(t, err, "wrong passphrase")
}

func TestInvalidLogLevel(t *testing.T) {
	_, _, err := execute(t, "", "--log-level", "loud", "filter", "after")
	assert.ErrorContains(t, err, "unknown log level")
}
