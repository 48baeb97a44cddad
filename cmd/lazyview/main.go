// Command lazyview opens a page in a window and loads its lazy images as
// the view scrolls over them. Images still waiting are drawn grey and the
// viewport band marks the region the loader considers visible.
package main

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	flag "github.com/spf13/pflag"

	"particlex/pkg/config"
	"particlex/pkg/images"
	"particlex/pkg/js"
	"particlex/pkg/lazyload"
	"particlex/pkg/logging"
	"particlex/pkg/page"
	"particlex/pkg/render"
)

// viewportLayout fills its container with a single object and reports
// every new size, which is how window resizes reach the page.
type viewportLayout struct {
	size     fyne.Size
	onResize func(fyne.Size)
}

func (l *viewportLayout) Layout(objects []fyne.CanvasObject, size fyne.Size) {
	for _, o := range objects {
		o.Move(fyne.NewPos(0, 0))
		o.Resize(size)
	}
	if size != l.size {
		l.size = size
		l.onResize(size)
	}
}

func (l *viewportLayout) MinSize(objects []fyne.CanvasObject) fyne.Size {
	return fyne.NewSize(100, 100)
}

func main() {
	cfgFile := flag.String("config", "", "config file (default is ./particlex.yml)")
	baseDir := flag.String("base-dir", "", "directory site-relative image paths resolve against (default: the page's directory)")
	flag.String("attribute", "", "deferred-source attribute")
	flag.Float64("width", 0, "viewport width")
	flag.Float64("height", 0, "viewport height")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "usage: lazyview [flags] <page.html>")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0), *cfgFile, *baseDir); err != nil {
		fmt.Fprintln(os.Stderr, "lazyview:", err)
		os.Exit(1)
	}
}

func run(path, cfgFile, baseDir string) error {
	v := config.New(cfgFile)
	for key, name := range map[string]string{
		"lazyload.attribute":       "attribute",
		"lazyload.viewport_width":  "width",
		"lazyload.viewport_height": "height",
	} {
		if err := v.BindPFlag(key, flag.Lookup(name)); err != nil {
			return err
		}
	}
	if err := config.Read(v); err != nil {
		return err
	}
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})
	if err != nil {
		return err
	}
	ll := cfg.LazyLoad

	p, err := page.OpenFile(path, ll.ViewportWidth, ll.ViewportHeight, page.WithLogger(logger))
	if err != nil {
		return err
	}
	loader := lazyload.New(p,
		lazyload.WithAttribute(ll.Attribute),
		lazyload.WithSourceAttribute(ll.SourceAttribute),
		lazyload.WithScanOnLoad(true),
		lazyload.WithLogger(logger),
	)
	loader.Install()
	if err := js.New(p, js.WithLoader(loader), js.WithLogger(logger)).Execute(); err != nil {
		logger.Warn("page script failed", "error", err)
	}

	if baseDir == "" {
		baseDir = filepath.Dir(path)
	}
	fetcher := images.NewFetcher(images.WithBaseDir(baseDir), images.WithLogger(logger))

	a := app.New()
	w := a.NewWindow("lazyview - " + filepath.Base(path))

	view := canvas.NewImageFromImage(image.NewRGBA(image.Rect(0, 0, 1, 1)))
	view.FillMode = canvas.ImageFillOriginal
	status := widget.NewLabel("loading")
	scroll := container.NewVScroll(view)

	// Snapshots are drawn one page pixel per screen pixel, so scroll
	// offsets and window sizes map straight onto the page.
	redraw := func() {
		r := render.NewRenderer(
			render.WithWidth(int(p.ViewportWidth())),
			render.WithAttribute(ll.Attribute),
			render.WithFetcher(fetcher),
			render.WithLogger(logger),
		)
		show(context.Background(), p, loader, r, view, status)
	}

	driver := page.NewDriver(p)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = p.Load()
		redraw()
		driver.Run(ctx, redraw)
	}()

	scroll.OnScrolled = func(pos fyne.Position) {
		driver.ScrollTo(float64(pos.Y))
	}
	viewport := container.New(&viewportLayout{onResize: func(size fyne.Size) {
		driver.Resize(float64(size.Width), float64(size.Height))
	}}, scroll)

	w.SetContent(container.NewBorder(nil, status, nil, nil, viewport))
	w.Resize(fyne.NewSize(float32(ll.ViewportWidth), float32(ll.ViewportHeight)+40))
	w.ShowAndRun()
	return nil
}

func show(ctx context.Context, p *page.Page, loader *lazyload.Loader, r *render.Renderer, view *canvas.Image, status *widget.Label) {
	img := r.Render(ctx, p)
	text := fmt.Sprintf("%d loaded, %d pending  (scroll %g, generation %d)",
		loader.Loaded(), loader.Pending(), p.ScrollTop(), loader.Cache().Generation())
	size := img.Bounds().Size()
	fyne.Do(func() {
		view.Image = img
		view.SetMinSize(fyne.NewSize(float32(size.X), float32(size.Y)))
		view.Refresh()
		status.SetText(text)
	})
}
