package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"particlex/pkg/html"
	"particlex/pkg/images"
	"particlex/pkg/js"
	"particlex/pkg/lazyload"
	"particlex/pkg/page"
	"particlex/pkg/render"
)

type lazyLoadFlags struct {
	script   string
	scrolls  []float64
	resizes  []string
	png      string
	pngWidth int
	report   string
	baseDir  string
}

// trace is the YAML report of one lazyload run.
type trace struct {
	Page     string       `yaml:"page"`
	Viewport string       `yaml:"viewport"`
	Steps    []traceStep  `yaml:"steps"`
	Images   []traceImage `yaml:"images"`
	Summary  traceSummary `yaml:"summary"`
}

type traceStep struct {
	Action     string   `yaml:"action"`
	ScrollTop  float64  `yaml:"scroll_top"`
	Generation uint64   `yaml:"generation"`
	Loaded     []string `yaml:"loaded,omitempty"`
	Pending    int      `yaml:"pending"`
}

type traceImage struct {
	ID      string  `yaml:"id,omitempty"`
	Src     string  `yaml:"src,omitempty"`
	Top     float64 `yaml:"top"`
	Pending bool    `yaml:"pending"`
}

type traceSummary struct {
	Loaded  int `yaml:"loaded"`
	Pending int `yaml:"pending"`
}

func newLazyLoadCmd(a *app) *cobra.Command {
	f := &lazyLoadFlags{}
	cmd := &cobra.Command{
		Use:   "lazyload <page.html>",
		Short: "Replay lazy image loading against a page",
		Long: `Open a page headlessly, fire its load notification and scroll through it,
printing each image as it loads.

Without --script the page is scrolled to each --scroll position in turn;
each --resize step then changes the viewport and rescans at the current
position. With --script, the script drives the page through the window,
document and lazyload globals instead.`,
		Example: `  particlex lazyload public/post.html --scroll 0,600,1200
  particlex lazyload post.html --resize 400x600 --png post.png --report trace.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runLazyLoad(cmd, args[0], f)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.script, "script", "", "JavaScript file that drives the page")
	fl.Float64SliceVar(&f.scrolls, "scroll", []float64{0}, "scroll positions to visit, in order")
	fl.StringSliceVar(&f.resizes, "resize", nil, "viewport sizes (WxH) to resize to after scrolling")
	fl.StringVar(&f.png, "png", "", "write a snapshot of the final state to this PNG file")
	fl.IntVar(&f.pngWidth, "png-width", render.DefaultWidth, "snapshot width in pixels")
	fl.StringVar(&f.report, "report", "", "write a YAML trace to this file (- for stdout)")
	fl.StringVar(&f.baseDir, "base-dir", "", "directory site-relative image paths resolve against (default: the page's directory)")
	fl.String("attribute", "", "deferred-source attribute")
	fl.Bool("scan-on-load", false, "scan once as soon as the page loads")
	fl.Float64("width", 0, "viewport width")
	fl.Float64("height", 0, "viewport height")
	a.bindFlags(cmd, bind{
		"lazyload.attribute":       "attribute",
		"lazyload.scan_on_load":    "scan-on-load",
		"lazyload.viewport_width":  "width",
		"lazyload.viewport_height": "height",
	})
	return cmd
}

func (a *app) runLazyLoad(cmd *cobra.Command, path string, f *lazyLoadFlags) error {
	ll := a.cfg.LazyLoad
	out := cmd.OutOrStdout()

	p, err := page.OpenFile(path, ll.ViewportWidth, ll.ViewportHeight, page.WithLogger(a.logger))
	if err != nil {
		return err
	}
	var justLoaded []string
	loader := lazyload.New(p,
		lazyload.WithAttribute(ll.Attribute),
		lazyload.WithSourceAttribute(ll.SourceAttribute),
		lazyload.WithScanOnLoad(ll.ScanOnLoad),
		lazyload.WithLogger(a.logger),
		lazyload.WithLoadHook(func(el lazyload.Element, url string) {
			top := 0.0
			if n, ok := el.(*html.Node); ok {
				top = p.Tree().PageTop(n)
			}
			fmt.Fprintf(out, "loaded %s at %g\n", url, top)
			justLoaded = append(justLoaded, url)
		}),
	)
	loader.Install()

	tr := &trace{
		Page:     path,
		Viewport: fmt.Sprintf("%gx%g", p.ViewportWidth(), p.ViewportHeight()),
	}
	record := func(action string) {
		tr.Steps = append(tr.Steps, traceStep{
			Action:     action,
			ScrollTop:  p.ScrollTop(),
			Generation: loader.Cache().Generation(),
			Loaded:     justLoaded,
			Pending:    loader.Pending(),
		})
		justLoaded = nil
	}

	engine := js.New(p, js.WithLoader(loader), js.WithLogger(a.logger))
	if err := engine.Execute(); err != nil {
		a.logger.Warn("page script failed", "error", err)
	}

	if f.script != "" {
		src, err := os.ReadFile(f.script)
		if err != nil {
			return fmt.Errorf("reading script: %w", err)
		}
		if _, err := engine.Run(filepath.Base(f.script), string(src)); err != nil {
			return err
		}
		record("script")
	} else {
		if err := a.drive(p, f, record); err != nil {
			return err
		}
	}

	for _, img := range p.Images(ll.Attribute) {
		id, _ := img.Node.GetAttribute("id")
		tr.Images = append(tr.Images, traceImage{ID: id, Src: img.Src, Top: img.Top, Pending: img.Pending})
	}
	tr.Summary = traceSummary{Loaded: loader.Loaded(), Pending: loader.Pending()}
	fmt.Fprintf(out, "%d loaded, %d pending\n", tr.Summary.Loaded, tr.Summary.Pending)

	if f.png != "" {
		base := f.baseDir
		if base == "" {
			base = filepath.Dir(path)
		}
		r := render.NewRenderer(
			render.WithWidth(f.pngWidth),
			render.WithAttribute(ll.Attribute),
			render.WithFetcher(images.NewFetcher(images.WithBaseDir(base), images.WithLogger(a.logger))),
			render.WithLogger(a.logger),
		)
		if err := r.SavePNG(cmd.Context(), p, f.png); err != nil {
			return fmt.Errorf("writing snapshot: %w", err)
		}
	}
	if f.report != "" {
		return writeReport(out, f.report, tr)
	}
	return nil
}

// drive fires load, visits each scroll position, then applies each
// resize and rescans in place. Listener failures are logged by the page
// and do not stop the run.
func (a *app) drive(p *page.Page, f *lazyLoadFlags, record func(string)) error {
	_ = p.Load()
	record("load")
	for _, y := range f.scrolls {
		_ = p.ScrollTo(y)
		record(fmt.Sprintf("scroll %g", y))
	}
	for _, spec := range f.resizes {
		w, h, err := parseSize(spec)
		if err != nil {
			return err
		}
		if err := p.Resize(w, h); err != nil {
			a.logger.Warn("resize listener failed", "error", err)
		}
		_ = p.ScrollBy(0)
		record("resize " + spec)
	}
	return nil
}

func parseSize(s string) (float64, float64, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	w, err1 := strconv.ParseFloat(strings.TrimSpace(ws), 64)
	h, err2 := strconv.ParseFloat(strings.TrimSpace(hs), 64)
	if err1 != nil || err2 != nil || w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("invalid size %q, want WxH", s)
	}
	return w, h, nil
}

func writeReport(stdout io.Writer, path string, v any) error {
	w := stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating report: %w", err)
		}
		defer f.Close()
		w = f
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return enc.Close()
}
