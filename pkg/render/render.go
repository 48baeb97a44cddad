// Package render paints snapshots of a headless page: element boxes,
// images in their pending or loaded state, and the band the viewport
// currently covers.
package render

import (
	"context"
	"image"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"github.com/nfnt/resize"

	"particlex/pkg/html"
	"particlex/pkg/images"
	"particlex/pkg/layout"
	"particlex/pkg/lazyload"
	"particlex/pkg/page"
)

// DefaultWidth is the snapshot width in pixels when none is set.
const DefaultWidth = 480

type Renderer struct {
	width   int
	attr    string
	fetcher *images.Fetcher
	logger  *slog.Logger
}

type Option func(*Renderer)

// WithWidth sets the snapshot width; the page is scaled to fit.
func WithWidth(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.width = px
		}
	}
}

// WithAttribute names the deferred-source attribute that marks an
// image as pending.
func WithAttribute(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.attr = name
		}
	}
}

// WithFetcher paints loaded images from f. Without one, loaded images
// are drawn as solid boxes.
func WithFetcher(f *images.Fetcher) Option {
	return func(r *Renderer) { r.fetcher = f }
}

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		width:  DefaultWidth,
		attr:   lazyload.DefaultAttribute,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render paints p as it stands now.
func (r *Renderer) Render(ctx context.Context, p *page.Page) image.Image {
	return r.draw(ctx, p).Image()
}

// SavePNG renders p and writes the result to filename.
func (r *Renderer) SavePNG(ctx context.Context, p *page.Page, filename string) error {
	return r.draw(ctx, p).SavePNG(filename)
}

func (r *Renderer) draw(ctx context.Context, p *page.Page) *gg.Context {
	scale := float64(r.width) / p.ViewportWidth()
	docHeight := math.Max(p.DocumentHeight(), p.ScrollTop()+p.ViewportHeight())
	height := int(math.Ceil(docHeight * scale))
	if height < 1 {
		height = 1
	}

	dc := gg.NewContext(r.width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	dc.Scale(scale, scale)

	for _, box := range p.Tree().Boxes() {
		r.drawBox(dc, box)
		if box.Node.TagName == "img" {
			r.drawImage(ctx, dc, box, scale)
		}
	}
	r.drawViewport(dc, p)
	return dc
}

func (r *Renderer) drawBox(dc *gg.Context, box *layout.Box) {
	if c, ok := box.Style.GetBackgroundColor(); ok {
		dc.SetRGB255(int(c.R), int(c.G), int(c.B))
		dc.DrawRectangle(box.X+box.Border.Left, box.Y+box.Border.Top,
			box.Width+box.Padding.Left+box.Padding.Right,
			box.Height+box.Padding.Top+box.Padding.Bottom)
		dc.Fill()
	}
	b := box.Border
	if b.Top+b.Right+b.Bottom+b.Left == 0 {
		return
	}
	dc.SetRGB(0.4, 0.4, 0.4)
	dc.SetLineWidth(math.Max(1, math.Max(math.Max(b.Top, b.Bottom), math.Max(b.Left, b.Right))))
	dc.DrawRectangle(box.X, box.Y, box.BorderBoxWidth(), box.BorderBoxHeight())
	dc.Stroke()
}

// drawImage paints an <img>: grey while it still waits on the deferred
// attribute, the fetched picture once loaded, green when the picture
// cannot be fetched.
func (r *Renderer) drawImage(ctx context.Context, dc *gg.Context, box *layout.Box, scale float64) {
	x, y, w, h := box.ContentLeft(), box.ContentTop(), box.Width, box.Height
	if w <= 0 || h <= 0 {
		return
	}
	n := box.Node
	if n.HasAttribute(r.attr) {
		dc.SetRGB(0.75, 0.75, 0.75)
		dc.DrawRectangle(x, y, w, h)
		dc.Fill()
		return
	}

	if img := r.fetch(ctx, n); img != nil {
		pw, ph := uint(math.Round(w*scale)), uint(math.Round(h*scale))
		if pw > 0 && ph > 0 {
			dc.Push()
			dc.Identity()
			dc.DrawImage(resize.Resize(pw, ph, img, resize.Bilinear),
				int(math.Round(x*scale)), int(math.Round(y*scale)))
			dc.Pop()
			return
		}
	}
	dc.SetRGB(0.2, 0.7, 0.3)
	dc.DrawRectangle(x, y, w, h)
	dc.Fill()
}

func (r *Renderer) fetch(ctx context.Context, n *html.Node) image.Image {
	src, ok := n.GetAttribute("src")
	if !ok || src == "" || r.fetcher == nil {
		return nil
	}
	img, err := r.fetcher.Image(ctx, src)
	if err != nil {
		r.logger.Warn("cannot paint image", "src", src, "error", err)
		return nil
	}
	return img
}

func (r *Renderer) drawViewport(dc *gg.Context, p *page.Page) {
	top, vh, vw := p.ScrollTop(), p.ViewportHeight(), p.ViewportWidth()
	dc.SetRGBA(0.2, 0.4, 1, 0.15)
	dc.DrawRectangle(0, top, vw, vh)
	dc.Fill()
	dc.SetRGBA(0.2, 0.4, 1, 0.8)
	dc.SetLineWidth(2)
	dc.DrawRectangle(1, top+1, vw-2, vh-2)
	dc.Stroke()
}
