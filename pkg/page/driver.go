package page

import (
	"context"
	"sync"
)

// Driver feeds viewport changes from another goroutine, typically a UI
// event loop, into a page. Requests coalesce: only the latest scroll
// position and the latest viewport size are kept until the next Flush.
// The page itself is only touched by the goroutine calling Flush or Run.
type Driver struct {
	p    *Page
	wake chan struct{}

	mu        sync.Mutex
	scroll    float64
	hasScroll bool
	width     float64
	height    float64
	hasSize   bool
}

func NewDriver(p *Page) *Driver {
	return &Driver{p: p, wake: make(chan struct{}, 1)}
}

// ScrollTo requests a scroll to y.
func (d *Driver) ScrollTo(y float64) {
	d.mu.Lock()
	d.scroll, d.hasScroll = y, true
	d.mu.Unlock()
	d.signal()
}

// Resize requests a new viewport size. Non-positive sizes are ignored.
func (d *Driver) Resize(width, height float64) {
	if width <= 0 || height <= 0 {
		return
	}
	d.mu.Lock()
	d.width, d.height, d.hasSize = width, height, true
	d.mu.Unlock()
	d.signal()
}

func (d *Driver) signal() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Flush applies the pending requests and reports whether there were
// any. A resize is applied first and followed by a rescan at the
// current position unless a scroll is also pending.
func (d *Driver) Flush() bool {
	d.mu.Lock()
	scroll, hasScroll := d.scroll, d.hasScroll
	width, height, hasSize := d.width, d.height, d.hasSize
	d.hasScroll, d.hasSize = false, false
	d.mu.Unlock()

	if hasSize && (width != d.p.width || height != d.p.height) {
		if err := d.p.Resize(width, height); err != nil {
			d.p.logger.Warn("resize listener failed", "error", err)
		}
		if !hasScroll {
			scroll, hasScroll = d.p.scrollTop, true
		}
	}
	if hasScroll {
		if err := d.p.ScrollTo(scroll); err != nil {
			d.p.logger.Warn("scroll listener failed", "error", err)
		}
	}
	return hasScroll || hasSize
}

// Run flushes requests as they arrive and calls changed after each
// flush that applied something, until ctx is done.
func (d *Driver) Run(ctx context.Context, changed func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.wake:
			if d.Flush() && changed != nil {
				changed()
			}
		}
	}
}
