// Package js runs page scripts with goja. Scripts see a small browser
// surface: console, document, window and, when a loader is attached,
// a lazyload object that feeds element lists to it.
package js

import (
	"fmt"
	"log/slog"

	"particlex/pkg/lazyload"
	"particlex/pkg/page"

	"github.com/dop251/goja"
)

// Engine executes JavaScript against a headless page.
type Engine struct {
	vm     *goja.Runtime
	page   *page.Page
	loader *lazyload.Loader
	dom    *domContext
	logger *slog.Logger
}

type Option func(*Engine)

// WithLoader exposes l to scripts as the lazyload global.
func WithLoader(l *lazyload.Loader) Option {
	return func(e *Engine) { e.loader = l }
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates a JS engine bound to p with a fresh goja runtime.
func New(p *page.Page, opts ...Option) *Engine {
	e := &Engine{vm: goja.New(), page: p, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "js")

	c := &consoleAPI{logger: e.logger}
	c.register(e.vm)
	e.dom = registerDocument(e.vm, p)
	registerWindow(e.dom, e.logger)
	if e.loader != nil {
		registerLazyLoad(e.dom, e.loader)
	}
	return e
}

// Execute runs the page's own scripts in document order and stops at
// the first failure.
func (e *Engine) Execute() error {
	for i, script := range e.page.Document().Scripts {
		if _, err := e.vm.RunString(script); err != nil {
			return fmt.Errorf("script %d: %w", i, err)
		}
	}
	return nil
}

// Run evaluates src, naming it in stack traces.
func (e *Engine) Run(name, src string) (goja.Value, error) {
	v, err := e.vm.RunScript(name, src)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}
