package lazyload

import (
	"log/slog"
)

type options struct {
	attr       string
	srcAttr    string
	logger     *slog.Logger
	scanOnLoad bool
	onLoad     func(el Element, url string)
}

// Option configures a Loader or Scanner.
type Option func(*options)

// WithAttribute sets the deferred-source attribute name.
func WithAttribute(name string) Option {
	return func(o *options) {
		if name != "" {
			o.attr = name
		}
	}
}

// WithSourceAttribute sets the attribute that receives the URL on load.
func WithSourceAttribute(name string) Option {
	return func(o *options) {
		if name != "" {
			o.srcAttr = name
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithScanOnLoad makes the load notification run one scan right after
// the queue is built, so images already in view load without waiting
// for the first scroll.
func WithScanOnLoad(enabled bool) Option {
	return func(o *options) { o.scanOnLoad = enabled }
}

// WithLoadHook registers fn to be called after each element loads.
func WithLoadHook(fn func(el Element, url string)) Option {
	return func(o *options) { o.onLoad = fn }
}

func buildOptions(opts []Option) options {
	o := options{
		attr:    DefaultAttribute,
		srcAttr: DefaultSourceAttribute,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Loader wires a Registry, an OffsetCache and a Scanner to an
// Environment's load, scroll and resize notifications.
type Loader struct {
	env      Environment
	opts     options
	logger   *slog.Logger
	registry *Registry
	cache    *OffsetCache
	scanner  *Scanner
	queue    *Queue
	loaded   int
	started  bool
}

func New(env Environment, opts ...Option) *Loader {
	o := buildOptions(opts)
	l := &Loader{
		env:      env,
		opts:     o,
		logger:   o.logger.With("component", "lazyload"),
		registry: NewRegistry(o.attr),
		cache:    NewOffsetCache(env),
	}
	hook := o.onLoad
	l.scanner = NewScanner(l.cache, env,
		WithAttribute(o.attr),
		WithSourceAttribute(o.srcAttr),
		WithLogger(l.logger),
		WithLoadHook(func(el Element, url string) {
			l.loaded++
			if hook != nil {
				hook(el, url)
			}
		}),
	)
	return l
}

// Install subscribes the loader to the environment's notifications.
func (l *Loader) Install() {
	l.env.AddEventListener(EventLoad, l.handleLoad)
	l.env.AddEventListener(EventScroll, l.handleScroll)
	l.env.AddEventListener(EventResize, l.handleResize)
}

func (l *Loader) handleLoad() error {
	if l.started {
		l.logger.Debug("ignoring repeated load notification")
		return nil
	}
	l.started = true
	if err := l.Observe(l.env.Candidates()); err != nil {
		return err
	}
	if l.opts.scanOnLoad {
		l.Scan()
	}
	return nil
}

func (l *Loader) handleScroll() error {
	l.Scan()
	return nil
}

func (l *Loader) handleResize() error {
	gen := l.cache.Invalidate()
	l.logger.Debug("layout generation advanced", "generation", gen)
	return nil
}

// Observe snapshots candidates into the pending queue. The first call
// builds the queue; later calls add elements that still carry the
// deferred-source attribute and are not already pending. A malformed
// collection leaves the loader unchanged.
func (l *Loader) Observe(candidates any) error {
	if l.queue == nil {
		q, err := l.registry.Build(candidates)
		if err != nil {
			l.logger.Error("cannot collect lazy images", "error", err)
			return err
		}
		l.queue = q
	} else {
		if err := l.registry.extend(l.queue, candidates); err != nil {
			l.logger.Error("cannot collect lazy images", "error", err)
			return err
		}
	}
	l.logger.Info("discovered lazy images", "count", l.queue.Len())
	return nil
}

// Scan runs one visibility pass and returns the elements it loaded.
func (l *Loader) Scan() []Element {
	if l.queue == nil {
		return nil
	}
	return l.scanner.Scan(l.queue)
}

// Invalidate advances the layout generation, as a resize would.
func (l *Loader) Invalidate() uint64 {
	return l.cache.Invalidate()
}

func (l *Loader) Pending() int { return l.queue.Len() }

// Loaded counts elements loaded so far.
func (l *Loader) Loaded() int { return l.loaded }

// Done reports whether a queue was built and has fully drained.
func (l *Loader) Done() bool { return l.queue != nil && l.queue.Len() == 0 }

func (l *Loader) Queue() *Queue { return l.queue }

func (l *Loader) Cache() *OffsetCache { return l.cache }
