package js

import (
	"log/slog"

	"particlex/pkg/lazyload"

	"github.com/dop251/goja"
)

// registerWindow sets up the global `window` object over the page's
// viewport. Listener failures during scrollTo, resizeTo and
// dispatchLoad are logged by the page and not thrown, as in a browser.
func registerWindow(ctx *domContext, logger *slog.Logger) {
	vm, p := ctx.vm, ctx.page
	win := vm.NewObject()

	scrollArg := func(call goja.FunctionCall) float64 {
		// scrollTo(y) and scrollTo(x, y) are both accepted.
		if len(call.Arguments) >= 2 {
			return call.Arguments[1].ToFloat()
		}
		return call.Argument(0).ToFloat()
	}
	win.Set("scrollTo", func(call goja.FunctionCall) goja.Value {
		_ = p.ScrollTo(scrollArg(call))
		return goja.Undefined()
	})
	win.Set("scrollBy", func(call goja.FunctionCall) goja.Value {
		_ = p.ScrollBy(scrollArg(call))
		return goja.Undefined()
	})
	win.Set("resizeTo", func(call goja.FunctionCall) goja.Value {
		w, h := call.Argument(0).ToFloat(), call.Argument(1).ToFloat()
		if !(w > 0 && h > 0) {
			panic(vm.NewTypeError("window.resizeTo: invalid viewport %vx%v", w, h))
		}
		_ = p.Resize(w, h)
		return goja.Undefined()
	})
	win.Set("dispatchLoad", func(goja.FunctionCall) goja.Value {
		_ = p.Load()
		return goja.Undefined()
	})
	win.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		ev := lazyload.Event(call.Argument(0).String())
		fn, ok := goja.AssertFunction(call.Argument(1))
		if !ok {
			panic(vm.NewTypeError("window.addEventListener: listener is not a function"))
		}
		p.AddEventListener(ev, func() error {
			_, err := fn(goja.Undefined())
			return err
		})
		logger.Debug("script listener added", "event", string(ev))
		return goja.Undefined()
	})

	getter := func(name string, fn func() any) {
		win.DefineAccessorProperty(name, vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(fn())
		}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	getter("scrollY", func() any { return p.ScrollTop() })
	getter("pageYOffset", func() any { return p.ScrollTop() })
	getter("innerHeight", func() any { return p.ViewportHeight() })
	getter("innerWidth", func() any { return p.ViewportWidth() })

	vm.Set("window", win)
}
