package js

import (
	"strconv"

	"particlex/pkg/lazyload"

	"github.com/dop251/goja"
)

// registerLazyLoad exposes l as the global `lazyload` object.
func registerLazyLoad(ctx *domContext, l *lazyload.Loader) {
	vm := ctx.vm
	obj := vm.NewObject()

	obj.Set("observe", func(call goja.FunctionCall) goja.Value {
		if err := l.Observe(ctx.candidates(call.Argument(0))); err != nil {
			panic(vm.NewTypeError("lazyload.observe: %v", err))
		}
		return vm.ToValue(l.Pending())
	})
	obj.Set("scan", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(len(l.Scan()))
	})
	obj.Set("invalidate", func(goja.FunctionCall) goja.Value {
		return vm.ToValue(l.Invalidate())
	})

	getter := func(name string, fn func() any) {
		obj.DefineAccessorProperty(name, vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(fn())
		}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	}
	getter("pending", func() any { return l.Pending() })
	getter("loaded", func() any { return l.Loaded() })
	getter("generation", func() any { return l.Cache().Generation() })

	vm.Set("lazyload", obj)
}

// candidates adapts a script value for lazyload.Loader.Observe. Objects
// with a numeric length become an ArrayLike; anything else is handed
// over as its exported Go value and rejected there.
func (ctx *domContext) candidates(v goja.Value) any {
	if obj, ok := v.(*goja.Object); ok {
		if _, isFn := goja.AssertFunction(obj); !isFn {
			if n, ok := arrayLength(obj); ok {
				return &jsArrayLike{ctx: ctx, obj: obj, n: n}
			}
		}
	}
	return v.Export()
}

func arrayLength(obj *goja.Object) (int, bool) {
	v := obj.Get("length")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return 0, false
	}
	switch v.Export().(type) {
	case int64, float64:
		return int(v.ToInteger()), true
	}
	return 0, false
}

// jsArrayLike reads a script array or node list by index. Items that
// are not element proxies read as nil and are skipped by the registry.
type jsArrayLike struct {
	ctx *domContext
	obj *goja.Object
	n   int
}

func (a *jsArrayLike) Len() int { return a.n }

func (a *jsArrayLike) Index(i int) lazyload.Element {
	if n := a.ctx.unwrapNode(a.obj.Get(strconv.Itoa(i))); n != nil {
		return n
	}
	return nil
}
