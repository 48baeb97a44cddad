package js

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"particlex/pkg/html"
	"particlex/pkg/page"

	"github.com/dop251/goja"
)

// domContext holds shared state for DOM bindings. Proxies are cached
// per node so the same JS object comes back for the same *html.Node
// (scripts compare elements with ===).
type domContext struct {
	vm    *goja.Runtime
	page  *page.Page
	cache map[*html.Node]*goja.Object
	nodes map[*goja.Object]*html.Node
}

func newDOMContext(vm *goja.Runtime, p *page.Page) *domContext {
	return &domContext{
		vm:    vm,
		page:  p,
		cache: make(map[*html.Node]*goja.Object),
		nodes: make(map[*goja.Object]*html.Node),
	}
}

// registerDocument sets up the global `document` object.
func registerDocument(vm *goja.Runtime, p *page.Page) *domContext {
	ctx := newDOMContext(vm, p)
	doc := p.Document()

	docObj := vm.NewObject()
	docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		return ctx.proxyOrNull(doc.Root.GetElementByID(call.Arguments[0].String()))
	})
	docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.nodeList(nil)
		}
		return ctx.nodeList(doc.Root.GetElementsByTagName(call.Arguments[0].String()))
	})
	docObj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.elementProxy(html.NewElement(strings.ToLower(call.Arguments[0].String()), nil))
	})
	docObj.DefineAccessorProperty("body", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return ctx.proxyOrNull(doc.Body())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)
	docObj.DefineAccessorProperty("documentElement", vm.ToValue(func(goja.FunctionCall) goja.Value {
		return ctx.proxyOrNull(doc.DocumentElement())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	vm.Set("document", docObj)
	return ctx
}

func (ctx *domContext) proxyOrNull(n *html.Node) goja.Value {
	if n == nil {
		return goja.Null()
	}
	return ctx.elementProxy(n)
}

// elementProxy creates (or retrieves from cache) a JS object wrapping node.
func (ctx *domContext) elementProxy(node *html.Node) *goja.Object {
	if v, ok := ctx.cache[node]; ok {
		return v
	}
	v := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.cache[node] = v
	ctx.nodes[v] = node
	return v
}

// unwrapNode returns the node behind an element proxy, or nil.
func (ctx *domContext) unwrapNode(val goja.Value) *html.Node {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return nil
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[obj]
}

// relayout brings geometry up to date after a script mutation.
func (ctx *domContext) relayout() {
	ctx.page.Relayout()
}

// nodeList wraps a snapshot of nodes in an array-like, non-Array object
// with length, item() and numeric keys.
func (ctx *domContext) nodeList(nodes []*html.Node) *goja.Object {
	return ctx.vm.NewDynamicObject(&nodeListAccessor{ctx: ctx, nodes: nodes})
}

type nodeListAccessor struct {
	ctx   *domContext
	nodes []*html.Node
}

func (l *nodeListAccessor) index(key string) (int, bool) {
	i, err := strconv.Atoi(key)
	if err != nil || i < 0 || i >= len(l.nodes) {
		return 0, false
	}
	return i, true
}

func (l *nodeListAccessor) Get(key string) goja.Value {
	switch key {
	case "length":
		return l.ctx.vm.ToValue(len(l.nodes))
	case "item":
		return l.ctx.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			i := int(call.Argument(0).ToInteger())
			if i < 0 || i >= len(l.nodes) {
				return goja.Null()
			}
			return l.ctx.elementProxy(l.nodes[i])
		})
	}
	if i, ok := l.index(key); ok {
		return l.ctx.elementProxy(l.nodes[i])
	}
	return goja.Undefined()
}

func (l *nodeListAccessor) Set(string, goja.Value) bool { return false }

func (l *nodeListAccessor) Has(key string) bool {
	if key == "length" || key == "item" {
		return true
	}
	_, ok := l.index(key)
	return ok
}

func (l *nodeListAccessor) Delete(string) bool { return false }

func (l *nodeListAccessor) Keys() []string {
	keys := make([]string, len(l.nodes))
	for i := range l.nodes {
		keys[i] = strconv.Itoa(i)
	}
	return keys
}

// elementAccessor implements goja.DynamicObject to intercept property
// access on element proxies.
type elementAccessor struct {
	ctx  *domContext
	node *html.Node
}

var elementKeys = []string{
	"tagName", "id", "src", "textContent",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute",
	"offsetTop", "offsetParent", "parentElement", "children",
	"appendChild", "remove", "style",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm

	switch key {
	case "tagName":
		return vm.ToValue(strings.ToUpper(e.node.TagName))
	case "id", "src":
		v, _ := e.node.GetAttribute(key)
		return vm.ToValue(v)
	case "textContent":
		return vm.ToValue(e.node.TextContent())
	case "getAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			val, ok := e.node.GetAttribute(call.Argument(0).String())
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 2 {
				panic(vm.NewTypeError("Failed to execute 'setAttribute' on 'Element': 2 arguments required"))
			}
			e.node.SetAttribute(call.Arguments[0].String(), call.Arguments[1].String())
			e.ctx.relayout()
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			return vm.ToValue(e.node.HasAttribute(call.Argument(0).String()))
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			e.node.RemoveAttribute(call.Argument(0).String())
			e.ctx.relayout()
			return goja.Undefined()
		})
	case "offsetTop":
		return vm.ToValue(e.ctx.page.OffsetTop(e.node))
	case "offsetParent":
		if parent, ok := e.ctx.page.OffsetParent(e.node).(*html.Node); ok {
			return e.ctx.elementProxy(parent)
		}
		return goja.Null()
	case "parentElement":
		if p := e.node.Parent; p != nil && p.Type == html.ElementNode && p.TagName != "document" {
			return e.ctx.elementProxy(p)
		}
		return goja.Null()
	case "children":
		var kids []*html.Node
		for _, c := range e.node.Children {
			if c.Type == html.ElementNode {
				kids = append(kids, c)
			}
		}
		return e.ctx.nodeList(kids)
	case "appendChild":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			child := e.ctx.unwrapNode(call.Argument(0))
			if child == nil {
				panic(vm.NewTypeError("Failed to execute 'appendChild' on 'Node': parameter 1 is not of type 'Node'"))
			}
			e.node.AddChild(child)
			e.ctx.relayout()
			return call.Argument(0)
		})
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if e.node.Parent != nil {
				e.node.Parent.RemoveChild(e.node)
				e.ctx.relayout()
			}
			return goja.Undefined()
		})
	case "style":
		return vm.NewDynamicObject(&styleAccessor{ctx: e.ctx, node: e.node})
	}
	return goja.Undefined()
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "id", "src":
		e.node.SetAttribute(key, val.String())
	case "textContent":
		e.node.Children = nil
		if s := val.String(); s != "" {
			e.node.AppendText(s)
		}
		e.ctx.relayout()
	default:
		return false
	}
	return true
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(string) bool { return false }

func (e *elementAccessor) Keys() []string {
	return append([]string(nil), elementKeys...)
}

// styleAccessor maps camelCase property access onto the node's inline
// style attribute.
type styleAccessor struct {
	ctx  *domContext
	node *html.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	return s.ctx.vm.ToValue(parseInlineStyle(s.attr())[camelToKebab(key)])
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	styles := parseInlineStyle(s.attr())
	styles[camelToKebab(key)] = val.String()
	s.store(styles)
	return true
}

func (s *styleAccessor) Has(string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	styles := parseInlineStyle(s.attr())
	delete(styles, camelToKebab(key))
	s.store(styles)
	return true
}

func (s *styleAccessor) Keys() []string {
	styles := parseInlineStyle(s.attr())
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *styleAccessor) attr() string {
	v, _ := s.node.GetAttribute("style")
	return v
}

func (s *styleAccessor) store(styles map[string]string) {
	s.node.SetAttribute("style", serializeInlineStyle(styles))
	s.ctx.relayout()
}

// parseInlineStyle parses a CSS inline style string into a map.
func parseInlineStyle(s string) map[string]string {
	result := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		result[strings.TrimSpace(prop)] = strings.TrimSpace(val)
	}
	return result
}

// serializeInlineStyle converts a map back to an inline style string,
// properties sorted by name.
func serializeInlineStyle(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + m[k]
	}
	return strings.Join(parts, "; ")
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
