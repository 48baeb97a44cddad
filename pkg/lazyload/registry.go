package lazyload

import (
	"fmt"
	"reflect"
)

// ArrayLike is an indexable collection with a length, such as a live
// node list handed over from a script engine.
type ArrayLike interface {
	Len() int
	Index(i int) Element
}

// MaxCandidates bounds the length an ArrayLike may report. Lengths come
// from script objects and are not trusted.
const MaxCandidates = 1 << 20

// ToSequence copies a candidate collection into a fresh slice. It
// accepts []Element, any other slice or array whose items implement
// Element, and ArrayLike values. Nil items are skipped. Anything else,
// nil included, fails with ErrNotArrayLike, as does an ArrayLike whose
// length is negative or above MaxCandidates.
func ToSequence(v any) ([]Element, error) {
	switch c := v.(type) {
	case nil:
		return nil, fmt.Errorf("%w: <nil>", ErrNotArrayLike)
	case []Element:
		out := make([]Element, 0, len(c))
		for _, el := range c {
			if !isNil(el) {
				out = append(out, el)
			}
		}
		return out, nil
	case ArrayLike:
		n := c.Len()
		if n < 0 || n > MaxCandidates {
			return nil, fmt.Errorf("%w: length %d", ErrNotArrayLike, c.Len())
		}
		out := make([]Element, 0)
		for i := 0; i < n; i++ {
			if el := c.Index(i); !isNil(el) {
				out = append(out, el)
			}
		}
		return out, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotArrayLike, v)
	}
	out := make([]Element, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		item := rv.Index(i)
		if isNilValue(item) {
			continue
		}
		el, ok := item.Interface().(Element)
		if !ok {
			return nil, fmt.Errorf("%w: item %d of %T is %s", ErrNotElement, i, v, item.Type())
		}
		out = append(out, el)
	}
	return out, nil
}

func isNil(el Element) bool {
	return el == nil || isNilValue(reflect.ValueOf(el))
}

func isNilValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Invalid:
		return true
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

// Queue is the ordered set of elements still waiting to load. An
// element appears at most once and leaves exactly once.
type Queue struct {
	items []Element
	index map[Element]struct{}
}

func newQueue() *Queue {
	return &Queue{index: make(map[Element]struct{})}
}

func (q *Queue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}

// Items returns a copy of the pending elements in queue order.
func (q *Queue) Items() []Element {
	if q == nil {
		return nil
	}
	return append([]Element(nil), q.items...)
}

func (q *Queue) Contains(el Element) bool {
	if q == nil {
		return false
	}
	_, ok := q.index[el]
	return ok
}

func (q *Queue) push(el Element) bool {
	if _, dup := q.index[el]; dup {
		return false
	}
	q.index[el] = struct{}{}
	q.items = append(q.items, el)
	return true
}

// drain replaces the queue with the elements keep accepts and returns
// the rest in their original order. The next queue is built as a new
// slice, so dropping an element never causes its successor to be
// skipped. If keep panics, the queue still commits: elements already
// dropped are gone, the element being checked and everything after it
// stay pending.
func (q *Queue) drain(keep func(Element) bool) (dropped []Element) {
	next := make([]Element, 0, len(q.items))
	i := 0
	defer func() {
		q.items = append(next, q.items[i:]...)
	}()
	for ; i < len(q.items); i++ {
		el := q.items[i]
		if keep(el) {
			next = append(next, el)
			continue
		}
		delete(q.index, el)
		dropped = append(dropped, el)
	}
	return dropped
}

// Registry builds pending queues from candidate collections.
type Registry struct {
	attr string
}

func NewRegistry(attr string) *Registry {
	if attr == "" {
		attr = DefaultAttribute
	}
	return &Registry{attr: attr}
}

// Build snapshots candidates and queues, in order, each element that
// carries the deferred-source attribute. Repeated elements are queued
// once. On error no queue is returned.
func (r *Registry) Build(candidates any) (*Queue, error) {
	q := newQueue()
	if err := r.extend(q, candidates); err != nil {
		return nil, err
	}
	return q, nil
}

// extend appends candidates that carry the attribute and are not
// already queued. The queue is untouched if candidates is malformed.
func (r *Registry) extend(q *Queue, candidates any) error {
	elements, err := ToSequence(candidates)
	if err != nil {
		return err
	}
	for _, el := range elements {
		if _, ok := el.GetAttribute(r.attr); ok {
			q.push(el)
		}
	}
	return nil
}
