package lazyload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToSequence(t *testing.T) {
	a, b := newImage("a", 0), newImage("b", 0)

	tests := []struct {
		name string
		in   any
		want []Element
	}{
		{"element slice", []Element{a, nil, b}, []Element{a, b}},
		{"typed slice", []*fakeElement{a, nil, b}, []Element{a, b}},
		{"array", [2]*fakeElement{b, a}, []Element{b, a}},
		{"array-like", elementList{a, b}, []Element{a, b}},
		{"nil slice", []*fakeElement(nil), []Element{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToSequence(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToSequenceIsSnapshot(t *testing.T) {
	a, b := newImage("a", 0), newImage("b", 0)
	src := []Element{a}
	got, err := ToSequence(src)
	require.NoError(t, err)
	src[0] = b
	assert.Same(t, a, got[0].(*fakeElement))
}

func TestToSequenceRejectsShapes(t *testing.T) {
	for _, in := range []any{nil, 42, "img", map[string]Element{}, struct{}{}} {
		_, err := ToSequence(in)
		require.ErrorIs(t, err, ErrNotArrayLike, "input %#v", in)
		assert.Contains(t, err.Error(), "not an array-like value")
	}

	_, err := ToSequence([]any{newImage("a", 0), "oops"})
	assert.ErrorIs(t, err, ErrNotElement)
}

// sizedList reports a length without holding that many elements.
type sizedList int

func (l sizedList) Len() int          { return int(l) }
func (sizedList) Index(int) Element { return nil }

func TestToSequenceRejectsUntrustedLengths(t *testing.T) {
	for _, n := range []int{-1, MaxCandidates + 1, 1 << 60} {
		_, err := ToSequence(sizedList(n))
		assert.ErrorIs(t, err, ErrNotArrayLike, "length %d", n)
	}

	got, err := ToSequence(sizedList(MaxCandidates))
	require.NoError(t, err)
	assert.Empty(t, got, "nil items are skipped")
}

func TestRegistryBuild(t *testing.T) {
	a, b, c := newImage("a", 0), newImage("b", 0), newImage("c", 0)
	eager := &fakeElement{name: "eager", attrs: map[string]string{"src": "/x.png"}}

	q, err := NewRegistry("").Build([]*fakeElement{a, eager, b, a, c})
	require.NoError(t, err)
	assert.Equal(t, []Element{a, b, c}, q.Items())
	assert.True(t, q.Contains(b))
	assert.False(t, q.Contains(eager))
}

func TestRegistryBuildCustomAttribute(t *testing.T) {
	img := &fakeElement{name: "x", attrs: map[string]string{"data-src": "/x.png"}}
	q, err := NewRegistry("data-src").Build([]*fakeElement{img, newImage("a", 0)})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Len())
}

func TestRegistryBuildNil(t *testing.T) {
	q, err := NewRegistry(DefaultAttribute).Build(nil)
	require.ErrorIs(t, err, ErrNotArrayLike)
	assert.Nil(t, q)
	assert.Equal(t, 0, q.Len())
}

func TestRegistrySnapshotIgnoresLaterInsertions(t *testing.T) {
	list := []*fakeElement{newImage("a", 0)}
	q, err := NewRegistry("").Build(list)
	require.NoError(t, err)
	list = append(list, newImage("b", 0))
	assert.Equal(t, 1, q.Len())
}
