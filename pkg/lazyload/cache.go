package lazyload

// Record is a memoized page offset and the generation it was measured in.
type Record struct {
	Value      float64
	Generation uint64
}

// OffsetCache memoizes each element's distance from the top of the
// page. A record is valid only while its Generation equals the cache's
// current generation; Invalidate is the only way to expire records.
type OffsetCache struct {
	geom         Geometry
	generation   uint64
	records      map[Element]Record
	computations int
}

func NewOffsetCache(geom Geometry) *OffsetCache {
	return &OffsetCache{
		geom:    geom,
		records: make(map[Element]Record),
	}
}

// Generation returns the current layout generation, starting at 0.
func (c *OffsetCache) Generation() uint64 {
	return c.generation
}

// Invalidate marks every record stale by advancing the generation by
// one. Nothing is recomputed until the next Offset call for an element.
func (c *OffsetCache) Invalidate() uint64 {
	c.generation++
	return c.generation
}

// Offset returns el's cumulative top offset, measuring it only when
// there is no record for the current generation.
func (c *OffsetCache) Offset(el Element) float64 {
	gen := c.generation
	if r, ok := c.records[el]; ok && r.Generation == gen {
		return r.Value
	}
	r := c.measure(el, gen)
	c.records[el] = r
	return r.Value
}

// measure sums each node's top offset up the positioning ancestor chain.
func (c *OffsetCache) measure(el Element, gen uint64) Record {
	c.computations++
	var sum float64
	for node := el; node != nil; node = c.geom.OffsetParent(node) {
		sum += c.geom.OffsetTop(node)
	}
	return Record{Value: sum, Generation: gen}
}

// Record returns the stored record for el, current or not.
func (c *OffsetCache) Record(el Element) (Record, bool) {
	r, ok := c.records[el]
	return r, ok
}

// Forget drops el's record.
func (c *OffsetCache) Forget(el Element) {
	delete(c.records, el)
}

// Computations counts offset walks performed since creation.
func (c *OffsetCache) Computations() int {
	return c.computations
}
