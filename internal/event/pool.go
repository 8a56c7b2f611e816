package event

import "fmt"

const pageSize = 256

// Chain is a singly linked list of pooled events with a tracked tail.
// The zero value is an empty chain.
type Chain struct {
	head, tail int32
	n          int
}

func (c *Chain) Len() int    { return c.n }
func (c *Chain) Empty() bool { return c.head == 0 }

// Pool is an index-addressed arena of events plus a free list. Storage is
// allocated in fixed pages so event pointers stay valid when the pool grows.
type Pool struct {
	pages [][]Event
	free  Chain
}

func NewPool() *Pool {
	p := &Pool{}
	p.grow()
	return p
}

func (p *Pool) grow() {
	page := make([]Event, pageSize)
	base := int32(len(p.pages) * pageSize)
	p.pages = append(p.pages, page)
	for i := range page {
		page[i].handle = base + int32(i) + 1
		p.Append(&p.free, &page[i])
	}
}

func (p *Pool) at(h int32) *Event {
	i := int(h - 1)
	return &p.pages[i/pageSize][i%pageSize]
}

// Cap is the number of events the pool owns.
func (p *Pool) Cap() int { return len(p.pages) * pageSize }

// Free is the number of events available without growing.
func (p *Pool) Free() int { return p.free.n }

// Acquire takes an event of the given length from the free list, growing the
// pool when it is exhausted.
func (p *Pool) Acquire(length int) (*Event, error) {
	if length < 0 || length > MaxLength {
		return nil, fmt.Errorf("acquire %d bytes: %w", length, ErrOutOfSpec)
	}
	if p.free.Empty() {
		p.grow()
	}
	e := p.PopFront(&p.free)
	e.Length = length
	e.Data = [MaxLength]byte{}
	return e, nil
}

// Release returns e to the free list. e must not be linked into a chain.
func (p *Pool) Release(e *Event) {
	if e == nil {
		return
	}
	e.next = p.free.head
	p.free.head = e.handle
	if p.free.tail == 0 {
		p.free.tail = e.handle
	}
	p.free.n++
}

// Append links e at the tail of c.
func (p *Pool) Append(c *Chain, e *Event) {
	e.next = 0
	if c.tail == 0 {
		c.head = e.handle
	} else {
		p.at(c.tail).next = e.handle
	}
	c.tail = e.handle
	c.n++
}

// Join splices src onto the tail of dst and leaves src empty.
func (p *Pool) Join(dst, src *Chain) {
	if src.Empty() {
		return
	}
	if dst.Empty() {
		*dst = *src
	} else {
		p.at(dst.tail).next = src.head
		dst.tail = src.tail
		dst.n += src.n
	}
	*src = Chain{}
}

// PopFront unlinks and returns the first event of c, or nil when empty.
func (p *Pool) PopFront(c *Chain) *Event {
	if c.Empty() {
		return nil
	}
	e := p.at(c.head)
	c.head = e.next
	if c.head == 0 {
		c.tail = 0
	}
	c.n--
	e.next = 0
	return e
}

// Each calls fn for every event of c in order.
func (p *Pool) Each(c *Chain, fn func(*Event)) {
	for h := c.head; h != 0; {
		e := p.at(h)
		h = e.next
		fn(e)
	}
}
