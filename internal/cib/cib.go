// Package cib implements a circular index buffer: a fixed-capacity ring
// of slot indices used to hand out and reclaim buffer/message slots in
// O(1) without a separate free list. Capacity must be a power of two so
// Put/Get can use a mask instead of a modulo.
//
// Grounded on the original source's cib.h (mask = size-1, read_count /
// write_count monotonically increasing counters compared mod size).
package cib

// CIB is a circular index buffer of capacity Size (rounded up internally
// to the next power of two, minimum 1).
type CIB struct {
	mask       uint32
	readCount  uint32
	writeCount uint32
}

// New creates a CIB able to hold up to size indices in [0, size).
// size is rounded up to the next power of two.
func New(size uint32) *CIB {
	if size == 0 {
		size = 1
	}
	cap := uint32(1)
	for cap < size {
		cap <<= 1
	}
	return &CIB{mask: cap - 1}
}

// Cap returns the buffer's capacity (the rounded-up power of two).
func (c *CIB) Cap() uint32 {
	return c.mask + 1
}

// Avail returns the number of free slots.
func (c *CIB) Avail() uint32 {
	return c.Cap() - (c.writeCount - c.readCount)
}

// Used returns the number of slots currently occupied.
func (c *CIB) Used() uint32 {
	return c.writeCount - c.readCount
}

// Put reserves the next slot index for a write, returning -1 if full.
func (c *CIB) Put() int32 {
	if c.Used() >= c.Cap() {
		return -1
	}
	idx := c.writeCount & c.mask
	c.writeCount++
	return int32(idx)
}

// Get reclaims the oldest reserved slot index for a read, returning -1
// if the buffer is empty.
func (c *CIB) Get() int32 {
	if c.readCount == c.writeCount {
		return -1
	}
	idx := c.readCount & c.mask
	c.readCount++
	return int32(idx)
}

// PeekPut returns the index Put would hand out next, without reserving
// it, or -1 if full. Used by callers (message queue) that need to know
// the target slot before committing the write.
func (c *CIB) PeekPut() int32 {
	if c.Used() >= c.Cap() {
		return -1
	}
	return int32(c.writeCount & c.mask)
}

// PeekGet returns the index Get would hand out next, without reclaiming
// it, or -1 if empty.
func (c *CIB) PeekGet() int32 {
	if c.readCount == c.writeCount {
		return -1
	}
	return int32(c.readCount & c.mask)
}
