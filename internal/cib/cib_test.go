package cib

import "testing"

func TestCIBRoundsToPowerOfTwo(t *testing.T) {
	c := New(5)
	if c.Cap() != 8 {
		t.Fatalf("Cap() = %d, want 8", c.Cap())
	}
}

func TestCIBPutGetOrder(t *testing.T) {
	c := New(4)
	var got []int32
	for i := 0; i < 4; i++ {
		got = append(got, c.Put())
	}
	want := []int32{0, 1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Put() sequence = %v, want %v", got, want)
		}
	}
	if c.Put() != -1 {
		t.Fatal("Put() on full buffer should return -1")
	}

	for i := 0; i < 4; i++ {
		idx := c.Get()
		if idx != int32(i) {
			t.Fatalf("Get() = %d, want %d", idx, i)
		}
	}
	if c.Get() != -1 {
		t.Fatal("Get() on empty buffer should return -1")
	}
}

func TestCIBWrapAround(t *testing.T) {
	c := New(2)
	c.Put()
	c.Put()
	c.Get()
	idx := c.Put()
	if idx != 0 {
		t.Fatalf("Put() after wraparound = %d, want 0", idx)
	}
	if c.Avail() != 0 {
		t.Fatalf("Avail() = %d, want 0", c.Avail())
	}
}

func TestCIBPeek(t *testing.T) {
	c := New(2)
	if c.PeekGet() != -1 {
		t.Fatal("PeekGet() on empty buffer should be -1")
	}
	if p, g := c.PeekPut(), c.Put(); p != g {
		t.Fatalf("PeekPut()=%d should match the index Put() reserves=%d", p, g)
	}
	if p, g := c.PeekGet(), c.Get(); p != g {
		t.Fatalf("PeekGet()=%d should match the index Get() reclaims=%d", p, g)
	}
}
