package pagedstore

import "testing"

func newTestPage(depth uint8) *Page {
	p := &Page{Data: make([]byte, pageSize)}
	p.initEmpty(depth)
	return p
}

func TestCapacityOf(t *testing.T) {
	if c := capacityOf[uint32](); c != 1022 {
		t.Fatalf("capacityOf[uint32]() = %d, want 1022", c)
	}
	if indexCapacity != 1022 {
		t.Fatalf("indexCapacity = %d, want 1022", indexCapacity)
	}
}

func TestLeafSliceGrowsWithEntries(t *testing.T) {
	p := newTestPage(0)
	if got := len(leafSlice[uint32](p)); got != 0 {
		t.Fatalf("empty leaf slice len = %d, want 0", got)
	}
	free := leafFree[uint32](p)
	free[0] = 7
	p.header().Entries = 1
	s := leafSlice[uint32](p)
	if len(s) != 1 || s[0] != 7 {
		t.Fatalf("leafSlice after one write = %v, want [7]", s)
	}
}

func TestChildrenRespectsEntries(t *testing.T) {
	p := newTestPage(1)
	cf := p.childrenFull()
	cf[0] = 5
	cf[1] = 9
	p.header().Entries = 2
	c := p.children()
	if len(c) != 2 || c[0] != 5 || c[1] != 9 {
		t.Fatalf("children() = %v, want [5 9]", c)
	}
}

func TestSubtreeCapacity(t *testing.T) {
	leafCap := capacityOf[uint32]()
	if got := subtreeCapacity[uint32](1); got != leafCap {
		t.Fatalf("subtreeCapacity(1) = %d, want %d", got, leafCap)
	}
	if got := subtreeCapacity[uint32](2); got != leafCap*indexCapacity {
		t.Fatalf("subtreeCapacity(2) = %d, want %d", got, leafCap*indexCapacity)
	}
}

func TestIsLeaf(t *testing.T) {
	if !newTestPage(0).isLeaf() {
		t.Fatal("depth 0 page should be a leaf")
	}
	if newTestPage(1).isLeaf() {
		t.Fatal("depth 1 page should not be a leaf")
	}
}
