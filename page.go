package pagedstore

import "unsafe"

// pageSize is the fixed size of every page in the address space.
const pageSize = 4096

// pageHeaderSize is the fixed page header size (8 bytes).
const pageHeaderSize = 8

// indexEntrySize is the size of a child pointer stored in an index page.
const indexEntrySize = 4

// pageHeader is the common 8-byte header shared by every page, leaf or
// index. It must match the layout in spec.md §6 exactly:
//
//	Offset  Size  Field
//	0       1     version
//	1       1     depth
//	2       2     entries (little-endian)
//	4       4     next (little-endian)
//
// On little-endian hosts the struct's natural layout already matches
// this byte-for-byte, so header() overlays it directly, as the data
// region accessors below overlay element slices; see endian_le.go /
// endian_be.go for the portable accessors BitPackedArray and
// FileProvider use.
type pageHeader struct {
	Version uint8
	Depth   uint8
	Entries uint16
	Next    uint32
}

// Page is a borrow of one pageSize-byte region, handed out by a
// PageProvider. It never allocates; all accessors overlay p.Data.
// Data is exported so peripheral packages (dbheader, journal,
// dictionary) can lay their own formats over pages the core doesn't
// otherwise interpret.
type Page struct {
	Data []byte // exactly pageSize bytes
}

// header returns the page's header, overlaid directly on the first
// pageHeaderSize bytes.
func (p *Page) header() *pageHeader {
	return (*pageHeader)(unsafe.Pointer(&p.Data[0]))
}

// isLeaf reports whether this page holds element data (depth 0) as
// opposed to child page indices.
func (p *Page) isLeaf() bool {
	return p.header().Depth == 0
}

// initEmpty writes a zeroed header with the given depth, leaving
// entries and next at zero.
func (p *Page) initEmpty(depth uint8) {
	h := p.header()
	h.Version = 0
	h.Depth = depth
	h.Entries = 0
	h.Next = 0
}

// capacityOf returns the number of T values that fit in a leaf's data
// region: capacity<T> = (pageSize - pageHeaderSize) / sizeof(T).
func capacityOf[T any]() int {
	var zero T
	size := int(unsafe.Sizeof(zero))
	return (pageSize - pageHeaderSize) / size
}

// indexCapacity is capacity<uint32> for index pages: 1022 child
// pointers per index page.
var indexCapacity = capacityOf[uint32]()

// leafSlice returns a slice over a leaf's current entries (length
// header().Entries, capacity up to leaf capacity).
func leafSlice[T any](p *Page) []T {
	c := capacityOf[T]()
	entries := int(p.header().Entries)
	full := unsafe.Slice((*T)(unsafe.Pointer(&p.Data[pageHeaderSize])), c)
	return full[:entries:c]
}

// leafFree returns the writable suffix of a leaf page beyond its
// current entries, up to leaf capacity.
func leafFree[T any](p *Page) []T {
	c := capacityOf[T]()
	entries := int(p.header().Entries)
	full := unsafe.Slice((*T)(unsafe.Pointer(&p.Data[pageHeaderSize])), c)
	return full[entries:c]
}

// children returns an index page's child pointers (length
// header().Entries, capacity indexCapacity).
func (p *Page) children() []uint32 {
	entries := int(p.header().Entries)
	full := unsafe.Slice((*uint32)(unsafe.Pointer(&p.Data[pageHeaderSize])), indexCapacity)
	return full[:entries:indexCapacity]
}

// childrenFull exposes the whole indexCapacity-sized child array,
// including unoccupied slots, so a new child can be written at
// Entries before Entries is incremented.
func (p *Page) childrenFull() []uint32 {
	return unsafe.Slice((*uint32)(unsafe.Pointer(&p.Data[pageHeaderSize])), indexCapacity)
}

// subtreeCapacity returns the number of elements a saturated subtree
// rooted at an index page of the given depth can hold, for leaves of
// element type T: index_capacity^(depth-1) * leaf_capacity.
func subtreeCapacity[T any](depth uint8) int {
	c := capacityOf[T]()
	for i := uint8(1); i < depth; i++ {
		c *= indexCapacity
	}
	return c
}
