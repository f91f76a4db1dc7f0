package pagedstore

import (
	"unsafe"

	"pagedstore/internal/fastmap"
)

// PageProvider abstracts page allocation, mutable and read-only page
// access, and reverse lookup (page -> index). Every PagedVector is
// built over one; spec.md §4.1/§6 names two conforming
// implementations, MemoryProvider here and FileProvider in
// fileprovider.go.
//
// The provider is non-reentrant with respect to MutPage: only one
// mutable borrow may be outstanding at a time (spec.md §5). MutPage
// returns the provider alongside the page precisely so a recursive
// descent can release the current page (by letting its value go out
// of scope) before acquiring the next one, the discipline spec.md §9
// calls out explicitly — Go's garbage collector doesn't enforce this
// the way a borrow checker would, but the walk in vector.go still
// follows it so the shape of the API matches the source discipline.
type PageProvider interface {
	// Alloc allocates count fresh pages and returns their indices in
	// allocation order. Page 0 is reserved and is never returned.
	Alloc(count int) ([]uint32, error)

	// Page returns a read-only borrow of page index.
	Page(index uint32) *Page

	// MutPage returns a mutable borrow of page index, together with a
	// re-borrow of the provider itself.
	MutPage(index uint32) (PageProvider, *Page)

	// IndexOf returns the index of page p. It panics if p was not
	// obtained from this provider.
	IndexOf(p *Page) uint32
}

// MemoryProvider is a growable in-memory PageProvider: a slice of
// page-sized buffers addressed by 0-based array position. Page index
// 0 is reserved as "null" (spec.md §3, §9's Open Question resolution)
// so allocation always starts from index 1.
type MemoryProvider struct {
	pages []*Page
	index fastmap.PointerMap
}

// NewMemoryProvider returns an empty MemoryProvider. Page index 0 is
// reserved and never handed out by Alloc.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{
		pages: make([]*Page, 1), // pages[0] is the reserved null slot
	}
}

func (m *MemoryProvider) Alloc(count int) ([]uint32, error) {
	if count <= 0 {
		return nil, nil
	}
	indices := make([]uint32, count)
	for i := 0; i < count; i++ {
		idx := uint32(len(m.pages))
		p := &Page{Data: make([]byte, pageSize)}
		m.pages = append(m.pages, p)
		m.index.Set(uintptr(unsafe.Pointer(&p.Data[0])), idx)
		indices[i] = idx
	}
	return indices, nil
}

func (m *MemoryProvider) Page(index uint32) *Page {
	if index == 0 || int(index) >= len(m.pages) {
		fault(MalformedPage, "page index out of range")
	}
	return m.pages[index]
}

func (m *MemoryProvider) MutPage(index uint32) (PageProvider, *Page) {
	return m, m.Page(index)
}

func (m *MemoryProvider) IndexOf(p *Page) uint32 {
	if len(p.Data) == 0 {
		fault(MalformedPage, "page not owned by this provider")
	}
	idx, ok := m.index.Get(uintptr(unsafe.Pointer(&p.Data[0])))
	if !ok {
		fault(MalformedPage, "page not owned by this provider")
	}
	return idx
}
