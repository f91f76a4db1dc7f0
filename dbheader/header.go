package dbheader

import (
	"encoding/binary"

	"pagedstore"
)

// Layout of the header page, byte offsets. The core's own 8-byte page
// header (version/depth/entries/next, see pagedstore's page.go) is not
// applied here — this page is never walked by a PagedVector, so
// dbheader owns the entire pageSize bytes as its own format.
const (
	offVersion       = 0
	offPageCount     = 4
	offTableIndex    = 8
	offFreeListRoot  = 12
	formatVersion    = 1
)

// Header is a root record, one page in size, tracking the page count
// of the provider it was allocated from, a free-list bitmap for
// reclaimed page indices, and a pointer to a caller-defined directory
// root (TableIndexRoot) — grounded on original_source/src/database.rs's
// Header{version, pages, free_list, table_index}.
type Header struct {
	pp      pagedstore.PageProvider
	pageIdx uint32
	free    *Bitmap
}

// New allocates a fresh header page on pp and returns a Header over
// it, with no table index or free-list entries. PageCount starts at
// pageIdx+1: it tracks every page claimed so far, including the
// reserved null page 0 and the header's own page, since those share
// the same index space AllocatePage hands out from.
func New(pp pagedstore.PageProvider) (*Header, error) {
	idxs, err := pp.Alloc(1)
	if err != nil {
		return nil, pagedstore.WrapError(pagedstore.CapacityExhausted, err)
	}
	h := &Header{pp: pp, pageIdx: idxs[0], free: NewBitmap(0)}

	_, p := pp.MutPage(h.pageIdx)
	clear(p.Data)
	binary.LittleEndian.PutUint32(p.Data[offVersion:], formatVersion)
	binary.LittleEndian.PutUint32(p.Data[offPageCount:], h.pageIdx+1)

	h.seedFreeList()
	return h, nil
}

// Open wraps an already-initialized header page (e.g. recovered from
// a file's well-known page index) as a Header. The free-list bitmap
// starts out believing every page below PageCount is in use; a
// caller that tracks reclaimed pages separately (e.g. via a persisted
// free-list PagedVector rooted at FreeListRoot) should replay
// ReclaimPage for each one after Open.
func Open(pp pagedstore.PageProvider, pageIdx uint32) *Header {
	h := &Header{pp: pp, pageIdx: pageIdx, free: NewBitmap(0)}
	h.seedFreeList()
	return h
}

// seedFreeList marks every page index below PageCount as in use. It
// relies on the bitmap starting empty and Allocate always returning
// the lowest free slot, so calling it PageCount times in a row fills
// exactly [0, PageCount) in order.
func (h *Header) seedFreeList() {
	n := h.PageCount()
	h.free.Extend(n)
	for i := uint32(0); i < n; i++ {
		h.free.Allocate()
	}
}

// PageIndex returns the page index the header itself lives at.
func (h *Header) PageIndex() uint32 {
	return h.pageIdx
}

func (h *Header) page() *pagedstore.Page {
	return h.pp.Page(h.pageIdx)
}

func (h *Header) mutPage() *pagedstore.Page {
	_, p := h.pp.MutPage(h.pageIdx)
	return p
}

// Version returns the on-disk header format version.
func (h *Header) Version() uint32 {
	return binary.LittleEndian.Uint32(h.page().Data[offVersion:])
}

// PageCount returns the number of page indices claimed so far —
// reserved page 0, the header's own page, and every page AllocatePage
// has ever handed out — which never decreases, even after ReclaimPage.
func (h *Header) PageCount() uint32 {
	return binary.LittleEndian.Uint32(h.page().Data[offPageCount:])
}

func (h *Header) setPageCount(n uint32) {
	binary.LittleEndian.PutUint32(h.mutPage().Data[offPageCount:], n)
}

// TableIndexRoot returns the root page index of the caller-defined
// directory this header points at, or 0 if none has been set.
func (h *Header) TableIndexRoot() uint32 {
	return binary.LittleEndian.Uint32(h.page().Data[offTableIndex:])
}

// SetTableIndexRoot records root as the directory this header points
// at (e.g. the root of a PagedVector reopened with
// pagedstore.OpenPagedVector).
func (h *Header) SetTableIndexRoot(root uint32) {
	binary.LittleEndian.PutUint32(h.mutPage().Data[offTableIndex:], root)
}

// FreeListRoot returns the root page index of a persisted free-list
// PagedVector[uint32], or 0 if the free list has never been flushed.
func (h *Header) FreeListRoot() uint32 {
	return binary.LittleEndian.Uint32(h.page().Data[offFreeListRoot:])
}

// SetFreeListRoot records root as the persisted free list's root.
func (h *Header) SetFreeListRoot(root uint32) {
	binary.LittleEndian.PutUint32(h.mutPage().Data[offFreeListRoot:], root)
}

// AllocatePage returns a page index: a previously reclaimed one if
// the free-list bitmap has one, otherwise a brand-new page from the
// underlying PageProvider. Reusing the provider directly for anything
// else while a Header is in play would desync PageCount from the
// provider's own notion of what's been handed out; AllocatePage
// detects that and fails rather than silently double-allocating.
func (h *Header) AllocatePage() (uint32, error) {
	if slot, ok := h.free.Allocate(); ok {
		return slot, nil
	}

	want := h.PageCount()
	idxs, err := h.pp.Alloc(1)
	if err != nil {
		return 0, pagedstore.WrapError(pagedstore.CapacityExhausted, err)
	}
	idx := idxs[0]
	if idx != want {
		return 0, pagedstore.WrapError(pagedstore.MalformedPage, "page provider allocated out of the header's expected sequence")
	}

	h.free.Extend(idx + 1)
	slot, ok := h.free.Allocate()
	if !ok || slot != idx {
		return 0, pagedstore.WrapError(pagedstore.MalformedPage, "free-list desync")
	}
	h.setPageCount(idx + 1)
	return idx, nil
}

// ReclaimPage marks idx available for a future AllocatePage. It does
// not erase or otherwise touch the page's contents; callers that
// store structured data in it are responsible for doing so themselves
// before reclaiming it.
func (h *Header) ReclaimPage(idx uint32) {
	h.free.Extend(idx + 1)
	h.free.Free(idx)
}

// IsReclaimed reports whether idx was previously returned to the free
// list via ReclaimPage and has not since been handed back out.
func (h *Header) IsReclaimed(idx uint32) bool {
	return !h.free.IsAllocated(idx)
}
