package pagedstore

// PagedVector is an append-only sequence of elements of type T,
// distributed across fixed-size pages and organized as a
// right-growing tree: a not-quite B+ tree with leaves linked in a
// singly-linked chain and a tiered pure-index tree overlaid for O(log)
// random access (spec.md §3, §4.3).
//
// A PagedVector does not own its PageProvider; the provider's pages
// outlive the vector (spec.md §5).
type PagedVector[T any] struct {
	provider PageProvider
	root     uint32
}

// NewPagedVector allocates a fresh, empty root leaf page on pp and
// returns a PagedVector over it.
func NewPagedVector[T any](pp PageProvider) (*PagedVector[T], error) {
	indices, err := pp.Alloc(1)
	if err != nil {
		return nil, WrapError(CapacityExhausted, err)
	}
	_, root := pp.MutPage(indices[0])
	root.initEmpty(0)
	return &PagedVector[T]{provider: pp, root: indices[0]}, nil
}

// OpenPagedVector wraps an already-initialized root page index as a
// PagedVector, for callers that persist the root index themselves
// (for example in a dbheader.Header) rather than always starting empty.
func OpenPagedVector[T any](pp PageProvider, root uint32) *PagedVector[T] {
	return &PagedVector[T]{provider: pp, root: root}
}

// Root returns the current root page index. It changes whenever the
// tree grows a level.
func (v *PagedVector[T]) Root() uint32 {
	return v.root
}

// Push appends a single element. Semantics equivalent to Append of a
// one-element slice.
func (v *PagedVector[T]) Push(val T) error {
	return v.Append([]T{val})
}

// Append appends vals, in order, to the end of the sequence.
func (v *PagedVector[T]) Append(vals []T) error {
	if len(vals) == 0 {
		return nil
	}
	newRoot, err := appendSlice[T](v.provider, v.root, vals)
	if err != nil {
		return err
	}
	v.root = newRoot
	return nil
}

// Get returns element i. i must be < Len().
func (v *PagedVector[T]) Get(i uint64) T {
	if i >= v.Len() {
		fault(Bounds, "paged vector index out of range")
	}
	p, offset := descend[T](v.provider, v.root, i)
	return leafSlice[T](p)[offset]
}

// Len returns the number of elements currently stored.
func (v *PagedVector[T]) Len() uint64 {
	return lenAt[T](v.provider, v.root)
}

// Iter returns an iterator over all elements, in insertion order.
func (v *PagedVector[T]) Iter() *PagedVectorIterator[T] {
	return v.IterFrom(0)
}

// IterFrom returns an iterator starting at index i. i may equal
// Len() (an immediately-exhausted iterator); i > Len() is a
// programming error.
func (v *PagedVector[T]) IterFrom(i uint64) *PagedVectorIterator[T] {
	if i > v.Len() {
		fault(Bounds, "paged vector iterator start out of range")
	}
	p, offset := descend[T](v.provider, v.root, i)
	return &PagedVectorIterator[T]{provider: v.provider, page: p, offset: int(offset)}
}

// PagedVectorIterator yields elements in insertion order, following
// the leaf chain's next pointers as each leaf is exhausted.
type PagedVectorIterator[T any] struct {
	provider PageProvider
	page     *Page
	offset   int
}

// Next returns the next element, or (zero, false) once exhausted.
func (it *PagedVectorIterator[T]) Next() (T, bool) {
	data := leafSlice[T](it.page)
	if it.offset < len(data) {
		val := data[it.offset]
		it.offset++
		return val, true
	}
	next := it.page.header().Next
	if next == 0 {
		var zero T
		return zero, false
	}
	it.page = it.provider.Page(next)
	it.offset = 0
	return it.Next()
}

// descend walks from root to the leaf containing global index i,
// returning that leaf and the in-leaf offset of i. Shared by Get and
// IterFrom; len's rightmost-path walk is a separate, simpler
// traversal (lenAt below) since it only ever needs the last child.
func descend[T any](pp PageProvider, rootIdx uint32, i uint64) (*Page, uint64) {
	idx := rootIdx
	for {
		p := pp.Page(idx)
		if p.isLeaf() {
			return p, i
		}
		depth := p.header().Depth
		if depth == 0 {
			fault(MalformedPage, "index page with zero depth")
		}
		subtree := uint64(subtreeCapacity[T](depth))
		children := p.children()
		childPos := i / subtree
		if childPos >= uint64(len(children)) {
			// i one past the end of a saturated last child (IterFrom at
			// Len()) descends into that child rather than past it.
			if childPos != uint64(len(children)) || i%subtree != 0 || childPos == 0 {
				fault(Bounds, "paged vector index out of range")
			}
			childPos--
		}
		idx = children[childPos]
		i -= childPos * subtree
	}
}

// lenAt computes the element count of the subtree rooted at idx, per
// spec.md §4.3: at an index page with entries e at depth d, the total
// is (e-1)*subtreeCapacity(d) + len(last child); at a leaf, entries.
func lenAt[T any](pp PageProvider, idx uint32) uint64 {
	p := pp.Page(idx)
	if p.isLeaf() {
		return uint64(p.header().Entries)
	}
	depth := p.header().Depth
	subtree := uint64(subtreeCapacity[T](depth))
	children := p.children()
	n := len(children)
	return uint64(n-1)*subtree + lenAt[T](pp, children[n-1])
}

// appendSlice is the root-level entry point of the append algorithm
// (spec.md §4.3 "push(v)/append(slice)"). It walks the rightmost path
// via appendSliceAt and, if the walk returns a non-empty residual
// (the root is saturated), grows the tree by one level and retries.
func appendSlice[T any](pp PageProvider, rootIdx uint32, vals []T) (uint32, error) {
	residual, err := appendSliceAt[T](pp, rootIdx, vals)
	if err != nil {
		return rootIdx, err
	}
	if len(residual) == 0 {
		return rootIdx, nil
	}
	// appendSliceAt may have called pp.Alloc (directly, or via a
	// nested rotateSlice), which for a provider like FileProvider can
	// remap its backing storage and relocate every *Page obtained
	// before that point. Re-fetch rather than reuse any pointer held
	// across the call above.
	_, root := pp.MutPage(rootIdx)
	rootDepth := root.header().Depth
	newRootIdx, err := rotateSlice(pp, rootIdx, rootDepth+1)
	if err != nil {
		return rootIdx, err
	}
	return appendSlice[T](pp, newRootIdx, residual)
}

// appendSliceAt implements one step of the rightmost-path walk over
// the page at idx.
//
// At a leaf, it fills the free suffix and returns the unfilled
// residual. At an index, it recurses into the last child; once that
// returns a non-empty residual it applies the later-revision
// short-rightmost-subtree rule from spec.md §4.3/§9: if the last
// child is short (its depth is strictly less than one less than this
// page's depth), promote it by wrapping it in a fresh index layer and
// retry at this page; otherwise, if this page still has free slots,
// append a brand-new leaf as a direct sibling (it starts out "short"
// itself, and will be promoted on a future append once it saturates
// and this page's growth reaches it again).
//
// Every read or write of a page below follows, rather than reuses, a
// *Page captured before a call that can trigger pp.Alloc: this takes
// idx (not a *Page) for exactly that reason, and re-fetches via
// pp.Page/pp.MutPage immediately before every access that follows
// one. A FileProvider's Alloc can remap its backing mmap (see
// fileprovider.go), which invalidates any *Page obtained earlier.
func appendSliceAt[T any](pp PageProvider, idx uint32, vals []T) ([]T, error) {
	_, p := pp.MutPage(idx)
	if p.isLeaf() {
		return appendLeaf[T](p, vals), nil
	}

	children := p.children()
	lastIdx := children[len(children)-1]

	residual, err := appendSliceAt[T](pp, lastIdx, vals)
	if err != nil {
		return nil, err
	}
	if len(residual) == 0 {
		return residual, nil
	}

	// The recursive call above may have allocated pages. Re-fetch both
	// p and child before reading or writing through them again.
	_, p = pp.MutPage(idx)
	_, child := pp.MutPage(lastIdx)
	depth := p.header().Depth
	childDepth := child.header().Depth
	if childDepth+1 != depth {
		newIdx, err := rotateSlice(pp, lastIdx, childDepth+1)
		if err != nil {
			return nil, err
		}
		// rotateSlice just called pp.Alloc; re-fetch p before writing
		// through it.
		_, p = pp.MutPage(idx)
		childPos := int(p.header().Entries) - 1
		p.childrenFull()[childPos] = newIdx
		return appendSliceAt[T](pp, idx, residual)
	}

	entries := int(p.header().Entries)
	if entries == indexCapacity {
		return residual, nil
	}

	idxs, err := pp.Alloc(1)
	if err != nil {
		return nil, WrapError(CapacityExhausted, err)
	}
	newLeafIdx := idxs[0]
	_, newLeaf := pp.MutPage(newLeafIdx)
	newLeaf.initEmpty(0)
	residual = appendLeaf[T](newLeaf, residual)

	prevLeafIdx := lastLeaf(pp, lastIdx)
	_, prevLeaf := pp.MutPage(prevLeafIdx)
	prevLeaf.header().Next = newLeafIdx

	// pp.Alloc above may have invalidated p; re-fetch before the
	// final writes through it.
	_, p = pp.MutPage(idx)
	p.childrenFull()[entries] = newLeafIdx
	p.header().Entries++

	if len(residual) == 0 {
		return residual, nil
	}
	return appendSliceAt[T](pp, idx, residual)
}

// appendLeaf copies as many leading elements of vals as fit into p's
// free suffix, advances p's entry count, and returns the remainder.
func appendLeaf[T any](p *Page, vals []T) []T {
	free := leafFree[T](p)
	if len(free) == 0 {
		return vals
	}
	take := len(free)
	if len(vals) < take {
		take = len(vals)
	}
	copy(free[:take], vals[:take])
	p.header().Entries += uint16(take)
	return vals[take:]
}

// rotateSlice allocates a new index page of the given depth whose
// sole child is childIdx, and returns its index. Used both to grow
// the tree's root and to promote a short rightmost subtree.
func rotateSlice(pp PageProvider, childIdx uint32, depth uint8) (uint32, error) {
	idxs, err := pp.Alloc(1)
	if err != nil {
		return 0, WrapError(CapacityExhausted, err)
	}
	newIdx := idxs[0]
	_, p := pp.MutPage(newIdx)
	p.initEmpty(depth)
	p.header().Entries = 1
	p.childrenFull()[0] = childIdx
	return newIdx, nil
}

// lastLeaf follows last-child pointers from idx down to the chain-
// order tail leaf, so a newly appended leaf can be linked onto it.
func lastLeaf(pp PageProvider, idx uint32) uint32 {
	p := pp.Page(idx)
	if p.isLeaf() {
		return idx
	}
	children := p.children()
	return lastLeaf(pp, children[len(children)-1])
}
