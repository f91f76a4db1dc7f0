package pagedstore

import "testing"

func TestPagedVectorTiny(t *testing.T) {
	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for _, x := range []uint32{1, 2, 3} {
		if err := v.Push(x); err != nil {
			t.Fatalf("Push(%d): %v", x, err)
		}
	}

	root := pp.Page(v.Root())
	if root.header().Depth != 0 {
		t.Fatalf("root depth = %d, want 0", root.header().Depth)
	}
	if root.header().Entries != 3 {
		t.Fatalf("root entries = %d, want 3", root.header().Entries)
	}
	want := []uint32{1, 2, 3}
	for i, w := range want {
		if got := v.Get(uint64(i)); got != w {
			t.Fatalf("Get(%d) = %d, want %d", i, got, w)
		}
	}
	if got := v.Len(); got != 3 {
		t.Fatalf("Len() = %d, want 3", got)
	}

	var collected []uint32
	it := v.Iter()
	for {
		x, ok := it.Next()
		if !ok {
			break
		}
		collected = append(collected, x)
	}
	if len(collected) != 3 || collected[0] != 1 || collected[1] != 2 || collected[2] != 3 {
		t.Fatalf("Iter() = %v, want [1 2 3]", collected)
	}
}

func TestPagedVectorOneSplit(t *testing.T) {
	const leafCapacity = (pageSize - pageHeaderSize) / 4 // 1022, for uint32

	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for i := uint32(0); i < 1024; i++ {
		if err := v.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}

	root := pp.Page(v.Root())
	if root.header().Depth != 1 {
		t.Fatalf("root depth = %d, want 1", root.header().Depth)
	}
	if root.header().Entries != 2 {
		t.Fatalf("root entries = %d, want 2", root.header().Entries)
	}

	children := root.children()
	first := pp.Page(children[0])
	second := pp.Page(children[1])

	if int(first.header().Entries) != leafCapacity {
		t.Fatalf("first leaf entries = %d, want %d", first.header().Entries, leafCapacity)
	}
	if second.header().Entries != 2 {
		t.Fatalf("second leaf entries = %d, want 2", second.header().Entries)
	}
	if first.header().Next != children[1] {
		t.Fatalf("first leaf next = %d, want %d", first.header().Next, children[1])
	}
	if second.header().Next != 0 {
		t.Fatalf("second leaf next = %d, want 0", second.header().Next)
	}

	for i := uint64(0); i < 1024; i++ {
		if got := v.Get(i); got != uint32(i) {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i)
		}
	}
}

func TestPagedVectorMassInsert(t *testing.T) {
	const n = 200_000 // scaled down from the spec's 4,000,000 for test runtime

	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for i := uint32(0); i < n; i++ {
		if err := v.Push(i); err != nil {
			t.Fatalf("Push(%d): %v", i, err)
		}
	}
	if got := v.Len(); got != n {
		t.Fatalf("Len() = %d, want %d", got, n)
	}
	for i := uint64(0); i < n; i++ {
		if got := v.Get(i); got != uint32(i) {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i)
		}
	}
	var i uint32
	it := v.Iter()
	for {
		x, ok := it.Next()
		if !ok {
			break
		}
		if x != i {
			t.Fatalf("iter element %d = %d, want %d", i, x, i)
		}
		i++
	}
	if i != n {
		t.Fatalf("iterated %d elements, want %d", i, n)
	}
}

func TestPagedVectorAppendOfSlice(t *testing.T) {
	const reps = 100_000 // scaled down from the spec's 4,000,000

	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	pattern := []uint32{11, 22, 33}
	for i := 0; i < reps; i++ {
		if err := v.Append(pattern); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	total := uint64(reps * len(pattern))
	if got := v.Len(); got != total {
		t.Fatalf("Len() = %d, want %d", got, total)
	}
	for i := uint64(0); i < total; i++ {
		want := pattern[i%uint64(len(pattern))]
		if got := v.Get(i); got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestPagedVectorLongSlices(t *testing.T) {
	const sliceLen = 50_000 // scaled down from the spec's 1,999,999
	const reps = 20         // scaled down from the spec's 100

	slice := make([]uint32, sliceLen)
	for k := range slice {
		slice[k] = uint32(k) + 1
	}

	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for i := 0; i < reps; i++ {
		if err := v.Append(slice); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	total := uint64(sliceLen * reps)
	if got := v.Len(); got != total {
		t.Fatalf("Len() = %d, want %d", got, total)
	}
	for i := uint64(0); i < total; i += 997 { // sample rather than check every element
		want := uint32(i%sliceLen) + 1
		if got := v.Get(i); got != want {
			t.Fatalf("Get(%d) = %d, want %d", i, got, want)
		}
	}
}

func TestPagedVectorAppendEquivalentToPushLoop(t *testing.T) {
	vals := make([]uint32, 3000)
	for i := range vals {
		vals[i] = uint32(i) * 7
	}

	ppPush := NewMemoryProvider()
	pushed, err := NewPagedVector[uint32](ppPush)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for _, x := range vals {
		if err := pushed.Push(x); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	ppAppend := NewMemoryProvider()
	appended, err := NewPagedVector[uint32](ppAppend)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	if err := appended.Append(vals); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if pushed.Len() != appended.Len() {
		t.Fatalf("lengths differ: push=%d append=%d", pushed.Len(), appended.Len())
	}
	for i := uint64(0); i < pushed.Len(); i++ {
		if pushed.Get(i) != appended.Get(i) {
			t.Fatalf("Get(%d) differs: push=%d append=%d", i, pushed.Get(i), appended.Get(i))
		}
	}
}

func TestPagedVectorIterFrom(t *testing.T) {
	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	for i := uint32(0); i < 3000; i++ {
		if err := v.Push(i); err != nil {
			t.Fatalf("Push: %v", err)
		}
	}

	for _, s := range []uint64{0, 1, 1021, 1022, 1023, 2999} {
		it := v.IterFrom(s)
		for i := s; i < 3000; i++ {
			x, ok := it.Next()
			if !ok {
				t.Fatalf("IterFrom(%d): exhausted early at %d", s, i)
			}
			if x != uint32(i) {
				t.Fatalf("IterFrom(%d): element %d = %d, want %d", s, i, x, i)
			}
		}
		if _, ok := it.Next(); ok {
			t.Fatalf("IterFrom(%d): expected exhaustion", s)
		}
	}

	// IterFrom at exactly Len() yields nothing.
	it := v.IterFrom(v.Len())
	if _, ok := it.Next(); ok {
		t.Fatal("IterFrom(Len()) should yield no elements")
	}
}

func TestPagedVectorGetOutOfRangePanics(t *testing.T) {
	pp := NewMemoryProvider()
	v, err := NewPagedVector[uint32](pp)
	if err != nil {
		t.Fatalf("NewPagedVector: %v", err)
	}
	if err := v.Push(uint32(1)); err != nil {
		t.Fatalf("Push: %v", err)
	}
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for out-of-range Get")
		}
		if e, ok := r.(*Error); !ok || e.Code != Bounds {
			t.Fatalf("recovered %v, want *Error{Code: Bounds}", r)
		}
	}()
	v.Get(1)
}
