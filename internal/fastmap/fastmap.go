// Package fastmap provides a fast hash map for integer keys.
// Uses fibonacci hashing for better distribution of sequential keys.
package fastmap

import "unsafe"

// Uint32Map is a fast hash map from uint32 to unsafe.Pointer.
// Uses open addressing with linear probing and fibonacci hashing.
type Uint32Map struct {
	buckets []bucket
	count   int
	mask    uint32
}

type bucket struct {
	key   uint32
	value unsafe.Pointer
	used  bool // Needed because key=0 might be valid
}

// Fibonacci hash constant: 2^32 / golden ratio
const fibHash32 = 2654435769

// hash computes a fast hash using fibonacci hashing
func (m *Uint32Map) hash(key uint32) uint32 {
	return key * fibHash32
}

// Get returns the value for the given key, or nil if not found.
func (m *Uint32Map) Get(key uint32) unsafe.Pointer {
	if len(m.buckets) == 0 {
		return nil
	}
	h := m.hash(key)
	idx := h & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			return nil
		}
		if b.key == key {
			return b.value
		}
		idx = (idx + 1) & m.mask
	}
}

// Set stores a key-value pair.
func (m *Uint32Map) Set(key uint32, value unsafe.Pointer) {
	if len(m.buckets) == 0 {
		m.buckets = make([]bucket, 16)
		m.mask = 15
	} else if m.count >= len(m.buckets)*3/4 {
		m.grow()
	}

	h := m.hash(key)
	idx := h & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			b.key = key
			b.value = value
			b.used = true
			m.count++
			return
		}
		if b.key == key {
			b.value = value
			return
		}
		idx = (idx + 1) & m.mask
	}
}

// grow doubles the hash table size
func (m *Uint32Map) grow() {
	oldBuckets := m.buckets
	newSize := len(oldBuckets) * 2
	m.buckets = make([]bucket, newSize)
	m.mask = uint32(newSize - 1)
	m.count = 0

	for i := range oldBuckets {
		if oldBuckets[i].used {
			m.Set(oldBuckets[i].key, oldBuckets[i].value)
		}
	}
}

// ForEach iterates over all key-value pairs.
func (m *Uint32Map) ForEach(fn func(uint32, unsafe.Pointer)) {
	for i := range m.buckets {
		if m.buckets[i].used {
			fn(m.buckets[i].key, m.buckets[i].value)
		}
	}
}

// Clear removes all entries but keeps the backing array.
func (m *Uint32Map) Clear() {
	clear(m.buckets)
	m.count = 0
}

// Len returns the number of entries.
func (m *Uint32Map) Len() int {
	return m.count
}

// GetUint32 is a convenience wrapper over Get for callers (e.g.
// dictionary.ArrayDictionary's hash index) that store a uint32 rather
// than an arbitrary unsafe.Pointer value: it unboxes the pointer Get
// returns so the call site never allocates or dereferences one
// itself.
func (m *Uint32Map) GetUint32(key uint32) (uint32, bool) {
	ptr := m.Get(key)
	if ptr == nil {
		return 0, false
	}
	return *(*uint32)(ptr), true
}

// SetUint32 is GetUint32's write-side counterpart: it boxes value in
// a fresh heap uint32 (or overwrites one already stored for key) and
// stores the pointer via Set.
func (m *Uint32Map) SetUint32(key uint32, value uint32) {
	if ptr := m.Get(key); ptr != nil {
		*(*uint32)(ptr) = value
		return
	}
	boxed := new(uint32)
	*boxed = value
	m.Set(key, unsafe.Pointer(boxed))
}

// PointerMap is a fast hash map from uintptr to uint32. It uses the
// same open-addressing/fibonacci-hashing scheme as Uint32Map, but
// keyed the other way around: it backs a PageProvider's index_of
// reverse lookup (spec.md §4.1, §9 — "index_of is declared but used
// only by callers outside the core; its cost is O(pages_allocated) in
// the memory provider and may need a reverse index in production"),
// where the key is a page's backing address and the value is its
// page index.
type PointerMap struct {
	buckets []ptrBucket
	count   int
	mask    uint32
}

type ptrBucket struct {
	key   uintptr
	value uint32
	used  bool
}

// fibHash64 folds a uintptr down to a 32-bit fibonacci hash.
func fibHash64(key uintptr) uint32 {
	return uint32((uint64(key) * 0x9E3779B97F4A7C15) >> 32)
}

// Get returns the page index stored for key, or (0, false) if absent.
func (m *PointerMap) Get(key uintptr) (uint32, bool) {
	if len(m.buckets) == 0 {
		return 0, false
	}
	idx := fibHash64(key) & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			return 0, false
		}
		if b.key == key {
			return b.value, true
		}
		idx = (idx + 1) & m.mask
	}
}

// Set records that key maps to value.
func (m *PointerMap) Set(key uintptr, value uint32) {
	if len(m.buckets) == 0 {
		m.buckets = make([]ptrBucket, 16)
		m.mask = 15
	} else if m.count >= len(m.buckets)*3/4 {
		m.growPtr()
	}

	idx := fibHash64(key) & m.mask
	for {
		b := &m.buckets[idx]
		if !b.used {
			b.key = key
			b.value = value
			b.used = true
			m.count++
			return
		}
		if b.key == key {
			b.value = value
			return
		}
		idx = (idx + 1) & m.mask
	}
}

func (m *PointerMap) growPtr() {
	old := m.buckets
	newSize := len(old) * 2
	m.buckets = make([]ptrBucket, newSize)
	m.mask = uint32(newSize - 1)
	m.count = 0

	for i := range old {
		if old[i].used {
			m.Set(old[i].key, old[i].value)
		}
	}
}
