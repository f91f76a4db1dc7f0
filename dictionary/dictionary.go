// Package dictionary maps string keys to byte-slice values on top of
// pagedstore.PagedVector, grounded on original_source/src/dictionary.rs's
// ArrayDictionary (a value vector plus a position vector; a stub in
// the original, a single TODO) fleshed out per its evident intent.
package dictionary

import (
	"encoding/binary"
	"hash/fnv"

	"pagedstore"
	"pagedstore/internal/fastmap"
)

// ArrayPosition records where one entry's packed (keyLen, key, value)
// blob starts in the backing byte vector and how long it is, matching
// dictionary.rs's ArrayPosition{pos, len} exactly.
type ArrayPosition struct {
	Pos uint64
	Len uint32
}

// ArrayDictionary is an append-only string-to-[]byte dictionary: Put
// never overwrites a prior entry's bytes, it appends a new blob and
// repoints the hash index at it, so a stale ArrayPosition for an
// overwritten key is simply orphaned, never reclaimed — the same
// append-only discipline the PagedVector it's built on has.
//
// Lookup is a fastmap.Uint32Map keyed on the FNV-32a hash of the
// lookup key, mapping to the winning entry's index in refs. Because
// two different keys can share a hash, Get verifies the candidate's
// stored key before trusting it, and falls back to a linear scan over
// refs (newest first) on a miss or a collision — refs is always the
// source of truth; index is a rebuildable accelerator over it.
type ArrayDictionary struct {
	refs  *pagedstore.PagedVector[ArrayPosition]
	bytes *pagedstore.PagedVector[byte]
	index fastmap.Uint32Map
}

// NewArrayDictionary allocates a fresh, empty dictionary on pp.
func NewArrayDictionary(pp pagedstore.PageProvider) (*ArrayDictionary, error) {
	refs, err := pagedstore.NewPagedVector[ArrayPosition](pp)
	if err != nil {
		return nil, err
	}
	bytes, err := pagedstore.NewPagedVector[byte](pp)
	if err != nil {
		return nil, err
	}
	return &ArrayDictionary{refs: refs, bytes: bytes}, nil
}

func fnv32(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32()
}

// packBlob packs keyLen (4 bytes, little-endian) followed by key followed
// by value into one slice, so ArrayPosition need only record one
// (pos, len) pair per entry.
func packBlob(key string, value []byte) []byte {
	blob := make([]byte, 4+len(key)+len(value))
	binary.LittleEndian.PutUint32(blob[0:4], uint32(len(key)))
	copy(blob[4:], key)
	copy(blob[4+len(key):], value)
	return blob
}

func unpackBlob(blob []byte) (key string, value []byte) {
	keyLen := binary.LittleEndian.Uint32(blob[0:4])
	key = string(blob[4 : 4+keyLen])
	value = blob[4+keyLen:]
	return key, value
}

// readEntry pulls the blob stored at refs index idx out of bytes.
func (d *ArrayDictionary) readEntry(idx uint64) (key string, value []byte) {
	ref := d.refs.Get(idx)
	blob := make([]byte, ref.Len)
	it := d.bytes.IterFrom(ref.Pos)
	for i := uint32(0); i < ref.Len; i++ {
		b, _ := it.Next()
		blob[i] = b
	}
	return unpackBlob(blob)
}

// Put stores value under key, appending a new blob regardless of
// whether key already has an entry.
func (d *ArrayDictionary) Put(key string, value []byte) error {
	blob := packBlob(key, value)
	pos := d.bytes.Len()
	if err := d.bytes.Append(blob); err != nil {
		return err
	}
	idx := d.refs.Len()
	if err := d.refs.Push(ArrayPosition{Pos: pos, Len: uint32(len(blob))}); err != nil {
		return err
	}
	d.index.SetUint32(fnv32(key), uint32(idx))
	return nil
}

// Get returns the most recently Put value for key, and whether key
// has any entry at all.
func (d *ArrayDictionary) Get(key string) ([]byte, bool) {
	if idx, ok := d.index.GetUint32(fnv32(key)); ok {
		if gotKey, value := d.readEntry(uint64(idx)); gotKey == key {
			return value, true
		}
	}
	// Hash miss or collision with a different live key: refs is the
	// source of truth, so fall back to a linear scan, newest first.
	for i := d.refs.Len(); i > 0; i-- {
		gotKey, value := d.readEntry(i - 1)
		if gotKey == key {
			d.index.SetUint32(fnv32(key), uint32(i-1))
			return value, true
		}
	}
	return nil, false
}

// Len returns the number of Put calls made, including ones that
// overwrote an existing key.
func (d *ArrayDictionary) Len() uint64 {
	return d.refs.Len()
}
