package pagedstore

import (
	"errors"
	"os"
	"unsafe"

	"pagedstore/mmap"
)

// errRemapSizeMismatch guards against a Remap that silently reserved
// fewer pages than requested: PageCapacity is the same arithmetic
// Alloc just used to pick newCap, so the two should always agree.
var errRemapSizeMismatch = errors.New("mmap remap did not reserve the expected page capacity")

// usedPagesOffset is the byte offset within page 0 where FileProvider
// persists its used-page count across a close/reopen: page 0 is the
// core's reserved "null" slot, and FileProvider borrows its first 4
// bytes for that count. Nothing above this
// package interprets those 4 bytes; a dbheader-style layer built on
// top is free to use the rest of page 0 for its own header.
const usedPagesOffset = 0

// FileProviderOptions configures OpenFileProvider, in the style of
// the teacher's Env geometry flags (construtor args, not a config
// file or env-var layer).
type FileProviderOptions struct {
	// Path is the backing file's path.
	Path string

	// Create creates the file (and its initial capacity) if it does
	// not already exist. Opening a missing file with Create false is
	// an error.
	Create bool

	// InitialCapacityPages reserves virtual address space for at
	// least this many pages up front, so ordinary growth only
	// advances the used-page counter instead of remapping. It is
	// rounded up to a power of two and defaults to 1024 (4MiB) if
	// zero.
	InitialCapacityPages uint32
}

// FileProvider is an mmap-backed PageProvider: pages live at
// contiguous pageSize-byte offsets in one memory-mapped file, grown in
// doubling capacity increments as Alloc demands more than is
// currently reserved (spec.md §6 names the file provider itself,
// as opposed to a higher header/free-list/journal layer, as in scope).
//
// Growing capacity may call mmap's Remap, which can move the backing
// array; any *Page obtained before a Remap must not be dereferenced
// afterward. vector.go's recursive walk takes page indices rather
// than holding *Page values across recursive calls or calls to Alloc
// for exactly this reason: it re-fetches a fresh *Page via
// Page/MutPage immediately before every read or write that follows
// one. A caller driving FileProvider directly should treat growth the
// same way spec.md §9 treats nested mutable borrows: as a
// borrow-invalidating event.
type FileProvider struct {
	file       *os.File
	m          *mmap.Map
	usedPages  uint32
	growToPage uint32 // capacity, in pages, currently reserved by m
}

// OpenFileProvider opens or creates a file-backed PageProvider.
func OpenFileProvider(opts FileProviderOptions) (*FileProvider, error) {
	capPages := opts.InitialCapacityPages
	if capPages == 0 {
		capPages = 1024
	}
	capPages = nextPow2(capPages)

	_, err := os.Stat(opts.Path)
	exists := err == nil
	if !exists && !opts.Create {
		return nil, WrapError(IO, err)
	}

	flag := os.O_RDWR
	if opts.Create {
		flag |= os.O_CREATE
	}
	f, err := os.OpenFile(opts.Path, flag, 0644)
	if err != nil {
		return nil, WrapError(IO, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, WrapError(IO, err)
	}

	fp := &FileProvider{file: f}

	if fi.Size() == 0 {
		if err := f.Truncate(int64(capPages) * pageSize); err != nil {
			f.Close()
			return nil, WrapError(IO, err)
		}
		m, err := mmap.New(int(f.Fd()), 0, int(capPages)*pageSize, true)
		if err != nil {
			f.Close()
			return nil, WrapError(IO, err)
		}
		fp.m = m
		fp.growToPage = capPages
		fp.usedPages = 1 // page 0 reserved
		putUint32LE(fp.m.Data()[usedPagesOffset:], fp.usedPages)
		fp.m.Advise()
	} else {
		existingPages := uint32(fi.Size() / pageSize)
		if existingPages < capPages {
			existingPages = capPages
		}
		m, err := mmap.New(int(f.Fd()), 0, int(existingPages)*pageSize, true)
		if err != nil {
			f.Close()
			return nil, WrapError(IO, err)
		}
		fp.m = m
		fp.growToPage = existingPages
		fp.usedPages = getUint32LE(fp.m.Data()[usedPagesOffset:])
		fp.m.Advise()
	}

	return fp, nil
}

func nextPow2(n uint32) uint32 {
	p := uint32(1)
	for p < n {
		p <<= 1
	}
	return p
}

// Close flushes outstanding writes and releases the mapping.
func (fp *FileProvider) Close() error {
	if err := fp.m.Sync(); err != nil {
		fp.file.Close()
		return WrapError(IO, err)
	}
	if err := fp.m.Close(); err != nil {
		fp.file.Close()
		return WrapError(IO, err)
	}
	return fp.file.Close()
}

func (fp *FileProvider) pageAt(idx uint32) *Page {
	return &Page{Data: fp.m.PageAt(pageSize, idx)}
}

func (fp *FileProvider) Alloc(count int) ([]uint32, error) {
	if count <= 0 {
		return nil, nil
	}
	need := fp.usedPages + uint32(count)
	if need > fp.growToPage {
		newCap := fp.growToPage
		for newCap < need {
			newCap *= 2
		}
		if err := fp.m.Remap(int64(newCap) * pageSize); err != nil {
			return nil, WrapError(IO, err)
		}
		if err := fp.file.Truncate(int64(newCap) * pageSize); err != nil {
			return nil, WrapError(IO, err)
		}
		fp.growToPage = newCap
		fp.m.Advise()
		if got := fp.m.PageCapacity(pageSize); got != fp.growToPage {
			return nil, WrapError(IO, errRemapSizeMismatch)
		}
	}

	indices := make([]uint32, count)
	for i := 0; i < count; i++ {
		indices[i] = fp.usedPages
		fp.usedPages++
	}
	putUint32LE(fp.m.Data()[usedPagesOffset:], fp.usedPages)
	return indices, nil
}

func (fp *FileProvider) Page(index uint32) *Page {
	if index == 0 || index >= fp.usedPages {
		fault(MalformedPage, "page index out of range")
	}
	return fp.pageAt(index)
}

func (fp *FileProvider) MutPage(index uint32) (PageProvider, *Page) {
	return fp, fp.Page(index)
}

// IndexOf computes p's page index arithmetically from its offset into
// the mapping, rather than through a side index: all of FileProvider's
// pages live contiguously in one mapping, so the offset alone
// determines the index (unlike MemoryProvider, whose pages are
// independently heap-allocated and need internal/fastmap.PointerMap).
func (fp *FileProvider) IndexOf(p *Page) uint32 {
	base := uintptr(unsafe.Pointer(&fp.m.Data()[0]))
	addr := uintptr(unsafe.Pointer(&p.Data[0]))
	if addr < base {
		fault(MalformedPage, "page not owned by this provider")
	}
	off := addr - base
	if off%pageSize != 0 || off/pageSize >= uintptr(fp.usedPages) {
		fault(MalformedPage, "page not owned by this provider")
	}
	return uint32(off / pageSize)
}
