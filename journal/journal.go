// Package journal records a write-ahead log of page mutations and
// free-form messages, grounded on original_source/src/journal.rs's
// DiskJournal/Entry. The Rust original serializes a tagged enum with
// serde_json; this port uses a single struct with a Kind discriminant
// encoded via the standard library's encoding/gob, in the style the
// teacher (Giulio2002/gdbx) favors for ambient concerns — reach for
// a stdlib encoder before a third-party serialization library when
// the format doesn't need to be read by anything outside this
// process.
package journal

import (
	"bufio"
	"encoding/gob"
	"errors"
	"io"
	"os"

	"pagedstore"
)

// EntryKind discriminates an Entry's payload, replacing journal.rs's
// serde(tag = "type") enum tagging.
type EntryKind uint8

const (
	// KindWrite records that bytes were written to page at offset.
	KindWrite EntryKind = iota + 1
	// KindMsg records a free-form message, e.g. a checkpoint marker.
	KindMsg
)

// Entry is one journal record. Only the fields relevant to Kind are
// populated; Write uses Page/Offset/Bytes, Msg uses Msg.
type Entry struct {
	Kind   EntryKind
	Page   uint32
	Offset uint16
	Bytes  []byte
	Msg    string
}

// WriteEntry builds a KindWrite entry recording bytes written to page
// at offset, the journal.rs equivalent of Entry::write_slice.
func WriteEntry(page uint32, offset uint16, bytes []byte) Entry {
	buf := make([]byte, len(bytes))
	copy(buf, bytes)
	return Entry{Kind: KindWrite, Page: page, Offset: offset, Bytes: buf}
}

// MsgEntry builds a KindMsg entry carrying a free-form message.
func MsgEntry(msg string) Entry {
	return Entry{Kind: KindMsg, Msg: msg}
}

// Journal is anything that can durably record entries in order.
type Journal interface {
	Add(e Entry) error
}

// MemoryLog is an in-memory Journal: useful in tests, and as a
// staging buffer ahead of a DiskLog flush.
type MemoryLog struct {
	entries []Entry
}

// NewMemoryLog returns an empty MemoryLog.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (m *MemoryLog) Add(e Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

// Entries returns every entry added so far, in order.
func (m *MemoryLog) Entries() []Entry {
	return m.entries
}

// Replay applies every KindWrite entry in order to pp, copying Bytes
// into page Page starting at Offset. KindMsg entries are skipped: they
// carry no page mutation, only a marker for whatever recorded them.
// This is journal.rs's replay-onto-a-fresh-map shape, generalized from
// a map onto the PageProvider boundary the core is built around.
func Replay(entries []Entry, pp pagedstore.PageProvider) {
	for _, e := range entries {
		if e.Kind != KindWrite {
			continue
		}
		_, p := pp.MutPage(e.Page)
		copy(p.Data[e.Offset:], e.Bytes)
	}
}

// DiskLog appends gob-encoded entries to a file opened in append mode,
// mirroring DiskJournal's BufWriter<File> opened with create+append.
type DiskLog struct {
	path string
	file *os.File
	w    *bufio.Writer
	enc  *gob.Encoder
}

// NewDiskLog opens (creating if necessary) path for append and
// returns a DiskLog over it.
func NewDiskLog(path string) (*DiskLog, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriter(f)
	return &DiskLog{path: path, file: f, w: w, enc: gob.NewEncoder(w)}, nil
}

// Add encodes and buffers entry; call Flush to make it durable.
func (d *DiskLog) Add(e Entry) error {
	return d.enc.Encode(&e)
}

// Flush drains the buffered writer and fsyncs the file, the Go
// equivalent of DiskJournal::flush's BufWriter::into_inner + sync_all.
func (d *DiskLog) Flush() error {
	if err := d.w.Flush(); err != nil {
		return err
	}
	return d.file.Sync()
}

// Close flushes and releases the underlying file.
func (d *DiskLog) Close() error {
	if err := d.Flush(); err != nil {
		d.file.Close()
		return err
	}
	return d.file.Close()
}

// Read decodes every entry flushed to the file so far, in order, the
// equivalent of DiskJournal::read's fresh-reader-from-offset-zero
// approach (a second file handle, so it never competes with the
// writer's cursor). Entries added since the last Flush are still
// buffered and are not returned.
func (d *DiskLog) Read() ([]Entry, error) {
	f, err := os.Open(d.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := gob.NewDecoder(f)
	var entries []Entry
	for {
		var e Entry
		err := dec.Decode(&e)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
