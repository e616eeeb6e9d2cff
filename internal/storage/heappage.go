// Package storage implements the fixed-size on-disk page format: a bitmap
// header tracking occupied slots followed by a packed array of fixed-width
// tuple slots. See spec §3/§4.1 for the exact layout.
package storage

import (
	"errors"

	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// PageSize is the fixed size, in bytes, of every page on disk.
const PageSize = 4096

var (
	ErrWrongSize      = errors.New("storage: buffer size != PageSize")
	ErrSchemaMismatch = errors.New("storage: tuple schema does not match page schema")
	ErrNotEnoughSpace = errors.New("storage: no empty slot available on page")
	ErrNotOnPage      = errors.New("storage: tuple record id does not address a slot on this page")
	ErrBadSlot        = errors.New("storage: slot index out of range")
)

// NumSlots computes how many tupleSize-byte slots fit on one PageSize page,
// once the one-bit-per-slot header bitmap is accounted for:
// slots = floor((PageSize*8) / (tupleSize*8 + 1)).
func NumSlots(tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	return (PageSize * 8) / (tupleSize*8 + 1)
}

// HeaderBytes returns ceil(numSlots/8), the size of the occupancy bitmap.
func HeaderBytes(numSlots int) int {
	return (numSlots + 7) / 8
}

// HeapPage is one fixed-size page of a HeapFile: a header bitmap plus a
// packed array of fixed-width tuple slots.
type HeapPage struct {
	id   pageid.PageId
	desc tuple.TupleDesc

	numSlots  int
	headerLen int
	tupleSize int

	header []byte   // headerLen bytes; bit i (LSB-first within byte) set => slot i occupied
	slots  [][]byte // numSlots entries of tupleSize bytes each; meaningful only where header bit is set

	dirtyBy *tuple.TransactionId
	before  []byte // serialized bytes as of the last commit, or as loaded/allocated if never committed
}

// NewHeapPage parses a fresh page from PageSize raw bytes.
func NewHeapPage(id pageid.PageId, desc tuple.TupleDesc, data []byte) (*HeapPage, error) {
	if len(data) != PageSize {
		return nil, ErrWrongSize
	}
	tupleSize := desc.Size()
	numSlots := NumSlots(tupleSize)
	headerLen := HeaderBytes(numSlots)

	p := &HeapPage{
		id:        id,
		desc:      desc,
		numSlots:  numSlots,
		headerLen: headerLen,
		tupleSize: tupleSize,
		header:    make([]byte, headerLen),
		slots:     make([][]byte, numSlots),
	}
	copy(p.header, data[:headerLen])

	off := headerLen
	for i := 0; i < numSlots; i++ {
		buf := make([]byte, tupleSize)
		copy(buf, data[off:off+tupleSize])
		p.slots[i] = buf
		off += tupleSize
	}
	p.captureBeforeImage()
	return p, nil
}

// EmptyHeapPage builds a fresh, all-empty page (used when a HeapFile
// allocates a new page rather than reading one from disk).
func EmptyHeapPage(id pageid.PageId, desc tuple.TupleDesc) *HeapPage {
	tupleSize := desc.Size()
	numSlots := NumSlots(tupleSize)
	headerLen := HeaderBytes(numSlots)
	slots := make([][]byte, numSlots)
	for i := range slots {
		slots[i] = make([]byte, tupleSize)
	}
	p := &HeapPage{
		id:        id,
		desc:      desc,
		numSlots:  numSlots,
		headerLen: headerLen,
		tupleSize: tupleSize,
		header:    make([]byte, headerLen),
		slots:     slots,
	}
	p.captureBeforeImage()
	return p
}

func (p *HeapPage) ID() pageid.PageId       { return p.id }
func (p *HeapPage) Schema() tuple.TupleDesc { return p.desc }
func (p *HeapPage) NumSlots() int           { return p.numSlots }

func (p *HeapPage) isOccupied(slot int) bool {
	return p.header[slot/8]&(1<<uint(slot%8)) != 0
}

func (p *HeapPage) setOccupied(slot int, occupied bool) {
	mask := byte(1 << uint(slot%8))
	if occupied {
		p.header[slot/8] |= mask
	} else {
		p.header[slot/8] &^= mask
	}
}

// GetNumEmptySlots counts the clear header bits.
func (p *HeapPage) GetNumEmptySlots() int {
	n := 0
	for i := 0; i < p.numSlots; i++ {
		if !p.isOccupied(i) {
			n++
		}
	}
	return n
}

// decodeSlot decodes the raw bytes of slot i into a Tuple with its
// RecordId stamped to (p.id, i).
func (p *HeapPage) decodeSlot(i int) *tuple.Tuple {
	t := tuple.NewTuple(p.desc)
	off := 0
	for c := 0; c < p.desc.NumFields(); c++ {
		fd := p.desc.FieldAt(c)
		w := fd.Kind.Width()
		switch fd.Kind {
		case types.IntKind:
			t.SetField(c, types.DecodeInt(p.slots[i][off:off+w]))
		case types.StringKind:
			t.SetField(c, types.DecodeString(p.slots[i][off:off+w]))
		}
		off += w
	}
	rid := tuple.RecordId{PageId: p.id, Slot: i}
	t.RecordId = &rid
	return t
}

func (p *HeapPage) encodeInto(dst []byte, t *tuple.Tuple) {
	off := 0
	for c := 0; c < p.desc.NumFields(); c++ {
		fd := p.desc.FieldAt(c)
		w := fd.Kind.Width()
		types.EncodeInto(dst[off:off+w], t.Field(c))
		off += w
	}
}

// PageIterator lazily walks the occupied slots of a page in ascending slot
// order, decoding each tuple only when Next is called.
type PageIterator struct {
	page *HeapPage
	next int
}

// Iterator returns a lazy sequence over the tuples currently in occupied
// slots, in ascending slot order.
func (p *HeapPage) Iterator() *PageIterator {
	return &PageIterator{page: p, next: 0}
}

func (it *PageIterator) HasNext() bool {
	for it.next < it.page.numSlots {
		if it.page.isOccupied(it.next) {
			return true
		}
		it.next++
	}
	return false
}

func (it *PageIterator) Next() *tuple.Tuple {
	t := it.page.decodeSlot(it.next)
	it.next++
	return t
}

// AddTuple inserts t into the lowest-index empty slot, stamping its
// RecordId. Fails with ErrNotEnoughSpace if the page is full, or
// ErrSchemaMismatch if t's schema disagrees with the page's.
func (p *HeapPage) AddTuple(t *tuple.Tuple) error {
	if !t.Desc.Equal(p.desc) {
		return ErrSchemaMismatch
	}
	for i := 0; i < p.numSlots; i++ {
		if !p.isOccupied(i) {
			p.encodeInto(p.slots[i], t)
			p.setOccupied(i, true)
			rid := tuple.RecordId{PageId: p.id, Slot: i}
			t.RecordId = &rid
			return nil
		}
	}
	return ErrNotEnoughSpace
}

// DeleteTuple clears the slot addressed by t.RecordId. Fails with
// ErrNotOnPage if the record id does not name an occupied slot on this
// page (including the case where it names an already-deleted slot).
func (p *HeapPage) DeleteTuple(t *tuple.Tuple) error {
	if t.RecordId == nil || t.RecordId.PageId != p.id {
		return ErrNotOnPage
	}
	slot := t.RecordId.Slot
	if slot < 0 || slot >= p.numSlots || !p.isOccupied(slot) {
		return ErrNotOnPage
	}
	p.setOccupied(slot, false)
	for i := range p.slots[slot] {
		p.slots[slot][i] = 0
	}
	return nil
}

// GetPageData serializes the page to exactly PageSize bytes: header bitmap
// followed by the packed slot array, zero-padded to PageSize. It round-trips
// exactly through NewHeapPage.
func (p *HeapPage) GetPageData() []byte {
	buf := make([]byte, PageSize)
	copy(buf, p.header)
	off := p.headerLen
	for i := 0; i < p.numSlots; i++ {
		copy(buf[off:off+p.tupleSize], p.slots[i])
		off += p.tupleSize
	}
	return buf
}

// MarkDirty records which transaction (if any) has dirtied this page.
// Passing dirty=false clears the dirtying transaction.
func (p *HeapPage) MarkDirty(dirty bool, tid tuple.TransactionId) {
	if !dirty {
		p.dirtyBy = nil
		return
	}
	t := tid
	p.dirtyBy = &t
}

// IsDirty returns the dirtying transaction, or nil if the page is clean.
func (p *HeapPage) IsDirty() *tuple.TransactionId { return p.dirtyBy }

// GetBeforeImage returns the page's byte snapshot as of the last commit, or
// its as-loaded/as-allocated contents if it has never since been committed.
// Both constructors capture this snapshot before any caller can mutate the
// page, so it is never nil.
func (p *HeapPage) GetBeforeImage() []byte {
	return p.before
}

// SetBeforeImage captures the current bytes as the new before-image. Called
// by the buffer pool once a dirtying transaction commits.
func (p *HeapPage) SetBeforeImage() {
	p.before = p.GetPageData()
}

// captureBeforeImage snapshots the page's just-constructed contents as its
// before-image, prior to any AddTuple/DeleteTuple mutation.
func (p *HeapPage) captureBeforeImage() {
	p.before = p.GetPageData()
}

// RestoreBeforeImage overwrites the page's header and slots in place with
// its before-image, undoing every mutation since the last commit (or since
// the page was loaded/allocated, if it was never committed). It mutates the
// existing HeapPage rather than replacing it, so any caller already holding
// this *HeapPage (e.g. an in-flight PageIterator) observes the rollback
// through the same pointer instead of a stale, still-dirty copy.
func (p *HeapPage) RestoreBeforeImage() {
	copy(p.header, p.before[:p.headerLen])
	off := p.headerLen
	for i := 0; i < p.numSlots; i++ {
		copy(p.slots[i], p.before[off:off+p.tupleSize])
		off += p.tupleSize
	}
}
