// Package heap implements HeapFile, the append-only on-disk sequence of
// fixed-size pages backing one table.
package heap

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/xio"
)

// HeapFile is the on-disk representation of one table: a flat sequence of
// storage.PageSize pages, page 0 first. Its TableID is derived from the
// file's absolute path so a catalog reload against the same file always
// yields the same identity.
type HeapFile struct {
	mu   sync.Mutex
	file *os.File
	path string
	desc tuple.TupleDesc
	id   pageid.TableID
}

// Open opens (creating if necessary) the heap file backing path under the
// given schema.
func Open(path string, desc tuple.TupleDesc) (*HeapFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		xio.CloseFile(f)
		return nil, err
	}
	sum := blake3.Sum256([]byte(abs))
	id := pageid.TableID(binary.BigEndian.Uint64(sum[:8]))

	return &HeapFile{file: f, path: abs, desc: desc, id: id}, nil
}

func (hf *HeapFile) ID() pageid.TableID       { return hf.id }
func (hf *HeapFile) Path() string             { return hf.path }
func (hf *HeapFile) TupleDesc() tuple.TupleDesc { return hf.desc }

// NumPages returns the number of pages currently in the file.
func (hf *HeapFile) NumPages() int {
	hf.mu.Lock()
	defer hf.mu.Unlock()
	return hf.numPagesLocked()
}

func (hf *HeapFile) numPagesLocked() int {
	fi, err := hf.file.Stat()
	if err != nil {
		return 0
	}
	return int(fi.Size() / storage.PageSize)
}

// ReadPage reads and parses page pageNo from disk.
func (hf *HeapFile) ReadPage(pageNo uint32) (*storage.HeapPage, error) {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	buf := make([]byte, storage.PageSize)
	off := int64(pageNo) * storage.PageSize
	if _, err := hf.file.ReadAt(buf, off); err != nil {
		return nil, err
	}
	pid := pageid.PageId{TableID: hf.id, PageNo: pageNo}
	return storage.NewHeapPage(pid, hf.desc, buf)
}

// WritePage writes p to its page's slot on disk, extending the file if p
// addresses the next unallocated page.
func (hf *HeapFile) WritePage(p *storage.HeapPage) error {
	hf.mu.Lock()
	defer hf.mu.Unlock()

	off := int64(p.ID().PageNo) * storage.PageSize
	_, err := hf.file.WriteAt(p.GetPageData(), off)
	return err
}

// AllocatePage appends a fresh, empty page and returns it.
func (hf *HeapFile) AllocatePage() (*storage.HeapPage, error) {
	hf.mu.Lock()
	n := hf.numPagesLocked()
	hf.mu.Unlock()

	pid := pageid.PageId{TableID: hf.id, PageNo: uint32(n)}
	p := storage.EmptyHeapPage(pid, hf.desc)
	if err := hf.WritePage(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Close releases the underlying file descriptor.
func (hf *HeapFile) Close() {
	xio.CloseFile(hf.file)
}

// PageFetcher retrieves a page by id, typically bound to a buffer pool's
// GetPage for one transaction and permission level. HeapFile has no
// reference to the buffer pool itself, so callers building an iterator
// supply this to keep reads going through the shared cache.
type PageFetcher func(pageid.PageId) (*storage.HeapPage, error)

// HeapFileIterator walks every tuple of the file page by page, delegating
// each page fetch to a PageFetcher (usually a buffer pool) so that
// concurrent readers observe cache-consistent pages.
type HeapFileIterator struct {
	file  *HeapFile
	fetch PageFetcher

	pageNo  uint32
	current *storage.PageIterator
}

// Iterator returns a fresh HeapFileIterator, not yet positioned on page 0.
// Callers must call Open before Next/HasNext.
func (hf *HeapFile) Iterator(fetch PageFetcher) *HeapFileIterator {
	return &HeapFileIterator{file: hf, fetch: fetch}
}

// Open positions the iterator at the first tuple of the file, if any.
func (it *HeapFileIterator) Open() error {
	it.pageNo = 0
	it.current = nil
	return it.advance()
}

// advance loads pages forward from it.pageNo until it finds one with a
// pending tuple or runs out of pages.
func (it *HeapFileIterator) advance() error {
	for {
		if it.current != nil && it.current.HasNext() {
			return nil
		}
		if int(it.pageNo) >= it.file.NumPages() {
			it.current = nil
			return nil
		}
		pid := pageid.PageId{TableID: it.file.id, PageNo: it.pageNo}
		page, err := it.fetch(pid)
		if err != nil {
			return err
		}
		it.current = page.Iterator()
		it.pageNo++
	}
}

func (it *HeapFileIterator) HasNext() bool {
	return it.current != nil && it.current.HasNext()
}

func (it *HeapFileIterator) Next() (*tuple.Tuple, error) {
	t := it.current.Next()
	if err := it.advance(); err != nil {
		return nil, err
	}
	return t, nil
}

// Rewind returns the iterator to the first tuple of the file.
func (it *HeapFileIterator) Rewind() error {
	return it.Open()
}

// Close releases the iterator's page cursor.
func (it *HeapFileIterator) Close() {
	it.current = nil
}
