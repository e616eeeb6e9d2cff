package operator

import (
	"github.com/heapdb/heapdb/internal/bufferpool"
	"github.com/heapdb/heapdb/internal/heap"
	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
)

// SeqScan reads every tuple of a heap file, page by page, through the
// buffer pool under READ_ONLY permission.
type SeqScan struct {
	base
	tid tuple.TransactionId
	hf  *heap.HeapFile
	bp  *bufferpool.BufferPool
	it  *heap.HeapFileIterator
}

func NewSeqScan(tid tuple.TransactionId, hf *heap.HeapFile, bp *bufferpool.BufferPool) *SeqScan {
	return &SeqScan{tid: tid, hf: hf, bp: bp}
}

func (s *SeqScan) Schema() tuple.TupleDesc { return s.hf.TupleDesc() }

func (s *SeqScan) Open() error {
	fetch := func(pid pageid.PageId) (*storage.HeapPage, error) {
		return s.bp.GetPage(s.tid, pid, bufferpool.ReadOnly)
	}
	s.it = s.hf.Iterator(fetch)
	if err := s.it.Open(); err != nil {
		return err
	}
	s.base.readNext = s.readNext
	s.reset()
	return nil
}

func (s *SeqScan) readNext() (*tuple.Tuple, error) {
	if !s.it.HasNext() {
		return nil, nil
	}
	return s.it.Next()
}

func (s *SeqScan) Rewind() error {
	s.reset()
	return s.it.Rewind()
}

func (s *SeqScan) Close() {
	s.it.Close()
}
