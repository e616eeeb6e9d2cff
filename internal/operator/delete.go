package operator

import (
	"github.com/heapdb/heapdb/internal/bufferpool"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// Delete drains child on its first Next, deleting every row (which must
// already carry a RecordId) through the buffer pool, and yields one
// (count) row.
type Delete struct {
	base
	tid   tuple.TransactionId
	child Operator
	bp    *bufferpool.BufferPool
	done  bool
}

func NewDelete(tid tuple.TransactionId, child Operator, bp *bufferpool.BufferPool) *Delete {
	return &Delete{tid: tid, child: child, bp: bp}
}

func (d *Delete) Schema() tuple.TupleDesc { return countSchema }

func (d *Delete) Open() error {
	if err := d.child.Open(); err != nil {
		return err
	}
	d.done = false
	d.base.readNext = d.readNext
	d.reset()
	return nil
}

func (d *Delete) readNext() (*tuple.Tuple, error) {
	if d.done {
		return nil, nil
	}
	d.done = true

	var count int32
	for {
		has, err := d.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := d.child.Next()
		if err != nil {
			return nil, err
		}
		if err := d.bp.DeleteTuple(d.tid, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(countSchema)
	result.SetField(0, types.IntField(count))
	return result, nil
}

func (d *Delete) Rewind() error {
	d.done = false
	d.reset()
	return d.child.Rewind()
}

func (d *Delete) Close() {
	d.child.Close()
}
