package operator

import (
	"github.com/heapdb/heapdb/internal/bufferpool"
	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

var countSchema = mustCountSchema()

func mustCountSchema() tuple.TupleDesc {
	d, err := tuple.NewTupleDesc([]types.Kind{types.IntKind}, []string{"count"})
	if err != nil {
		panic(err)
	}
	return d
}

// Insert drains child on its first Next, inserting every row into tableID
// through the buffer pool, and yields one (count) row. Every later Next
// returns nothing until Rewind/reopen.
type Insert struct {
	base
	tid     tuple.TransactionId
	child   Operator
	tableID pageid.TableID
	bp      *bufferpool.BufferPool
	done    bool
}

func NewInsert(tid tuple.TransactionId, child Operator, tableID pageid.TableID, bp *bufferpool.BufferPool) *Insert {
	return &Insert{tid: tid, child: child, tableID: tableID, bp: bp}
}

func (ins *Insert) Schema() tuple.TupleDesc { return countSchema }

func (ins *Insert) Open() error {
	if err := ins.child.Open(); err != nil {
		return err
	}
	ins.done = false
	ins.base.readNext = ins.readNext
	ins.reset()
	return nil
}

func (ins *Insert) readNext() (*tuple.Tuple, error) {
	if ins.done {
		return nil, nil
	}
	ins.done = true

	var count int32
	for {
		has, err := ins.child.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			break
		}
		t, err := ins.child.Next()
		if err != nil {
			return nil, err
		}
		if err := ins.bp.InsertTuple(ins.tid, ins.tableID, t); err != nil {
			return nil, err
		}
		count++
	}

	result := tuple.NewTuple(countSchema)
	result.SetField(0, types.IntField(count))
	return result, nil
}

func (ins *Insert) Rewind() error {
	ins.done = false
	ins.reset()
	return ins.child.Rewind()
}

func (ins *Insert) Close() {
	ins.child.Close()
}
