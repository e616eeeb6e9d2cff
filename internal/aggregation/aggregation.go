// Package aggregation implements the hash-based group-by aggregators that
// back the Aggregate operator: MIN/MAX/SUM/COUNT/AVG over integer fields,
// COUNT only over string fields.
package aggregation

import (
	"errors"
	"fmt"

	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// Op is one of the supported aggregate operators.
type Op uint8

const (
	Min Op = iota
	Max
	Sum
	Avg
	Count
)

func (op Op) String() string {
	switch op {
	case Min:
		return "min"
	case Max:
		return "max"
	case Sum:
		return "sum"
	case Avg:
		return "avg"
	case Count:
		return "count"
	default:
		return "?"
	}
}

// ErrIllegalArgument is returned when a string-field aggregator is asked
// for anything but Count.
var ErrIllegalArgument = errors.New("aggregation: operator not supported on string fields")

// NoGrouping means "aggregate the whole input into a single row" (there is
// no group-by column).
const NoGrouping = -1

// Aggregator accumulates tuples into per-group state and, once the input
// is drained, produces one result row per group.
type Aggregator interface {
	MergeTupleIntoGroup(t *tuple.Tuple)
	Iterator() ResultIterator
	Schema() tuple.TupleDesc
}

// ResultIterator walks an Aggregator's finished result rows. Its row order
// is fixed at construction (Iterator), so repeated Rewind/Next passes over
// the same instance always see the same order, even though that order is
// otherwise unspecified.
type ResultIterator interface {
	Open() error
	HasNext() bool
	Next() *tuple.Tuple
	Rewind() error
}

type sliceResultIterator struct {
	rows []*tuple.Tuple
	idx  int
}

func (it *sliceResultIterator) Open() error   { it.idx = 0; return nil }
func (it *sliceResultIterator) HasNext() bool { return it.idx < len(it.rows) }
func (it *sliceResultIterator) Next() *tuple.Tuple {
	t := it.rows[it.idx]
	it.idx++
	return t
}
func (it *sliceResultIterator) Rewind() error { it.idx = 0; return nil }

func resultSchema(groupField int, groupKind types.Kind, groupName string, op Op, aggFieldName string) tuple.TupleDesc {
	colName := fmt.Sprintf("%s(%s)", op, aggFieldName)
	if groupField == NoGrouping {
		d, _ := tuple.NewTupleDesc([]types.Kind{types.IntKind}, []string{colName})
		return d
	}
	d, _ := tuple.NewTupleDesc([]types.Kind{groupKind, types.IntKind}, []string{groupName, colName})
	return d
}
