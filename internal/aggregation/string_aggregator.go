package aggregation

import (
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// StringAggregator groups on an arbitrary field kind and counts rows per
// group. Any operator other than Count is rejected at construction, since
// MIN/MAX/SUM/AVG have no defined meaning over strings.
type StringAggregator struct {
	groupField     int
	groupKind      types.Kind
	groupFieldName string
	aggFieldName   string

	groups map[types.Field]int64
	single int64
	seen   bool
}

func NewStringAggregator(groupField int, groupKind types.Kind, groupFieldName string, aggFieldName string, op Op) (*StringAggregator, error) {
	if op != Count {
		return nil, ErrIllegalArgument
	}
	return &StringAggregator{
		groupField:     groupField,
		groupKind:      groupKind,
		groupFieldName: groupFieldName,
		aggFieldName:   aggFieldName,
		groups:         make(map[types.Field]int64),
	}, nil
}

func (a *StringAggregator) Schema() tuple.TupleDesc {
	return resultSchema(a.groupField, a.groupKind, a.groupFieldName, Count, a.aggFieldName)
}

func (a *StringAggregator) MergeTupleIntoGroup(t *tuple.Tuple) {
	if a.groupField == NoGrouping {
		a.single++
		a.seen = true
		return
	}
	key := t.Field(a.groupField)
	a.groups[key]++
}

func (a *StringAggregator) Iterator() ResultIterator {
	schema := a.Schema()
	var rows []*tuple.Tuple

	if a.groupField == NoGrouping {
		if a.seen {
			t := tuple.NewTuple(schema)
			t.SetField(0, types.IntField(int32(a.single)))
			rows = append(rows, t)
		}
	} else {
		for k, count := range a.groups {
			t := tuple.NewTuple(schema)
			t.SetField(0, k)
			t.SetField(1, types.IntField(int32(count)))
			rows = append(rows, t)
		}
	}
	return &sliceResultIterator{rows: rows}
}
