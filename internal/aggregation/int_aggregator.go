package aggregation

import (
	"math"

	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

type intGroupState struct {
	acc   int64
	count int64
}

func newIntGroupState(op Op) *intGroupState {
	switch op {
	case Min:
		return &intGroupState{acc: math.MaxInt64}
	case Max:
		return &intGroupState{acc: math.MinInt64}
	default:
		return &intGroupState{}
	}
}

func (s *intGroupState) merge(op Op, v int64) {
	switch op {
	case Min:
		if v < s.acc {
			s.acc = v
		}
	case Max:
		if v > s.acc {
			s.acc = v
		}
	case Sum:
		s.acc += v
	case Count:
		s.acc++
	case Avg:
		s.acc += v
		s.count++
	}
}

func (s *intGroupState) result(op Op) int64 {
	if op == Avg {
		if s.count == 0 {
			return 0
		}
		return s.acc / s.count
	}
	return s.acc
}

// IntAggregator groups on an arbitrary field kind (or not at all) and
// aggregates an integer field with MIN, MAX, SUM, COUNT, or AVG.
type IntAggregator struct {
	groupField     int
	groupKind      types.Kind
	groupFieldName string
	aggField       int
	aggFieldName   string
	op             Op

	groups map[types.Field]*intGroupState
	single *intGroupState
}

func NewIntAggregator(groupField int, groupKind types.Kind, groupFieldName string, aggField int, aggFieldName string, op Op) *IntAggregator {
	return &IntAggregator{
		groupField:     groupField,
		groupKind:      groupKind,
		groupFieldName: groupFieldName,
		aggField:       aggField,
		aggFieldName:   aggFieldName,
		op:             op,
		groups:         make(map[types.Field]*intGroupState),
	}
}

func (a *IntAggregator) Schema() tuple.TupleDesc {
	return resultSchema(a.groupField, a.groupKind, a.groupFieldName, a.op, a.aggFieldName)
}

func (a *IntAggregator) MergeTupleIntoGroup(t *tuple.Tuple) {
	v := int64(t.Field(a.aggField).(types.IntField))

	if a.groupField == NoGrouping {
		if a.single == nil {
			a.single = newIntGroupState(a.op)
		}
		a.single.merge(a.op, v)
		return
	}

	key := t.Field(a.groupField)
	s, ok := a.groups[key]
	if !ok {
		s = newIntGroupState(a.op)
		a.groups[key] = s
	}
	s.merge(a.op, v)
}

func (a *IntAggregator) Iterator() ResultIterator {
	schema := a.Schema()
	var rows []*tuple.Tuple

	build := func(groupVal types.Field, s *intGroupState) *tuple.Tuple {
		t := tuple.NewTuple(schema)
		result := types.IntField(int32(s.result(a.op)))
		if a.groupField == NoGrouping {
			t.SetField(0, result)
		} else {
			t.SetField(0, groupVal)
			t.SetField(1, result)
		}
		return t
	}

	if a.groupField == NoGrouping {
		if a.single != nil {
			rows = append(rows, build(nil, a.single))
		}
	} else {
		for k, s := range a.groups {
			rows = append(rows, build(k, s))
		}
	}
	return &sliceResultIterator{rows: rows}
}
