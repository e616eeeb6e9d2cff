package operator

import (
	"github.com/heapdb/heapdb/internal/aggregation"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// Aggregate drains child into a hash aggregator on Open, then iterates the
// aggregator's result rows. Rewind resets the result cursor without
// re-draining child.
type Aggregate struct {
	base
	child Operator
	agg   aggregation.Aggregator

	result aggregation.ResultIterator
}

// NewAggregate builds an aggregate over child's aggField grouped by
// groupField (aggregation.NoGrouping for none). It fails immediately, the
// way the aggregator constructors do, if op is not Count and aggField is a
// string column.
func NewAggregate(child Operator, aggField, groupField int, op aggregation.Op) (*Aggregate, error) {
	desc := child.Schema()
	aggFd := desc.FieldAt(aggField)

	groupKind, groupName := types.IntKind, ""
	if groupField != aggregation.NoGrouping {
		gfd := desc.FieldAt(groupField)
		groupKind, groupName = gfd.Kind, gfd.Name
	}

	var agg aggregation.Aggregator
	if aggFd.Kind == types.StringKind {
		strAgg, err := aggregation.NewStringAggregator(groupField, groupKind, groupName, aggFd.Name, op)
		if err != nil {
			return nil, err
		}
		agg = strAgg
	} else {
		agg = aggregation.NewIntAggregator(groupField, groupKind, groupName, aggField, aggFd.Name, op)
	}

	return &Aggregate{child: child, agg: agg}, nil
}

func (a *Aggregate) Schema() tuple.TupleDesc { return a.agg.Schema() }

func (a *Aggregate) Open() error {
	if err := a.child.Open(); err != nil {
		return err
	}

	for {
		has, err := a.child.HasNext()
		if err != nil {
			return err
		}
		if !has {
			break
		}
		t, err := a.child.Next()
		if err != nil {
			return err
		}
		a.agg.MergeTupleIntoGroup(t)
	}

	a.result = a.agg.Iterator()
	if err := a.result.Open(); err != nil {
		return err
	}
	a.base.readNext = a.readNext
	a.reset()
	return nil
}

func (a *Aggregate) readNext() (*tuple.Tuple, error) {
	if !a.result.HasNext() {
		return nil, nil
	}
	return a.result.Next(), nil
}

func (a *Aggregate) Rewind() error {
	a.reset()
	return a.result.Rewind()
}

func (a *Aggregate) Close() {
	a.child.Close()
}
