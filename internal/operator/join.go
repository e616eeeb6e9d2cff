package operator

import "github.com/heapdb/heapdb/internal/tuple"

// Join is a nested-loop join: it preserves the current outer row across a
// full sweep of the inner child, rewinding the inner and advancing the
// outer once the inner is exhausted. Its schema concatenates the two
// children's schemas.
type Join struct {
	base
	pred        JoinPredicate
	left, right Operator
	outer       *tuple.Tuple
}

func NewJoin(pred JoinPredicate, left, right Operator) *Join {
	return &Join{pred: pred, left: left, right: right}
}

func (j *Join) Schema() tuple.TupleDesc {
	return tuple.Combine(j.left.Schema(), j.right.Schema())
}

func (j *Join) Open() error {
	if err := j.left.Open(); err != nil {
		return err
	}
	if err := j.right.Open(); err != nil {
		return err
	}
	j.outer = nil
	j.base.readNext = j.readNext
	j.reset()
	return nil
}

func (j *Join) readNext() (*tuple.Tuple, error) {
	for {
		if j.outer == nil {
			has, err := j.left.HasNext()
			if err != nil {
				return nil, err
			}
			if !has {
				return nil, nil
			}
			outer, err := j.left.Next()
			if err != nil {
				return nil, err
			}
			j.outer = outer
			if err := j.right.Rewind(); err != nil {
				return nil, err
			}
		}

		has, err := j.right.HasNext()
		if err != nil {
			return nil, err
		}
		if !has {
			j.outer = nil
			continue
		}
		inner, err := j.right.Next()
		if err != nil {
			return nil, err
		}
		ok, err := j.pred.Eval(j.outer, inner)
		if err != nil {
			return nil, err
		}
		if ok {
			return tuple.CombineTuples(j.outer, inner), nil
		}
	}
}

func (j *Join) Rewind() error {
	j.outer = nil
	j.reset()
	return j.left.Rewind()
}

func (j *Join) Close() {
	j.left.Close()
	j.right.Close()
}
