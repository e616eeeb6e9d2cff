package operator

import "github.com/heapdb/heapdb/internal/tuple"

// Filter yields the tuples of child for which pred holds. Its schema is
// the child's, unchanged.
type Filter struct {
	base
	pred  Predicate
	child Operator
}

func NewFilter(pred Predicate, child Operator) *Filter {
	return &Filter{pred: pred, child: child}
}

func (f *Filter) Schema() tuple.TupleDesc { return f.child.Schema() }

func (f *Filter) Open() error {
	if err := f.child.Open(); err != nil {
		return err
	}
	f.base.readNext = f.readNext
	f.reset()
	return nil
}

func (f *Filter) readNext() (*tuple.Tuple, error) {
	for {
		has, err := f.child.HasNext()
		if err != nil || !has {
			return nil, err
		}
		t, err := f.child.Next()
		if err != nil {
			return nil, err
		}
		ok, err := f.pred.Eval(t)
		if err != nil {
			return nil, err
		}
		if ok {
			return t, nil
		}
	}
}

func (f *Filter) Rewind() error {
	f.reset()
	return f.child.Rewind()
}

func (f *Filter) Close() {
	f.child.Close()
}
