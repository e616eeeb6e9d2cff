package operator

import (
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// Predicate evaluates `tuple[Field] op Operand` for Filter.
type Predicate struct {
	Field   int
	Op      types.CompareOp
	Operand types.Field
}

func (p Predicate) Eval(t *tuple.Tuple) (bool, error) {
	return t.Field(p.Field).Compare(p.Op, p.Operand)
}

// JoinPredicate evaluates `left[LeftField] op right[RightField]` for Join.
type JoinPredicate struct {
	LeftField  int
	Op         types.CompareOp
	RightField int
}

func (p JoinPredicate) Eval(left, right *tuple.Tuple) (bool, error) {
	return left.Field(p.LeftField).Compare(p.Op, right.Field(p.RightField))
}
