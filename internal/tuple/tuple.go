package tuple

import (
	"strings"

	"github.com/heapdb/heapdb/internal/types"
)

// Tuple is a row: a schema, one field per column (a slot may be nil if
// unset), and an optional RecordId set once the row has been persisted.
type Tuple struct {
	Desc     TupleDesc
	Fields   []types.Field
	RecordId *RecordId
}

// NewTuple allocates an empty tuple with all field slots unset.
func NewTuple(desc TupleDesc) *Tuple {
	return &Tuple{
		Desc:   desc,
		Fields: make([]types.Field, desc.NumFields()),
	}
}

// SetField sets column i to f.
func (t *Tuple) SetField(i int, f types.Field) {
	t.Fields[i] = f
}

// Field returns the value at column i, or nil if unset.
func (t *Tuple) Field(i int) types.Field {
	return t.Fields[i]
}

// String renders the tuple as tab-separated field values, newline
// terminated, per spec.
func (t *Tuple) String() string {
	var b strings.Builder
	for i, f := range t.Fields {
		if i > 0 {
			b.WriteByte('\t')
		}
		if f == nil {
			b.WriteString("NULL")
		} else {
			b.WriteString(f.String())
		}
	}
	b.WriteByte('\n')
	return b.String()
}

// CombineTuples concatenates two tuples' field lists under the combined
// schema, as produced by Join.
func CombineTuples(left, right *Tuple) *Tuple {
	desc := Combine(left.Desc, right.Desc)
	out := NewTuple(desc)
	copy(out.Fields, left.Fields)
	copy(out.Fields[len(left.Fields):], right.Fields)
	return out
}
