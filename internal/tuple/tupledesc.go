// Package tuple defines the row and schema model: TupleDesc (schema),
// Tuple (row), and RecordId (physical row address).
package tuple

import (
	"errors"
	"fmt"

	"github.com/heapdb/heapdb/internal/types"
)

// ErrEmptySchema is returned by NewTupleDesc for a zero-length column list.
var ErrEmptySchema = errors.New("tuple: schema must have at least one field")

// FieldDesc names one column of a TupleDesc. Name is advisory: TupleDesc
// equality only compares Kind.
type FieldDesc struct {
	Kind types.Kind
	Name string
}

// TupleDesc is an ordered, non-empty sequence of field descriptors.
type TupleDesc struct {
	fields []FieldDesc
}

// NewTupleDesc builds a schema from parallel kind/name slices.
func NewTupleDesc(kinds []types.Kind, names []string) (TupleDesc, error) {
	if len(kinds) == 0 {
		return TupleDesc{}, ErrEmptySchema
	}
	fields := make([]FieldDesc, len(kinds))
	for i, k := range kinds {
		name := ""
		if i < len(names) {
			name = names[i]
		}
		fields[i] = FieldDesc{Kind: k, Name: name}
	}
	return TupleDesc{fields: fields}, nil
}

// NumFields returns the number of columns.
func (td TupleDesc) NumFields() int { return len(td.fields) }

// FieldAt returns the descriptor for column i.
func (td TupleDesc) FieldAt(i int) FieldDesc { return td.fields[i] }

// Size is the on-disk width of one row under this schema, in bytes.
func (td TupleDesc) Size() int {
	n := 0
	for _, f := range td.fields {
		n += f.Kind.Width()
	}
	return n
}

// Equal compares the type sequence only; field names are advisory.
func (td TupleDesc) Equal(other TupleDesc) bool {
	if len(td.fields) != len(other.fields) {
		return false
	}
	for i, f := range td.fields {
		if f.Kind != other.fields[i].Kind {
			return false
		}
	}
	return true
}

// NameOf returns the advisory name of field i (zero-indexed), or "" if unset.
func (td TupleDesc) NameOf(i int) string { return td.fields[i].Name }

// IndexOf returns the position of the first field with the given name, or
// -1 if none matches.
func (td TupleDesc) IndexOf(name string) int {
	for i, f := range td.fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Combine concatenates two schemas, as used by Join's output schema.
func Combine(left, right TupleDesc) TupleDesc {
	fields := make([]FieldDesc, 0, len(left.fields)+len(right.fields))
	fields = append(fields, left.fields...)
	fields = append(fields, right.fields...)
	return TupleDesc{fields: fields}
}

func (td TupleDesc) String() string {
	s := "("
	for i, f := range td.fields {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s %s", f.Kind, f.Name)
	}
	return s + ")"
}
