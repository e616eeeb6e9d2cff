package tuple_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

func intDesc(names ...string) tuple.TupleDesc {
	kinds := make([]types.Kind, len(names))
	for i := range kinds {
		kinds[i] = types.IntKind
	}
	d, err := tuple.NewTupleDesc(kinds, names)
	if err != nil {
		panic(err)
	}
	return d
}

func TestTupleDescEqualIgnoresNames(t *testing.T) {
	a := intDesc("x", "y")
	b := intDesc("a", "b")
	require.True(t, a.Equal(b))
}

func TestTupleDescSize(t *testing.T) {
	d, err := tuple.NewTupleDesc([]types.Kind{types.IntKind, types.StringKind}, []string{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, types.IntWidth+types.StringWidth, d.Size())
}

func TestCombineTuples(t *testing.T) {
	left := tuple.NewTuple(intDesc("a"))
	left.SetField(0, types.IntField(1))
	right := tuple.NewTuple(intDesc("b"))
	right.SetField(0, types.IntField(2))

	got := tuple.CombineTuples(left, right)
	want := []types.Field{types.IntField(1), types.IntField(2)}

	if diff := cmp.Diff(want, got.Fields); diff != "" {
		t.Fatalf("combined fields mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, 2, got.Desc.NumFields())
}

func TestEmptySchemaRejected(t *testing.T) {
	_, err := tuple.NewTupleDesc(nil, nil)
	require.ErrorIs(t, err, tuple.ErrEmptySchema)
}
