package heap_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/heap"
	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

func openFile(t *testing.T) *heap.HeapFile {
	t.Helper()
	desc, err := tuple.NewTupleDesc(
		[]types.Kind{types.IntKind, types.StringKind},
		[]string{"id", "name"},
	)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "people.dat")
	hf, err := heap.Open(path, desc)
	require.NoError(t, err)
	t.Cleanup(hf.Close)
	return hf
}

func TestIDStableAcrossReopen(t *testing.T) {
	desc, err := tuple.NewTupleDesc([]types.Kind{types.IntKind}, []string{"id"})
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "t.dat")

	a, err := heap.Open(path, desc)
	require.NoError(t, err)
	idA := a.ID()
	a.Close()

	b, err := heap.Open(path, desc)
	require.NoError(t, err)
	defer b.Close()
	require.Equal(t, idA, b.ID())
}

func TestAllocatePageExtendsFile(t *testing.T) {
	hf := openFile(t)
	require.Equal(t, 0, hf.NumPages())

	p, err := hf.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(0), p.ID().PageNo)
	require.Equal(t, 1, hf.NumPages())

	p2, err := hf.AllocatePage()
	require.NoError(t, err)
	require.Equal(t, uint32(1), p2.ID().PageNo)
	require.Equal(t, 2, hf.NumPages())
}

func TestReadPageAfterWrite(t *testing.T) {
	hf := openFile(t)
	p, err := hf.AllocatePage()
	require.NoError(t, err)

	row := tuple.NewTuple(hf.TupleDesc())
	row.SetField(0, types.IntField(5))
	row.SetField(1, types.StringField("carl"))
	require.NoError(t, p.AddTuple(row))
	require.NoError(t, hf.WritePage(p))

	got, err := hf.ReadPage(0)
	require.NoError(t, err)
	it := got.Iterator()
	require.True(t, it.HasNext())
	tup := it.Next()
	require.Equal(t, types.IntField(5), tup.Field(0))
	require.Equal(t, types.StringField("carl"), tup.Field(1))
}

func TestHeapFileIteratorWalksAllPages(t *testing.T) {
	hf := openFile(t)
	total := storage.NumSlots(hf.TupleDesc().Size())*2 + 3

	for i := 0; i < total; i++ {
		inserted := false
		for pn := 0; pn < hf.NumPages() && !inserted; pn++ {
			p, err := hf.ReadPage(uint32(pn))
			require.NoError(t, err)
			row := tuple.NewTuple(hf.TupleDesc())
			row.SetField(0, types.IntField(int32(i)))
			row.SetField(1, types.StringField("x"))
			if err := p.AddTuple(row); err == nil {
				require.NoError(t, hf.WritePage(p))
				inserted = true
			}
		}
		if !inserted {
			p, err := hf.AllocatePage()
			require.NoError(t, err)
			row := tuple.NewTuple(hf.TupleDesc())
			row.SetField(0, types.IntField(int32(i)))
			row.SetField(1, types.StringField("x"))
			require.NoError(t, p.AddTuple(row))
			require.NoError(t, hf.WritePage(p))
		}
	}

	fetch := func(pid pageid.PageId) (*storage.HeapPage, error) {
		return hf.ReadPage(pid.PageNo)
	}
	it := hf.Iterator(fetch)
	require.NoError(t, it.Open())

	count := 0
	for it.HasNext() {
		_, err := it.Next()
		require.NoError(t, err)
		count++
	}
	require.Equal(t, total, count)
}
