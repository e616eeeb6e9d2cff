package bufferpool_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/bufferpool"
	"github.com/heapdb/heapdb/internal/catalog"
	"github.com/heapdb/heapdb/internal/heap"
	"github.com/heapdb/heapdb/internal/lock"
	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/txnlog"
	"github.com/heapdb/heapdb/internal/types"
)

type harness struct {
	cat *catalog.Catalog
	hf  *heap.HeapFile
	bp  *bufferpool.BufferPool
}

func newHarness(t *testing.T, capacity int) *harness {
	t.Helper()
	dir := t.TempDir()
	desc, err := tuple.NewTupleDesc(
		[]types.Kind{types.IntKind, types.StringKind},
		[]string{"id", "name"},
	)
	require.NoError(t, err)

	hf, err := heap.Open(filepath.Join(dir, "t.dat"), desc)
	require.NoError(t, err)
	t.Cleanup(hf.Close)

	cat := catalog.New()
	cat.AddTable(hf, "people", "id")

	wal, err := txnlog.Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	t.Cleanup(wal.Close)

	bp, err := bufferpool.New(capacity, cat, lock.NewManager(), wal)
	require.NoError(t, err)
	t.Cleanup(bp.Close)

	return &harness{cat: cat, hf: hf, bp: bp}
}

func row(id int32, name string) *tuple.Tuple {
	desc, _ := tuple.NewTupleDesc(
		[]types.Kind{types.IntKind, types.StringKind},
		[]string{"id", "name"},
	)
	r := tuple.NewTuple(desc)
	r.SetField(0, types.IntField(id))
	r.SetField(1, types.StringField(name))
	return r
}

func TestInsertThenScanSeesTuple(t *testing.T) {
	h := newHarness(t, 8)
	tid := tuple.NewTransactionId()

	require.NoError(t, h.bp.InsertTuple(tid, h.hf.ID(), row(1, "alice")))
	require.NoError(t, h.bp.TransactionComplete(tid, true))

	page, err := h.bp.GetPage(tuple.NewTransactionId(), pageid.PageId{TableID: h.hf.ID(), PageNo: 0}, bufferpool.ReadOnly)
	require.NoError(t, err)
	it := page.Iterator()
	require.True(t, it.HasNext())
	got := it.Next()
	require.Equal(t, types.IntField(1), got.Field(0))
}

func TestAbortRollsBackInsert(t *testing.T) {
	h := newHarness(t, 8)
	tid := tuple.NewTransactionId()

	pid := pageid.PageId{TableID: h.hf.ID(), PageNo: 0}
	_, err := h.hf.AllocatePage()
	require.NoError(t, err)
	before, err := h.bp.GetPage(tid, pid, bufferpool.ReadOnly)
	require.NoError(t, err)

	require.NoError(t, h.bp.InsertTuple(tid, h.hf.ID(), row(1, "alice")))
	require.NoError(t, h.bp.TransactionComplete(tid, false))

	after, err := h.bp.GetPage(tuple.NewTransactionId(), pid, bufferpool.ReadOnly)
	require.NoError(t, err)
	require.False(t, after.Iterator().HasNext())
	// Rollback must mutate the resident page in place, not replace it, so
	// any caller already holding the pointer (like `before` here) observes
	// the rollback too instead of a stale, still-dirty copy.
	require.Same(t, before, after)
	require.False(t, before.Iterator().HasNext())
}

func TestDeleteTupleRequiresRecordId(t *testing.T) {
	h := newHarness(t, 8)
	tid := tuple.NewTransactionId()
	require.ErrorIs(t, h.bp.DeleteTuple(tid, row(1, "alice")), bufferpool.ErrNoRecordId)
}

func TestInsertAcrossMultiplePages(t *testing.T) {
	h := newHarness(t, 64)
	tid := tuple.NewTransactionId()

	total := 3 * storage.NumSlots(h.hf.TupleDesc().Size()) // three full pages' worth of rows
	for i := 0; i < total; i++ {
		require.NoError(t, h.bp.InsertTuple(tid, h.hf.ID(), row(int32(i), "x")))
	}
	require.NoError(t, h.bp.TransactionComplete(tid, true))
	require.Greater(t, h.hf.NumPages(), 1)
}

func TestEvictionPrefersColdestCleanPage(t *testing.T) {
	dir := t.TempDir()
	desc, err := tuple.NewTupleDesc(
		[]types.Kind{types.IntKind, types.StringKind},
		[]string{"id", "name"},
	)
	require.NoError(t, err)

	hf, err := heap.Open(filepath.Join(dir, "t.dat"), desc)
	require.NoError(t, err)
	t.Cleanup(hf.Close)

	cat := catalog.New()
	cat.AddTable(hf, "people", "id")

	wal, err := txnlog.Open(filepath.Join(dir, "wal.log"))
	require.NoError(t, err)
	t.Cleanup(wal.Close)

	// Fill and commit enough rows to span at least 3 pages, through a pool
	// with room for every page dirtied by the one uncommitted fill
	// transaction (NO-STEAL forbids evicting a dirty page, so a small pool
	// would deadlock the fill itself).
	fillPool, err := bufferpool.New(64, cat, lock.NewManager(), wal)
	require.NoError(t, err)

	filler := tuple.NewTransactionId()
	total := 3 * storage.NumSlots(desc.Size())
	for i := 0; i < total; i++ {
		require.NoError(t, fillPool.InsertTuple(filler, hf.ID(), row(int32(i), "x")))
	}
	require.NoError(t, fillPool.TransactionComplete(filler, true))
	require.Greater(t, hf.NumPages(), 2)
	fillPool.Close()

	// Now exercise eviction against a fresh, small pool over the same
	// already-committed heap file, so every page it loads starts out clean.
	evictPool, err := bufferpool.New(2, cat, lock.NewManager(), wal)
	require.NoError(t, err)
	t.Cleanup(evictPool.Close)

	page0 := pageid.PageId{TableID: hf.ID(), PageNo: 0}
	page1 := pageid.PageId{TableID: hf.ID(), PageNo: 1}
	page2 := pageid.PageId{TableID: hf.ID(), PageNo: 2}

	reader := tuple.NewTransactionId()
	original0, err := evictPool.GetPage(reader, page0, bufferpool.ReadOnly)
	require.NoError(t, err)
	_, err = evictPool.GetPage(reader, page1, bufferpool.ReadOnly)
	require.NoError(t, err)

	// Re-touch page 0 many more times than page 1, so it is strictly
	// hotter. Loading page 2 next forces evictLocked to pick between the
	// two already-resident clean pages; it must prefer the colder one
	// (page 1) over page 0, even though a plain unweighted CLOCK sweep
	// would have no basis to prefer either.
	for i := 0; i < 20; i++ {
		_, err := evictPool.GetPage(reader, page0, bufferpool.ReadOnly)
		require.NoError(t, err)
	}

	original2, err := evictPool.GetPage(reader, page2, bufferpool.ReadOnly)
	require.NoError(t, err)

	still0, err := evictPool.GetPage(reader, page0, bufferpool.ReadOnly)
	require.NoError(t, err)
	require.Same(t, original0, still0)

	// Loading page 1 back forces a second eviction between the two
	// currently resident pages (page 0, still by far the hottest, and
	// page 2, just loaded once): page 2 must be the one to go.
	_, err = evictPool.GetPage(reader, page1, bufferpool.ReadOnly)
	require.NoError(t, err)

	stillNot0, err := evictPool.GetPage(reader, page0, bufferpool.ReadOnly)
	require.NoError(t, err)
	require.Same(t, original0, stillNot0)

	reloaded2, err := evictPool.GetPage(reader, page2, bufferpool.ReadOnly)
	require.NoError(t, err)
	require.NotSame(t, original2, reloaded2)
}

func TestStatsReportsBusiestPage(t *testing.T) {
	h := newHarness(t, 8)
	tid := tuple.NewTransactionId()
	require.NoError(t, h.bp.InsertTuple(tid, h.hf.ID(), row(1, "a")))
	require.NoError(t, h.bp.TransactionComplete(tid, true))

	pid := pageid.PageId{TableID: h.hf.ID(), PageNo: 0}
	for i := 0; i < 5; i++ {
		_, err := h.bp.GetPage(tuple.NewTransactionId(), pid, bufferpool.ReadOnly)
		require.NoError(t, err)
	}

	require.Contains(t, h.bp.Stats(), "busiest")
}

func TestNoCleanVictimWhenAllDirty(t *testing.T) {
	h := newHarness(t, 1)
	tid := tuple.NewTransactionId()

	desc := h.hf.TupleDesc()
	slots := storage.NumSlots(desc.Size())
	for i := 0; i < slots; i++ {
		require.NoError(t, h.bp.InsertTuple(tid, h.hf.ID(), row(int32(i), "x")))
	}

	// Page 0 is now full and still dirty (tid hasn't committed). With pool
	// capacity 1, spilling into a second page requires evicting page 0,
	// which NO-STEAL forbids.
	err := h.bp.InsertTuple(tid, h.hf.ID(), row(int32(slots), "overflow"))
	require.ErrorIs(t, err, bufferpool.ErrNoCleanVictim)
}
