// Package bufferpool implements the transactional page cache: the sole
// gateway operators use to reach pages, enforcing NO-STEAL eviction and
// FORCE commit/abort.
package bufferpool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dustin/go-humanize"

	"github.com/heapdb/heapdb/internal/catalog"
	"github.com/heapdb/heapdb/internal/lock"
	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/txnlog"
)

// Permission mirrors internal/lock.Permission so callers don't have to
// import both packages for one enum.
type Permission = lock.Permission

const (
	ReadOnly  = lock.ReadOnly
	ReadWrite = lock.ReadWrite
)

// ErrNoCleanVictim is returned when eviction is required but every cached
// page is dirty.
var ErrNoCleanVictim = errors.New("bufferpool: no clean page available for eviction")

// ErrNoRecordId is returned by DeleteTuple for a tuple that was never
// persisted.
var ErrNoRecordId = errors.New("bufferpool: tuple has no record id")

// BufferPool is a bounded, shared cache of pages spanning every table
// registered in its catalog. It is the only component that touches a
// DbFile's ReadPage/WritePage directly once a database is up and running.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	pages    map[pageid.PageId]*storage.HeapPage
	clock    *clockReplacer
	hot      *hotness

	locks   *lock.Manager
	catalog *catalog.Catalog
	wal     *txnlog.Log
}

// New builds a buffer pool with room for capacity resident pages.
func New(capacity int, cat *catalog.Catalog, locks *lock.Manager, wal *txnlog.Log) (*BufferPool, error) {
	hot, err := newHotness()
	if err != nil {
		return nil, err
	}
	return &BufferPool{
		capacity: capacity,
		pages:    make(map[pageid.PageId]*storage.HeapPage),
		clock:    newClockReplacer(),
		hot:      hot,
		locks:    locks,
		catalog:  cat,
		wal:      wal,
	}, nil
}

// Close releases resources the pool owns that aren't shared with its
// caller (the hotness sketch's background goroutines).
func (bp *BufferPool) Close() {
	bp.hot.Close()
}

// GetPage acquires the requested lock (may block, may abort), then returns
// the page, loading it from its DbFile on a cache miss and evicting a clean
// victim first if the pool is full.
func (bp *BufferPool) GetPage(tid tuple.TransactionId, pid pageid.PageId, perm Permission) (*storage.HeapPage, error) {
	if err := bp.locks.AcquireLock(tid, pid, perm); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if page, ok := bp.pages[pid]; ok {
		bp.clock.Touch(pid)
		bp.hot.Bump(pid)
		return page, nil
	}

	if len(bp.pages) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	dbFile, err := bp.catalog.GetDbFile(pid.TableID)
	if err != nil {
		return nil, err
	}
	page, err := dbFile.ReadPage(pid.PageNo)
	if err != nil {
		return nil, err
	}
	bp.installLocked(page)
	return page, nil
}

// installLocked registers a page (freshly read or freshly allocated) as
// resident. Caller must hold bp.mu.
func (bp *BufferPool) installLocked(page *storage.HeapPage) {
	bp.pages[page.ID()] = page
	bp.clock.Add(page.ID())
	bp.hot.Bump(page.ID())
}

func (bp *BufferPool) evictLocked() error {
	victim, ok := bp.clock.Victim(
		func(pid pageid.PageId) bool { return bp.pages[pid].IsDirty() != nil },
		bp.hot.Count,
	)
	if !ok {
		return ErrNoCleanVictim
	}
	delete(bp.pages, victim)
	bp.clock.Remove(victim)
	return nil
}

// InsertTuple scans tableId's pages in page-number order for the first
// with an empty slot, inserting there; failing that, it allocates a new
// page. The dirtied page's dirty flag is set to tid.
func (bp *BufferPool) InsertTuple(tid tuple.TransactionId, tableID pageid.TableID, t *tuple.Tuple) error {
	dbFile, err := bp.catalog.GetDbFile(tableID)
	if err != nil {
		return err
	}

	for pn := 0; pn < dbFile.NumPages(); pn++ {
		pid := pageid.PageId{TableID: tableID, PageNo: uint32(pn)}
		page, err := bp.GetPage(tid, pid, ReadWrite)
		if err != nil {
			return err
		}
		if err := page.AddTuple(t); err == nil {
			page.MarkDirty(true, tid)
			bp.mu.Lock()
			bp.hot.Bump(pid)
			bp.mu.Unlock()
			return nil
		} else if !errors.Is(err, storage.ErrNotEnoughSpace) {
			return err
		}
	}

	newPage, err := dbFile.AllocatePage()
	if err != nil {
		return err
	}
	pid := newPage.ID()
	if err := bp.locks.AcquireLock(tid, pid, ReadWrite); err != nil {
		return err
	}

	bp.mu.Lock()
	if _, ok := bp.pages[pid]; !ok {
		if len(bp.pages) >= bp.capacity {
			if err := bp.evictLocked(); err != nil {
				bp.mu.Unlock()
				return err
			}
		}
		bp.installLocked(newPage)
	}
	page := bp.pages[pid]
	bp.mu.Unlock()

	if err := page.AddTuple(t); err != nil {
		return err
	}
	page.MarkDirty(true, tid)
	return nil
}

// DeleteTuple removes t (which must carry a RecordId) from its page,
// marking the page dirty-by-tid.
func (bp *BufferPool) DeleteTuple(tid tuple.TransactionId, t *tuple.Tuple) error {
	if t.RecordId == nil {
		return ErrNoRecordId
	}
	page, err := bp.GetPage(tid, t.RecordId.PageId, ReadWrite)
	if err != nil {
		return err
	}
	if err := page.DeleteTuple(t); err != nil {
		return err
	}
	page.MarkDirty(true, tid)
	return nil
}

// TransactionComplete implements the FORCE commit/abort protocol: on
// commit, every page tid dirtied is logged, force-flushed, and written to
// its heap file; on abort, every such page's bytes are replaced with its
// before-image. Every one of tid's locks is released on the way out,
// commit or abort, success or failure.
func (bp *BufferPool) TransactionComplete(tid tuple.TransactionId, commit bool) error {
	defer bp.locks.ReleasePages(tid)

	bp.mu.Lock()
	defer bp.mu.Unlock()

	for pid, page := range bp.pages {
		dirtyTid := page.IsDirty()
		if dirtyTid == nil || *dirtyTid != tid {
			continue
		}
		if commit {
			before := page.GetBeforeImage()
			after := page.GetPageData()
			if _, err := bp.wal.LogWrite(tid, before, after); err != nil {
				return err
			}
			if err := bp.wal.Force(); err != nil {
				return err
			}
			dbFile, err := bp.catalog.GetDbFile(pid.TableID)
			if err != nil {
				return err
			}
			if err := dbFile.WritePage(page); err != nil {
				return err
			}
			page.MarkDirty(false, tid)
			page.SetBeforeImage()
		} else {
			page.RestoreBeforeImage()
			page.MarkDirty(false, tid)
		}
	}
	return nil
}

func (bp *BufferPool) flushPageLocked(pid pageid.PageId) error {
	page, ok := bp.pages[pid]
	if !ok {
		return nil
	}
	dbFile, err := bp.catalog.GetDbFile(pid.TableID)
	if err != nil {
		return err
	}
	if err := dbFile.WritePage(page); err != nil {
		return err
	}
	page.MarkDirty(false, tuple.TransactionId{})
	page.SetBeforeImage()
	return nil
}

// FlushAllPages writes every resident page to disk, dirty or not, and
// clears dirty flags. Intended for tests and the external recovery
// collaborator, not for use inside the commit path.
func (bp *BufferPool) FlushAllPages() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for pid := range bp.pages {
		if err := bp.flushPageLocked(pid); err != nil {
			return err
		}
	}
	return nil
}

// FlushPages writes every page dirtied by tid to disk and clears their
// dirty flags, without releasing tid's locks or touching the log.
func (bp *BufferPool) FlushPages(tid tuple.TransactionId) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for pid, page := range bp.pages {
		if d := page.IsDirty(); d != nil && *d == tid {
			if err := bp.flushPageLocked(pid); err != nil {
				return err
			}
		}
	}
	return nil
}

// DiscardPage evicts pid from the cache without flushing it.
func (bp *BufferPool) DiscardPage(pid pageid.PageId) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	delete(bp.pages, pid)
	bp.clock.Remove(pid)
}

// Stats reports resident page counts, dirty count, and the busiest
// resident page by the advisory hotness sketch, human-readable.
func (bp *BufferPool) Stats() string {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	dirty := 0
	var (
		haveHottest bool
		hottest     pageid.PageId
		hottestHits int64
	)
	for pid, p := range bp.pages {
		if p.IsDirty() != nil {
			dirty++
		}
		if hits := bp.hot.Count(pid); !haveHottest || hits > hottestHits {
			haveHottest, hottest, hottestHits = true, pid, hits
		}
	}

	summary := fmt.Sprintf(
		"bufferpool: %s/%s pages resident, %s dirty",
		humanize.Comma(int64(len(bp.pages))),
		humanize.Comma(int64(bp.capacity)),
		humanize.Comma(int64(dirty)),
	)
	if !haveHottest {
		return summary
	}
	return fmt.Sprintf("%s, busiest %s (%s hits)", summary, hottest, humanize.Comma(hottestHits))
}
