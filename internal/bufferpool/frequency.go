package bufferpool

import (
	"fmt"
	"hash/fnv"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/heapdb/heapdb/internal/pageid"
)

// hotness is an approximate, bounded-memory access-frequency sketch. It is
// purely advisory: nothing in the eviction path consults it to decide
// whether a page may be evicted at all (NO-STEAL's "never evict a dirty
// page" is the only hard rule) — clockReplacer.Victim only asks it to break
// ties among the clean, unreferenced pages a CLOCK sweep already turned up,
// preferring to evict the coldest one. Stats() also reports the busiest
// resident page.
type hotness struct {
	cache *ristretto.Cache[uint64, int64]
}

func newHotness() (*hotness, error) {
	c, err := ristretto.NewCache(&ristretto.Config[uint64, int64]{
		NumCounters: 10_000,
		MaxCost:     1 << 16,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &hotness{cache: c}, nil
}

func pageKey(pid pageid.PageId) uint64 {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d:%d", pid.TableID, pid.PageNo)
	return h.Sum64()
}

func (h *hotness) Bump(pid pageid.PageId) {
	key := pageKey(pid)
	count := int64(1)
	if v, ok := h.cache.Get(key); ok {
		count = v + 1
	}
	h.cache.Set(key, count, 1)
	h.cache.Wait()
}

func (h *hotness) Count(pid pageid.PageId) int64 {
	if v, ok := h.cache.Get(pageKey(pid)); ok {
		return v
	}
	return 0
}

func (h *hotness) Close() {
	h.cache.Close()
}
