package bufferpool

import "github.com/heapdb/heapdb/internal/pageid"

// clockReplacer is a second-chance (CLOCK) replacer over the set of
// currently resident pages. It never itself decides that a page is safe to
// evict: eviction under NO-STEAL additionally requires the page to be
// clean, which the caller supplies via the isDirty predicate passed to
// Victim.
type clockReplacer struct {
	order []pageid.PageId
	index map[pageid.PageId]int
	ref   map[pageid.PageId]bool
	hand  int
}

func newClockReplacer() *clockReplacer {
	return &clockReplacer{
		index: make(map[pageid.PageId]int),
		ref:   make(map[pageid.PageId]bool),
	}
}

// Add registers a newly resident page with its reference bit set (it was
// just touched by whoever loaded it).
func (c *clockReplacer) Add(pid pageid.PageId) {
	if _, ok := c.index[pid]; ok {
		c.ref[pid] = true
		return
	}
	c.index[pid] = len(c.order)
	c.order = append(c.order, pid)
	c.ref[pid] = true
}

// Touch sets pid's reference bit, giving it a second chance at the next
// sweep.
func (c *clockReplacer) Touch(pid pageid.PageId) {
	if _, ok := c.index[pid]; ok {
		c.ref[pid] = true
	}
}

// Remove evicts pid from the replacer's bookkeeping.
func (c *clockReplacer) Remove(pid pageid.PageId) {
	i, ok := c.index[pid]
	if !ok {
		return
	}
	last := len(c.order) - 1
	c.order[i] = c.order[last]
	c.index[c.order[i]] = i
	c.order = c.order[:last]
	delete(c.index, pid)
	delete(c.ref, pid)
	// order now has length `last`; valid indices are 0..last-1.
	if c.hand >= last {
		c.hand = 0
	}
}

// Victim sweeps two full laps of the clock, clearing reference bits as it
// goes (the second lap is what gives a referenced page its second chance).
// Dirty pages are skipped forever, since NO-STEAL forbids evicting them.
// Among every clean, unreferenced page either lap turns up, it picks
// whichever one coldest scores lowest and leaves the hand there. Returns
// ok=false if the sweep finds no clean candidate at all.
func (c *clockReplacer) Victim(isDirty func(pageid.PageId) bool, coldest func(pageid.PageId) int64) (pageid.PageId, bool) {
	n := len(c.order)
	if n == 0 {
		return pageid.PageId{}, false
	}

	var (
		found   bool
		best    pageid.PageId
		bestIdx int
		bestHot int64
	)

	for i := 0; i < 2*n; i++ {
		idx := c.hand
		pid := c.order[idx]
		if c.ref[pid] {
			c.ref[pid] = false
			c.hand = (c.hand + 1) % n
			continue
		}
		if isDirty(pid) {
			c.hand = (c.hand + 1) % n
			continue
		}
		if hot := coldest(pid); !found || hot < bestHot {
			found, best, bestIdx, bestHot = true, pid, idx, hot
		}
		c.hand = (c.hand + 1) % n
	}
	if !found {
		return pageid.PageId{}, false
	}
	c.hand = bestIdx
	return best, true
}
