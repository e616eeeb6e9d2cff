package tuple

import (
	"fmt"

	"github.com/heapdb/heapdb/internal/pageid"
)

// RecordId is the physical address of a persisted row: which page, which
// slot within that page. A Tuple with no RecordId has never been written
// to a HeapPage.
type RecordId struct {
	PageId pageid.PageId
	Slot   int
}

func (r RecordId) String() string {
	return fmt.Sprintf("RecordId{%s,slot:%d}", r.PageId, r.Slot)
}
