// Package pageid defines PageId, the (table, page number) address shared by
// the storage, heap, buffer pool, and tuple packages. It is split out on its
// own to avoid an import cycle between internal/storage (which serializes
// pages) and internal/tuple (whose RecordId embeds a PageId).
package pageid

import "fmt"

// TableID identifies a table for the lifetime of its backing HeapFile.
// Conventionally the hash of the file's absolute path (internal/heap).
type TableID uint64

// PageId is the physical address of a page: which table, which page number
// within that table's heap file.
type PageId struct {
	TableID TableID
	PageNo  uint32
}

func (p PageId) String() string {
	return fmt.Sprintf("PageId{table:%d,page:%d}", p.TableID, p.PageNo)
}
