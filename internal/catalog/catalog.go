// Package catalog implements the name/id registry mapping table names to
// their backing files, and a text schema-file loader.
package catalog

import (
	"fmt"
	"sync"

	"github.com/tobshub/go-sortedmap"

	"github.com/heapdb/heapdb/internal/pageid"
	"github.com/heapdb/heapdb/internal/storage"
	"github.com/heapdb/heapdb/internal/tuple"
)

// DbFile is the storage-layer capability the catalog needs from a table's
// backing file. internal/heap.HeapFile satisfies it; the catalog holds the
// interface rather than the concrete type so it never has to import heap.
type DbFile interface {
	ID() pageid.TableID
	ReadPage(pageNo uint32) (*storage.HeapPage, error)
	WritePage(p *storage.HeapPage) error
	AllocatePage() (*storage.HeapPage, error)
	NumPages() int
	TupleDesc() tuple.TupleDesc
}

var ErrUnknownTable = fmt.Errorf("catalog: no such table")

type tableEntry struct {
	id      pageid.TableID
	name    string
	file    DbFile
	primary string
}

// Catalog maps table names to backing files. Registering a name that
// already exists replaces the prior registration (last write wins), as
// each name may only address one live DbFile at a time.
type Catalog struct {
	mu     sync.RWMutex
	byName map[string]pageid.TableID
	byID   map[pageid.TableID]*tableEntry
	// ordered keeps entries reachable in name order so TableNames is
	// deterministic across runs, unlike Go's native map iteration.
	ordered *sortedmap.SortedMap[pageid.TableID, *tableEntry]
}

func New() *Catalog {
	return &Catalog{
		byName: make(map[string]pageid.TableID),
		byID:   make(map[pageid.TableID]*tableEntry),
		ordered: sortedmap.New[pageid.TableID, *tableEntry](0, func(a, b *tableEntry) bool {
			return a.name < b.name
		}),
	}
}

// AddTable registers file under name with the given primary-key column
// name (empty if the table has none).
func (c *Catalog) AddTable(file DbFile, name, primaryKey string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if oldID, ok := c.byName[name]; ok {
		delete(c.byID, oldID)
		c.ordered.Delete(oldID)
	}

	e := &tableEntry{id: file.ID(), name: name, file: file, primary: primaryKey}
	c.byName[name] = e.id
	c.byID[e.id] = e
	c.ordered.Insert(e.id, e)
}

func (c *Catalog) GetTableID(name string) (pageid.TableID, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.byName[name]
	if !ok {
		return 0, ErrUnknownTable
	}
	return id, nil
}

func (c *Catalog) GetDbFile(id pageid.TableID) (DbFile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return nil, ErrUnknownTable
	}
	return e.file, nil
}

func (c *Catalog) GetTableName(id pageid.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return "", ErrUnknownTable
	}
	return e.name, nil
}

func (c *Catalog) GetPrimaryKey(id pageid.TableID) (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return "", ErrUnknownTable
	}
	return e.primary, nil
}

func (c *Catalog) GetTupleDesc(id pageid.TableID) (tuple.TupleDesc, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byID[id]
	if !ok {
		return tuple.TupleDesc{}, ErrUnknownTable
	}
	return e.file.TupleDesc(), nil
}

// TableNames returns every registered table name, sorted.
func (c *Catalog) TableNames() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, c.ordered.Len())
	c.ordered.IterFunc(false, func(rec sortedmap.Record[pageid.TableID, *tableEntry]) bool {
		names = append(names, rec.Val.name)
		return true
	})
	return names
}
