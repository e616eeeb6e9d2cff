// Package dbcontext bundles the catalog, buffer pool, lock manager, and
// transaction log into the one context every operator needs, in place of a
// package-level Database singleton.
package dbcontext

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/heapdb/heapdb/internal/bufferpool"
	"github.com/heapdb/heapdb/internal/catalog"
	"github.com/heapdb/heapdb/internal/heap"
	"github.com/heapdb/heapdb/internal/lock"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/txnlog"
	"github.com/heapdb/heapdb/internal/types"
)

// DefaultCapacity is used when a Config leaves buffer_pool.capacity unset.
const DefaultCapacity = 64

// Database is the explicitly-passed context every caller threads through
// instead of reaching a package-global instance.
type Database struct {
	DataDir string
	Catalog *catalog.Catalog
	Pool    *bufferpool.BufferPool
	Locks   *lock.Manager
	WAL     *txnlog.Log

	tables map[string]*heap.HeapFile
}

// Open wires a Database from cfg: it creates the table directory, opens the
// shared WAL file, and builds an empty catalog and buffer pool. Existing
// tables are not reloaded automatically; call OpenTable per table name, or
// LoadSchema for a whole schema file.
func Open(cfg *Config) (*Database, error) {
	dir := cfg.Storage.Workdir
	if err := os.MkdirAll(tableDir(dir), 0o755); err != nil {
		return nil, err
	}

	wal, err := txnlog.Open(filepath.Join(dir, "wal.log"))
	if err != nil {
		return nil, err
	}

	cat := catalog.New()
	locks := lock.NewManagerWithConfig(
		time.Duration(cfg.Lock.PollIntervalMS)*time.Millisecond,
		time.Duration(cfg.Lock.DeadlockTimeoutMS)*time.Millisecond,
	)

	capacity := cfg.BufferPool.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	pool, err := bufferpool.New(capacity, cat, locks, wal)
	if err != nil {
		wal.Close()
		return nil, err
	}

	return &Database{
		DataDir: dir,
		Catalog: cat,
		Pool:    pool,
		Locks:   locks,
		WAL:     wal,
		tables:  make(map[string]*heap.HeapFile),
	}, nil
}

func tableDir(dataDir string) string {
	return filepath.Join(dataDir, "tables")
}

func (db *Database) tableDataPath(name string) string {
	return filepath.Join(tableDir(db.DataDir), name+".dat")
}

func (db *Database) tableMetaPath(name string) string {
	return filepath.Join(tableDir(db.DataDir), name+".meta.json")
}

// columnMeta is TupleDesc's JSON-serializable projection; TupleDesc itself
// keeps its field slice unexported so schema equality stays kind-only.
type columnMeta struct {
	Kind types.Kind `json:"kind"`
	Name string     `json:"name"`
}

type tableMeta struct {
	Name       string       `json:"name"`
	Columns    []columnMeta `json:"columns"`
	PrimaryKey string       `json:"primary_key"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

func descToMeta(name, primaryKey string, desc tuple.TupleDesc) tableMeta {
	cols := make([]columnMeta, desc.NumFields())
	for i := range cols {
		fd := desc.FieldAt(i)
		cols[i] = columnMeta{Kind: fd.Kind, Name: fd.Name}
	}
	return tableMeta{Name: name, Columns: cols, PrimaryKey: primaryKey}
}

func (m tableMeta) toDesc() (tuple.TupleDesc, error) {
	kinds := make([]types.Kind, len(m.Columns))
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		kinds[i] = c.Kind
		names[i] = c.Name
	}
	return tuple.NewTupleDesc(kinds, names)
}

func (db *Database) writeMeta(m tableMeta) error {
	m.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(db.tableMetaPath(m.Name), data, 0o644)
}

func (db *Database) readMeta(name string) (tableMeta, error) {
	data, err := os.ReadFile(db.tableMetaPath(name))
	if err != nil {
		return tableMeta{}, err
	}
	var m tableMeta
	if err := json.Unmarshal(data, &m); err != nil {
		return tableMeta{}, err
	}
	return m, nil
}

// CreateTable creates a new heap file backing name under this database's
// table directory, persists its schema, and registers it with the catalog.
func (db *Database) CreateTable(name string, desc tuple.TupleDesc, primaryKey string) (*heap.HeapFile, error) {
	hf, err := heap.Open(db.tableDataPath(name), desc)
	if err != nil {
		return nil, err
	}

	meta := descToMeta(name, primaryKey, desc)
	meta.CreatedAt = time.Now()
	if err := db.writeMeta(meta); err != nil {
		hf.Close()
		return nil, err
	}

	db.Catalog.AddTable(hf, name, primaryKey)
	db.tables[name] = hf
	return hf, nil
}

// OpenTable reopens a table previously created by CreateTable, reading its
// schema back from the meta file and re-registering it with the catalog.
func (db *Database) OpenTable(name string) (*heap.HeapFile, error) {
	if hf, ok := db.tables[name]; ok {
		return hf, nil
	}

	meta, err := db.readMeta(name)
	if err != nil {
		return nil, fmt.Errorf("dbcontext: open table %q: %w", name, err)
	}
	desc, err := meta.toDesc()
	if err != nil {
		return nil, err
	}

	hf, err := heap.Open(db.tableDataPath(name), desc)
	if err != nil {
		return nil, err
	}
	db.Catalog.AddTable(hf, name, meta.PrimaryKey)
	db.tables[name] = hf
	return hf, nil
}

// LoadSchema registers every table listed in a text schema file (see
// internal/catalog's schema-file format), opening each backing heap file as
// "<tablename>.dat" in the schema file's own directory.
func (db *Database) LoadSchema(path string) error {
	return db.Catalog.LoadSchemaFile(path)
}

// BeginTransaction mints a fresh transaction id. There is no separate
// begin call against the lock manager or buffer pool: locks are acquired
// lazily by the first GetPage a transaction makes.
func (db *Database) BeginTransaction() tuple.TransactionId {
	return tuple.NewTransactionId()
}

// Commit flushes and releases every page tid touched.
func (db *Database) Commit(tid tuple.TransactionId) error {
	if err := db.Pool.TransactionComplete(tid, true); err != nil {
		return err
	}
	slog.Debug("transaction committed", "txn", tid.String())
	return nil
}

// Abort rolls back every page tid dirtied and releases its locks.
func (db *Database) Abort(tid tuple.TransactionId) error {
	if err := db.Pool.TransactionComplete(tid, false); err != nil {
		return err
	}
	slog.Warn("transaction aborted", "txn", tid.String())
	return nil
}

// Close flushes every resident page and releases the WAL and table file
// handles. It does not roll back in-flight transactions.
func (db *Database) Close() error {
	if err := db.Pool.FlushAllPages(); err != nil {
		return err
	}
	db.Pool.Close()
	db.WAL.Close()
	for _, hf := range db.tables {
		hf.Close()
	}
	return nil
}
