package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heapdb/heapdb/internal/heap"
	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/types"
)

// TableSpec is one parsed line of a catalog schema file: a table name, its
// column schema, and its primary-key column name (empty if it has none).
type TableSpec struct {
	Name       string
	Desc       tuple.TupleDesc
	PrimaryKey string
}

// ParseCatalogFile parses a catalog schema file into TableSpecs, one per
// line, of the form:
//
//	tablename (col1 int pk, col2 string, ...)
//
// The optional trailing "pk" annotation on a column marks it the table's
// primary key. ParseCatalogFile does no I/O beyond reading catalogFile
// itself: it opens no backing HeapFiles and registers nothing with a
// Catalog, so callers can validate a schema file without wiring it into a
// live database.
func ParseCatalogFile(catalogFile string) ([]TableSpec, error) {
	f, err := os.Open(catalogFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var specs []TableSpec
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		spec, err := parseSchemaLine(line)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", line, err)
		}
		specs = append(specs, spec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}

func parseSchemaLine(line string) (TableSpec, error) {
	open := strings.Index(line, "(")
	close := strings.Index(line, ")")
	if open < 0 || close < open {
		return TableSpec{}, fmt.Errorf("malformed schema line")
	}
	name := strings.TrimSpace(line[:open])
	fields := strings.Split(line[open+1:close], ",")

	kinds := make([]types.Kind, 0, len(fields))
	names := make([]string, 0, len(fields))
	primary := ""

	for _, raw := range fields {
		toks := strings.Fields(strings.TrimSpace(raw))
		if len(toks) < 2 {
			return TableSpec{}, fmt.Errorf("malformed column %q", raw)
		}
		colName, kindTok := toks[0], strings.ToLower(toks[1])
		var kind types.Kind
		switch kindTok {
		case "int":
			kind = types.IntKind
		case "string":
			kind = types.StringKind
		default:
			return TableSpec{}, fmt.Errorf("unknown type %q", toks[1])
		}
		if len(toks) == 3 {
			if strings.ToLower(toks[2]) != "pk" {
				return TableSpec{}, fmt.Errorf("unknown annotation %q", toks[2])
			}
			primary = colName
		}
		kinds = append(kinds, kind)
		names = append(names, colName)
	}

	desc, err := tuple.NewTupleDesc(kinds, names)
	if err != nil {
		return TableSpec{}, err
	}
	return TableSpec{Name: name, Desc: desc, PrimaryKey: primary}, nil
}

// LoadSchemaFile parses catalogFile with ParseCatalogFile, then wires each
// TableSpec into this Catalog by opening its backing HeapFile alongside
// catalogFile as "<tablename>.dat" and registering it.
func (c *Catalog) LoadSchemaFile(catalogFile string) error {
	specs, err := ParseCatalogFile(catalogFile)
	if err != nil {
		return err
	}
	dir := filepath.Dir(catalogFile)
	for _, spec := range specs {
		hf, err := heap.Open(filepath.Join(dir, spec.Name+".dat"), spec.Desc)
		if err != nil {
			return err
		}
		c.AddTable(hf, spec.Name, spec.PrimaryKey)
	}
	return nil
}
