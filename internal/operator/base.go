// Package operator implements the pull-based iterator tree: SeqScan,
// Filter, Join, Insert, Delete, and Aggregate, all sharing one
// single-lookahead base so hasNext/next/rewind behave identically across
// every operator.
package operator

import (
	"errors"

	"github.com/heapdb/heapdb/internal/tuple"
)

// ErrNoSuchElement is returned by Next when HasNext would report false.
var ErrNoSuchElement = errors.New("operator: no more tuples")

// Operator is the common shape every pull iterator implements: open to
// begin, hasNext/next to pull rows, rewind to restart, close to release
// resources.
type Operator interface {
	Open() error
	HasNext() (bool, error)
	Next() (*tuple.Tuple, error)
	Rewind() error
	Close()
	Schema() tuple.TupleDesc
}

// base memoizes one row of lookahead so a subclass only has to implement
// readNext (return the next row, or nil at end of input) to get
// HasNext/Next for free.
type base struct {
	readNext func() (*tuple.Tuple, error)
	next     *tuple.Tuple
	fetched  bool
}

func (b *base) fetch() error {
	if b.fetched {
		return nil
	}
	t, err := b.readNext()
	if err != nil {
		return err
	}
	b.next = t
	b.fetched = true
	return nil
}

func (b *base) HasNext() (bool, error) {
	if err := b.fetch(); err != nil {
		return false, err
	}
	return b.next != nil, nil
}

func (b *base) Next() (*tuple.Tuple, error) {
	if err := b.fetch(); err != nil {
		return nil, err
	}
	if b.next == nil {
		return nil, ErrNoSuchElement
	}
	t := b.next
	b.next = nil
	b.fetched = false
	return t, nil
}

// reset clears the lookahead buffer; call after rebinding readNext.
func (b *base) reset() {
	b.next = nil
	b.fetched = false
}
