// Package txnlog implements the write-ahead log collaborator the buffer
// pool appends before-images to at commit time under the FORCE protocol.
// Only the pieces the buffer pool needs (append, force) are implemented;
// there is no replay/recovery path, since crash recovery is out of scope.
package txnlog

import (
	"encoding/binary"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/xio"
)

// Log is an append-only sequence of (tid, beforeImage, afterImage) records,
// one per page a committing transaction dirtied.
type Log struct {
	mu   sync.Mutex
	file *os.File
	lsn  uint64
}

// Open opens (creating if necessary) the log file at path.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{file: f}, nil
}

// LogWrite appends one record and returns its log sequence number. The
// record is not guaranteed durable until Force returns.
func (l *Log) LogWrite(tid tuple.TransactionId, before, after []byte) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.lsn++
	lsn := l.lsn

	var hdr [8 + 16 + 4 + 4]byte
	binary.BigEndian.PutUint64(hdr[0:8], lsn)
	tidBytes := uuid.UUID(tid)
	copy(hdr[8:24], tidBytes[:])
	binary.BigEndian.PutUint32(hdr[24:28], uint32(len(before)))
	binary.BigEndian.PutUint32(hdr[28:32], uint32(len(after)))

	if _, err := l.file.Write(hdr[:]); err != nil {
		return 0, err
	}
	if _, err := l.file.Write(before); err != nil {
		return 0, err
	}
	if _, err := l.file.Write(after); err != nil {
		return 0, err
	}
	return lsn, nil
}

// Force fsyncs the log file, making every LogWrite so far durable.
func (l *Log) Force() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Sync()
}

// Close releases the log file.
func (l *Log) Close() {
	xio.CloseFile(l.file)
}
