package txnlog_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/tuple"
	"github.com/heapdb/heapdb/internal/txnlog"
)

func TestLogWriteReturnsIncreasingLSNs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wal.log")
	l, err := txnlog.Open(path)
	require.NoError(t, err)
	defer l.Close()

	tid := tuple.NewTransactionId()
	lsn1, err := l.LogWrite(tid, []byte("before1"), []byte("after1"))
	require.NoError(t, err)
	lsn2, err := l.LogWrite(tid, []byte("before2"), []byte("after2"))
	require.NoError(t, err)

	require.Less(t, lsn1, lsn2)
	require.NoError(t, l.Force())
}
