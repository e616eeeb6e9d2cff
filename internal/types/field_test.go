package types_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/heapdb/heapdb/internal/types"
)

func TestIntFieldCompare(t *testing.T) {
	a := types.IntField(2)
	b := types.IntField(3)

	ok, err := a.Compare(types.LessThan, b)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = a.Compare(types.Equals, b)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = a.Compare(types.GreaterThanOrEqual, types.IntField(2))
	require.NoError(t, err)
	require.True(t, ok)
}

func TestStringFieldLike(t *testing.T) {
	s := types.StringField("hello world")
	ok, err := s.Compare(types.Like, types.StringField("wor"))
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.Compare(types.Like, types.StringField("zzz"))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCrossKindCompare(t *testing.T) {
	i := types.IntField(1)
	s := types.StringField("1")

	eq, err := i.Compare(types.Equals, s)
	require.NoError(t, err)
	require.False(t, eq)

	neq, err := i.Compare(types.NotEquals, s)
	require.NoError(t, err)
	require.True(t, neq)

	_, err = i.Compare(types.LessThan, s)
	require.ErrorIs(t, err, types.ErrKindMismatch)
}

func TestCodecRoundTrip(t *testing.T) {
	buf := make([]byte, types.IntWidth)
	types.EncodeInto(buf, types.IntField(-42))
	require.Equal(t, types.IntField(-42), types.DecodeInt(buf))

	sbuf := make([]byte, types.StringWidth)
	types.EncodeInto(sbuf, types.StringField("hi"))
	require.Equal(t, types.StringField("hi"), types.DecodeString(sbuf))
}
