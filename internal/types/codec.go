package types

import "encoding/binary"

// putU32BE and u32BE are the only two byte-order helpers this package
// needs; kept local rather than in a standalone byte-order package, since
// the other packages that need byte order (internal/heap, internal/txnlog)
// call encoding/binary directly.
func putU32BE(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func u32BE(b []byte) uint32       { return binary.BigEndian.Uint32(b) }

// EncodeInto writes f's on-disk representation (big-endian, per spec) into
// buf[:f.Kind().Width()]. buf must be at least that long.
func EncodeInto(buf []byte, f Field) {
	switch v := f.(type) {
	case IntField:
		putU32BE(buf, uint32(int32(v)))
	case StringField:
		s := []byte(v)
		if len(s) > StringWidth-4 {
			s = s[:StringWidth-4]
		}
		putU32BE(buf, uint32(len(s)))
		copy(buf[4:], s)
		for i := 4 + len(s); i < StringWidth; i++ {
			buf[i] = 0
		}
	}
}

// DecodeInt reads a big-endian int32 field from buf[:IntWidth].
func DecodeInt(buf []byte) IntField {
	return IntField(int32(u32BE(buf)))
}

// DecodeString reads a (length-prefix, zero-padded payload) string field
// from buf[:StringWidth].
func DecodeString(buf []byte) StringField {
	n := u32BE(buf)
	if n > StringWidth-4 {
		n = StringWidth - 4
	}
	return StringField(buf[4 : 4+n])
}
