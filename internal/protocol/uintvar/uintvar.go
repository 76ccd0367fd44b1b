// Package uintvar implements the WAP variable-length unsigned integer:
// 7 value bits per byte, most significant group first, MSB set on every
// byte except the last.
package uintvar

import "errors"

// MaxLen is the longest encoding of a 32-bit value.
const MaxLen = 5

var (
	ErrShortBuffer = errors.New("uintvar: destination too small")
	ErrTruncated   = errors.New("uintvar: truncated value")
	ErrTooLong     = errors.New("uintvar: no terminator within 5 bytes")
)

// Len returns the encoded size of v.
func Len(v uint32) int {
	n := 1
	for v >>= 7; v > 0; v >>= 7 {
		n++
	}
	return n
}

// Append appends the encoding of v to dst.
func Append(dst []byte, v uint32) []byte {
	var tmp [MaxLen]byte
	n := Len(v)
	for i := n - 1; i >= 0; i-- {
		tmp[i] = byte(v & 0x7F)
		if i != n-1 {
			tmp[i] |= 0x80
		}
		v >>= 7
	}
	return append(dst, tmp[:n]...)
}

// Put writes the encoding of v at the start of dst.
func Put(dst []byte, v uint32) (int, error) {
	n := Len(v)
	if n > len(dst) {
		return 0, ErrShortBuffer
	}
	Append(dst[:0], v)
	return n, nil
}

// Decode reads one value from the start of b and returns it with the number
// of bytes consumed.
func Decode(b []byte) (uint32, int, error) {
	var v uint32
	for i := 0; i < len(b) && i < MaxLen; i++ {
		v = v<<7 | uint32(b[i]&0x7F)
		if b[i]&0x80 == 0 {
			return v, i + 1, nil
		}
	}
	if len(b) >= MaxLen {
		return 0, 0, ErrTooLong
	}
	return 0, 0, ErrTruncated
}
