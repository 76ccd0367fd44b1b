// Package base91 carries binary datagrams over NUL-terminated text messages.
//
// The alphabet is 91 printable ASCII characters with NUL, '"', '\'' and
// '\\' removed, so an encoding never contains a byte that a C-string or
// quoted-string transport would mangle.
package base91

import "errors"

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!#$%&()*+,./:;<=>?@[]^_`{|}~-"

var ErrShortBuffer = errors.New("base91: destination too small")

var decodeMap [256]int8

func init() {
	for i := range decodeMap {
		decodeMap[i] = -1
	}
	for i := 0; i < len(alphabet); i++ {
		decodeMap[alphabet[i]] = int8(i)
	}
}

// EncodedLen is the worst-case encoded size of n input bytes.
func EncodedLen(n int) int {
	return (n*16+12)/13 + 1
}

// DecodedLen is the worst-case decoded size of n encoded characters.
// Every digit pair carries at most 14 bits.
func DecodedLen(n int) int {
	return n*7/8 + 1
}

// Encode writes the encoding of src into dst and returns the bytes written.
// If dst runs out of room it returns 0 and ErrShortBuffer.
func Encode(dst, src []byte) (int, error) {
	var queue uint32
	nbits := 0
	n := 0
	for _, b := range src {
		queue |= uint32(b) << nbits
		nbits += 8
		if nbits <= 13 {
			continue
		}
		v := queue & 8191
		if v > 88 {
			queue >>= 13
			nbits -= 13
		} else {
			v = queue & 16383
			queue >>= 14
			nbits -= 14
		}
		if n+2 > len(dst) {
			return 0, ErrShortBuffer
		}
		dst[n] = alphabet[v%91]
		dst[n+1] = alphabet[v/91]
		n += 2
	}

	if nbits > 0 {
		if n+1 > len(dst) {
			return 0, ErrShortBuffer
		}
		dst[n] = alphabet[queue%91]
		n++
		if nbits > 7 || queue > 90 {
			if n+1 > len(dst) {
				return 0, ErrShortBuffer
			}
			dst[n] = alphabet[queue/91]
			n++
		}
	}
	return n, nil
}

// Decode reverses Encode. Bytes outside the alphabet are skipped and a NUL
// ends the input. If dst runs out of room it returns 0 and ErrShortBuffer.
func Decode(dst, src []byte) (int, error) {
	var queue uint32
	nbits := 0
	n := 0
	val := -1
	for _, c := range src {
		if c == 0 {
			break
		}
		d := int(decodeMap[c])
		if d < 0 {
			continue
		}
		if val < 0 {
			val = d
			continue
		}
		val += d * 91
		queue |= uint32(val) << nbits
		if val&8191 > 88 {
			nbits += 13
		} else {
			nbits += 14
		}
		for nbits >= 8 {
			if n >= len(dst) {
				return 0, ErrShortBuffer
			}
			dst[n] = byte(queue)
			n++
			queue >>= 8
			nbits -= 8
		}
		val = -1
	}

	if val >= 0 {
		if n >= len(dst) {
			return 0, ErrShortBuffer
		}
		dst[n] = byte(queue | uint32(val)<<nbits)
		n++
	}
	return n, nil
}

func EncodeToString(src []byte) string {
	buf := make([]byte, EncodedLen(len(src)))
	n, _ := Encode(buf, src)
	return string(buf[:n])
}

func DecodeString(s string) ([]byte, error) {
	buf := make([]byte, DecodedLen(len(s)))
	n, err := Decode(buf, []byte(s))
	if err != nil {
		return nil, err
	}
	return buf[:n], nil
}
