package uintvar

import (
	"bytes"
	"errors"
	"math"
	"math/rand"
	"testing"
)

func TestAppendKnownEncodings(t *testing.T) {
	cases := []struct {
		v    uint32
		want []byte
	}{
		{0, []byte{0x00}},
		{25, []byte{0x19}},
		{127, []byte{0x7F}},
		{128, []byte{0x81, 0x00}},
		{300, []byte{0x82, 0x2C}},
		{16383, []byte{0xFF, 0x7F}},
		{16384, []byte{0x81, 0x80, 0x00}},
		{math.MaxUint32, []byte{0x8F, 0xFF, 0xFF, 0xFF, 0x7F}},
	}
	for _, tc := range cases {
		got := Append(nil, tc.v)
		if !bytes.Equal(got, tc.want) {
			t.Fatalf("Append(%d): got=% x want=% x", tc.v, got, tc.want)
		}
		if Len(tc.v) != len(tc.want) {
			t.Fatalf("Len(%d): got=%d want=%d", tc.v, Len(tc.v), len(tc.want))
		}
	}
}

func TestRoundTripConsumesExactLength(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	values := []uint32{0, 1, 127, 128, 1 << 14, 1<<21 - 1, 1 << 28, math.MaxUint32}
	for i := 0; i < 500; i++ {
		values = append(values, rng.Uint32()>>uint(rng.Intn(32)))
	}
	for _, v := range values {
		enc := Append([]byte(nil), v)
		// Trailing bytes must not be consumed.
		got, n, err := Decode(append(enc, 0xAA, 0x01))
		if err != nil {
			t.Fatalf("decode %d: %v", v, err)
		}
		if got != v || n != len(enc) {
			t.Fatalf("round trip %d: got=%d n=%d want n=%d", v, got, n, len(enc))
		}
	}
}

func TestPutShortBuffer(t *testing.T) {
	if _, err := Put(make([]byte, 1), 300); !errors.Is(err, ErrShortBuffer) {
		t.Fatalf("expected ErrShortBuffer, got %v", err)
	}
	buf := make([]byte, 2)
	n, err := Put(buf, 300)
	if err != nil || n != 2 || !bytes.Equal(buf, []byte{0x82, 0x2C}) {
		t.Fatalf("put: n=%d err=%v buf=% x", n, err, buf)
	}
}

func TestDecodeMalformedIsDeterministic(t *testing.T) {
	if _, _, err := Decode(nil); !errors.Is(err, ErrTruncated) {
		t.Fatalf("empty: expected ErrTruncated, got %v", err)
	}
	if _, _, err := Decode([]byte{0x81, 0x80}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("unterminated: expected ErrTruncated, got %v", err)
	}
	if _, _, err := Decode([]byte{0x81, 0x81, 0x81, 0x81, 0x81, 0x01}); !errors.Is(err, ErrTooLong) {
		t.Fatalf("six bytes: expected ErrTooLong, got %v", err)
	}
}
