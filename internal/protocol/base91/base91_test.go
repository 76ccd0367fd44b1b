package base91

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"testing"
)

func TestEncodeKnownVector(t *testing.T) {
	if got := EncodeToString([]byte("A")); got != "%A" {
		t.Fatalf("encode A: got=%q want=%q", got, "%A")
	}
	out, err := DecodeString("%A")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out) != "A" {
		t.Fatalf("decode %%A: got=%q", out)
	}
}

func TestEncodeEmptyInput(t *testing.T) {
	n, err := Encode(make([]byte, 4), nil)
	if err != nil || n != 0 {
		t.Fatalf("empty encode: n=%d err=%v", n, err)
	}
}

func TestRoundTripRandomBuffers(t *testing.T) {
	rng := rand.New(rand.NewSource(91))
	for size := 0; size <= 4096; size += 1 + size/7 {
		in := make([]byte, size)
		rng.Read(in)
		enc := EncodeToString(in)
		if len(enc) > EncodedLen(size) {
			t.Fatalf("size=%d encoded=%d exceeds bound=%d", size, len(enc), EncodedLen(size))
		}
		if strings.ContainsAny(enc, "\x00\"'\\") {
			t.Fatalf("size=%d encoding contains a forbidden byte", size)
		}
		out, err := DecodeString(enc)
		if err != nil {
			t.Fatalf("size=%d decode: %v", size, err)
		}
		if !bytes.Equal(out, in) {
			t.Fatalf("size=%d round trip mismatch", size)
		}
	}
}

func TestRoundTripLowEntropyBuffers(t *testing.T) {
	// Zero and 0xFF runs exercise the 14-bit branch and the bounds.
	for _, fill := range []byte{0x00, 0xFF, 0x01} {
		for _, size := range []int{1, 2, 13, 100, 121, 4096} {
			in := bytes.Repeat([]byte{fill}, size)
			enc := EncodeToString(in)
			if len(enc) > EncodedLen(size) {
				t.Fatalf("fill=%#x size=%d encoded len %d over bound", fill, size, len(enc))
			}
			if size > DecodedLen(len(enc)) {
				t.Fatalf("fill=%#x size=%d decoded bound %d too small", fill, size, DecodedLen(len(enc)))
			}
			out, err := DecodeString(enc)
			if err != nil || !bytes.Equal(out, in) {
				t.Fatalf("fill=%#x size=%d round trip failed err=%v", fill, size, err)
			}
		}
	}
}

func TestDecodeSkipsForeignBytesAndStopsAtNUL(t *testing.T) {
	enc := EncodeToString([]byte("hello mesh"))
	noisy := " \"" + enc[:3] + "'\\\n" + enc[3:] + "\x00" + enc
	out, err := DecodeString(noisy)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(out) != "hello mesh" {
		t.Fatalf("lenient decode: got=%q", out)
	}
}

func TestEncodeShortBufferIsHardFailure(t *testing.T) {
	src := []byte("0123456789")
	dst := make([]byte, 5)
	n, err := Encode(dst, src)
	if !errors.Is(err, ErrShortBuffer) || n != 0 {
		t.Fatalf("expected ErrShortBuffer with n=0, got n=%d err=%v", n, err)
	}
	// Tail digit needs room too.
	if n, err := Encode(make([]byte, 1), []byte("A")); !errors.Is(err, ErrShortBuffer) || n != 0 {
		t.Fatalf("tail overflow: n=%d err=%v", n, err)
	}
}

func TestDecodeShortBufferIsHardFailure(t *testing.T) {
	enc := []byte(EncodeToString([]byte("0123456789")))
	n, err := Decode(make([]byte, 3), enc)
	if !errors.Is(err, ErrShortBuffer) || n != 0 {
		t.Fatalf("expected ErrShortBuffer with n=0, got n=%d err=%v", n, err)
	}
}
