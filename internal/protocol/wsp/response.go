package wsp

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/meshwap/internal/protocol/uintvar"
)

const (
	maxContentTypeLen = 63
	maxServerLen      = 63
	maxLocationLen    = 255
	// lengthQuote introduces a uintvar value length.
	lengthQuote = 0x1F
)

var (
	ErrShortPDU      = errors.New("wsp: pdu too short")
	ErrNotReply      = errors.New("wsp: not a reply pdu")
	ErrHeaderLength  = errors.New("wsp: malformed header length")
	ErrHeaderOverrun = errors.New("wsp: header length runs past pdu end")
)

// Response is a decoded Reply PDU. Headers and Body alias the input buffer.
type Response struct {
	WSPStatus     byte
	StatusCode    int
	StatusText    string
	ContentType   string
	ContentLength int
	Server        string
	Location      string
	Date          time.Time
	Headers       []byte
	Body          []byte
}

// Decode parses a Reply PDU whose first byte is the transaction id.
func Decode(pdu []byte) (Response, error) {
	if len(pdu) < 4 {
		return Response{}, ErrShortPDU
	}
	return DecodeWithoutTID(pdu[1:])
}

// DecodeWithoutTID parses [0x04][status][uintvar(headerLen)][headers][body].
func DecodeWithoutTID(data []byte) (Response, error) {
	if len(data) < 3 {
		return Response{}, ErrShortPDU
	}
	if data[0] != PDUReply {
		return Response{}, fmt.Errorf("%w: type %#02x", ErrNotReply, data[0])
	}
	resp := Response{WSPStatus: data[1]}
	resp.StatusCode = StatusToHTTP(resp.WSPStatus)
	resp.StatusText = StatusText(resp.StatusCode)

	headerLen, n, err := uintvar.Decode(data[2:])
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", ErrHeaderLength, err)
	}
	pos := 2 + n
	if uint64(headerLen) > uint64(len(data)-pos) {
		return Response{}, fmt.Errorf("%w: %d > %d", ErrHeaderOverrun, headerLen, len(data)-pos)
	}
	end := pos + int(headerLen)
	resp.Headers = data[pos:end:end]
	if end < len(data) {
		resp.Body = data[end:]
	}

	hasLength := parseHeaders(resp.Headers, &resp)
	if !hasLength {
		resp.ContentLength = len(resp.Body)
	}
	return resp, nil
}

// IsCompiledMarkup reports whether the body is WMLC that needs decompiling.
func (r Response) IsCompiledMarkup() bool {
	return bytes.Contains([]byte(r.ContentType), []byte("wmlc"))
}

// parseHeaders walks the header block. The first entry is the content type;
// only Server, Location, Content-Length and Date are interpreted afterwards
// and everything else is skipped by value class so the cursor stays aligned.
func parseHeaders(h []byte, resp *Response) (hasLength bool) {
	if len(h) == 0 {
		return false
	}
	pos := parseContentType(h, resp)

	for pos < len(h) {
		field := h[pos]
		switch {
		case field >= 0x80:
			code := field & 0x7F
			pos++
			if pos >= len(h) {
				return hasLength
			}
			switch code {
			case FieldServer:
				pos = captureText(h, pos, maxServerLen, &resp.Server)
			case FieldLocation:
				pos = captureText(h, pos, maxLocationLen, &resp.Location)
			case FieldContentLength:
				var v uint64
				var ok bool
				v, pos, ok = readInteger(h, pos)
				if ok {
					resp.ContentLength = int(v)
					hasLength = true
				}
			case FieldDate:
				var v uint64
				var ok bool
				v, pos, ok = readInteger(h, pos)
				if ok {
					resp.Date = time.Unix(int64(v), 0).UTC()
				}
			default:
				pos = skipValue(h, pos)
			}
		case field < 0x20:
			// Shift delimiter or stray length octet.
			pos++
		default:
			pos = skipText(h, pos)
			if pos < len(h) {
				if h[pos] >= 0x80 {
					pos++
				} else {
					pos = skipText(h, pos)
				}
			}
		}
	}
	return hasLength
}

func parseContentType(h []byte, resp *Response) int {
	first := h[0]
	switch {
	case first >= 0x80:
		resp.ContentType = ContentTypeName(first & 0x7F)
		return 1
	case first < 0x20:
		length, start, ok := valueLength(h, 0)
		if !ok {
			return len(h)
		}
		end := min(start+length, len(h))
		if length == 0 || start >= end {
			return end
		}
		if v := h[start]; v >= 0x80 {
			resp.ContentType = ContentTypeName(v & 0x7F)
		} else if v >= 0x20 {
			captureText(h[:end], start, maxContentTypeLen, &resp.ContentType)
		}
		return end
	default:
		return captureText(h, 0, maxContentTypeLen, &resp.ContentType)
	}
}

// valueLength decodes a short-length octet or length-quote + uintvar at pos
// and returns the value length and the index where the value starts.
func valueLength(h []byte, pos int) (int, int, bool) {
	if pos >= len(h) {
		return 0, pos, false
	}
	b := h[pos]
	if b < lengthQuote {
		return int(b), pos + 1, true
	}
	if b == lengthQuote {
		v, n, err := uintvar.Decode(h[pos+1:])
		if err != nil {
			return 0, len(h), false
		}
		return int(v), pos + 1 + n, true
	}
	return 0, pos, false
}

// readInteger decodes a short-integer or long-integer value.
func readInteger(h []byte, pos int) (uint64, int, bool) {
	b := h[pos]
	if b >= 0x80 {
		return uint64(b & 0x7F), pos + 1, true
	}
	if b < lengthQuote {
		n := int(b)
		pos++
		var v uint64
		for i := 0; i < n && pos < len(h); i++ {
			v = v<<8 | uint64(h[pos])
			pos++
		}
		return v, pos, true
	}
	return 0, skipValue(h, pos), false
}

func skipValue(h []byte, pos int) int {
	b := h[pos]
	switch {
	case b >= 0x80:
		return pos + 1
	case b <= lengthQuote:
		length, start, ok := valueLength(h, pos)
		if !ok {
			return len(h)
		}
		return start + length
	default:
		return skipText(h, pos)
	}
}

func skipText(h []byte, pos int) int {
	if i := bytes.IndexByte(h[pos:], 0); i >= 0 {
		return pos + i + 1
	}
	return len(h)
}

// captureText stores the NUL-terminated text at pos into dst when it fits
// under limit, and returns the position after the terminator. A value byte
// with the high bit set is a one-byte encoded value and is skipped. Control
// bytes are dropped from the stored value.
func captureText(h []byte, pos, limit int, dst *string) int {
	if pos >= len(h) {
		return len(h)
	}
	if h[pos] >= 0x80 {
		return pos + 1
	}
	end := len(h)
	if i := bytes.IndexByte(h[pos:], 0); i >= 0 {
		end = pos + i
	}
	if end-pos <= limit {
		*dst = printable(h[pos:end])
	}
	if end < len(h) {
		return end + 1
	}
	return end
}

// printable drops ASCII control bytes so a value cannot break out of its
// header line.
func printable(b []byte) string {
	out := make([]byte, 0, len(b))
	for _, c := range b {
		if c < 0x20 || c == 0x7F {
			continue
		}
		out = append(out, c)
	}
	return string(out)
}
