package wsp

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDecodeWithoutTIDWellKnownContentType(t *testing.T) {
	// 0x82 is text/html in the well-known table.
	data := []byte{0x04, 0x20, 0x01, 0x82, 'H', 'i'}
	resp, err := DecodeWithoutTID(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 200 || resp.StatusText != "OK" {
		t.Fatalf("status: got=%d %q", resp.StatusCode, resp.StatusText)
	}
	if resp.ContentType != "text/html" {
		t.Fatalf("content type: got=%q", resp.ContentType)
	}
	if string(resp.Body) != "Hi" || resp.ContentLength != 2 {
		t.Fatalf("body: got=%q len=%d", resp.Body, resp.ContentLength)
	}
	if &resp.Body[0] != &data[4] {
		t.Fatalf("body must alias the input buffer")
	}
}

func TestDecodeWithoutTIDTableIndexFour(t *testing.T) {
	resp, err := DecodeWithoutTID([]byte{0x04, 0x20, 0x01, 0x84, 'H', 'i'})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ContentType != "text/x-hdml" {
		t.Fatalf("content type: got=%q", resp.ContentType)
	}
}

func TestDecodeSkipsTransactionID(t *testing.T) {
	resp, err := Decode([]byte{0x42, 0x04, 0x44, 0x00, 'x'})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 404 || string(resp.Body) != "x" || resp.ContentType != "" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDecodeMalformedIsDeterministic(t *testing.T) {
	if _, err := Decode([]byte{1, 4, 0x20}); !errors.Is(err, ErrShortPDU) {
		t.Fatalf("short pdu: %v", err)
	}
	if _, err := DecodeWithoutTID([]byte{0x04, 0x20}); !errors.Is(err, ErrShortPDU) {
		t.Fatalf("short reply: %v", err)
	}
	if _, err := DecodeWithoutTID([]byte{0x05, 0x20, 0x00}); !errors.Is(err, ErrNotReply) {
		t.Fatalf("wrong type: %v", err)
	}
	if _, err := DecodeWithoutTID([]byte{0x04, 0x20, 0x05, 0x82}); !errors.Is(err, ErrHeaderOverrun) {
		t.Fatalf("overrun: %v", err)
	}
	if _, err := DecodeWithoutTID([]byte{0x04, 0x20, 0x81}); !errors.Is(err, ErrHeaderLength) {
		t.Fatalf("bad uintvar: %v", err)
	}
	// Zero value-length content type followed by a stray text byte.
	resp, err := DecodeWithoutTID([]byte{0x04, 0x20, 0x02, 0x00, 'A'})
	if err != nil || resp.ContentType != "" || len(resp.Body) != 0 {
		t.Fatalf("empty content type value: resp=%+v err=%v", resp, err)
	}
	for _, pdu := range [][]byte{
		{0x04, 0x20, 0x01, 0x00},
		{0x04, 0x20, 0x02, 0x1F, 0x00},
		{0x04, 0x20, 0x03, 0x1F, 0x00, 'x'},
		{0x04, 0x20, 0x02, 0x05, 'a'},
		{0x04, 0x20, 0x02, 0x94, 0x8D},
		{0x04, 0x20, 0x02, 0x94, 0xA6},
	} {
		if _, err := DecodeWithoutTID(pdu); err != nil {
			t.Fatalf("lenient header % x: %v", pdu, err)
		}
	}
}

func TestDecodeStripsControlBytesFromText(t *testing.T) {
	headers := []byte{0x88, 0xA6}
	headers = append(headers, "gw\r\nSet-Cookie: x"...)
	headers = append(headers, 0x00, 0x9C)
	headers = append(headers, "http://a/\nb"...)
	headers = append(headers, 0x00)
	pdu := append([]byte{0x04, 0x20, byte(len(headers))}, headers...)
	resp, err := DecodeWithoutTID(pdu)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Server != "gwSet-Cookie: x" || resp.Location != "http://a/b" {
		t.Fatalf("control bytes kept: server=%q location=%q", resp.Server, resp.Location)
	}

	direct := Response{StatusCode: 200, StatusText: "OK", Server: "a\r\nX-Injected: 1"}
	if got := string(direct.HTTP()); strings.Contains(got, "\r\nX-Injected") {
		t.Fatalf("header injected: %q", got)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := map[byte]int{
		0x10: 100, 0x26: 206, 0x32: 302, 0x37: 307, 0x4F: 415,
		0x50: 416, 0x51: 417, 0x65: 505, 0x36: 500, 0x00: 500, 0xFF: 500,
	}
	for in, want := range cases {
		if got := StatusToHTTP(in); got != want {
			t.Fatalf("StatusToHTTP(%#02x): got=%d want=%d", in, got, want)
		}
	}
	if StatusText(302) != "Found" || StatusText(299) != "Unknown" {
		t.Fatalf("status text mismatch")
	}
}

func TestContentTypeTableBounds(t *testing.T) {
	if ContentTypeName(0x00) != "*/*" || ContentTypeName(0x14) != "application/vnd.wap.wmlc" {
		t.Fatalf("table entries mismatch")
	}
	if ContentTypeName(0x3F) != "application/vnd.wap.rollover-certificate" {
		t.Fatalf("last entry mismatch: %q", ContentTypeName(0x3F))
	}
	if ContentTypeName(0x40) != DefaultContentType {
		t.Fatalf("out of range: %q", ContentTypeName(0x40))
	}
	if name, ok := HeaderName(FieldServer); !ok || name != "Server" {
		t.Fatalf("header name: %q %v", name, ok)
	}
	if _, ok := HeaderName(0x2F); ok {
		t.Fatalf("expected header table to end at Content-Disposition")
	}
}

func TestParseHeadersInterpretsAndSkips(t *testing.T) {
	headers := []byte{
		0x94,                         // application/vnd.wap.wmlc
		0x88, 0x80,                   // Cache-Control short value, skipped
		0x92, 0x04, 0x5E, 0x6B, 0x6C, 0x80, // Date long-integer
		0xA6, 'K', 'a', 'n', 'n', 'e', 'l', 0x00,
		0x8B, 0x02, 0xAA, 0xBB, // Content-Encoding length-prefixed, skipped
		0x9C, 'h', 't', 't', 'p', ':', '/', '/', 'x', '/', 0x00,
		'X', '-', 'F', 'o', 'o', 0x00, 'b', 'a', 'r', 0x00, // text field name and value
		0x8D, 0x02, 0x01, 0x00, // Content-Length 256
	}
	pdu := append([]byte{0x04, 0x31, byte(len(headers))}, headers...)
	pdu = append(pdu, "body"...)
	resp, err := DecodeWithoutTID(pdu)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 301 {
		t.Fatalf("status: %d", resp.StatusCode)
	}
	if resp.ContentType != "application/vnd.wap.wmlc" || !resp.IsCompiledMarkup() {
		t.Fatalf("content type: %q", resp.ContentType)
	}
	if resp.Server != "Kannel" || resp.Location != "http://x/" {
		t.Fatalf("server/location: %q %q", resp.Server, resp.Location)
	}
	if resp.ContentLength != 256 {
		t.Fatalf("content length: %d", resp.ContentLength)
	}
	if want := time.Unix(0x5E6B6C80, 0).UTC(); !resp.Date.Equal(want) {
		t.Fatalf("date: got=%v want=%v", resp.Date, want)
	}
	if string(resp.Body) != "body" || !bytes.Equal(resp.Headers, headers) {
		t.Fatalf("views: body=%q headers=% x", resp.Body, resp.Headers)
	}
}

func TestParseHeadersContentTypeForms(t *testing.T) {
	// Value-length form: length 3, wmlc, then a charset parameter.
	resp, err := DecodeWithoutTID([]byte{0x04, 0x20, 0x04, 0x03, 0x94, 0x81, 0xEA, 'z'})
	if err != nil || resp.ContentType != "application/vnd.wap.wmlc" || string(resp.Body) != "z" {
		t.Fatalf("value-length: resp=%+v err=%v", resp, err)
	}
	// Literal text form.
	text := append([]byte("text/x-custom"), 0x00)
	pdu := append([]byte{0x04, 0x20, byte(len(text))}, text...)
	resp, err = DecodeWithoutTID(pdu)
	if err != nil || resp.ContentType != "text/x-custom" {
		t.Fatalf("text: resp=%+v err=%v", resp, err)
	}
	// Over-long literal is not copied.
	long := append([]byte(strings.Repeat("a", 64)), 0x00)
	pdu = append([]byte{0x04, 0x20, byte(len(long))}, long...)
	resp, err = DecodeWithoutTID(pdu)
	if err != nil || resp.ContentType != "" {
		t.Fatalf("long text: got=%q err=%v", resp.ContentType, err)
	}
}

func TestParseHeadersSkipsOverlongServer(t *testing.T) {
	server := strings.Repeat("s", 64)
	headers := append([]byte{0x83, 0xA6}, server...)
	headers = append(headers, 0x00, 0xA6, 'o', 'k', 0x00)
	pdu := append([]byte{0x04, 0x20, byte(len(headers))}, headers...)
	resp, err := DecodeWithoutTID(pdu)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Server != "ok" {
		t.Fatalf("cursor must stay aligned after a skipped value: %q", resp.Server)
	}
}

func TestReplyRoundTripAndHTTP(t *testing.T) {
	pdu, err := AppendReply(nil, Reply{
		TransactionID: 3,
		StatusCode:    302,
		ContentType:   "text/vnd.wap.wml",
		Server:        "meshwap",
		Location:      "http://next/",
		Body:          []byte("<wml/>"),
	})
	if err != nil {
		t.Fatalf("append reply: %v", err)
	}
	resp, err := Decode(pdu)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != 302 || resp.ContentType != "text/vnd.wap.wml" || resp.ContentLength != 6 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	want := "HTTP/1.1 302 Found\r\n" +
		"Content-Type: text/vnd.wap.wml\r\n" +
		"Content-Length: 6\r\n" +
		"Server: meshwap\r\n" +
		"Location: http://next/\r\n" +
		"\r\n<wml/>"
	if got := string(resp.HTTP()); got != want {
		t.Fatalf("http rendering:\n got=%q\nwant=%q", got, want)
	}
}
