package wsp

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/meshwap/internal/protocol/uintvar"
)

const (
	// MaxHeaderBlock bounds the encoded request header block.
	MaxHeaderBlock = 128
	// MaxHostLen bounds the Host header value.
	MaxHostLen       = 63
	DefaultUserAgent = "MAP/1.0"
	DefaultMaxPDU    = 512
)

var (
	ErrEmptyURI          = errors.New("wsp: empty uri")
	ErrBufferTooSmall    = errors.New("wsp: pdu exceeds buffer")
	ErrUnsupportedMethod = errors.New("wsp: unsupported method")
)

// Method is the Get-class PDU subtype carried in the low nibble.
type Method byte

const (
	MethodGet Method = iota
	MethodOptions
	MethodHead
	MethodDelete
	MethodTrace
)

var methodNames = [...]string{"GET", "OPTIONS", "HEAD", "DELETE", "TRACE"}

func (m Method) String() string {
	if int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("Method(%d)", byte(m))
}

func ParseMethod(raw string) (Method, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	if name == "" {
		return MethodGet, nil
	}
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedMethod, raw)
}

// RequestBuilder assembles connectionless Get-class PDUs.
type RequestBuilder struct {
	TransactionID  byte
	Method         Method
	HostHeader     bool
	UserAgent      string
	Accept         []byte
	AcceptCharsets []uint16
	// Extra is appended verbatim after the default headers.
	Extra  []byte
	MaxPDU int
}

// DefaultRequestBuilder matches the header set legacy gateways expect from
// a WAP 1.1 handset.
func DefaultRequestBuilder(tid byte) RequestBuilder {
	return RequestBuilder{
		TransactionID:  tid,
		Method:         MethodGet,
		HostHeader:     true,
		UserAgent:      DefaultUserAgent,
		Accept:         []byte{ContentWMLC, ContentWMLScriptC, ContentImageWBMP, ContentTextPlain},
		AcceptCharsets: []uint16{CharsetUTF8, CharsetISO88591},
		MaxPDU:         DefaultMaxPDU,
	}
}

// BuildGet builds a GET PDU with the default header set.
func BuildGet(rawURL string, tid byte, hostHeader bool) ([]byte, error) {
	b := DefaultRequestBuilder(tid)
	b.HostHeader = hostHeader
	return b.Build(rawURL)
}

// Headers encodes the header block for rawURL.
func (b RequestBuilder) Headers(rawURL string) ([]byte, error) {
	block := make([]byte, 0, MaxHeaderBlock)
	if b.HostHeader {
		if host, ok := HostFromURL(rawURL); ok {
			if len(host) > MaxHostLen {
				return nil, fmt.Errorf("%w: host %d bytes", ErrBufferTooSmall, len(host))
			}
			block = appendTextHeader(block, FieldHost, host)
		}
	}
	if b.UserAgent != "" {
		block = appendTextHeader(block, FieldUserAgent, b.UserAgent)
	}
	for _, ct := range b.Accept {
		block = append(block, FieldAccept|0x80, ct|0x80)
	}
	for _, cs := range b.AcceptCharsets {
		block = append(block, FieldAcceptCharset|0x80)
		block = appendInteger(block, uint64(cs))
	}
	block = append(block, b.Extra...)
	if len(block) > MaxHeaderBlock {
		return nil, fmt.Errorf("%w: header block %d bytes", ErrBufferTooSmall, len(block))
	}
	return block, nil
}

// Build returns the complete PDU including the leading transaction id.
func (b RequestBuilder) Build(rawURL string) ([]byte, error) {
	headers, err := b.Headers(rawURL)
	if err != nil {
		return nil, err
	}
	limit := b.MaxPDU
	if limit <= 0 {
		limit = DefaultMaxPDU
	}
	return AppendRequest(make([]byte, 0, limit), b.TransactionID, b.Method, rawURL, headers, limit)
}

// AppendRequest appends [tid][0x40|method][uintvar(len uri)][uri][headers]
// to dst. limit caps the PDU size; the worst-case five byte length prefix
// is reserved up front so nothing is written on failure.
func AppendRequest(dst []byte, tid byte, method Method, uri string, headers []byte, limit int) ([]byte, error) {
	if uri == "" {
		return nil, ErrEmptyURI
	}
	if method > MethodTrace {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, method)
	}
	if 1+1+uintvar.MaxLen+len(uri)+len(headers) > limit {
		return nil, fmt.Errorf("%w: uri %d + headers %d over %d", ErrBufferTooSmall, len(uri), len(headers), limit)
	}
	dst = append(dst, tid, PDUGet|byte(method))
	dst = uintvar.Append(dst, uint32(len(uri)))
	dst = append(dst, uri...)
	dst = append(dst, headers...)
	return dst, nil
}

// HostFromURL strips an http:// or https:// prefix and cuts at the first
// ':', '/' or '?'.
func HostFromURL(rawURL string) (string, bool) {
	rest := rawURL
	switch {
	case strings.HasPrefix(rest, "http://"):
		rest = rest[len("http://"):]
	case strings.HasPrefix(rest, "https://"):
		rest = rest[len("https://"):]
	}
	if i := strings.IndexAny(rest, ":/?"); i >= 0 {
		rest = rest[:i]
	}
	return rest, rest != ""
}

func appendTextHeader(dst []byte, field byte, value string) []byte {
	dst = append(dst, field|0x80)
	dst = append(dst, value...)
	return append(dst, 0x00)
}

// appendInteger writes a short-integer when v fits in 7 bits, otherwise a
// long-integer (length octet then big-endian bytes).
func appendInteger(dst []byte, v uint64) []byte {
	if v < 0x80 {
		return append(dst, byte(v)|0x80)
	}
	var tmp [8]byte
	n := 0
	for x := v; x > 0; x >>= 8 {
		n++
	}
	for i := 0; i < n; i++ {
		tmp[n-1-i] = byte(v >> (8 * i))
	}
	dst = append(dst, byte(n))
	return append(dst, tmp[:n]...)
}
