package wsp

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/danmuck/meshwap/internal/protocol/uintvar"
)

// WriteHTTP renders the response as an HTTP/1.1 message.
func (r Response) WriteHTTP(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", r.StatusCode, r.StatusText)
	if r.ContentType != "" {
		fmt.Fprintf(bw, "Content-Type: %s\r\n", printable([]byte(r.ContentType)))
	}
	fmt.Fprintf(bw, "Content-Length: %d\r\n", len(r.Body))
	if r.Server != "" {
		fmt.Fprintf(bw, "Server: %s\r\n", printable([]byte(r.Server)))
	}
	if r.Location != "" {
		fmt.Fprintf(bw, "Location: %s\r\n", printable([]byte(r.Location)))
	}
	bw.WriteString("\r\n")
	bw.Write(r.Body)
	return bw.Flush()
}

// HTTP returns the WriteHTTP rendering as bytes.
func (r Response) HTTP() []byte {
	var buf bytes.Buffer
	_ = r.WriteHTTP(&buf)
	return buf.Bytes()
}

// Reply describes a Reply PDU to encode.
type Reply struct {
	TransactionID byte
	StatusCode    int
	// ContentType is a MIME name; well-known names are sent as a
	// short-integer and anything else as text.
	ContentType string
	Server      string
	Location    string
	Body        []byte
}

// AppendReply appends [tid][0x04][status][uintvar(headerLen)][headers][body].
func AppendReply(dst []byte, r Reply) ([]byte, error) {
	status, ok := StatusFromHTTP(r.StatusCode)
	if !ok {
		return nil, fmt.Errorf("wsp: no status byte for http %d", r.StatusCode)
	}
	var headers []byte
	if code, ok := ContentTypeCode(r.ContentType); ok {
		headers = append(headers, code|0x80)
	} else {
		ct := r.ContentType
		if ct == "" {
			ct = DefaultContentType
		}
		headers = append(append(headers, ct...), 0x00)
	}
	if r.Server != "" {
		headers = appendTextHeader(headers, FieldServer, r.Server)
	}
	if r.Location != "" {
		headers = appendTextHeader(headers, FieldLocation, r.Location)
	}
	headers = append(headers, FieldContentLength|0x80)
	headers = appendInteger(headers, uint64(len(r.Body)))

	dst = append(dst, r.TransactionID, PDUReply, status)
	dst = uintvar.Append(dst, uint32(len(headers)))
	dst = append(dst, headers...)
	return append(dst, r.Body...), nil
}
