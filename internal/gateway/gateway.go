package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/meshwap/internal/protocol"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
	"github.com/danmuck/meshwap/internal/protocol/wsp"
)

// WMLContentType replaces compiled content types after decompiling.
const WMLContentType = "text/vnd.wap.wml; charset=utf-8"

var (
	ErrTimeout       = errors.New("gateway: exchange timed out")
	ErrBadReply      = errors.New("gateway: undecodable reply pdu")
	ErrPending       = errors.New("gateway: exchange still pending")
	ErrUnknownSender = errors.New("gateway: sender not in contacts")
	ErrNoPinger      = errors.New("gateway: transport cannot ping")
)

// Transport sends one text message to a mesh node.
type Transport interface {
	SendText(ctx context.Context, recipient string, text string) error
}

// Pinger is implemented by transports that can probe a path to a node.
type Pinger interface {
	Ping(ctx context.Context, recipient string) error
}

// Upstream is the datagram socket towards the legacy WAP gateway.
type Upstream interface {
	Send(ctx context.Context, srcPort, destPort uint16, payload []byte) error
}

// Result is a completed exchange as handed to the HTTP boundary.
type Result struct {
	StatusCode    int
	StatusText    string
	ContentType   string
	ContentLength int
	Server        string
	Location      string
	Body          []byte
	Parts         int
	Decompiled    bool
	Truncated     bool
	Duration      time.Duration
}

// WriteHTTP renders the result as an HTTP/1.1 response.
func (r Result) WriteHTTP(w io.Writer) error {
	return wsp.Response{
		StatusCode:  r.StatusCode,
		StatusText:  r.StatusText,
		ContentType: r.ContentType,
		Server:      r.Server,
		Location:    r.Location,
		Body:        r.Body,
	}.WriteHTTP(w)
}

func loggerOrNop(l *zerolog.Logger) zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return *l
}

// sendDatagrams fragments payload, wraps every part for the text link and
// sends the parts in order. Nothing is sent if any part fails to encode.
func sendDatagrams(ctx context.Context, t Transport, frag wdp.Fragmenter, maxText int, recipient string, payload []byte, dest, src uint16) (int, error) {
	texts, err := encodeDatagrams(frag, maxText, payload, dest, src)
	if err != nil {
		return 0, err
	}
	for i, text := range texts {
		if err := t.SendText(ctx, recipient, text); err != nil {
			return i, fmt.Errorf("gateway: send part %d/%d to %s: %w", i+1, len(texts), recipient, err)
		}
	}
	return len(texts), nil
}

func encodeDatagrams(frag wdp.Fragmenter, maxText int, payload []byte, dest, src uint16) ([]string, error) {
	parts, err := frag.Fragment(payload, dest, src)
	if err != nil {
		return nil, fmt.Errorf("gateway: fragment %d bytes: %w", len(payload), err)
	}
	texts := make([]string, len(parts))
	for i, p := range parts {
		if texts[i], err = protocol.EncodeText(p, maxText); err != nil {
			return nil, fmt.Errorf("gateway: encode part %d/%d: %w", i+1, len(parts), err)
		}
	}
	return texts, nil
}
