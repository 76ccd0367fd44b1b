package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/danmuck/meshwap/internal/protocol/base91"
	"github.com/danmuck/meshwap/internal/protocol/wdp"
)

const (
	// MaxText is the mesh text message limit, terminator included.
	MaxText = 150
	// MaxBinary is the largest datagram whose encoding fits MaxText-1
	// characters.
	MaxBinary = (MaxText - 1) * 13 / 16
	// senderPrefixLen is the hex prefix of a node public key used as its id.
	senderPrefixLen = 8
)

// Encoding reports how an inbound text message was decoded.
type Encoding int

const (
	EncodingBase91 Encoding = iota
	EncodingRaw
)

func (e Encoding) String() string {
	if e == EncodingRaw {
		return "raw"
	}
	return "base91"
}

// EncodeText wraps one datagram for the mesh text link. maxText <= 0 uses
// MaxText.
func EncodeText(datagram []byte, maxText int) (string, error) {
	if maxText <= 0 {
		maxText = MaxText
	}
	text := base91.EncodeToString(datagram)
	if len(text) > maxText-1 {
		return "", fmt.Errorf("%w: %d chars for %d bytes, limit %d", ErrTextTooLong, len(text), len(datagram), maxText-1)
	}
	return text, nil
}

// DecodeText unwraps an inbound text message. The Base91 decoding wins when
// it is a valid WDP datagram; otherwise the raw bytes are tried.
func DecodeText(text string) ([]byte, Encoding, error) {
	if text == "" {
		return nil, EncodingBase91, ErrEmptyText
	}
	decoded, err := base91.DecodeString(text)
	if err == nil && len(decoded) > 0 {
		if verr := wdp.Validate(decoded); verr == nil {
			return decoded, EncodingBase91, nil
		}
	}
	raw := []byte(text)
	if verr := wdp.Validate(raw); verr != nil {
		return nil, EncodingRaw, fmt.Errorf("%w: %v", ErrNotDatagram, verr)
	}
	return raw, EncodingRaw, nil
}

// SenderPrefix validates a mesh sender id and returns its 4-byte key
// prefix. Ids are at least 8 hex characters.
func SenderPrefix(id string) ([]byte, error) {
	id = strings.TrimSpace(id)
	if len(id) < senderPrefixLen {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, id)
	}
	if strings.TrimLeft(id, "0123456789abcdefABCDEF") != "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSender, id)
	}
	return hex.DecodeString(id[:senderPrefixLen])
}
