package wbxml

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/danmuck/meshwap/internal/protocol/uintvar"
)

const minDocumentLen = 4

var (
	ErrShortDocument = errors.New("wbxml: document too short")
	ErrBadHeader     = errors.New("wbxml: malformed document header")
	ErrStringTable   = errors.New("wbxml: string table runs past document end")
)

// Header is the WBXML document preamble.
type Header struct {
	Version  byte
	PublicID uint32
	// PublicIDIndex is the string table offset of the FPI when PublicID is 0.
	PublicIDIndex    uint32
	HasPublicIDIndex bool
	Charset          uint32
	StringTable      []byte
}

// ParseHeader decodes the preamble and returns it with the offset of the
// first body token.
func ParseHeader(doc []byte) (Header, int, error) {
	if len(doc) < minDocumentLen {
		return Header{}, 0, ErrShortDocument
	}
	h := Header{Version: doc[0]}
	pos := 1

	v, n, err := uintvar.Decode(doc[pos:])
	if err != nil {
		return Header{}, 0, fmt.Errorf("%w: public id: %v", ErrBadHeader, err)
	}
	h.PublicID = v
	pos += n
	if h.PublicID == 0 && pos < len(doc) {
		if idx, n, err := uintvar.Decode(doc[pos:]); err == nil {
			h.PublicIDIndex = idx
			h.HasPublicIDIndex = true
			pos += n
		}
	}

	if h.Charset, n, err = uintvar.Decode(doc[pos:]); err != nil {
		return Header{}, 0, fmt.Errorf("%w: charset: %v", ErrBadHeader, err)
	}
	pos += n

	tableLen, n, err := uintvar.Decode(doc[pos:])
	if err != nil {
		return Header{}, 0, fmt.Errorf("%w: string table length: %v", ErrBadHeader, err)
	}
	pos += n
	if uint64(tableLen) > uint64(len(doc)-pos) {
		return Header{}, 0, fmt.Errorf("%w: %d > %d", ErrStringTable, tableLen, len(doc)-pos)
	}
	if tableLen > 0 {
		end := pos + int(tableLen)
		h.StringTable = doc[pos:end:end]
		pos = end
	}
	return h, pos, nil
}

// VersionString renders the version byte as major.minor.
func (h Header) VersionString() string {
	return fmt.Sprintf("%d.%d", h.Version>>4+1, h.Version&0x0F)
}

// TableString returns the NUL-terminated string table entry at offset.
func (h Header) TableString(offset uint32) (string, bool) {
	if uint64(offset) >= uint64(len(h.StringTable)) {
		return "", false
	}
	rest := h.StringTable[offset:]
	if i := bytes.IndexByte(rest, 0); i >= 0 {
		rest = rest[:i]
	}
	return string(rest), true
}

// DocType returns the DOCTYPE declaration for known WML public ids. A zero
// public id is resolved through the string table.
func (h Header) DocType() (string, bool) {
	if dt, ok := docTypes[h.PublicID]; ok {
		return dt.decl, true
	}
	if h.PublicID != 0 || !h.HasPublicIDIndex {
		return "", false
	}
	fpi, ok := h.TableString(h.PublicIDIndex)
	if !ok {
		return "", false
	}
	for _, dt := range docTypes {
		if dt.fpi == fpi {
			return dt.decl, true
		}
	}
	return "", false
}
