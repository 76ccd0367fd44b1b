package wdp

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	SimpleHeaderLen = 7
	ConcatHeaderLen = 12

	simpleUDHL    byte = 0x06
	concatUDHL    byte = 0x0B
	ieiConcat8    byte = 0x00
	ieiConcat8Len byte = 0x03
	ieiPorts16    byte = 0x05
	ieiPorts16Len byte = 0x04
)

var (
	ErrShortDatagram = errors.New("wdp: datagram too short")
	ErrBadHeader     = errors.New("wdp: malformed user data header")
	ErrZeroPort      = errors.New("wdp: zero port number")
	ErrBadPartInfo   = errors.New("wdp: invalid concatenation part info")
)

// Header is a port-addressed user data header, optionally carrying 8-bit
// concatenation info.
type Header struct {
	DestPort     uint16
	SrcPort      uint16
	Concatenated bool
	Ref          byte
	Total        byte
	Part         byte
}

// Len is the encoded header size including the length byte.
func (h Header) Len() int {
	if h.Concatenated {
		return ConcatHeaderLen
	}
	return SimpleHeaderLen
}

func (h Header) AppendTo(dst []byte) []byte {
	if h.Concatenated {
		dst = append(dst, concatUDHL, ieiConcat8, ieiConcat8Len, h.Ref, h.Total, h.Part)
	} else {
		dst = append(dst, simpleUDHL)
	}
	dst = append(dst, ieiPorts16, ieiPorts16Len)
	dst = binary.BigEndian.AppendUint16(dst, h.DestPort)
	return binary.BigEndian.AppendUint16(dst, h.SrcPort)
}

func (h Header) Encode() []byte {
	return h.AppendTo(make([]byte, 0, h.Len()))
}

// ParseHeader validates b and splits it into header and payload. The
// payload aliases b.
func ParseHeader(b []byte) (Header, []byte, error) {
	if err := Validate(b); err != nil {
		return Header{}, nil, err
	}
	var h Header
	ports := b[1:]
	if b[0] == concatUDHL {
		h.Concatenated = true
		h.Ref, h.Total, h.Part = b[3], b[4], b[5]
		ports = b[6:]
	}
	h.DestPort = binary.BigEndian.Uint16(ports[2:4])
	h.SrcPort = binary.BigEndian.Uint16(ports[4:6])
	return h, b[h.Len():], nil
}

// Validate checks that b starts with a simple or concatenated WDP header
// with non-zero ports.
func Validate(b []byte) error {
	if len(b) < SimpleHeaderLen {
		return fmt.Errorf("%w: %d bytes", ErrShortDatagram, len(b))
	}
	udhl := b[0]
	if udhl != simpleUDHL && udhl != concatUDHL {
		return fmt.Errorf("%w: header length %#02x", ErrBadHeader, udhl)
	}
	if len(b) < int(udhl)+1 {
		return fmt.Errorf("%w: %d bytes, need %d", ErrShortDatagram, len(b), int(udhl)+1)
	}

	ports := b[1:]
	if udhl == concatUDHL {
		if b[1] != ieiConcat8 || b[2] != ieiConcat8Len {
			return fmt.Errorf("%w: concat element %#02x %#02x", ErrBadHeader, b[1], b[2])
		}
		total, part := b[4], b[5]
		if total == 0 || part == 0 || part > total {
			return fmt.Errorf("%w: part %d/%d", ErrBadPartInfo, part, total)
		}
		ports = b[6:]
	}
	if ports[0] != ieiPorts16 || ports[1] != ieiPorts16Len {
		return fmt.Errorf("%w: port element %#02x %#02x", ErrBadHeader, ports[0], ports[1])
	}
	dest := binary.BigEndian.Uint16(ports[2:4])
	src := binary.BigEndian.Uint16(ports[4:6])
	if dest == 0 || src == 0 {
		return fmt.Errorf("%w: dest=%d src=%d", ErrZeroPort, dest, src)
	}
	return nil
}
