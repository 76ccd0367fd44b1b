package wdp

import (
	"errors"
	"fmt"
	"math/rand"
)

const (
	// DefaultBudget is the largest binary datagram one mesh text message
	// carries after Base91 expansion, rounded down.
	DefaultBudget = 120
	maxParts      = 255
)

var (
	ErrBudget       = errors.New("wdp: budget leaves no room for a concatenated part")
	ErrTooManyParts = errors.New("wdp: payload needs more than 255 parts")
)

// Fragmenter splits outbound payloads into datagrams of at most Budget
// bytes. Rand seeds concatenation reference numbers; nil uses the global
// source.
type Fragmenter struct {
	Budget int
	Rand   *rand.Rand
}

func (f Fragmenter) budget() int {
	if f.Budget <= 0 {
		return DefaultBudget
	}
	return f.Budget
}

// PartSize is the payload carried by each concatenated part.
func (f Fragmenter) PartSize() int {
	return f.budget() - ConcatHeaderLen
}

// Fragment returns one simple datagram when payload fits Budget-7 bytes,
// otherwise ceil(len/(Budget-12)) concatenated datagrams sharing a random
// reference number.
func (f Fragmenter) Fragment(payload []byte, dest, src uint16) ([][]byte, error) {
	budget := f.budget()
	if budget <= ConcatHeaderLen {
		return nil, fmt.Errorf("%w: budget=%d", ErrBudget, budget)
	}
	if len(payload) <= budget-SimpleHeaderLen {
		h := Header{DestPort: dest, SrcPort: src}
		out := h.AppendTo(make([]byte, 0, SimpleHeaderLen+len(payload)))
		return [][]byte{append(out, payload...)}, nil
	}

	stride := budget - ConcatHeaderLen
	total := (len(payload) + stride - 1) / stride
	if total > maxParts {
		return nil, fmt.Errorf("%w: %d bytes in %d-byte parts", ErrTooManyParts, len(payload), stride)
	}

	ref := f.ref()
	parts := make([][]byte, 0, total)
	for i := 0; i < total; i++ {
		chunk := payload[i*stride : min((i+1)*stride, len(payload))]
		h := Header{
			DestPort:     dest,
			SrcPort:      src,
			Concatenated: true,
			Ref:          ref,
			Total:        byte(total),
			Part:         byte(i + 1),
		}
		out := h.AppendTo(make([]byte, 0, ConcatHeaderLen+len(chunk)))
		parts = append(parts, append(out, chunk...))
	}
	return parts, nil
}

func (f Fragmenter) ref() byte {
	if f.Rand != nil {
		return byte(f.Rand.Intn(256))
	}
	return byte(rand.Intn(256))
}
