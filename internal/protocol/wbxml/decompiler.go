package wbxml

import (
	"errors"
	"strconv"

	"github.com/danmuck/meshwap/internal/protocol/uintvar"
)

const (
	// StackDepth bounds open elements. Deeper pushes are dropped, so the
	// matching END closes an outer element instead.
	StackDepth = 32
	// MinCapacity is the smallest output capacity Decompile accepts.
	MinCapacity = 100
	xmlDecl     = `<?xml version="1.0"?>`
)

var ErrSmallCapacity = errors.New("wbxml: output capacity below minimum")

// Document is a decompiled WMLC deck.
type Document struct {
	Header Header
	Text   string
	// Truncated reports that at least one append was dropped for capacity.
	Truncated bool
}

// Decompile renders wmlc as WML text of at most capacity bytes. Output that
// does not fit is dropped silently: whole strings are all-or-nothing and
// inline string characters are appended one at a time.
func Decompile(wmlc []byte, capacity int) (string, error) {
	doc, err := DecompileDocument(wmlc, capacity)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}

func DecompileDocument(wmlc []byte, capacity int) (Document, error) {
	if len(wmlc) < minDocumentLen {
		return Document{}, ErrShortDocument
	}
	if capacity < MinCapacity {
		return Document{}, ErrSmallCapacity
	}
	h, pos, err := ParseHeader(wmlc)
	if err != nil {
		return Document{}, err
	}

	m := machine{
		in:  wmlc[pos:],
		hdr: h,
		out: writer{buf: make([]byte, 0, min(capacity, 4*len(wmlc)+128)), limit: capacity},
	}
	m.out.str(xmlDecl + "\n")
	if dt, ok := h.DocType(); ok {
		m.out.str(dt + "\n")
	}
	m.run()
	return Document{Header: h, Text: string(m.out.buf), Truncated: m.out.truncated}, nil
}

type writer struct {
	buf       []byte
	limit     int
	truncated bool
}

func (w *writer) str(s string) {
	if len(w.buf)+len(s) > w.limit {
		w.truncated = true
		return
	}
	w.buf = append(w.buf, s...)
}

func (w *writer) char(c byte) {
	if len(w.buf)+1 > w.limit {
		w.truncated = true
		return
	}
	w.buf = append(w.buf, c)
}

type machine struct {
	in    []byte
	pos   int
	hdr   Header
	out   writer
	stack [StackDepth]string
	depth int
}

func (m *machine) run() {
	for m.pos < len(m.in) {
		token := m.in[m.pos]
		m.pos++
		switch token {
		case SwitchPage:
			// Single code page; the index is ignored.
			if m.pos < len(m.in) {
				m.pos++
			}
		case End:
			m.pop()
		case Entity:
			if v, ok := m.varint(); ok {
				m.out.str("&#" + strconv.FormatUint(uint64(v), 10) + ";")
			}
		case StrI:
			m.inline()
		case StrT:
			if v, ok := m.varint(); ok {
				m.tableRef(v)
			}
		case ExtI0, ExtI1, ExtI2:
			m.inlineVariable(token)
		case ExtT0, ExtT1, ExtT2:
			m.tableVariable(token)
		case Opaque:
			if v, ok := m.varint(); ok {
				m.skip(v)
			}
		case PI, Ext0, Ext1, Ext2:
		case Literal, LiteralA, LiteralC, LiteralAC:
			m.literal(token)
		default:
			m.element(token)
		}
	}
	for m.depth > 0 {
		m.pop()
	}
}

func (m *machine) varint() (uint32, bool) {
	if m.pos >= len(m.in) {
		return 0, false
	}
	v, n, err := uintvar.Decode(m.in[m.pos:])
	if err != nil {
		return 0, false
	}
	m.pos += n
	return v, true
}

func (m *machine) skip(n uint32) {
	if uint64(n) >= uint64(len(m.in)-m.pos) {
		m.pos = len(m.in)
		return
	}
	m.pos += int(n)
}

func (m *machine) push(name string) {
	if m.depth < StackDepth {
		m.stack[m.depth] = name
		m.depth++
	}
}

func (m *machine) pop() {
	if m.depth == 0 {
		return
	}
	m.depth--
	m.out.str("</")
	m.out.str(m.stack[m.depth])
	m.out.char('>')
}

// inline copies bytes up to the next NUL and consumes the terminator.
func (m *machine) inline() {
	for m.pos < len(m.in) && m.in[m.pos] != 0 {
		m.out.char(m.in[m.pos])
		m.pos++
	}
	if m.pos < len(m.in) {
		m.pos++
	}
}

func (m *machine) tableRef(offset uint32) {
	if s, ok := m.hdr.TableString(offset); ok {
		m.out.str(s)
	}
}

func escapeSuffix(token byte) string {
	switch token & 0x03 {
	case 1:
		return ":e"
	case 2:
		return ":u"
	default:
		return ""
	}
}

func (m *machine) inlineVariable(token byte) {
	m.out.str("$(")
	m.inline()
	m.out.str(escapeSuffix(token))
	m.out.char(')')
}

func (m *machine) tableVariable(token byte) {
	v, ok := m.varint()
	if !ok {
		return
	}
	m.out.str("$(")
	m.tableRef(v)
	m.out.str(escapeSuffix(token))
	m.out.char(')')
}

// literal handles elements named by the string table. Their attributes are
// scanned up to END but not reconstructed.
func (m *machine) literal(token byte) {
	v, ok := m.varint()
	if !ok {
		return
	}
	name, ok := m.hdr.TableString(v)
	if !ok {
		name = "unknown"
	}
	m.out.char('<')
	m.out.str(name)
	if token == LiteralA || token == LiteralAC {
		for m.pos < len(m.in) && m.in[m.pos] != End {
			m.pos++
		}
		if m.pos < len(m.in) {
			m.pos++
		}
	}
	m.open(name, token == LiteralC || token == LiteralAC)
}

func (m *machine) open(name string, content bool) {
	if content {
		m.out.char('>')
		m.push(name)
		return
	}
	m.out.str("/>")
}

// element handles application tag tokens. An unknown tag is dropped and
// its attribute and content bytes are left for the main loop.
func (m *machine) element(token byte) {
	name, ok := ElementName(token)
	if !ok {
		return
	}
	m.out.char('<')
	m.out.str(name)
	if token&TagHasAttrs != 0 {
		m.attributes()
	}
	m.open(name, token&TagHasContent != 0)
}

func (m *machine) attributes() {
	for m.pos < len(m.in) {
		t := m.in[m.pos]
		switch {
		case t == End:
			m.pos++
			return
		case t == StrI:
			m.pos++
			m.inline()
		case t == StrT:
			m.pos++
			if v, ok := m.varint(); ok {
				m.tableRef(v)
			}
		case t >= 0x80:
			if v, ok := lookupAttrValue(t); ok {
				m.out.str(v)
			}
			m.pos++
		default:
			a, ok := lookupAttrStart(t)
			m.pos++
			if !ok {
				continue
			}
			m.out.char(' ')
			m.out.str(a.name)
			m.out.str(`="`)
			m.out.str(a.prefix)
			m.attributeValue()
			m.out.char('"')
		}
	}
}

// attributeValue consumes continuation tokens until END or the next
// attribute start, leaving either for attributes.
func (m *machine) attributeValue() {
	for m.pos < len(m.in) {
		t := m.in[m.pos]
		switch {
		case t == End:
			return
		case t >= ExtI0 && t <= ExtI2:
			m.pos++
			m.inlineVariable(t)
		case t >= firstAppToken && t < 0x80:
			return
		case t == StrI:
			m.pos++
			m.inline()
		case t == StrT:
			m.pos++
			if v, ok := m.varint(); ok {
				m.tableRef(v)
			}
		case t >= ExtT0 && t <= ExtT2:
			m.pos++
			m.tableVariable(t)
		case t >= 0x80:
			if v, ok := lookupAttrValue(t); ok {
				m.out.str(v)
			}
			m.pos++
		default:
			m.pos++
		}
	}
}
