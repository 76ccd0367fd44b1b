package wbxml

// Global tokens, valid on every code page.
const (
	SwitchPage byte = 0x00
	End        byte = 0x01
	Entity     byte = 0x02
	StrI       byte = 0x03
	Literal    byte = 0x04
	ExtI0      byte = 0x40
	ExtI1      byte = 0x41
	ExtI2      byte = 0x42
	PI         byte = 0x43
	LiteralC   byte = 0x44
	ExtT0      byte = 0x80
	ExtT1      byte = 0x81
	ExtT2      byte = 0x82
	StrT       byte = 0x83
	LiteralA   byte = 0x84
	Ext0       byte = 0xC0
	Ext1       byte = 0xC1
	Ext2       byte = 0xC2
	Opaque     byte = 0xC3
	LiteralAC  byte = 0xC4
)

// Tag token bits.
const (
	TagHasAttrs   byte = 0x80
	TagHasContent byte = 0x40
	tagIDMask     byte = 0x3F
	firstAppToken byte = 0x05
)

// Public identifiers for the WML DTDs.
const (
	PublicIDWML11 uint32 = 0x04
	PublicIDWML12 uint32 = 0x09
	PublicIDWML13 uint32 = 0x0A
)

type element struct {
	token byte
	name  string
}

type attrStart struct {
	token  byte
	name   string
	prefix string
}

type attrValue struct {
	token byte
	value string
}

var elements = [...]element{
	{0x1C, "a"},
	{0x1D, "td"},
	{0x1E, "tr"},
	{0x1F, "table"},
	{0x20, "p"},
	{0x21, "postfield"},
	{0x22, "anchor"},
	{0x23, "access"},
	{0x24, "b"},
	{0x25, "big"},
	{0x26, "br"},
	{0x27, "card"},
	{0x28, "do"},
	{0x29, "em"},
	{0x2A, "fieldset"},
	{0x2B, "go"},
	{0x2C, "head"},
	{0x2D, "i"},
	{0x2E, "img"},
	{0x2F, "input"},
	{0x30, "meta"},
	{0x31, "noop"},
	{0x32, "prev"},
	{0x33, "onevent"},
	{0x34, "optgroup"},
	{0x35, "option"},
	{0x36, "refresh"},
	{0x37, "select"},
	{0x38, "small"},
	{0x39, "strong"},
	{0x3B, "template"},
	{0x3C, "timer"},
	{0x3D, "u"},
	{0x3E, "setvar"},
	{0x3F, "wml"},
}

var attrStarts = [...]attrStart{
	{0x05, "accept-charset", ""},
	{0x06, "align", "bottom"},
	{0x07, "align", "center"},
	{0x08, "align", "left"},
	{0x09, "align", "middle"},
	{0x0A, "align", "right"},
	{0x0B, "align", "top"},
	{0x0C, "alt", ""},
	{0x0D, "content", ""},
	{0x0F, "domain", ""},
	{0x10, "emptyok", "false"},
	{0x11, "emptyok", "true"},
	{0x12, "format", ""},
	{0x13, "height", ""},
	{0x14, "hspace", ""},
	{0x15, "ivalue", ""},
	{0x16, "iname", ""},
	{0x18, "label", ""},
	{0x19, "localsrc", ""},
	{0x1A, "maxlength", ""},
	{0x1B, "method", "get"},
	{0x1C, "method", "post"},
	{0x1D, "mode", "nowrap"},
	{0x1E, "mode", "wrap"},
	{0x1F, "multiple", "false"},
	{0x20, "multiple", "true"},
	{0x21, "name", ""},
	{0x22, "newcontext", "false"},
	{0x23, "newcontext", "true"},
	{0x24, "onpick", ""},
	{0x25, "onenterbackward", ""},
	{0x26, "onenterforward", ""},
	{0x27, "ontimer", ""},
	{0x28, "optional", "false"},
	{0x29, "optional", "true"},
	{0x2A, "path", ""},
	{0x2E, "scheme", ""},
	{0x2F, "sendreferer", "false"},
	{0x30, "sendreferer", "true"},
	{0x31, "size", ""},
	{0x32, "src", ""},
	{0x33, "ordered", "true"},
	{0x34, "ordered", "false"},
	{0x35, "tabindex", ""},
	{0x36, "title", ""},
	{0x37, "type", ""},
	{0x38, "type", "accept"},
	{0x39, "type", "delete"},
	{0x3A, "type", "help"},
	{0x3B, "type", "password"},
	{0x3C, "type", "onpick"},
	{0x3D, "type", "onenterbackward"},
	{0x3E, "type", "onenterforward"},
	{0x3F, "type", "ontimer"},
	{0x45, "type", "options"},
	{0x46, "type", "prev"},
	{0x47, "type", "reset"},
	{0x48, "type", "text"},
	{0x49, "type", "vnd."},
	{0x4A, "href", ""},
	{0x4B, "href", "http://"},
	{0x4C, "href", "https://"},
	{0x4D, "value", ""},
	{0x4E, "vspace", ""},
	{0x4F, "width", ""},
	{0x50, "xml:lang", ""},
	{0x52, "align", ""},
	{0x53, "columns", ""},
	{0x54, "class", ""},
	{0x55, "id", ""},
	{0x56, "forua", "false"},
	{0x57, "forua", "true"},
	{0x58, "src", "http://"},
	{0x59, "src", "https://"},
	{0x5A, "http-equiv", ""},
	{0x5B, "http-equiv", "Content-Type"},
	{0x5C, "content", "application/vnd.wap.wmlc;charset="},
	{0x5D, "http-equiv", "Expires"},
	{0x5E, "accesskey", ""},
	{0x5F, "enctype", ""},
	{0x60, "enctype", "application/x-www-form-urlencoded"},
	{0x61, "enctype", "multipart/form-data"},
	{0x62, "xml:space", "preserve"},
	{0x63, "xml:space", "default"},
	{0x64, "cache-control", "no-cache"},
}

var attrValues = [...]attrValue{
	{0x85, ".com/"},
	{0x86, ".edu/"},
	{0x87, ".net/"},
	{0x88, ".org/"},
	{0x89, "accept"},
	{0x8A, "bottom"},
	{0x8B, "clear"},
	{0x8C, "delete"},
	{0x8D, "help"},
	{0x8E, "http://"},
	{0x8F, "http://www."},
	{0x90, "https://"},
	{0x91, "https://www."},
	{0x93, "middle"},
	{0x94, "nowrap"},
	{0x95, "onpick"},
	{0x96, "onenterbackward"},
	{0x97, "onenterforward"},
	{0x98, "ontimer"},
	{0x99, "options"},
	{0x9A, "password"},
	{0x9B, "reset"},
	{0x9D, "text"},
	{0x9E, "top"},
	{0x9F, "unknown"},
	{0xA0, "wrap"},
	{0xA1, "www."},
}

var docTypes = map[uint32]struct{ fpi, decl string }{
	PublicIDWML11: {
		"-//WAPFORUM//DTD WML 1.1//EN",
		`<!DOCTYPE wml PUBLIC "-//WAPFORUM//DTD WML 1.1//EN" "http://www.wapforum.org/DTD/wml_1.1.xml">`,
	},
	PublicIDWML12: {
		"-//WAPFORUM//DTD WML 1.2//EN",
		`<!DOCTYPE wml PUBLIC "-//WAPFORUM//DTD WML 1.2//EN" "http://www.wapforum.org/DTD/wml12.dtd">`,
	},
	PublicIDWML13: {
		"-//WAPFORUM//DTD WML 1.3//EN",
		`<!DOCTYPE wml PUBLIC "-//WAPFORUM//DTD WML 1.3//EN" "http://www.wapforum.org/DTD/wml13.dtd">`,
	},
}

// ElementName returns the WML element for an application tag token. The
// attribute and content bits are ignored.
func ElementName(token byte) (string, bool) {
	id := token & tagIDMask
	for _, e := range elements {
		if e.token == id {
			return e.name, true
		}
	}
	return "", false
}

func lookupAttrStart(token byte) (attrStart, bool) {
	for _, a := range attrStarts {
		if a.token == token {
			return a, true
		}
	}
	return attrStart{}, false
}

func lookupAttrValue(token byte) (string, bool) {
	for _, v := range attrValues {
		if v.token == token {
			return v.value, true
		}
	}
	return "", false
}
