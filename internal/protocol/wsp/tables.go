package wsp

// PDU type bytes.
const (
	PDUReply byte = 0x04
	PDUGet   byte = 0x40
)

// Well-known header field codes (without the 0x80 flag).
const (
	FieldAccept        byte = 0x00
	FieldAcceptCharset byte = 0x01
	FieldContentLength byte = 0x0D
	FieldContentType   byte = 0x11
	FieldDate          byte = 0x12
	FieldHost          byte = 0x16
	FieldLocation      byte = 0x1C
	FieldServer        byte = 0x26
	FieldUserAgent     byte = 0x29
)

// Well-known content type codes (without the 0x80 flag).
const (
	ContentAny          byte = 0x00
	ContentTextHTML     byte = 0x02
	ContentTextPlain    byte = 0x03
	ContentTextWML      byte = 0x08
	ContentWMLC         byte = 0x14
	ContentWMLScriptC   byte = 0x15
	ContentImageWBMP    byte = 0x21
	ContentWBXML        byte = 0x29
	DefaultContentType       = "application/octet-stream"
)

// IANA MIBenum charset codes.
const (
	CharsetISO88591 uint16 = 4
	CharsetUTF8     uint16 = 106
)

var contentTypes = [...]string{
	"*/*",
	"text/*",
	"text/html",
	"text/plain",
	"text/x-hdml",
	"text/x-ttml",
	"text/x-vCalendar",
	"text/x-vCard",
	"text/vnd.wap.wml",
	"text/vnd.wap.wmlscript",
	"application/vnd.wap.catc",
	"multipart/*",
	"multipart/mixed",
	"multipart/form-data",
	"multipart/byteranges",
	"multipart/alternative",
	"application/*",
	"application/java-vm",
	"application/x-www-form-urlencoded",
	"application/x-hdmlc",
	"application/vnd.wap.wmlc",
	"application/vnd.wap.wmlscriptc",
	"application/vnd.wap.wsic",
	"application/vnd.wap.uaprof",
	"application/vnd.wap.wtls-ca-certificate",
	"application/vnd.wap.wtls-user-certificate",
	"application/x-x509-ca-cert",
	"application/x-x509-user-cert",
	"image/*",
	"image/gif",
	"image/jpeg",
	"image/tiff",
	"image/png",
	"image/vnd.wap.wbmp",
	"application/vnd.wap.multipart.*",
	"application/vnd.wap.multipart.mixed",
	"application/vnd.wap.multipart.form-data",
	"application/vnd.wap.multipart.byteranges",
	"application/vnd.wap.multipart.alternative",
	"application/xml",
	"text/xml",
	"application/vnd.wap.wbxml",
	"application/x-x968-cross-cert",
	"application/x-x968-ca-cert",
	"application/x-x968-user-cert",
	"text/vnd.wap.si",
	"application/vnd.wap.sic",
	"text/vnd.wap.sl",
	"application/vnd.wap.slc",
	"text/vnd.wap.co",
	"application/vnd.wap.coc",
	"application/vnd.wap.multipart.related",
	"application/vnd.wap.sia",
	"text/vnd.wap.connectivity-xml",
	"application/vnd.wap.connectivity-wbxml",
	"application/pkcs7-mime",
	"application/vnd.wap.hashed-certificate",
	"application/vnd.wap.signed-certificate",
	"application/vnd.wap.cert-response",
	"application/xhtml+xml",
	"application/wml+xml",
	"text/css",
	"application/vnd.wap.mms-message",
	"application/vnd.wap.rollover-certificate",
}

var headerNames = [...]string{
	"Accept",
	"Accept-Charset",
	"Accept-Encoding",
	"Accept-Language",
	"Accept-Ranges",
	"Age",
	"Allow",
	"Authorization",
	"Cache-Control",
	"Connection",
	"Content-Base",
	"Content-Encoding",
	"Content-Language",
	"Content-Length",
	"Content-Location",
	"Content-MD5",
	"Content-Range",
	"Content-Type",
	"Date",
	"Etag",
	"Expires",
	"From",
	"Host",
	"If-Modified-Since",
	"If-Match",
	"If-None-Match",
	"If-Range",
	"If-Unmodified-Since",
	"Location",
	"Last-Modified",
	"Max-Forwards",
	"Pragma",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Public",
	"Range",
	"Referer",
	"Retry-After",
	"Server",
	"Transfer-Encoding",
	"Upgrade",
	"User-Agent",
	"Vary",
	"Via",
	"Warning",
	"WWW-Authenticate",
	"Content-Disposition",
}

var statusCodes = map[byte]int{
	0x10: 100, 0x11: 101,
	0x20: 200, 0x21: 201, 0x22: 202, 0x23: 203, 0x24: 204, 0x25: 205, 0x26: 206,
	0x30: 300, 0x31: 301, 0x32: 302, 0x33: 303, 0x34: 304, 0x35: 305, 0x37: 307,
	0x40: 400, 0x41: 401, 0x42: 402, 0x43: 403, 0x44: 404, 0x45: 405, 0x46: 406, 0x47: 407,
	0x48: 408, 0x49: 409, 0x4A: 410, 0x4B: 411, 0x4C: 412, 0x4D: 413, 0x4E: 414, 0x4F: 415,
	0x50: 416, 0x51: 417,
	0x60: 500, 0x61: 501, 0x62: 502, 0x63: 503, 0x64: 504, 0x65: 505,
}

var statusTexts = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	307: "Temporary Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Request Entity Too Large",
	414: "Request-URI Too Long",
	415: "Unsupported Media Type",
	416: "Requested Range Not Satisfiable",
	417: "Expectation Failed",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
}

// ContentTypeName maps a well-known content type code to its MIME name.
func ContentTypeName(code byte) string {
	if int(code) < len(contentTypes) {
		return contentTypes[code]
	}
	return DefaultContentType
}

// ContentTypeCode is the reverse of ContentTypeName.
func ContentTypeCode(name string) (byte, bool) {
	for i, ct := range contentTypes {
		if ct == name {
			return byte(i), true
		}
	}
	return 0, false
}

// HeaderName maps a well-known field code to its HTTP header name.
func HeaderName(code byte) (string, bool) {
	if int(code) < len(headerNames) {
		return headerNames[code], true
	}
	return "", false
}

// StatusToHTTP maps a WSP status byte to an HTTP status code. Unmapped
// values become 500.
func StatusToHTTP(status byte) int {
	if code, ok := statusCodes[status]; ok {
		return code
	}
	return 500
}

// StatusFromHTTP is the reverse of StatusToHTTP.
func StatusFromHTTP(code int) (byte, bool) {
	for b, c := range statusCodes {
		if c == code {
			return b, true
		}
	}
	return 0, false
}

func StatusText(code int) string {
	if text, ok := statusTexts[code]; ok {
		return text
	}
	return "Unknown"
}
