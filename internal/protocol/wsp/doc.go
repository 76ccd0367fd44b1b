// Package wsp builds and parses connectionless WSP PDUs.
//
// Ownership boundary:
// - Get-class request PDUs and their compact header block
// - Reply PDU decoding into status, well-known headers and a body view
// - static content type, header name and status tables
// - HTTP/1.1 rendering of decoded replies
//
// Decoded views (Response.Headers, Response.Body) alias the caller's PDU
// buffer and are valid only while that buffer is.
package wsp
