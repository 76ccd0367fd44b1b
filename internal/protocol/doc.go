// Package protocol carries WDP datagrams inside mesh text messages.
//
// Ownership boundary:
// - the Base91 text envelope and its size limit
// - inbound envelope decoding with raw-binary fallback
// - sender node id checks
//
// Wire codecs live in subpackages: base91, uintvar, wsp, wbxml and wdp.
// Exchange state lives in session.
package protocol
