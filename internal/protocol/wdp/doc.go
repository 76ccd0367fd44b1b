// Package wdp frames WAP datagrams for a size-limited mesh text link.
//
// Ownership boundary:
// - simple and concatenated user data headers (16-bit port addressing)
// - splitting outbound payloads into budget-sized datagrams
// - bounded reassembly of concatenated parts keyed by (ref, sender)
//
// The package does no I/O and holds no goroutines. Time is passed in by the
// caller, which also drives Sweep.
package wdp
