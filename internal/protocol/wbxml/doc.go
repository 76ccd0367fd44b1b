// Package wbxml decompiles WMLC (WBXML-encoded WML) back to WML text.
//
// Ownership boundary:
// - document preamble (version, public id, charset, string table)
// - WML 1.x element, attribute start and attribute value tables
// - the body token state machine with its bounded element stack
//
// Known simplifications, kept as is:
// - a single tag code page; SWITCH_PAGE indices are ignored
// - literal element attributes are skipped, not rendered
// - OPAQUE data is dropped
// - an unknown application tag is dropped without consuming its
//   attribute or content bytes, which may desynchronize malformed input
package wbxml
