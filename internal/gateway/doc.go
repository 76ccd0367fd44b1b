// Package gateway runs the two mesh roles of a WAP-over-mesh link.
//
// Ownership boundary:
// - Client: the access point side that turns HTTP fetches into WSP
//   requests over the mesh and turns replies back into HTTP results
// - Proxy: the internet side that relays mesh requests to a legacy WAP
//   gateway and routes its replies back to the requesting node
//
// Both roles are driven by the caller: inbound text arrives through
// HandleText, timeouts advance through Poll. State is guarded by a mutex,
// so a poll loop and HTTP handlers may share one value.
//
// No mapctl command builds a Client or Proxy. A host program that owns the
// radio link embeds them: it supplies Transport (and Upstream for a proxy),
// builds the role config with config.Config.ClientConfig or ProxyConfig, and
// feeds received text to HandleText.
package gateway
