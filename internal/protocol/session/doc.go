// Package session tracks the stateful side of a mesh WAP exchange.
//
// Ownership boundary:
// - the client's single outstanding exchange, keyed by random source port
// - the proxy's relay table mapping gateway replies back to mesh senders
// - proxy path discovery attempts with retry backoff
//
// Nothing here locks or blocks. Callers pass the current time and
// serialize access.
package session
