// Package stream binds observer HTTP connections to relay subscriptions.
//
// Each connection is served as a long-lived SSE response: one subscription,
// one sink, events serialized one JSON envelope per frame, with periodic
// keepalive comments so intermediate proxies do not cut the stream. The
// adapter ends the connection itself once the call reaches a terminal
// status; every other exit path is client-initiated.
package stream
