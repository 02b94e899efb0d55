// Package api exposes the HTTP surface: call control, provider webhooks,
// the generic event push endpoint and the per-call SSE stream. All JSON
// responses share one envelope with a correlation ID; the SSE endpoint
// hands the connection to the stream adapter and never uses the envelope.
package api
