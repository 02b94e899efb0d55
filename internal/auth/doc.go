// Package auth verifies bearer tokens and enforces per-route scopes.
//
// Tokens are HS256 JWTs signed with a shared key. Three scopes exist:
// observe (read status and event streams), control (place and end calls)
// and ingest (push events directly). Provider webhooks are exempt; they
// cannot carry our tokens.
package auth
