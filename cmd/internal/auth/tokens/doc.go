// Package tokens issues and verifies the two bearer token kinds of the service.
//
// Access tokens carry {userId, sessionId} and are short-lived. Refresh tokens
// carry {sessionId} only. Each kind has its own secret and TTL, and the kind is
// embedded as a "typ" claim so a token of one kind never verifies as the other.
//
// Two interchangeable codecs share the contract: JWT HS256 (default) and
// PASETO v4.local. Every verification failure collapses to ErrInvalid.
package tokens
