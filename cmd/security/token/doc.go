// Package token provides opaque token generation and server-side token hashing.
//
// Hashing modes:
//   - SHA-256(token) when no HMAC key is configured (development).
//   - HMAC-SHA256(token, key) when NRA_TOKEN_HMAC_KEY is set.
//
// Output is always a 64-char hex string suitable for storage and constant-time comparison.
// Verification codes are stored through this package; the plain value only leaves the
// process towards its recipient.
package token
