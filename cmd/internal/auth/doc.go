// Package auth is the orchestrator of the authentication lifecycle:
// registration, login, access-token refresh with refresh-token rotation, and logout.
//
// It composes the credential store, the session store, the token service and
// the verification-code issuer. Every failure it returns is an *apperr.Error;
// the HTTP boundary maps the kind to a status code.
//
// The service holds no in-process locks. Concurrent refreshes of the same
// near-expiry session can both rotate: each extends the session and each gets
// a new refresh token, and both tokens stay valid until the extended expiry.
// The store update is last-writer-wins on expires_at.
package auth
