// Package session owns server-side sessions: their persistence and the
// user-facing management operations (list, current, delete).
//
// A session is valid iff now < ExpiresAt. ExpiresAt is the only mutable field;
// it is extended by refresh-token rotation in the auth orchestrator.
//
// Three stores implement Store: Postgres (production), Redis (optional hot
// backend, selected by NRA_SESSION_BACKEND) and memory (tests and local runs).
package session
