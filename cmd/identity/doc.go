// Package identity is the credential store of the auth service.
//
// It owns the canonical User record, the public projection handed to clients,
// and the persistence boundary (Postgres for production, memory for tests and
// local runs). Plaintext passwords are hashed explicitly inside Store.Create;
// no other layer ever sees a stored hash leave this package unprojected.
package identity
