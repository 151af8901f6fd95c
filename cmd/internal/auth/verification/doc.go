// Package verification issues one-time codes (email verification) and stores
// them hashed. The plain code is returned once to the caller for delivery.
package verification
