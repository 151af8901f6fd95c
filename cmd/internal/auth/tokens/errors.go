package tokens

import "errors"

var (
	// ErrInvalid is returned for any token that fails verification: bad signature,
	// malformed, expired, wrong audience, wrong kind or missing claims.
	ErrInvalid = errors.New("invalid token")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid token config")
)
