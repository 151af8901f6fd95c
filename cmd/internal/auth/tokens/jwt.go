package tokens

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

type jwtClaims struct {
	jwt.RegisteredClaims
	Typ       string `json:"typ"`
	UserID    string `json:"userId,omitempty"`
	SessionID string `json:"sessionId"`
}

// jwtCodec encodes claims as HS256 JWTs.
type jwtCodec struct{}

func (jwtCodec) seal(c claims, secret []byte) (string, error) {
	jc := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Audience:  jwt.ClaimStrings{c.Audience},
			IssuedAt:  jwt.NewNumericDate(c.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(c.ExpiresAt),
		},
		Typ:       string(c.Kind),
		UserID:    c.UserID,
		SessionID: c.SessionID,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jc).SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("tokens: sign jwt: %w", err)
	}
	return signed, nil
}

func (jwtCodec) open(token string, secret []byte, audience string) (claims, error) {
	var jc jwtClaims
	_, err := jwt.ParseWithClaims(token, &jc,
		func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Time claims are checked by Service with the configured skew.
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return claims{}, ErrInvalid
	}
	if !audienceContains(jc.Audience, audience) || jc.ExpiresAt == nil || jc.IssuedAt == nil {
		return claims{}, ErrInvalid
	}
	return claims{
		Kind:      Kind(jc.Typ),
		UserID:    jc.UserID,
		SessionID: jc.SessionID,
		Audience:  audience,
		IssuedAt:  jc.IssuedAt.Time,
		ExpiresAt: jc.ExpiresAt.Time,
	}, nil
}

func audienceContains(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
