package tokens

import (
	"crypto/sha256"

	paseto "aidanwoods.dev/go-paseto"
)

// pasetoCodec encodes claims as PASETO v4.local tokens.
// The symmetric key is SHA-256 of the configured secret.
type pasetoCodec struct{}

func pasetoKey(secret []byte) (paseto.V4SymmetricKey, error) {
	sum := sha256.Sum256(secret)
	return paseto.V4SymmetricKeyFromBytes(sum[:])
}

func (pasetoCodec) seal(c claims, secret []byte) (string, error) {
	key, err := pasetoKey(secret)
	if err != nil {
		return "", err
	}

	tok := paseto.NewToken()
	tok.SetAudience(c.Audience)
	tok.SetIssuedAt(c.IssuedAt)
	tok.SetNotBefore(c.IssuedAt)
	tok.SetExpiration(c.ExpiresAt)
	tok.SetString("typ", string(c.Kind))
	tok.SetString("sid", c.SessionID)
	if c.UserID != "" {
		tok.SetString("uid", c.UserID)
	}

	return tok.V4Encrypt(key, nil), nil
}

func (pasetoCodec) open(token string, secret []byte, audience string) (claims, error) {
	key, err := pasetoKey(secret)
	if err != nil {
		return claims{}, ErrInvalid
	}

	// Build a fresh parser per call to avoid accumulating rules across verifies.
	p := paseto.NewParserWithoutExpiryCheck()
	p.AddRule(paseto.ForAudience(audience))

	parsed, err := p.ParseV4Local(key, token, nil)
	if err != nil {
		return claims{}, ErrInvalid
	}

	exp, err := parsed.GetExpiration()
	if err != nil {
		return claims{}, ErrInvalid
	}
	iat, err := parsed.GetIssuedAt()
	if err != nil {
		return claims{}, ErrInvalid
	}
	typ, err := parsed.GetString("typ")
	if err != nil {
		return claims{}, ErrInvalid
	}
	sid, err := parsed.GetString("sid")
	if err != nil {
		return claims{}, ErrInvalid
	}
	uid, _ := parsed.GetString("uid")

	return claims{
		Kind:      Kind(typ),
		UserID:    uid,
		SessionID: sid,
		Audience:  audience,
		IssuedAt:  iat,
		ExpiresAt: exp,
	}, nil
}
