// Package jwt encodes and decodes the signed claim set carried by bearer tokens.
//
// Wire contract (version 1): compact JWS, alg HS256. Registered claims iss, sub
// (the username), iat and exp. Private claims "ver" (= 1) and "admin", an object
// with keys username, userId, role and permissions. No other layout is accepted.
package jwt

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/andressep95/rbac-auth/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

// MinKeyLength is the shortest HMAC key accepted for HS256, in bytes.
const MinKeyLength = 32

var (
	ErrEncoding       = errors.New("token encoding failed")
	ErrMalformedToken = errors.New("malformed token")
	ErrSignature      = errors.New("token signature mismatch")
)

// Codec signs and verifies tokens with a process-wide symmetric key.
// It holds no mutable state and is safe for concurrent use.
type Codec struct {
	key    []byte
	issuer string
	parser *jwt.Parser
}

// NewCodec decodes the base64 secret into raw key bytes.
func NewCodec(base64Secret, issuer string) (*Codec, error) {
	key, err := base64.StdEncoding.DecodeString(base64Secret)
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64: %v", ErrEncoding, err)
	}
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("%w: secret key is %d bytes, need at least %d", ErrEncoding, len(key), MinKeyLength)
	}

	return &Codec{
		key:    key,
		issuer: issuer,
		// Expiry is surfaced to the caller, not enforced here.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Encode signs the claim set with the given issue and expiry instants.
func (c *Codec) Encode(set domain.ClaimSet, issuedAt, expiresAt time.Time) (string, error) {
	if set.Username == "" {
		return "", fmt.Errorf("%w: empty subject", ErrEncoding)
	}

	claims := domain.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			Subject:   set.Username,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Version: domain.ClaimsVersion,
		Admin:   &set,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	return token, nil
}

// Decode verifies the signature and returns the payload. An expired token
// decodes successfully; use ExpiresAt to judge it.
func (c *Codec) Decode(token string) (*domain.Claims, error) {
	claims := &domain.Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, fmt.Errorf("%w: %v", ErrSignature, err)
		default:
			return nil, fmt.Errorf("%w: %v", ErrMalformedToken, err)
		}
	}

	if claims.Version != domain.ClaimsVersion {
		return nil, fmt.Errorf("%w: unsupported claims version %d", ErrMalformedToken, claims.Version)
	}
	if claims.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrMalformedToken)
	}

	return claims, nil
}
