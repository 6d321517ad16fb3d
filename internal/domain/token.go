package domain

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ClaimsVersion identifies the claim layout carried in every token.
const ClaimsVersion = 1

// ClaimSetKey is the private claim under which the claim set is nested.
const ClaimSetKey = "admin"

// ClaimSet is the authorization snapshot taken at issuance time.
type ClaimSet struct {
	Username    string   `json:"username"`
	UserID      *int64   `json:"userId,omitempty"`
	Roles       []string `json:"role"`
	Permissions []string `json:"permissions"`
}

// Claims is the full token payload: registered claims plus the nested claim set.
type Claims struct {
	jwt.RegisteredClaims
	Version int       `json:"ver"`
	Admin   *ClaimSet `json:"admin,omitempty"`
}

// RefreshToken ties a user to the single token currently issued to them.
type RefreshToken struct {
	ID         int64     `json:"id" db:"id"`
	Token      string    `json:"-" db:"token"`
	UserID     int64     `json:"user_id" db:"user_id"`
	ExpiryDate time.Time `json:"expiry_date" db:"expiry_date"`
}

type TokenResponse struct {
	Token       string   `json:"token"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Principal is the request-scoped authenticated identity.
type Principal struct {
	UserID      int64
	Username    string
	Authorities []string
	Token       string
}

// HasAuthority reports whether the principal was granted the named role.
func (p *Principal) HasAuthority(name string) bool {
	if p == nil {
		return false
	}
	for _, a := range p.Authorities {
		if a == name {
			return true
		}
	}
	return false
}
