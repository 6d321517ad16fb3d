package domain

import (
	"time"
)

type User struct {
	ID                    int64     `json:"id" db:"id"`
	Username              string    `json:"username" db:"username"`
	PasswordHash          string    `json:"-" db:"password_hash"`
	Enabled               bool      `json:"enabled" db:"enabled"`
	AccountNonExpired     bool      `json:"account_non_expired" db:"account_non_expired"`
	AccountNonLocked      bool      `json:"account_non_locked" db:"account_non_locked"`
	CredentialsNonExpired bool      `json:"credentials_non_expired" db:"credentials_non_expired"`
	CreatedBy             *int64    `json:"created_by,omitempty" db:"created_by"`
	UpdatedBy             *int64    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt             time.Time `json:"created_at" db:"created_at"`
	UpdatedAt             time.Time `json:"updated_at" db:"updated_at"`

	// Roles is populated by the services, never by a plain row scan.
	Roles []*Role `json:"-" db:"-"`
}

// RoleNames returns the names of the loaded roles in load order.
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// UserDetails is the outbound view of a user.
type UserDetails struct {
	ID                    int64     `json:"id"`
	Username              string    `json:"username"`
	Roles                 []string  `json:"roles"`
	CreatedBy             string    `json:"created_by,omitempty"`
	UpdatedBy             string    `json:"updated_by,omitempty"`
	AccountNonExpired     bool      `json:"account_non_expired"`
	AccountNonLocked      bool      `json:"account_non_locked"`
	CredentialsNonExpired bool      `json:"credentials_non_expired"`
	Enabled               bool      `json:"enabled"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// UserSummary is the short user view used by role listings.
type UserSummary struct {
	ID       int64  `json:"id" db:"id"`
	Username string `json:"username" db:"username"`
	Enabled  bool   `json:"enabled" db:"enabled"`
}
