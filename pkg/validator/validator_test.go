package validator

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,password"`
}

func TestIsStrongPassword(t *testing.T) {
	cases := map[string]bool{
		"abc12345":              true,
		"abcdefgh":              false,
		"12345678":              false,
		"ab1":                   false,
		"abcdefghij1234567890x": false,
		"contraseña1":           true,
	}
	for pw, want := range cases {
		assert.Equal(t, want, IsStrongPassword(pw), pw)
	}
}

func TestValidate_UsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(credentials{Password: "short"})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Message, "username is required")
	assert.Contains(t, verr.Message, "password must be 8-20 characters")
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, NewValidator().Validate(credentials{Username: "alice", Password: "alice2024"}))
}
