package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Duration int    `json:"duration" validate:"gt=0"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(loginBody{Email: "a@b.co", Password: "12345678", Duration: 1}))

	err := Struct(loginBody{Email: "nope", Password: "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email must be a valid email")
	assert.Contains(t, err.Error(), "password must be at least 8")
	assert.Contains(t, err.Error(), "duration must be greater than 0")
}
