package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrors(t *testing.T) {
	var errs Errors
	assert.NoError(t, errs.Err())

	assert.True(t, errs.Required("name", "bob", "name required"))
	assert.False(t, errs.Required("email", "   ", "email required"))
	assert.False(t, errs.Length("password", "short", 8, 16, "8 to 16 characters"))
	assert.True(t, errs.Length("password", "비밀번호비밀번호", 8, 16, "8 to 16 characters"))

	err := errs.Err()
	require.Error(t, err)

	var ve Errors
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []FieldError{
		{Field: "email", Message: "email required"},
		{Field: "password", Message: "8 to 16 characters"},
	}, []FieldError(ve))
	assert.Contains(t, err.Error(), "email: email required")
}
