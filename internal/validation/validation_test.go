package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tripforge/tripforge/internal/validation"
)

type signup struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"min=8"`
	Style    string `json:"travelStyle,omitempty" validate:"omitempty,oneof=budget luxury"`
}

func TestStruct(t *testing.T) {
	assert.Nil(t, validation.Struct(&signup{Email: "a@b.co", Password: "longenough"}))

	errs := validation.Struct(&signup{Email: "nope", Password: "short", Style: "cheap"})
	require.Len(t, errs, 3)
	assert.Equal(t, "email", errs[0].Field)
	assert.Equal(t, "must be a valid email address", errs[0].Message)
	assert.Equal(t, "password", errs[1].Field)
	assert.Equal(t, "must be at least 8", errs[1].Message)
	assert.Equal(t, "travelStyle", errs[2].Field)
	assert.Equal(t, "oneof", errs[2].Code)
}
