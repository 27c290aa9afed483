package validation

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRoll(t *testing.T) {
	for _, roll := range []string{"20HN1A0501", "19HN5A0412", "2020HN1A05"} {
		assert.True(t, IsRoll(roll), roll)
	}
	for _, roll := range []string{"", "20hn1a0501", "201A0501", "HN1A0501", "20HN1A05-1", " 20HN1A0501"} {
		assert.False(t, IsRoll(roll), roll)
	}
}

func TestCheckPassword(t *testing.T) {
	assert.NoError(t, CheckPassword("results2025"))
	assert.ErrorContains(t, CheckPassword("a1"), "at least 8")
	assert.ErrorContains(t, CheckPassword("12345678"), "letter")
	assert.ErrorContains(t, CheckPassword("abcdefgh"), "digit")
}

func TestRegisterRules(t *testing.T) {
	v := validator.New()
	require.NoError(t, RegisterRules(v))

	type request struct {
		Roll     string `validate:"roll"`
		Semester string `validate:"semester"`
		Password string `validate:"password"`
	}

	assert.NoError(t, v.Struct(request{Roll: "20HN1A0501", Semester: "2-1", Password: "secret123"}))

	err := v.Struct(request{Roll: "nope", Semester: "9-9", Password: "short"})
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 3)
}
