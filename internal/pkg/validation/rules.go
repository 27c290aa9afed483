package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yigit/resultsphere/internal/ingestion"
)

// Validation rule patterns
var (
	// RollPattern matches university roll numbers such as 20HN1A0501
	RollPattern = regexp.MustCompile(`^[0-9A-Z]{2,4}HN[0-9A-Z]{4,12}$`)

	// PasswordMinLength is the minimum password length
	PasswordMinLength = 8
)

// IsRoll reports whether s looks like a roll number
func IsRoll(s string) bool {
	return RollPattern.MatchString(s)
}

// IsSemester reports whether s is a valid semester token
func IsSemester(s string) bool {
	_, err := ingestion.ParseSemester(s)
	return err == nil
}

// CheckPassword returns a description of the first unmet password rule, or nil
func CheckPassword(password string) error {
	if len(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters long", PasswordMinLength)
	}
	if !strings.ContainsFunc(password, unicode.IsLetter) {
		return fmt.Errorf("password must contain at least one letter")
	}
	if !strings.ContainsFunc(password, unicode.IsDigit) {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// RegisterRules adds the "roll", "semester" and "password" tags to a validator.
// The roll tag accepts lower-case input; services normalise it before storing.
func RegisterRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"roll": func(fl validator.FieldLevel) bool {
			return IsRoll(strings.ToUpper(strings.TrimSpace(fl.Field().String())))
		},
		"semester": func(fl validator.FieldLevel) bool { return IsSemester(fl.Field().String()) },
		"password": func(fl validator.FieldLevel) bool { return CheckPassword(fl.Field().String()) == nil },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s rule: %w", tag, err)
		}
	}
	return nil
}

// RegisterGinRules installs the custom rules on gin's binding validator
func RegisterGinRules() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected gin validator engine %T", binding.Validator.Engine())
	}
	return RegisterRules(v)
}
