// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,32}$`)

// ValidateUsername checks the account name format.
func ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return fmt.Errorf("username must be 3-32 letters, digits or underscores")
	}
	return nil
}

// ValidatePassword checks password length. Bytes are counted, matching bcrypt's limit.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	if len(password) > MaxPasswordLength {
		return fmt.Errorf("password must not exceed %d characters", MaxPasswordLength)
	}
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("password must not be blank")
	}
	return nil
}

// ValidateDocumentName accepts a bare PDF file name.
func ValidateDocumentName(name string) error {
	if strings.ContainsAny(name, `/\`) || path.Base(name) != name || strings.EqualFold(name, ".pdf") {
		return fmt.Errorf("file name must be a plain file name")
	}
	if !strings.EqualFold(path.Ext(name), ".pdf") {
		return fmt.Errorf("only PDF documents can be shared")
	}
	if utf8.RuneCountInString(name) > 255 {
		return fmt.Errorf("file name must not exceed 255 characters")
	}
	return nil
}

// ValidateLength checks that value has between 1 and max characters after trimming.
func ValidateLength(field, value string, max int) error {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n == 0 {
		return fmt.Errorf("%s is required", field)
	}
	if n > max {
		return fmt.Errorf("%s too long (max %d characters)", field, max)
	}
	return nil
}
