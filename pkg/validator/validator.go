package validator

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amirk1998/notes-web/pkg/errors"
)

// MaxTitleLength is counted in characters, not bytes.
const MaxTitleLength = 200

var (
	// Username: 3-20 alphanumeric characters and underscores
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// SanitizeString removes null bytes and trims whitespace, counting a byte
// order mark as whitespace. Postgres rejects NUL in text columns.
func (v *Validator) SanitizeString(input string) string {
	input = strings.ReplaceAll(input, "\x00", "")
	return strings.TrimFunc(input, isTrimmable)
}

func isTrimmable(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// ValidateNoteID checks an already-trimmed note identifier
func (v *Validator) ValidateNoteID(id string) error {
	if id == "" {
		return errors.ErrIDRequired
	}
	return nil
}

// ValidateNoteTitle validates an already-trimmed note title
func (v *Validator) ValidateNoteTitle(title string) error {
	if title == "" {
		return errors.ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return errors.ErrTitleTooLong
	}
	return nil
}

// ValidateNoteContent validates already-trimmed note content
func (v *Validator) ValidateNoteContent(content string) error {
	if content == "" {
		return errors.ErrContentRequired
	}
	return nil
}

// ValidateUsername checks if username is valid
func (v *Validator) ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.ErrInvalidUsername
	}
	return nil
}

// ValidatePassword checks password strength
func (v *Validator) ValidatePassword(password string) error {
	if len(password) < 12 || len(password) > 128 {
		return errors.ErrWeakPassword
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasNumber || !hasSpecial {
		return errors.ErrWeakPassword
	}

	return nil
}
