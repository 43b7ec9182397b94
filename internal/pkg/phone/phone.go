package phone

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalid indicates the input cannot be normalized to an E.164 number.
var ErrInvalid = errors.New("phone: invalid phone number")

// reE164 matches E.164: a plus sign, a non-zero leading digit, 8-15 digits total.
var reE164 = regexp.MustCompile(`^\+[1-9][0-9]{7,14}$`)

// Normalize converts raw user input into canonical E.164 form.
//
// Spaces, dashes, dots and parentheses are stripped; a leading "00" prefix is
// rewritten to "+". Anything that does not land on E.164 after cleanup is
// rejected with ErrInvalid.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", ErrInvalid
	}

	var b strings.Builder
	b.Grow(len(s))
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separators people paste in
		default:
			return "", ErrInvalid
		}
	}

	s = b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}

	if !reE164.MatchString(s) {
		return "", ErrInvalid
	}

	return s, nil
}

// Valid reports whether raw normalizes to an E.164 number.
func Valid(raw string) bool {
	_, err := Normalize(raw)
	return err == nil
}
