package otpcode

import (
	"regexp"
	"testing"
)

var reCode = regexp.MustCompile(`^[0-9]{6}$`)

func TestNumericCode(t *testing.T) {
	gen := NewNumeric()

	for range 100 {
		code, err := gen.Code()
		if err != nil {
			t.Fatalf("generate code: %v", err)
		}
		if !reCode.MatchString(code) {
			t.Fatalf("expected 6 decimal digits, got %q", code)
		}
	}
}

func TestNumericSalt(t *testing.T) {
	gen := NewNumeric()

	seen := make(map[string]struct{})
	for range 100 {
		salt, err := gen.Salt()
		if err != nil {
			t.Fatalf("generate salt: %v", err)
		}
		if len(salt) != SaltBytes*2 {
			t.Fatalf("expected %d hex chars, got %d", SaltBytes*2, len(salt))
		}
		if _, dup := seen[salt]; dup {
			t.Fatalf("salt %q generated twice", salt)
		}
		seen[salt] = struct{}{}
	}
}
