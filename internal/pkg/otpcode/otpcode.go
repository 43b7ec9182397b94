package otpcode

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
)

const (
	// CodeDigits is the fixed length of generated passcodes.
	CodeDigits = 6

	// SaltBytes is the size of the random salt paired with every code.
	SaltBytes = 16
)

var codeSpace = big.NewInt(1_000_000)

// Generator produces one-time passcodes and their storage salts.
//
// Both come from crypto/rand; a non-cryptographic PRNG is never acceptable
// here. The only failure mode is an unreadable entropy source.
type Generator interface {
	// Code returns a 6-digit decimal passcode, zero-padded.
	Code() (string, error)
	// Salt returns a fresh random salt, hex-encoded.
	Salt() (string, error)
}

// Numeric implements Generator using crypto/rand.
type Numeric struct{}

// NewNumeric returns a Numeric code generator.
func NewNumeric() *Numeric {
	return &Numeric{}
}

// Code returns a uniformly random 6-digit decimal passcode.
func (*Numeric) Code() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("otpcode: read entropy source: %w", err)
	}

	return fmt.Sprintf("%06d", n.Int64()), nil
}

// Salt returns a fresh 16-byte random salt, hex-encoded.
func (*Numeric) Salt() (string, error) {
	var b [SaltBytes]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("otpcode: read entropy source: %w", err)
	}

	return hex.EncodeToString(b[:]), nil
}
