package hash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// SaltedSHA256 digests short secrets together with a per-record salt.
//
// It is used for one-time passcodes, where the secret space is tiny and the
// salt (stored next to the digest) keeps identical codes from producing
// identical digests across challenges.
type SaltedSHA256 struct{}

// NewSaltedSHA256 creates a salted digest helper.
func NewSaltedSHA256() *SaltedSHA256 {
	return &SaltedSHA256{}
}

// Digest returns the hex-encoded SHA-256 of secret||salt.
func (*SaltedSHA256) Digest(secret, salt string) string {
	sum := sha256.Sum256([]byte(secret + salt))
	return hex.EncodeToString(sum[:])
}

// Compare checks a candidate secret against a stored digest without
// short-circuiting on the first differing byte.
func (s *SaltedSHA256) Compare(digest, secret, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(digest), []byte(s.Digest(secret, salt))) == 1
}
