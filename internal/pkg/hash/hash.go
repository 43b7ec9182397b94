package hash

// Hash is the contract for one-way hashing of secrets.
//
// Hash returns the stored representation; Verify compares a plaintext against
// a previously stored representation in constant time.
type Hash interface {
	Hash(str string) ([]byte, error)
	Verify(hashed, str string) bool
}
