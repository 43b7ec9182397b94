package hash

import "testing"

func TestSaltedSHA256Digest(t *testing.T) {
	h := NewSaltedSHA256()

	// Arrange
	first := h.Digest("123456", "salt-a")
	second := h.Digest("123456", "salt-a")
	other := h.Digest("123456", "salt-b")

	// Assert
	if first != second {
		t.Fatalf("digest is not deterministic: %q vs %q", first, second)
	}
	if first == other {
		t.Fatalf("different salts produced the same digest")
	}
	if len(first) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(first))
	}
}

func TestSaltedSHA256Compare(t *testing.T) {
	h := NewSaltedSHA256()
	digest := h.Digest("654321", "pepper")

	if !h.Compare(digest, "654321", "pepper") {
		t.Fatalf("expected matching code to compare equal")
	}
	if h.Compare(digest, "654322", "pepper") {
		t.Fatalf("expected wrong code to fail")
	}
	if h.Compare(digest, "654321", "other") {
		t.Fatalf("expected wrong salt to fail")
	}
}
