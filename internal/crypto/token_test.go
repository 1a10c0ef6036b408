package crypto

import "testing"

func TestNewOTPCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := NewOTPCode()
		if err != nil {
			t.Fatalf("code error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, char := range code {
			if char < '0' || char > '9' {
				t.Fatalf("expected numeric code, got %q", code)
			}
		}
		seen[code] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected varying codes")
	}
}

func TestCapabilityToken(t *testing.T) {
	token, err := NewCapabilityToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	other, err := NewCapabilityToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if token == other {
		t.Fatalf("expected unique tokens")
	}
	if HashToken(token) == HashToken(other) {
		t.Fatalf("expected distinct hashes")
	}
	if HashToken(token) != HashToken(token) {
		t.Fatalf("expected stable hash")
	}
	if HashToken(token) == token {
		t.Fatalf("hash must not equal token")
	}
}
