package remote

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"testing"
)

func TestNewPKCE(t *testing.T) {
	pkce, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE() error = %v", err)
	}

	// 32 random bytes encode to exactly 43 unpadded URL-safe base64
	// characters.
	if len(pkce.Verifier) != 43 {
		t.Errorf("verifier length = %d, want 43", len(pkce.Verifier))
	}
	if strings.ContainsAny(pkce.Verifier, "+/=") {
		t.Errorf("verifier %q contains non-URL-safe characters", pkce.Verifier)
	}

	raw, err := base64.RawURLEncoding.DecodeString(pkce.Verifier)
	if err != nil {
		t.Fatalf("verifier is not unpadded URL-safe base64: %v", err)
	}
	if len(raw) != verifierEntropyBytes {
		t.Errorf("verifier entropy = %d bytes, want %d", len(raw), verifierEntropyBytes)
	}

	sum := sha256.Sum256([]byte(pkce.Verifier))
	want := base64.RawURLEncoding.EncodeToString(sum[:])
	if pkce.Challenge != want {
		t.Errorf("challenge = %q, want S256 of verifier %q", pkce.Challenge, want)
	}
}

func TestNewPKCE_UniquePerAttempt(t *testing.T) {
	first, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE() error = %v", err)
	}
	second, err := NewPKCE()
	if err != nil {
		t.Fatalf("NewPKCE() error = %v", err)
	}

	if first.Verifier == second.Verifier {
		t.Error("two attempts produced the same verifier")
	}
}

func TestChallengeS256(t *testing.T) {
	// Worked example from RFC 7636 appendix B.
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	want := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	if got := ChallengeS256(verifier); got != want {
		t.Errorf("ChallengeS256() = %q, want %q", got, want)
	}
}
