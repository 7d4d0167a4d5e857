package remote

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierEntropyBytes is the number of random bytes in a code
// verifier. URL-safe base64 without padding turns 32 bytes into 43
// characters, inside RFC 7636's 43..128 character bound.
const verifierEntropyBytes = 32

// PKCE holds the verifier/challenge pair for one authorisation
// attempt. The verifier stays with the caller and is presented at code
// exchange; only the challenge travels in the authorisation URL.
type PKCE struct {
	Verifier  string
	Challenge string
}

// NewPKCE generates a fresh verifier and its S256 challenge.
func NewPKCE() (PKCE, error) {
	raw := make([]byte, verifierEntropyBytes)
	if _, err := rand.Read(raw); err != nil {
		return PKCE{}, fmt.Errorf("generating code verifier: %w", err)
	}

	verifier := base64.RawURLEncoding.EncodeToString(raw)
	return PKCE{
		Verifier:  verifier,
		Challenge: ChallengeS256(verifier),
	}, nil
}

// ChallengeS256 derives the S256 code challenge for a verifier: the
// URL-safe base64 encoding, without padding, of the verifier's SHA-256
// digest.
func ChallengeS256(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
