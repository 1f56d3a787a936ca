// Package secrets generates the shared credentials handed to every module.
//
// Two secrets exist per launcher process: the configuration secret (also used
// as the broker's configuration-user password) and the protected broker
// password. Both are fixed-length alphabetic strings generated from
// crypto/rand when the orchestrator is constructed and never regenerated.
package secrets

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
)

// Length is the number of characters in every generated secret.
const Length = 12

const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

const redacted = "[REDACTED]"

// maxAttempts bounds the retry loop in NewSet. Two independent 12-letter
// draws colliding is astronomically unlikely.
const maxAttempts = 8

// Generate returns a random string of n letters drawn uniformly from [A-Za-z].
func Generate(n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("secret length must be positive, got %d", n)
	}

	limit := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// Set holds the two launcher secrets. Its formatting methods redact the
// values so that a Set can be passed to a logger without leaking them.
type Set struct {
	secret            string
	protectedPassword string
}

// NewSet generates a configuration secret and a protected broker password
// that differ from each other.
func NewSet() (Set, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		secret, err := Generate(Length)
		if err != nil {
			return Set{}, err
		}
		password, err := Generate(Length)
		if err != nil {
			return Set{}, err
		}
		if secret != password {
			return Set{secret: secret, protectedPassword: password}, nil
		}
	}
	return Set{}, errors.New("failed to generate distinct secrets")
}

// Secret returns the configuration secret.
func (s Set) Secret() string { return s.secret }

// ProtectedPassword returns the protected broker password.
func (s Set) ProtectedPassword() string { return s.protectedPassword }

// IsZero reports whether the set was never generated.
func (s Set) IsZero() bool { return s.secret == "" && s.protectedPassword == "" }

func (s Set) String() string { return redacted }

func (s Set) GoString() string { return "secrets.Set{" + redacted + "}" }

// MarshalJSON never emits the secret values.
func (s Set) MarshalJSON() ([]byte, error) { return []byte(`"` + redacted + `"`), nil }

// MarshalYAML never emits the secret values.
func (s Set) MarshalYAML() (interface{}, error) { return redacted, nil }
