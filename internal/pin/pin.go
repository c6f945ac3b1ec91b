// Package pin implements PIN-based access control for the vault.
//
// The PIN itself is never stored. A single credential record holds a
// random salt and a PBKDF2-SHA256 hash; it is replaced wholesale on
// every PIN change so old salt and hash material is discarded.
package pin

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"otpvault/internal/secrets"
)

const (
	// DefaultIterations is the PBKDF2 iteration count for new credentials.
	DefaultIterations = 600_000
	// MinIterations is the floor for configured iteration counts.
	MinIterations = 200_000

	// MinLength is the minimum accepted PIN length.
	MinLength = 4

	saltSize = 16
	hashSize = 32

	algorithm = "PBKDF2-SHA256"
)

var (
	// ErrMismatch is returned by Change when the old PIN does not verify.
	ErrMismatch = errors.New("pin mismatch")
	// ErrNoCredential is returned when no PIN has been set.
	ErrNoCredential = errors.New("no pin credential stored")
	// ErrTooShort is returned for PINs below MinLength.
	ErrTooShort = fmt.Errorf("pin must be at least %d characters", MinLength)
)

// Credential is the stored PIN hash material.
type Credential struct {
	Salt       []byte `json:"salt"`
	Hash       []byte `json:"hash"`
	Iterations int    `json:"iterations"`
	Algorithm  string `json:"algorithm"`
}

// Authenticator derives and verifies PIN hashes against the secret store.
type Authenticator struct {
	store      secrets.Store
	iterations int
}

// NewAuthenticator creates an authenticator over the given store.
// Iteration counts below MinIterations are raised to DefaultIterations.
func NewAuthenticator(store secrets.Store, iterations int) *Authenticator {
	if iterations < MinIterations {
		iterations = DefaultIterations
	}
	return &Authenticator{store: store, iterations: iterations}
}

// Set derives a fresh credential from rawPin and persists it, replacing
// any existing one.
func (a *Authenticator) Set(rawPin string) error {
	if len(rawPin) < MinLength {
		return ErrTooShort
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return fmt.Errorf("generating salt: %w", err)
	}

	cred := Credential{
		Salt:       salt,
		Hash:       pbkdf2.Key([]byte(rawPin), salt, a.iterations, hashSize, sha256.New),
		Iterations: a.iterations,
		Algorithm:  algorithm,
	}

	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("marshaling pin credential: %w", err)
	}
	if err := a.store.Set(secrets.PinCredentialKey, string(data)); err != nil {
		return fmt.Errorf("storing pin credential: %w", err)
	}
	return nil
}

// Verify derives a hash from rawPin with the stored salt and parameters
// and compares it against the stored hash in constant time. A wrong PIN
// is a normal negative result, not an error.
func (a *Authenticator) Verify(rawPin string) (bool, error) {
	cred, err := a.load()
	if err != nil {
		return false, err
	}

	derived := pbkdf2.Key([]byte(rawPin), cred.Salt, cred.Iterations, len(cred.Hash), sha256.New)
	return subtle.ConstantTimeCompare(derived, cred.Hash) == 1, nil
}

// Change replaces the credential with one derived from newPin, but only
// if oldPin verifies. On mismatch the existing credential is untouched.
func (a *Authenticator) Change(oldPin, newPin string) error {
	ok, err := a.Verify(oldPin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatch
	}
	return a.Set(newPin)
}

// IsSet reports whether a PIN credential exists.
func (a *Authenticator) IsSet() (bool, error) {
	_, err := a.store.Get(secrets.PinCredentialKey)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking pin credential: %w", err)
	}
	return true, nil
}

func (a *Authenticator) load() (*Credential, error) {
	raw, err := a.store.Get(secrets.PinCredentialKey)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return nil, ErrNoCredential
		}
		return nil, fmt.Errorf("loading pin credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("corrupt pin credential: %w", err)
	}
	if len(cred.Salt) == 0 || len(cred.Hash) == 0 || cred.Iterations <= 0 {
		return nil, fmt.Errorf("corrupt pin credential: missing fields")
	}
	return &cred, nil
}
