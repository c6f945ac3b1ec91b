// Package token implements the vault's token entries: validation,
// CRUD over the secret store, one-time code generation, and the merge
// policy applied when restoring from a backup.
package token

import (
	"encoding/base32"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Algorithm names accepted for the HMAC hash.
const (
	AlgoSHA1   = "SHA1"
	AlgoSHA256 = "SHA256"
	AlgoSHA512 = "SHA512"
)

// DefaultPeriod is the TOTP time step used when none is given.
const DefaultPeriod = 30

// ErrInvalid is returned when token parameters or the secret are
// malformed.
var ErrInvalid = errors.New("invalid token entry")

// Entry is a single stored token. ID is opaque, immutable once
// created, and doubles as the secret-store key suffix. The
// (Issuer, Account) pair is advisory-unique: the CLI warns on
// duplicates but storage does not enforce it.
type Entry struct {
	ID            string    `json:"id"`
	Issuer        string    `json:"issuer"`
	Account       string    `json:"account"`
	Secret        string    `json:"secret"` // base32, normalized
	Digits        int       `json:"digits"`
	Period        int       `json:"period"` // seconds
	Algorithm     string    `json:"algorithm"`
	RecoveryCodes []string  `json:"recovery_codes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// base32 without padding; NormalizeSecret strips any "=" the user pasted.
var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// NormalizeSecret upper-cases a base32 secret and strips whitespace,
// dashes and padding, the forms issuers commonly hand out.
func NormalizeSecret(secret string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(secret) {
		switch r {
		case ' ', '\t', '-', '=':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Validate checks the entry against the allowed domains and fills in
// defaults. The secret is normalized in place.
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.Issuer) == "" {
		return fmt.Errorf("%w: issuer must not be empty", ErrInvalid)
	}
	if strings.TrimSpace(e.Account) == "" {
		return fmt.Errorf("%w: account must not be empty", ErrInvalid)
	}

	e.Secret = NormalizeSecret(e.Secret)
	if e.Secret == "" {
		return fmt.Errorf("%w: secret must not be empty", ErrInvalid)
	}
	if _, err := b32.DecodeString(e.Secret); err != nil {
		return fmt.Errorf("%w: secret is not valid base32", ErrInvalid)
	}

	if e.Digits == 0 {
		e.Digits = 6
	}
	if e.Digits != 6 && e.Digits != 8 {
		return fmt.Errorf("%w: digits must be 6 or 8, got %d", ErrInvalid, e.Digits)
	}

	if e.Period == 0 {
		e.Period = DefaultPeriod
	}
	if e.Period < 0 {
		return fmt.Errorf("%w: period must be positive, got %d", ErrInvalid, e.Period)
	}

	if e.Algorithm == "" {
		e.Algorithm = AlgoSHA1
	}
	switch e.Algorithm {
	case AlgoSHA1, AlgoSHA256, AlgoSHA512:
	default:
		return fmt.Errorf("%w: unsupported algorithm %q", ErrInvalid, e.Algorithm)
	}

	return nil
}
