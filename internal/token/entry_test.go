package token

import (
	"errors"
	"testing"
)

func validEntry() Entry {
	return Entry{
		Issuer:  "ACME Corp",
		Account: "user@example.com",
		Secret:  "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ",
	}
}

func TestValidateFillsDefaults(t *testing.T) {
	e := validEntry()
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if e.Digits != 6 {
		t.Errorf("default digits: %d, want 6", e.Digits)
	}
	if e.Period != 30 {
		t.Errorf("default period: %d, want 30", e.Period)
	}
	if e.Algorithm != AlgoSHA1 {
		t.Errorf("default algorithm: %q, want SHA1", e.Algorithm)
	}
}

func TestValidateNormalizesSecret(t *testing.T) {
	e := validEntry()
	e.Secret = "gezd gnbv-gy3t qojq gezd gnbv gy3t qojq=="
	if err := e.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if e.Secret != "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ" {
		t.Errorf("secret not normalized: %q", e.Secret)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Entry)
	}{
		{"empty issuer", func(e *Entry) { e.Issuer = "  " }},
		{"empty account", func(e *Entry) { e.Account = "" }},
		{"empty secret", func(e *Entry) { e.Secret = "" }},
		{"non-base32 secret", func(e *Entry) { e.Secret = "not!base32@all" }},
		{"digits 7", func(e *Entry) { e.Digits = 7 }},
		{"digits 10", func(e *Entry) { e.Digits = 10 }},
		{"negative period", func(e *Entry) { e.Period = -30 }},
		{"unknown algorithm", func(e *Entry) { e.Algorithm = "MD5" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := validEntry()
			tt.mutate(&e)
			if err := e.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsAllowedDomains(t *testing.T) {
	for _, digits := range []int{6, 8} {
		for _, algo := range []string{AlgoSHA1, AlgoSHA256, AlgoSHA512} {
			e := validEntry()
			e.Digits = digits
			e.Algorithm = algo
			if err := e.Validate(); err != nil {
				t.Errorf("digits=%d algo=%s: %v", digits, algo, err)
			}
		}
	}
}
