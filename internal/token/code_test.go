package token

import (
	"testing"
	"time"
)

// RFC 6238 Appendix B vectors, SHA-1, secret "12345678901234567890".
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestCodeRFC6238Vectors(t *testing.T) {
	e := Entry{
		Issuer:    "test",
		Account:   "test",
		Secret:    rfcSecret,
		Digits:    8,
		Period:    30,
		Algorithm: AlgoSHA1,
	}

	tests := []struct {
		unix int64
		want string
	}{
		{59, "94287082"},
		{1111111109, "07081804"},
		{1234567890, "89005924"},
		{2000000000, "69279037"},
	}

	for _, tt := range tests {
		code, err := Code(e, time.Unix(tt.unix, 0))
		if err != nil {
			t.Fatalf("Code at %d: %v", tt.unix, err)
		}
		if code != tt.want {
			t.Errorf("at %d: got %s, want %s", tt.unix, code, tt.want)
		}
	}
}

func TestCodeSixDigits(t *testing.T) {
	e := Entry{Secret: rfcSecret, Digits: 6, Period: 30, Algorithm: AlgoSHA1}

	code, err := Code(e, time.Unix(59, 0))
	if err != nil {
		t.Fatalf("Code: %v", err)
	}
	if code != "287082" {
		t.Errorf("got %s, want 287082", code)
	}
}

func TestCodeStableWithinPeriod(t *testing.T) {
	e := Entry{Secret: rfcSecret, Digits: 6, Period: 30, Algorithm: AlgoSHA1}

	c1, _ := Code(e, time.Unix(60, 0))
	c2, _ := Code(e, time.Unix(89, 0))
	c3, _ := Code(e, time.Unix(90, 0))

	if c1 != c2 {
		t.Error("code changed within one time step")
	}
	if c2 == c3 {
		t.Error("code did not change across the step boundary")
	}
}

func TestCodeAlgorithmsDiffer(t *testing.T) {
	now := time.Unix(1234567890, 0)
	codes := make(map[string]string)
	for _, algo := range []string{AlgoSHA1, AlgoSHA256, AlgoSHA512} {
		e := Entry{Secret: rfcSecret, Digits: 8, Period: 30, Algorithm: algo}
		code, err := Code(e, now)
		if err != nil {
			t.Fatalf("Code %s: %v", algo, err)
		}
		if len(code) != 8 {
			t.Errorf("%s: code length %d", algo, len(code))
		}
		codes[code] = algo
	}
	if len(codes) != 3 {
		t.Errorf("expected 3 distinct codes, got %v", codes)
	}
}

func TestRemaining(t *testing.T) {
	e := Entry{Secret: rfcSecret, Period: 30}

	if got := Remaining(e, time.Unix(59, 0)); got != time.Second {
		t.Errorf("at 59s: %v, want 1s", got)
	}
	if got := Remaining(e, time.Unix(60, 0)); got != 30*time.Second {
		t.Errorf("at 60s: %v, want 30s", got)
	}
	if got := Remaining(e, time.Unix(75, 0)); got != 15*time.Second {
		t.Errorf("at 75s: %v, want 15s", got)
	}
}
