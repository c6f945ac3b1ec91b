package token

import (
	"fmt"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// Code computes the entry's one-time code for the given instant. The
// time-step counter is floor(unixSeconds(now) / period). Pure — no
// store access.
func Code(e Entry, now time.Time) (string, error) {
	code, err := totp.GenerateCodeCustom(e.Secret, now, totp.ValidateOpts{
		Period:    uint(e.Period),
		Digits:    digitsOf(e.Digits),
		Algorithm: algorithmOf(e.Algorithm),
	})
	if err != nil {
		return "", fmt.Errorf("generating code for %s/%s: %w", e.Issuer, e.Account, err)
	}
	return code, nil
}

// Remaining returns how long the code for the given instant stays
// valid: the time left until the next period boundary.
func Remaining(e Entry, now time.Time) time.Duration {
	period := e.Period
	if period <= 0 {
		period = DefaultPeriod
	}
	step := time.Duration(period) * time.Second
	elapsed := time.Duration(now.Unix()%int64(period)) * time.Second
	return step - elapsed
}

func digitsOf(d int) otp.Digits {
	if d == 8 {
		return otp.DigitsEight
	}
	return otp.DigitsSix
}

func algorithmOf(name string) otp.Algorithm {
	switch name {
	case AlgoSHA256:
		return otp.AlgorithmSHA256
	case AlgoSHA512:
		return otp.AlgorithmSHA512
	default:
		return otp.AlgorithmSHA1
	}
}
