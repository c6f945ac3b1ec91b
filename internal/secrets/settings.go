package secrets

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// DefaultAutoLock is used when no auto-lock setting has been stored.
const DefaultAutoLock = 5 * time.Minute

// Settings reads and writes vault settings kept in the secret store.
type Settings struct {
	store Store
}

// NewSettings returns a settings accessor over the given store.
func NewSettings(store Store) *Settings {
	return &Settings{store: store}
}

// AutoLock returns the configured inactivity timeout. A stored value
// of zero means auto-lock is disabled. Missing or unparseable values
// fall back to the given fallback.
func (s *Settings) AutoLock(fallback time.Duration) (time.Duration, error) {
	val, err := s.store.Get(AutoLockKey)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return fallback, nil
		}
		return 0, fmt.Errorf("reading auto-lock setting: %w", err)
	}
	secs, err := strconv.Atoi(val)
	if err != nil || secs < 0 {
		return fallback, nil
	}
	return time.Duration(secs) * time.Second, nil
}

// SetAutoLock persists the inactivity timeout. Zero disables auto-lock.
func (s *Settings) SetAutoLock(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("auto-lock timeout must not be negative: %v", d)
	}
	secs := int(d / time.Second)
	if err := s.store.Set(AutoLockKey, strconv.Itoa(secs)); err != nil {
		return fmt.Errorf("saving auto-lock setting: %w", err)
	}
	return nil
}
