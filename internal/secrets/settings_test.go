package secrets

import (
	"testing"
	"time"
)

func TestAutoLockDefaultsWhenUnset(t *testing.T) {
	s := NewSettings(NewMemoryStore())

	d, err := s.AutoLock(DefaultAutoLock)
	if err != nil {
		t.Fatalf("AutoLock: %v", err)
	}
	if d != DefaultAutoLock {
		t.Errorf("expected %v, got %v", DefaultAutoLock, d)
	}
}

func TestAutoLockRoundTrip(t *testing.T) {
	s := NewSettings(NewMemoryStore())

	if err := s.SetAutoLock(90 * time.Second); err != nil {
		t.Fatalf("SetAutoLock: %v", err)
	}

	d, err := s.AutoLock(DefaultAutoLock)
	if err != nil {
		t.Fatalf("AutoLock: %v", err)
	}
	if d != 90*time.Second {
		t.Errorf("expected 90s, got %v", d)
	}
}

func TestAutoLockZeroDisables(t *testing.T) {
	s := NewSettings(NewMemoryStore())

	if err := s.SetAutoLock(0); err != nil {
		t.Fatalf("SetAutoLock(0): %v", err)
	}

	d, err := s.AutoLock(DefaultAutoLock)
	if err != nil {
		t.Fatalf("AutoLock: %v", err)
	}
	if d != 0 {
		t.Errorf("expected 0 (disabled), got %v", d)
	}
}

func TestAutoLockRejectsNegative(t *testing.T) {
	s := NewSettings(NewMemoryStore())

	if err := s.SetAutoLock(-time.Second); err == nil {
		t.Error("expected error for negative timeout")
	}
}

func TestAutoLockCorruptValueFallsBack(t *testing.T) {
	store := NewMemoryStore()
	store.Set(AutoLockKey, "not-a-number")
	s := NewSettings(store)

	d, err := s.AutoLock(DefaultAutoLock)
	if err != nil {
		t.Fatalf("AutoLock: %v", err)
	}
	if d != DefaultAutoLock {
		t.Errorf("expected fallback %v, got %v", DefaultAutoLock, d)
	}
}
