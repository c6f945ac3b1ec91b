package session

import (
	"errors"
	"testing"
	"time"

	"otpvault/internal/vclock"
)

// stubVerifier accepts a single fixed PIN.
type stubVerifier struct {
	pin string
}

func (v stubVerifier) Verify(rawPin string) (bool, error) {
	return rawPin == v.pin, nil
}

type errVerifier struct{ err error }

func (v errVerifier) Verify(string) (bool, error) { return false, v.err }

func testSession(timeout time.Duration) (*Session, *vclock.Fake) {
	clock := vclock.NewFake(time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC))
	s := New(stubVerifier{pin: "1234"}, clock, timeout, nil)
	return s, clock
}

func TestStartsLocked(t *testing.T) {
	s, _ := testSession(time.Minute)

	if s.State() != Locked {
		t.Errorf("expected Locked at start, got %v", s.State())
	}
	if err := s.Guard(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestUnlockWithCorrectPin(t *testing.T) {
	s, _ := testSession(time.Minute)

	if err := s.Unlock("1234"); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if s.State() != Unlocked {
		t.Errorf("expected Unlocked, got %v", s.State())
	}
	if err := s.Guard(); err != nil {
		t.Errorf("Guard after unlock: %v", err)
	}
}

func TestUnlockWithWrongPinStaysLocked(t *testing.T) {
	s, _ := testSession(time.Minute)

	err := s.Unlock("0000")
	if !errors.Is(err, ErrBadPin) {
		t.Fatalf("expected ErrBadPin, got %v", err)
	}
	if s.State() != Locked {
		t.Errorf("expected Locked after bad PIN, got %v", s.State())
	}
}

func TestUnlockVerifierError(t *testing.T) {
	clock := vclock.NewFake(time.Unix(0, 0))
	boom := errors.New("store unavailable")
	s := New(errVerifier{err: boom}, clock, time.Minute, nil)

	err := s.Unlock("1234")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped verifier error, got %v", err)
	}
	if s.State() != Locked {
		t.Error("session unlocked despite verifier error")
	}
}

func TestExplicitLock(t *testing.T) {
	s, _ := testSession(time.Minute)
	s.Unlock("1234")

	s.Lock()
	if s.State() != Locked {
		t.Errorf("expected Locked, got %v", s.State())
	}
	if err := s.Guard(); !errors.Is(err, ErrLocked) {
		t.Errorf("expected ErrLocked, got %v", err)
	}
}

func TestInactivityLocksAfterTimeout(t *testing.T) {
	s, clock := testSession(5 * time.Second)
	s.Unlock("1234")

	clock.Advance(5 * time.Second)
	if s.State() != Locked {
		t.Error("expected auto-lock after 5s of inactivity")
	}
}

func TestTouchResetsInactivityClock(t *testing.T) {
	s, clock := testSession(5 * time.Second)
	s.Unlock("1234")

	clock.Advance(4 * time.Second)
	s.Touch()

	// Original 5s mark: no lock, because activity happened at 4s.
	clock.Advance(time.Second)
	if s.State() != Unlocked {
		t.Fatal("locked at original deadline despite Touch")
	}

	// Full timeout after the touch: lock.
	clock.Advance(4 * time.Second)
	if s.State() != Locked {
		t.Error("expected auto-lock 5s after last Touch")
	}
}

func TestZeroTimeoutNeverLocks(t *testing.T) {
	s, clock := testSession(0)
	s.Unlock("1234")

	clock.Advance(24 * time.Hour)
	if s.State() != Unlocked {
		t.Error("session locked despite disabled timeout")
	}
}

func TestSetTimeoutRearms(t *testing.T) {
	s, clock := testSession(time.Hour)
	s.Unlock("1234")

	s.SetTimeout(2 * time.Second)
	clock.Advance(2 * time.Second)
	if s.State() != Locked {
		t.Error("expected lock under shortened timeout")
	}
}

func TestSetTimeoutZeroDisables(t *testing.T) {
	s, clock := testSession(5 * time.Second)
	s.Unlock("1234")

	s.SetTimeout(0)
	clock.Advance(time.Hour)
	if s.State() != Unlocked {
		t.Error("session locked after timeout was disabled")
	}
}

func TestOnLockCallback(t *testing.T) {
	s, clock := testSession(5 * time.Second)

	locks := 0
	s.SetOnLock(func() { locks++ })

	s.Unlock("1234")
	clock.Advance(5 * time.Second)
	if locks != 1 {
		t.Errorf("expected 1 lock callback, got %d", locks)
	}

	// Locking an already-locked session is not a transition.
	s.Lock()
	if locks != 1 {
		t.Errorf("callback fired without a transition, got %d", locks)
	}

	s.Unlock("1234")
	s.Lock()
	if locks != 2 {
		t.Errorf("expected 2 lock callbacks, got %d", locks)
	}
}

func TestUnlockRestartsTimer(t *testing.T) {
	s, clock := testSession(5 * time.Second)

	s.Unlock("1234")
	clock.Advance(5 * time.Second)
	if s.State() != Locked {
		t.Fatal("expected auto-lock")
	}

	s.Unlock("1234")
	clock.Advance(4 * time.Second)
	if s.State() != Unlocked {
		t.Error("re-unlocked session locked before its fresh timeout")
	}
	clock.Advance(time.Second)
	if s.State() != Locked {
		t.Error("re-unlocked session did not auto-lock again")
	}
}
