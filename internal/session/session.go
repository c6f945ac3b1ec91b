// Package session implements the vault lock/unlock state machine and
// its inactivity timer.
//
// There is exactly one Session per running process. It starts Locked,
// is never persisted, and gates every token operation: callers check
// Guard at the moment they read, so an operation already past its gate
// check may finish after a lock transition, but no new gated operation
// can start until the next unlock.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"otpvault/internal/vclock"
)

// State is the lock state of the vault session.
type State string

const (
	Locked   State = "locked"
	Unlocked State = "unlocked"
)

var (
	// ErrLocked is returned by Guard when the vault is locked. Gated
	// operations fail with it immediately; they are never queued.
	ErrLocked = errors.New("vault is locked")
	// ErrBadPin is returned by Unlock when the PIN does not verify.
	ErrBadPin = errors.New("incorrect pin")
)

// Verifier checks a PIN attempt. *pin.Authenticator satisfies it.
type Verifier interface {
	Verify(rawPin string) (bool, error)
}

// Session is the lock/unlock state machine. The zero timeout disables
// inactivity locking.
type Session struct {
	auth   Verifier
	clock  vclock.Clock
	logger *slog.Logger

	mu           sync.Mutex
	state        State
	lastActivity time.Time
	timeout      time.Duration
	timer        vclock.Timer
	timerGen     uint64

	// onLock runs after every Unlocked→Locked transition, outside the
	// session mutex.
	onLock func()
}

// New creates a locked session. A timeout of zero means the inactivity
// timer never fires.
func New(auth Verifier, clock vclock.Clock, timeout time.Duration, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		auth:    auth,
		clock:   clock,
		logger:  logger,
		state:   Locked,
		timeout: timeout,
	}
}

// SetOnLock registers a callback invoked after each lock transition.
func (s *Session) SetOnLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onLock = fn
}

// State returns the current lock state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Guard returns ErrLocked unless the session is unlocked. Operations
// gated by the session call it at the moment they access secrets.
func (s *Session) Guard() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != Unlocked {
		return ErrLocked
	}
	return nil
}

// Unlock verifies the PIN and transitions Locked→Unlocked. On failure
// the session stays locked and ErrBadPin is returned. PIN derivation
// and store reads happen before the session mutex is taken — they are
// slow and must not stall timer delivery.
//
// A brute-force throttle, if one is ever added, belongs here, before
// the Verify call.
func (s *Session) Unlock(rawPin string) error {
	ok, err := s.auth.Verify(rawPin)
	if err != nil {
		return fmt.Errorf("verifying pin: %w", err)
	}
	if !ok {
		return ErrBadPin
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Unlocked
	s.lastActivity = s.clock.Now()
	s.armLocked(s.timeout)
	s.logger.Debug("vault unlocked", "timeout", s.timeout)
	return nil
}

// Lock transitions to Locked unconditionally and cancels the
// inactivity timer.
func (s *Session) Lock() {
	s.mu.Lock()
	cb := s.lockLocked("manual")
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}

// Touch resets the activity clock. Every successful gated operation
// calls it. The armed timer is left alone; when it fires it compares
// elapsed idle time against the timeout and re-arms for the remainder.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Unlocked {
		s.lastActivity = s.clock.Now()
	}
}

// SetTimeout changes the inactivity timeout and re-arms the timer if
// unlocked. Zero disables auto-lock.
func (s *Session) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
	if s.state == Unlocked {
		s.armLocked(d)
	} else {
		s.stopTimerLocked()
	}
}

// Timeout returns the configured inactivity timeout.
func (s *Session) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// lockLocked performs the Locked transition. Caller holds s.mu. The
// returned callback, if any, must run after the mutex is released.
func (s *Session) lockLocked(trigger string) func() {
	s.stopTimerLocked()
	if s.state == Locked {
		return nil
	}
	s.state = Locked
	s.logger.Info("vault locked", "trigger", trigger)
	return s.onLock
}

// armLocked (re)schedules the inactivity timer. Caller holds s.mu.
func (s *Session) armLocked(d time.Duration) {
	s.stopTimerLocked()
	if d <= 0 {
		return
	}
	s.timerGen++
	gen := s.timerGen
	s.timer = s.clock.AfterFunc(d, func() { s.expire(gen) })
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// expire runs when the inactivity timer fires. A Touch since arming
// pushes the deadline out; the timer re-arms for the remaining idle
// budget instead of locking.
func (s *Session) expire(gen uint64) {
	s.mu.Lock()
	if gen != s.timerGen || s.state != Unlocked || s.timeout <= 0 {
		s.mu.Unlock()
		return
	}

	idle := s.clock.Now().Sub(s.lastActivity)
	if idle < s.timeout {
		s.armLocked(s.timeout - idle)
		s.mu.Unlock()
		return
	}

	cb := s.lockLocked("inactivity")
	s.mu.Unlock()
	if cb != nil {
		cb()
	}
}
