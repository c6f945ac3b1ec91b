package token

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"otpvault/internal/secrets"
	"otpvault/internal/session"
)

// ErrNotFound is returned for operations on an unknown token id.
var ErrNotFound = errors.New("token not found")

// Store provides CRUD and search over token entries. Every operation
// checks the session gate at the moment it runs and touches the
// session activity clock on success. The store never bypasses the
// gate: while the vault is locked every call fails with
// session.ErrLocked.
type Store struct {
	secrets secrets.Store
	session *session.Session
}

// NewStore creates a token store over the given secret store, gated by
// the given session.
func NewStore(sec secrets.Store, sess *session.Session) *Store {
	return &Store{secrets: sec, session: sess}
}

// Add validates and persists a new entry, assigning it a fresh id.
// The stored entry is returned.
func (s *Store) Add(e Entry) (Entry, error) {
	if err := s.session.Guard(); err != nil {
		return Entry{}, err
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}

	e.ID = uuid.NewString()
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := s.put(e); err != nil {
		return Entry{}, err
	}
	if err := s.indexAdd(e.ID); err != nil {
		return Entry{}, err
	}

	s.session.Touch()
	return e, nil
}

// Get loads a single entry by id.
func (s *Store) Get(id string) (Entry, error) {
	if err := s.session.Guard(); err != nil {
		return Entry{}, err
	}

	e, err := s.load(id)
	if err != nil {
		return Entry{}, err
	}

	s.session.Touch()
	return e, nil
}

// Patch holds the fields Edit may change. Nil fields are left as-is.
type Patch struct {
	Issuer        *string
	Account       *string
	Secret        *string
	Digits        *int
	Period        *int
	Algorithm     *string
	RecoveryCodes *[]string
}

// Edit applies a patch to an existing entry, re-validates and
// re-persists it.
func (s *Store) Edit(id string, p Patch) (Entry, error) {
	if err := s.session.Guard(); err != nil {
		return Entry{}, err
	}

	e, err := s.load(id)
	if err != nil {
		return Entry{}, err
	}

	if p.Issuer != nil {
		e.Issuer = *p.Issuer
	}
	if p.Account != nil {
		e.Account = *p.Account
	}
	if p.Secret != nil {
		e.Secret = *p.Secret
	}
	if p.Digits != nil {
		e.Digits = *p.Digits
	}
	if p.Period != nil {
		e.Period = *p.Period
	}
	if p.Algorithm != nil {
		e.Algorithm = *p.Algorithm
	}
	if p.RecoveryCodes != nil {
		e.RecoveryCodes = *p.RecoveryCodes
	}

	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	e.UpdatedAt = time.Now().UTC()

	if err := s.put(e); err != nil {
		return Entry{}, err
	}

	s.session.Touch()
	return e, nil
}

// Delete removes an entry and its recovery codes. Deleting a missing
// id is not an error.
func (s *Store) Delete(id string) error {
	if err := s.session.Guard(); err != nil {
		return err
	}

	if err := s.secrets.Delete(secrets.TokenKeyPrefix + id); err != nil {
		return fmt.Errorf("deleting token %s: %w", id, err)
	}
	if err := s.indexRemove(id); err != nil {
		return err
	}

	s.session.Touch()
	return nil
}

// List returns entries in index (insertion) order. When filter is
// non-empty, only entries whose issuer or account contains it under
// case-insensitive matching are kept.
func (s *Store) List(filter string) ([]Entry, error) {
	if err := s.session.Guard(); err != nil {
		return nil, err
	}

	ids, err := s.loadIndex()
	if err != nil {
		return nil, err
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = secrets.TokenKeyPrefix + id
	}
	values, err := s.secrets.GetMultiple(keys)
	if err != nil {
		return nil, fmt.Errorf("loading tokens: %w", err)
	}

	needle := strings.ToLower(filter)
	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		raw, ok := values[secrets.TokenKeyPrefix+id]
		if !ok {
			// Index can be ahead of the store if a delete half-failed;
			// skip rather than fail the whole listing.
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("corrupt token %s: %w", id, err)
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(e.Issuer), needle) &&
			!strings.Contains(strings.ToLower(e.Account), needle) {
			continue
		}
		entries = append(entries, e)
	}

	s.session.Touch()
	return entries, nil
}

// HasDuplicate reports whether another entry already uses the same
// (issuer, account) pair. Advisory only — storage never enforces it.
func (s *Store) HasDuplicate(issuer, account string) (bool, error) {
	entries, err := s.List("")
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		if strings.EqualFold(e.Issuer, issuer) && strings.EqualFold(e.Account, account) {
			return true, nil
		}
	}
	return false, nil
}

// Restore writes an entry as-is, keeping its id and timestamps. Used
// by backup import after the merge policy has been applied.
func (s *Store) Restore(e Entry) error {
	if err := s.session.Guard(); err != nil {
		return err
	}
	if err := e.Validate(); err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	if err := s.put(e); err != nil {
		return err
	}
	if err := s.indexAdd(e.ID); err != nil {
		return err
	}

	s.session.Touch()
	return nil
}

func (s *Store) put(e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshaling token %s: %w", e.ID, err)
	}
	if err := s.secrets.Set(secrets.TokenKeyPrefix+e.ID, string(data)); err != nil {
		return fmt.Errorf("storing token %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) load(id string) (Entry, error) {
	raw, err := s.secrets.Get(secrets.TokenKeyPrefix + id)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Entry{}, fmt.Errorf("loading token %s: %w", id, err)
	}

	var e Entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		return Entry{}, fmt.Errorf("corrupt token %s: %w", id, err)
	}
	return e, nil
}

// The index keeps token ids in insertion order under a reserved key,
// so listings are stable across backends whose native enumeration is
// unordered.
func (s *Store) loadIndex() ([]string, error) {
	raw, err := s.secrets.Get(secrets.TokenIndexKey)
	if err != nil {
		if errors.Is(err, secrets.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading token index: %w", err)
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("corrupt token index: %w", err)
	}
	return ids, nil
}

func (s *Store) saveIndex(ids []string) error {
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("marshaling token index: %w", err)
	}
	if err := s.secrets.Set(secrets.TokenIndexKey, string(data)); err != nil {
		return fmt.Errorf("storing token index: %w", err)
	}
	return nil
}

func (s *Store) indexAdd(id string) error {
	ids, err := s.loadIndex()
	if err != nil {
		return err
	}
	for _, existing := range ids {
		if existing == id {
			return nil
		}
	}
	return s.saveIndex(append(ids, id))
}

func (s *Store) indexRemove(id string) error {
	ids, err := s.loadIndex()
	if err != nil {
		return err
	}
	kept := ids[:0]
	for _, existing := range ids {
		if existing != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) == len(ids) {
		return nil
	}
	return s.saveIndex(kept)
}
