// Package secrets provides vault storage backed by macOS Keychain.
//
// Everything the vault persists lives here as generic passwords with:
//   - Service: "otpvault" (all vault entries share this service)
//   - Account: the entry key (e.g. "token/<id>", "pin-credential")
//   - Label: "otpvault: <key>" (for Keychain Access.app visibility)
//
// Entries are scoped with kSecAttrAccessibleWhenUnlockedThisDeviceOnly:
// never synced to iCloud, never available when the machine is locked.
//
// Key namespacing is the caller's responsibility; the reserved keys
// below are the ones the vault itself uses.
package secrets

import "errors"

// Reserved keys in the store namespace.
const (
	// PinCredentialKey holds the JSON PIN credential (salt, hash, params).
	PinCredentialKey = "pin-credential"
	// TokenIndexKey holds the ordered JSON list of token ids.
	TokenIndexKey = "token-index"
	// TokenKeyPrefix prefixes per-token entries: "token/<id>".
	TokenKeyPrefix = "token/"
	// AutoLockKey holds the auto-lock timeout setting in seconds.
	AutoLockKey = "settings/auto-lock"
)

// ErrNotFound is returned when an entry does not exist in the store.
var ErrNotFound = errors.New("entry not found")

// Store is the interface for secret storage operations.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	List() ([]string, error)
	Delete(key string) error
	GetMultiple(keys []string) (map[string]string, error)
}
