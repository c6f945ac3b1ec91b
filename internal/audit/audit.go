// Package audit provides append-only structured logging for vault operations.
//
// Every sensitive operation (unlock attempts, token access, backup
// export/import) is recorded to an audit log at ~/.otpvault/audit.log
// as newline-delimited JSON. Secret values are never logged — only keys
// and token ids.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Action describes what happened.
type Action string

const (
	ActionVaultUnlock       Action = "vault_unlock"
	ActionVaultUnlockFailed Action = "vault_unlock_failed"
	ActionVaultLock         Action = "vault_lock"
	ActionPinSet            Action = "pin_set"
	ActionPinChange         Action = "pin_change"
	ActionTokenAdd          Action = "token_add"
	ActionTokenRead         Action = "token_read"
	ActionTokenEdit         Action = "token_edit"
	ActionTokenDelete       Action = "token_delete"
	ActionBackupExport      Action = "backup_export"
	ActionBackupImport      Action = "backup_import"
	ActionCodeCopy          Action = "code_copy"
	ActionStoreRead         Action = "store_read"
	ActionStoreWrite        Action = "store_write"
	ActionStoreDelete       Action = "store_delete"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp time.Time `json:"ts"`
	Action    Action    `json:"action"`
	Key       string    `json:"key,omitempty"`     // store key or token id
	Actor     string    `json:"actor,omitempty"`   // "cli", "interactive"
	Trigger   string    `json:"trigger,omitempty"` // "manual", "inactivity"
	Error     string    `json:"error,omitempty"`
}

// Logger writes audit entries to an append-only file.
type Logger struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// NewLogger creates or opens an audit log file for appending.
func NewLogger(path string) (*Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	return &Logger{file: f, path: path}, nil
}

// Log writes an audit entry.
func (l *Logger) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshaling audit entry: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit entry: %w", err)
	}
	return nil
}

// Close closes the audit log file.
func (l *Logger) Close() error {
	return l.file.Close()
}
