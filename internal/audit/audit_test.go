package audit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoggerWritesEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	ts := time.Date(2026, 8, 27, 10, 30, 0, 0, time.UTC)

	l.Log(Entry{
		Timestamp: ts,
		Action:    ActionVaultUnlock,
		Actor:     "cli",
	})

	l.Log(Entry{
		Timestamp: ts.Add(time.Minute),
		Action:    ActionTokenRead,
		Key:       "token/abc",
		Actor:     "interactive",
	})

	// Read and verify
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	var e1 Entry
	json.Unmarshal([]byte(lines[0]), &e1)
	if e1.Action != ActionVaultUnlock {
		t.Errorf("expected vault_unlock, got %v", e1.Action)
	}
	if e1.Actor != "cli" {
		t.Errorf("expected cli, got %q", e1.Actor)
	}

	var e2 Entry
	json.Unmarshal([]byte(lines[1]), &e2)
	if e2.Action != ActionTokenRead {
		t.Errorf("expected token_read, got %v", e2.Action)
	}
	if e2.Key != "token/abc" {
		t.Errorf("expected token/abc, got %q", e2.Key)
	}
}

func TestLoggerFillsTimestamp(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer l.Close()

	before := time.Now().UTC()
	l.Log(Entry{Action: ActionVaultLock})

	data, _ := os.ReadFile(path)
	var e Entry
	json.Unmarshal([]byte(strings.TrimSpace(string(data))), &e)
	if e.Timestamp.Before(before.Add(-time.Second)) {
		t.Errorf("timestamp not filled in: %v", e.Timestamp)
	}
}

func TestLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")

	l1, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	l1.Log(Entry{Action: ActionPinSet})
	l1.Close()

	l2, err := NewLogger(path)
	if err != nil {
		t.Fatalf("NewLogger reopen: %v", err)
	}
	l2.Log(Entry{Action: ActionPinChange})
	l2.Close()

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines after reopen, got %d", len(lines))
	}
}
