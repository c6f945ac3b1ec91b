package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"otpvault/internal/audit"
	"otpvault/internal/config"
	"otpvault/internal/pin"
	"otpvault/internal/secrets"
	"otpvault/internal/session"
	"otpvault/internal/token"
	"otpvault/internal/vclock"
)

// maxPinAttempts aborts the unlock prompt after this many wrong PINs.
const maxPinAttempts = 3

// vault bundles the wired-up components a command needs.
type vault struct {
	cfg      *config.Config
	auditLog *audit.Logger
	store    secrets.Store
	auth     *pin.Authenticator
	settings *secrets.Settings
	session  *session.Session
	tokens   *token.Store
	actor    string
}

// openVault loads config and wires the store, authenticator, session
// and token store. The session starts locked.
func openVault(actor string) (*vault, error) {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if dir := config.Dir(); dir != "" {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("creating config dir: %w", err)
		}
	}

	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return nil, err
	}

	store := secrets.NewAuditedStore(secrets.NewSystemStore(), auditLog, actor)
	auth := pin.NewAuthenticator(store, cfg.KDFIterations)
	settings := secrets.NewSettings(store)

	timeout, err := settings.AutoLock(cfg.AutoLock.Duration)
	if err != nil {
		return nil, err
	}

	sess := session.New(auth, vclock.System(), timeout, slog.Default())
	return &vault{
		cfg:      cfg,
		auditLog: auditLog,
		store:    store,
		auth:     auth,
		settings: settings,
		session:  sess,
		tokens:   token.NewStore(store, sess),
		actor:    actor,
	}, nil
}

func (v *vault) close() {
	v.auditLog.Close()
}

// unlock prompts for the PIN and unlocks the session, allowing up to
// maxPinAttempts wrong entries. The failure message never reveals
// anything beyond the fact that the PIN did not match.
func (v *vault) unlock() error {
	isSet, err := v.auth.IsSet()
	if err != nil {
		return err
	}
	if !isSet {
		return errors.New("no PIN set — run 'otpvault pin set' first")
	}

	for attempt := 1; attempt <= maxPinAttempts; attempt++ {
		rawPin, err := readSecret("PIN: ")
		if err != nil {
			return err
		}

		err = v.session.Unlock(rawPin)
		if err == nil {
			v.auditLog.Log(audit.Entry{Action: audit.ActionVaultUnlock, Actor: v.actor})
			return nil
		}
		if !errors.Is(err, session.ErrBadPin) {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionVaultUnlockFailed, Actor: v.actor})
		fmt.Fprintln(os.Stderr, "Incorrect PIN.")
	}
	return fmt.Errorf("%d incorrect PIN attempts", maxPinAttempts)
}
