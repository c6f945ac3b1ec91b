package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"otpvault/internal/audit"
	"otpvault/internal/clipboard"
	"otpvault/internal/config"
	"otpvault/internal/session"
	"otpvault/internal/token"
	"otpvault/internal/vclock"
)

var interactiveCmd = &cobra.Command{
	Use:     "interactive",
	Short:   "Open an interactive vault shell",
	Aliases: []string{"shell"},
	Long: "Open a shell that unlocks the vault once and keeps the session " +
		"alive. The vault re-locks automatically after the configured " +
		"inactivity timeout and prompts for the PIN again on the next command.",
	Args: cobra.NoArgs,
	RunE: runInteractive,
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}

func runInteractive(cmd *cobra.Command, args []string) error {
	v, err := openVault("interactive")
	if err != nil {
		return err
	}
	defer v.close()

	v.session.SetOnLock(func() {
		v.auditLog.Log(audit.Entry{Action: audit.ActionVaultLock, Actor: v.actor, Trigger: "inactivity"})
		fmt.Println("\nVault locked.")
	})

	if err := v.unlock(); err != nil {
		return err
	}

	// Pick up auto-lock changes from the config file while running,
	// unless the user has stored an explicit setting in the vault.
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	go func() {
		err := config.Watch(ctx, config.DefaultPath(), slog.Default(), func(cfg *config.Config) {
			timeout, err := v.settings.AutoLock(cfg.AutoLock.Duration)
			if err != nil {
				slog.Error("applying reloaded config", "error", err)
				return
			}
			v.session.SetTimeout(timeout)
		})
		if err != nil {
			slog.Error("config watcher stopped", "error", err)
		}
	}()

	guard := clipboard.NewGuard(clipboard.NewSystem(), vclock.System(), v.cfg.ClipboardClear.Duration)
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("otpvault [%s]> ", v.session.State())
		if !scanner.Scan() {
			return nil
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		command, rest := parts[0], parts[1:]

		switch command {
		case "help":
			fmt.Println("Commands: list [filter], code <id>, copy <id>, codes <id>, rm <id>, lock, unlock, exit")
			continue
		case "exit", "quit":
			return nil
		case "lock":
			v.session.Lock()
			v.auditLog.Log(audit.Entry{Action: audit.ActionVaultLock, Actor: v.actor, Trigger: "manual"})
			continue
		case "unlock":
			if v.session.State() == session.Unlocked {
				fmt.Println("Already unlocked")
				continue
			}
			if err := v.unlock(); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
			continue
		}

		// Everything below is gated; re-prompt after an auto-lock.
		if v.session.State() == session.Locked {
			if err := v.unlock(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				continue
			}
		}

		if err := v.dispatch(command, rest, guard); err != nil {
			if errors.Is(err, session.ErrLocked) {
				fmt.Fprintln(os.Stderr, "Vault locked — try again.")
				continue
			}
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func (v *vault) dispatch(command string, args []string, guard *clipboard.Guard) error {
	switch command {
	case "list", "ls":
		filter := ""
		if len(args) > 0 {
			filter = args[0]
		}
		entries, err := v.tokens.List(filter)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No tokens")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  %s / %s\n", e.ID, e.Issuer, e.Account)
		}
		return nil

	case "code":
		if len(args) != 1 {
			return errors.New("usage: code <id>")
		}
		e, err := v.tokens.Get(args[0])
		if err != nil {
			return err
		}
		now := time.Now()
		code, err := token.Code(e, now)
		if err != nil {
			return err
		}
		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenRead, Key: e.ID, Actor: v.actor})
		fmt.Printf("%s (valid %ds)\n", code, int(token.Remaining(e, now)/time.Second))
		return nil

	case "copy":
		if len(args) != 1 {
			return errors.New("usage: copy <id>")
		}
		e, err := v.tokens.Get(args[0])
		if err != nil {
			return err
		}
		code, err := token.Code(e, time.Now())
		if err != nil {
			return err
		}
		if err := guard.Copy(code); err != nil {
			return err
		}
		v.auditLog.Log(audit.Entry{Action: audit.ActionCodeCopy, Key: e.ID, Actor: v.actor})
		fmt.Printf("Code copied — clipboard clears in %s\n", v.cfg.ClipboardClear.Duration)
		return nil

	case "codes":
		if len(args) != 1 {
			return errors.New("usage: codes <id>")
		}
		e, err := v.tokens.Get(args[0])
		if err != nil {
			return err
		}
		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenRead, Key: e.ID, Actor: v.actor})
		if len(e.RecoveryCodes) == 0 {
			fmt.Println("No recovery codes stored")
			return nil
		}
		for _, code := range e.RecoveryCodes {
			fmt.Println(code)
		}
		return nil

	case "rm", "delete":
		if len(args) != 1 {
			return errors.New("usage: rm <id>")
		}
		if err := v.tokens.Delete(args[0]); err != nil {
			return err
		}
		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenDelete, Key: args[0], Actor: v.actor})
		fmt.Println("Deleted")
		return nil

	default:
		return fmt.Errorf("unknown command %q — try 'help'", command)
	}
}
