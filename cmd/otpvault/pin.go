package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"otpvault/internal/audit"
	"otpvault/internal/pin"
)

var pinCmd = &cobra.Command{
	Use:   "pin",
	Short: "Manage the vault PIN",
}

var pinSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the initial vault PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()

		isSet, err := v.auth.IsSet()
		if err != nil {
			return err
		}
		if isSet {
			return errors.New("a PIN is already set — use 'otpvault pin change'")
		}

		newPin, err := readSecretConfirmed("New PIN: ", "Confirm PIN: ")
		if err != nil {
			return err
		}
		if err := v.auth.Set(newPin); err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionPinSet, Actor: v.actor})
		fmt.Println("PIN set")
		return nil
	},
}

var pinChangeCmd = &cobra.Command{
	Use:   "change",
	Short: "Change the vault PIN",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()

		oldPin, err := readSecret("Current PIN: ")
		if err != nil {
			return err
		}
		newPin, err := readSecretConfirmed("New PIN: ", "Confirm new PIN: ")
		if err != nil {
			return err
		}

		if err := v.auth.Change(oldPin, newPin); err != nil {
			if errors.Is(err, pin.ErrMismatch) {
				return errors.New("current PIN does not match — PIN unchanged")
			}
			return err
		}

		// Any live session is stale after a PIN change.
		v.session.Lock()
		v.auditLog.Log(audit.Entry{Action: audit.ActionPinChange, Actor: v.actor})
		fmt.Println("PIN changed")
		return nil
	},
}

func init() {
	pinCmd.AddCommand(pinSetCmd)
	pinCmd.AddCommand(pinChangeCmd)
	rootCmd.AddCommand(pinCmd)
}
