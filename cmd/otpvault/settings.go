package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var autoLockCmd = &cobra.Command{
	Use:   "auto-lock [duration]",
	Short: "Show or set the inactivity auto-lock timeout",
	Long:  "Show or set the inactivity timeout after which the vault locks itself. A value of 0 disables auto-lock.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()

		if len(args) == 0 {
			timeout, err := v.settings.AutoLock(v.cfg.AutoLock.Duration)
			if err != nil {
				return err
			}
			if timeout == 0 {
				fmt.Println("Auto-lock: disabled")
			} else {
				fmt.Printf("Auto-lock: %s\n", timeout)
			}
			return nil
		}

		d, err := time.ParseDuration(args[0])
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", args[0], err)
		}

		// Settings live in the secret store; changing them requires
		// the vault to be unlocked like any other write.
		if err := v.unlock(); err != nil {
			return err
		}
		if err := v.settings.SetAutoLock(d); err != nil {
			return err
		}
		v.session.SetTimeout(d)

		if d == 0 {
			fmt.Println("Auto-lock disabled")
		} else {
			fmt.Printf("Auto-lock set to %s\n", d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(autoLockCmd)
}
