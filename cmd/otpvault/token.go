package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"otpvault/internal/audit"
	"otpvault/internal/clipboard"
	"otpvault/internal/token"
	"otpvault/internal/vclock"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage stored tokens",
}

var (
	addIssuer   string
	addAccount  string
	addSecret   string
	addDigits   int
	addPeriod   int
	addAlgo     string
	addRecovery []string
)

var tokenAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a token",
	Long:  "Add a token. If --secret is omitted, the secret is prompted with echo disabled.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		secret := addSecret
		if secret == "" {
			secret, err = readSecret("Secret (base32): ")
			if err != nil {
				return err
			}
		}

		dup, err := v.tokens.HasDuplicate(addIssuer, addAccount)
		if err != nil {
			return err
		}
		if dup {
			fmt.Fprintf(os.Stderr, "Warning: a token for %s / %s already exists\n", addIssuer, addAccount)
		}

		entry, err := v.tokens.Add(token.Entry{
			Issuer:        addIssuer,
			Account:       addAccount,
			Secret:        secret,
			Digits:        addDigits,
			Period:        addPeriod,
			Algorithm:     addAlgo,
			RecoveryCodes: addRecovery,
		})
		if err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenAdd, Key: entry.ID, Actor: v.actor})
		fmt.Printf("Token %s added (%s / %s)\n", entry.ID, entry.Issuer, entry.Account)
		return nil
	},
}

var tokenListCmd = &cobra.Command{
	Use:     "list [filter]",
	Short:   "List tokens, optionally filtered by issuer or account",
	Aliases: []string{"ls"},
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		filter := ""
		if len(args) == 1 {
			filter = args[0]
		}
		entries, err := v.tokens.List(filter)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No tokens stored")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tISSUER\tACCOUNT")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Issuer, e.Account)
		}
		w.Flush()
		return nil
	},
}

var tokenShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a token's parameters (never its secret)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		e, err := v.tokens.Get(args[0])
		if err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenRead, Key: e.ID, Actor: v.actor})
		fmt.Printf("ID:        %s\n", e.ID)
		fmt.Printf("Issuer:    %s\n", e.Issuer)
		fmt.Printf("Account:   %s\n", e.Account)
		fmt.Printf("Digits:    %d\n", e.Digits)
		fmt.Printf("Period:    %ds\n", e.Period)
		fmt.Printf("Algorithm: %s\n", e.Algorithm)
		fmt.Printf("Recovery codes: %d\n", len(e.RecoveryCodes))
		fmt.Printf("Created:   %s\n", e.CreatedAt.Format(time.RFC3339))
		fmt.Printf("Updated:   %s\n", e.UpdatedAt.Format(time.RFC3339))
		return nil
	},
}

var tokenCodesCmd = &cobra.Command{
	Use:   "codes <id>",
	Short: "Show a token's recovery codes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
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
	},
}

var (
	editIssuer   string
	editAccount  string
	editSecret   string
	editDigits   int
	editPeriod   int
	editAlgo     string
	editRecovery []string
)

var tokenEditCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Edit a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		var patch token.Patch
		flags := cmd.Flags()
		if flags.Changed("issuer") {
			patch.Issuer = &editIssuer
		}
		if flags.Changed("account") {
			patch.Account = &editAccount
		}
		if flags.Changed("secret") {
			patch.Secret = &editSecret
		}
		if flags.Changed("digits") {
			patch.Digits = &editDigits
		}
		if flags.Changed("period") {
			patch.Period = &editPeriod
		}
		if flags.Changed("algo") {
			patch.Algorithm = &editAlgo
		}
		if flags.Changed("recovery-codes") {
			patch.RecoveryCodes = &editRecovery
		}

		e, err := v.tokens.Edit(args[0], patch)
		if err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenEdit, Key: e.ID, Actor: v.actor})
		fmt.Printf("Token %s updated\n", e.ID)
		return nil
	},
}

var tokenDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Short:   "Remove a token and its recovery codes",
	Aliases: []string{"rm"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		if err := v.tokens.Delete(args[0]); err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionTokenDelete, Key: args[0], Actor: v.actor})
		fmt.Printf("Token %s deleted\n", args[0])
		return nil
	},
}

var codeCmd = &cobra.Command{
	Use:   "code <id>",
	Short: "Print the current one-time code for a token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
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
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy <id>",
	Short: "Copy the current code to the clipboard, clearing it afterwards",
	Long: strings.TrimSpace(`
Copy the current one-time code to the system clipboard. The command
stays in the foreground until the clipboard is cleared again; the
clear is skipped if something else was copied in the meantime.`),
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := openVault("cli")
		if err != nil {
			return err
		}
		defer v.close()
		if err := v.unlock(); err != nil {
			return err
		}

		e, err := v.tokens.Get(args[0])
		if err != nil {
			return err
		}
		code, err := token.Code(e, time.Now())
		if err != nil {
			return err
		}

		clearAfter := v.cfg.ClipboardClear.Duration
		guard := clipboard.NewGuard(clipboard.NewSystem(), vclock.System(), clearAfter)
		if err := guard.Copy(code); err != nil {
			return err
		}

		v.auditLog.Log(audit.Entry{Action: audit.ActionCodeCopy, Key: e.ID, Actor: v.actor})
		fmt.Printf("Code copied — clipboard clears in %s\n", clearAfter)

		// The clear timer dies with the process; wait for it.
		time.Sleep(clearAfter + 100*time.Millisecond)
		return nil
	},
}

func init() {
	tokenAddCmd.Flags().StringVarP(&addIssuer, "issuer", "i", "", "Service or issuer name (required)")
	tokenAddCmd.Flags().StringVarP(&addAccount, "account", "a", "", "Account name (required)")
	tokenAddCmd.Flags().StringVar(&addSecret, "secret", "", "Base32 secret (prompted if omitted)")
	tokenAddCmd.Flags().IntVar(&addDigits, "digits", 6, "Code length (6 or 8)")
	tokenAddCmd.Flags().IntVar(&addPeriod, "period", 30, "Time step in seconds")
	tokenAddCmd.Flags().StringVar(&addAlgo, "algo", "SHA1", "HMAC hash (SHA1, SHA256, SHA512)")
	tokenAddCmd.Flags().StringSliceVar(&addRecovery, "recovery-codes", nil, "Recovery codes")
	tokenAddCmd.MarkFlagRequired("issuer")
	tokenAddCmd.MarkFlagRequired("account")

	tokenEditCmd.Flags().StringVarP(&editIssuer, "issuer", "i", "", "Service or issuer name")
	tokenEditCmd.Flags().StringVarP(&editAccount, "account", "a", "", "Account name")
	tokenEditCmd.Flags().StringVar(&editSecret, "secret", "", "Base32 secret")
	tokenEditCmd.Flags().IntVar(&editDigits, "digits", 0, "Code length (6 or 8)")
	tokenEditCmd.Flags().IntVar(&editPeriod, "period", 0, "Time step in seconds")
	tokenEditCmd.Flags().StringVar(&editAlgo, "algo", "", "HMAC hash (SHA1, SHA256, SHA512)")
	tokenEditCmd.Flags().StringSliceVar(&editRecovery, "recovery-codes", nil, "Recovery codes")

	tokenCmd.AddCommand(tokenAddCmd)
	tokenCmd.AddCommand(tokenListCmd)
	tokenCmd.AddCommand(tokenShowCmd)
	tokenCmd.AddCommand(tokenCodesCmd)
	tokenCmd.AddCommand(tokenEditCmd)
	tokenCmd.AddCommand(tokenDeleteCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(codeCmd)
	rootCmd.AddCommand(copyCmd)
}
