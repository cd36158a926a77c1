package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"csvcal/internal/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Hash a password for basic_auth.password_hash",
	Long: `Reads a password twice without echo and prints its Argon2id hash.
Put the result in the config file under basic_auth.password_hash.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return errors.New("hash-password needs an interactive terminal")
		}

		password, err := readPassword(fd, "Enter password:   ")
		if err != nil {
			return err
		}
		confirm, err := readPassword(fd, "Confirm password: ")
		if err != nil {
			return err
		}
		if password == "" {
			return errors.New("password cannot be empty")
		}
		if password != confirm {
			return errors.New("passwords do not match")
		}

		hash, err := auth.HashPassword(password)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func readPassword(fd int, prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
