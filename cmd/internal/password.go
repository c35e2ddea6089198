package internal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PasswordEnv names the environment variable that may supply a password non-interactively.
const PasswordEnv = "PWCRYPT_PASSWORD"

var ErrNoTerminal = errors.New("stdin is not a terminal, set " + PasswordEnv + " to supply a password")

// ReadPassword returns the password from PasswordEnv if set, otherwise prompts for it on the terminal without echo.
// When confirm is true, the password must be entered twice.
func ReadPassword(confirm bool) ([]byte, error) {
	if pass, ok := os.LookupEnv(PasswordEnv); ok {
		return []byte(strings.TrimSpace(pass)), nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, ErrNoTerminal
	}
	pass, err := prompt(fd, "Password: ")
	if err != nil {
		return nil, err
	}
	if !confirm {
		return pass, nil
	}
	again, err := prompt(fd, "Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(pass) != string(again) {
		return nil, errors.New("passwords do not match")
	}
	return pass, nil
}

func prompt(fd int, label string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, label)
	pass, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return []byte(strings.TrimSpace(string(pass))), nil
}
