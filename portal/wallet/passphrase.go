package wallet

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/term"
)

// PassphraseFromEnv reads the passphrase from an environment variable on every call.
func PassphraseFromEnv(name string) PassphraseFunc {
	return func() ([]byte, error) {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			return nil, fmt.Errorf("environment variable %s is not set", name)
		}
		return []byte(v), nil
	}
}

// PromptPassphrase asks for a passphrase on the controlling terminal.
func PromptPassphrase(prompt string) ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("stdin is not a terminal")
	}

	_, _ = fmt.Fprint(os.Stderr, prompt)
	pw, err := term.ReadPassword(fd)
	_, _ = fmt.Fprintln(os.Stderr)
	if err != nil {
		clear(pw)
		return nil, fmt.Errorf("passphrase input failed: %w", err)
	}
	if len(pw) == 0 {
		return nil, errors.New("empty passphrase")
	}
	return pw, nil
}

// StaticPassphrase returns a PassphraseFunc that hands out copies of pass.
func StaticPassphrase(pass []byte) PassphraseFunc {
	held := make([]byte, len(pass))
	copy(held, pass)
	return func() ([]byte, error) {
		out := make([]byte, len(held))
		copy(out, held)
		return out, nil
	}
}
