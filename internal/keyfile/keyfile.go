// Package keyfile bootstraps the vault passphrase: it is read from a key
// file when one exists, otherwise prompted for and then persisted.
package keyfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Retries is how many times an empty passphrase is prompted for before giving up.
const Retries = 3

// ErrNoPassphrase is returned when every prompt produced an empty passphrase.
var ErrNoPassphrase = errors.New("no passphrase entered")

// Prompter reads a secret without echoing it.
type Prompter interface {
	ReadSecret(prompt string) (string, error)
}

// Load returns the passphrase stored at path. When the file is missing or
// blank the passphrase is prompted for and written to path with owner-only
// permissions.
func Load(path string, p Prompter) (string, error) {
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if key := strings.TrimSpace(string(data)); key != "" {
			return key, nil
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return "", fmt.Errorf("read key file %s: %w", path, err)
	}

	key, err := prompt(p)
	if err != nil {
		return "", err
	}

	if err := Save(path, key); err != nil {
		return "", err
	}
	return key, nil
}

// Save writes key to path, creating parent directories as needed.
func Save(path, key string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key file %s: %w", path, err)
	}
	return nil
}

func prompt(p Prompter) (string, error) {
	msg := "Enter the wallet key:"
	for range Retries {
		key, err := p.ReadSecret(msg)
		if err != nil {
			return "", fmt.Errorf("read passphrase: %w", err)
		}
		if key = strings.TrimSpace(key); key != "" {
			return key, nil
		}
		msg = "Empty, try again:"
	}
	return "", ErrNoPassphrase
}
