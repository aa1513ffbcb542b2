// Package keyring keeps storage and queue connection strings out of flags,
// env files and shell history.
package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/habits/internal/constants"
)

// Accounts under the habits service.
const (
	AccountDatabase    = constants.DefaultKeyringUser
	AccountNotifyQueue = "notify-queue"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Get returns the secret stored for account.
func Get(account string) (string, error) {
	secret, err := keyring.Get(constants.AppName, account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return secret, nil
}

func Set(account, secret string) error {
	if secret == "" {
		return fmt.Errorf("%s secret cannot be empty", account)
	}
	if err := keyring.Set(constants.AppName, account, secret); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(account string) error {
	if err := keyring.Delete(constants.AppName, account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// Resolve returns value when set, otherwise the secret stored for account.
// A missing keyring entry is not an error.
func Resolve(value, account string) (string, error) {
	if value != "" {
		return value, nil
	}
	secret, err := Get(account)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return secret, err
}

// IsAvailable is a best-effort check that the OS keyring can be read.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}
