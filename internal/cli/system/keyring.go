package system

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/julianstephens/habits/internal/cli"
	"github.com/julianstephens/habits/internal/keyring"
	"github.com/julianstephens/habits/internal/storage/backend"
	"github.com/julianstephens/habits/internal/storage/postgres"
)

type KeyringCmd struct {
	Set    KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
	Get    KeyringGetCmd    `cmd:"" help:"Show a stored secret with its password masked."`
	Delete KeyringDeleteCmd `cmd:"" help:"Remove a stored secret."`
}

// accountFor maps the user-facing secret name to a keyring account.
func accountFor(name string) (string, error) {
	switch name {
	case "db", "database":
		return keyring.AccountDatabase, nil
	case "queue", "notify-queue":
		return keyring.AccountNotifyQueue, nil
	}
	return "", fmt.Errorf("unknown secret %q (use db or queue)", name)
}

type KeyringSetCmd struct {
	Name  string `arg:"" enum:"db,database,queue,notify-queue" help:"Which secret: db or queue."`
	Value string `arg:"" help:"Storage URL or AMQP URL."`
}

func (c *KeyringSetCmd) Run(ctx *cli.Context) error {
	account, err := accountFor(c.Name)
	if err != nil {
		return err
	}

	if account == keyring.AccountDatabase {
		if backend.Detect(c.Value) == backend.KindPostgres {
			if err := postgres.ValidateConnString(c.Value); err != nil && !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
		}
	}

	if err := keyring.Set(account, c.Value); err != nil {
		return err
	}
	ctx.Printf("✓ %s stored in the OS keyring\n", account)
	return nil
}

type KeyringGetCmd struct {
	Name string `arg:"" enum:"db,database,queue,notify-queue" help:"Which secret: db or queue."`
}

func (c *KeyringGetCmd) Run(ctx *cli.Context) error {
	account, err := accountFor(c.Name)
	if err != nil {
		return err
	}
	secret, err := keyring.Get(account)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s stored in keyring", account)
		}
		return err
	}
	ctx.Println(MaskPassword(secret))
	return nil
}

type KeyringDeleteCmd struct {
	Name string `arg:"" enum:"db,database,queue,notify-queue" help:"Which secret: db or queue."`
}

func (c *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	account, err := accountFor(c.Name)
	if err != nil {
		return err
	}
	if err := keyring.Delete(account); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s stored in keyring", account)
		}
		return err
	}
	ctx.Printf("✓ %s removed from the OS keyring\n", account)
	return nil
}

// MaskPassword hides the password of a URL-style secret.
func MaskPassword(secret string) string {
	u, err := url.Parse(secret)
	if err != nil || u.User == nil {
		return secret
	}
	if _, ok := u.User.Password(); !ok {
		return secret
	}
	u.User = url.UserPassword(u.User.Username(), "xxxxx")
	return u.String()
}
