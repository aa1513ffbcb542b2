package postgres

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	pq "github.com/lib/pq"

	"github.com/julianstephens/habits/internal/constants"
	"github.com/julianstephens/habits/internal/logger"
)

var (
	ErrInvalidConnectionString = errors.New("invalid PostgreSQL connection string")
	ErrEmbeddedCredentials     = errors.New("connection string must not contain a password")
)

// IsConnString reports whether target looks like a PostgreSQL URL.
func IsConnString(target string) bool {
	return strings.HasPrefix(target, "postgres://") || strings.HasPrefix(target, "postgresql://")
}

// ValidateConnString accepts a PostgreSQL URL or key=value DSN that carries
// no password. Passwords belong in the OS keyring or ~/.pgpass.
func ValidateConnString(connStr string) error {
	if strings.TrimSpace(connStr) == "" {
		return fmt.Errorf("%w: connection string cannot be empty", ErrInvalidConnectionString)
	}
	if _, err := pq.NewConnector(connStr); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}

	if !IsConnString(connStr) {
		if hasParam(connStr, "password") {
			return ErrEmbeddedCredentials
		}
		return nil
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConnectionString, err)
	}
	if _, set := u.User.Password(); set {
		return ErrEmbeddedCredentials
	}
	if u.Host == "" && u.User == nil && strings.Trim(u.Path, "/") == "" {
		return fmt.Errorf("%w: connection URL names no host, user or database", ErrInvalidConnectionString)
	}
	return nil
}

// withSearchPath points connStr at the habits schema unless it already sets
// a search_path.
func withSearchPath(connStr string) string {
	if hasParam(connStr, "search_path") {
		return connStr
	}
	if !IsConnString(connStr) {
		return strings.TrimSpace(connStr) + " search_path=" + constants.AppName
	}
	u, err := url.Parse(connStr)
	if err != nil {
		logger.Warn("Failed to parse Postgres connection string", "error", err)
		return connStr
	}
	q := u.Query()
	q.Set("search_path", constants.AppName)
	u.RawQuery = q.Encode()
	return u.String()
}

// hasParam reports whether connStr sets key, either as a URL query parameter
// or as a DSN key. Keys match case-insensitively.
func hasParam(connStr, key string) bool {
	if IsConnString(connStr) {
		u, err := url.Parse(connStr)
		if err != nil {
			return false
		}
		for k := range u.Query() {
			if strings.EqualFold(k, key) {
				return true
			}
		}
		return false
	}
	for _, field := range strings.Fields(connStr) {
		if k, _, ok := strings.Cut(field, "="); ok && strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}
