// Package backend picks a storage provider from a target string.
package backend

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habits/internal/storage"
	"github.com/julianstephens/habits/internal/storage/jsonfile"
	"github.com/julianstephens/habits/internal/storage/mongo"
	"github.com/julianstephens/habits/internal/storage/postgres"
	"github.com/julianstephens/habits/internal/storage/redis"
	"github.com/julianstephens/habits/internal/storage/sqlite"
)

type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindRedis    Kind = "redis"
	KindMongo    Kind = "mongodb"
	KindJSON     Kind = "json"
)

// Detect classifies target. Anything that is not a recognised URL or a *.json path is a SQLite file.
func Detect(target string) Kind {
	switch {
	case postgres.IsConnString(target):
		return KindPostgres
	case redis.IsURL(target):
		return KindRedis
	case mongo.IsURI(target):
		return KindMongo
	case jsonfile.IsPath(target):
		return KindJSON
	default:
		return KindSQLite
	}
}

// Open returns an unopened provider for target. Call Init or Load before use.
func Open(target string) (storage.Provider, error) {
	if strings.TrimSpace(target) == "" {
		return nil, fmt.Errorf("no storage target configured")
	}

	switch Detect(target) {
	case KindPostgres:
		if err := postgres.ValidateConnString(target); err != nil {
			return nil, err
		}
		return postgres.New(target), nil
	case KindRedis:
		return redis.NewStore(target), nil
	case KindMongo:
		return mongo.NewStore(target), nil
	case KindJSON:
		return jsonfile.NewStore(target), nil
	default:
		if strings.Contains(target, "://") {
			return nil, fmt.Errorf("unsupported storage URL %q", redact(target))
		}
		return sqlite.NewStore(target), nil
	}
}

// redact drops everything after the scheme so credentials never reach logs.
func redact(target string) string {
	if i := strings.Index(target, "://"); i >= 0 {
		return target[:i+3] + "..."
	}
	return target
}
