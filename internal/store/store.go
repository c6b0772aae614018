// Package store persists small string values, such as the local path of a
// downloaded model, across process restarts.
package store

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("key not found")

type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

type Options struct {
	Driver     string
	SQLitePath string
	RedisAddr  string
	RedisDB    int
}

// Open returns the store selected by opts.Driver.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		return NewSQLite(opts.SQLitePath)
	case DriverRedis:
		return NewRedis(ctx, opts.RedisAddr, opts.RedisDB)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
