// Package kv is the key-value persistence port for state that must survive a
// restart: the pending checkout session and the admin session.
package kv

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("key not found")

// Store holds plain string values. Writes overwrite wholesale.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}
