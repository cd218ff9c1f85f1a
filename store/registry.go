// Package store maintains a registry of blob-store types,
// for constructing stores from configuration.
package store

import (
	"context"
	"fmt"

	"github.com/bobg/rs"
)

// Factory is a function that can create a blob store from a configuration map.
type Factory func(context.Context, map[string]interface{}) (rs.Store, error)

var registry = make(map[string]Factory)

// Register associates a key with a Factory.
// It is meant to be called from the init function
// of a package implementing a blob store.
func Register(key string, f Factory) {
	registry[key] = f
}

// Create creates a blob store
// by looking up the Factory registered under key
// and calling it with the given configuration.
func Create(ctx context.Context, key string, conf map[string]interface{}) (rs.Store, error) {
	f, ok := registry[key]
	if !ok {
		return nil, fmt.Errorf("key %s not found in registry", key)
	}
	return f(ctx, conf)
}
