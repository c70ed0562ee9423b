package ports

import "context"

// Persisted flag keys. Values are opaque strings.
const (
	FlagToken   = "token"
	FlagSession = "xplr_session"
	FlagRates   = "xplr_rates"
)

// FlagsStore is durable key-value storage scoped per device. An absent key
// is reported as ok=false with a nil error; errors are reserved for
// infrastructure failures.
type FlagsStore interface {
	Read(ctx context.Context, scope, key string) (value string, ok bool, err error)
	// Write overwrites unconditionally. Last write wins.
	Write(ctx context.Context, scope, key, value string) error
	// Remove deletes the given keys. Removing an absent key is not an error.
	Remove(ctx context.Context, scope string, keys ...string) error
}

// FlagChange is published after a key in a scope was written or removed.
type FlagChange struct {
	Scope   string
	Key     string
	Removed bool
}

// FlagsNotifier is implemented by stores that can announce changes to other
// readers of the same scope. The returned channel is closed when ctx ends.
type FlagsNotifier interface {
	Subscribe(ctx context.Context, scope string) (<-chan FlagChange, error)
}
