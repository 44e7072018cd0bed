package ports

import "context"

// Durable storage keys written by the session and cart stores.
const (
	KeyToken = "token"
	KeyUser  = "user"
	KeyCart  = "cart"
)

// Storage is the durable key-value bridge the stores mirror themselves into.
// Values are JSON text. Implementations must be safe for concurrent use.
type Storage interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set writes value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes the given keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// Pinger is implemented by storage backends that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
