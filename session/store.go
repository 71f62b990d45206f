package session

import "context"

// Store is the persistent key-value storage backing a Session. Get reports
// ok=false for a missing key; Delete ignores missing keys.
type Store interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
