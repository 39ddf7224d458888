package tokenstore

import (
	"context"

	"github.com/dayon-app/dayon-go/internal/core/domain"
)

// TokenKey is the fixed key the token is stored under in keyed backends.
const TokenKey = "auth:token"

// Reader reads the current token.
type Reader interface {
	// Load returns the stored token. found is false when nothing was ever
	// saved or the store was cleared.
	Load(ctx context.Context) (token string, found bool, err error)
}

// Store persists one token.
type Store interface {
	Reader

	// Save overwrites the stored token. The value is durable on return.
	Save(ctx context.Context, token string) error

	// Clear removes the token. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Snapshot returns a Reader fixed to token. An empty token reads as absent.
func Snapshot(token string) Reader {
	return snapshot(token)
}

type snapshot string

func (s snapshot) Load(context.Context) (string, bool, error) {
	return string(s), s != "", nil
}

func checkToken(token string) error {
	if token == "" {
		return domain.ErrInvalidArgument.WithDetails("token must not be empty")
	}
	return nil
}

func storageErr(op, backend string, err error) error {
	if err == nil {
		return nil
	}
	return &domain.StorageError{Op: op, Backend: backend, Err: err}
}
