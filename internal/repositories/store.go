package repositories

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a referenced user or post does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field (user email) is already taken.
	ErrDuplicate = errors.New("duplicate record")
)

// TxFunc is a unit of work over both collections. Repositories passed to it
// are bound to the enclosing transaction and must only be used with ctx.
type TxFunc func(ctx context.Context, users UserRepository, posts PostRepository) error

// Store is the record store: users, posts and the link between them.
type Store interface {
	Users() UserRepository
	Posts() PostRepository

	// RunInTx runs fn so that all of its writes commit together or not at
	// all. An error returned by fn rolls the unit back and is returned as is.
	RunInTx(ctx context.Context, fn TxFunc) error

	// Migrate creates tables or indexes the backend needs.
	Migrate(ctx context.Context) error
}
