package users

import "context"

// Store is interface-driven to keep the identity logic testable and to allow
// swapping in-memory, cached, or Postgres persistence without rewiring
// business code.
type Store interface {
	FindByID(ctx context.Context, id string) (*User, error)
	FindByEmail(ctx context.Context, email string) (*User, error)
	Save(ctx context.Context, user *User) error
}
