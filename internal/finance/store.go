package finance

import "context"

// ExpenseFilter scopes expense listings. Zero value lists everything that is
// not deleted.
type ExpenseFilter struct {
	Month          string // "2006-01"
	Category       string
	IncludeDeleted bool
}

// WaiverFilter scopes waiver listings.
type WaiverFilter struct {
	StudentID      string
	Term           string
	IncludeDeleted bool
}

// CollectionFilter scopes collection listings.
type CollectionFilter struct {
	StudentID string
	Month     string // "2006-01"
}

// ExpenseStore persists expenses. FindByID returns sentinel.ErrNotFound for
// absent ids and resolves deleted records too; filtering deleted rows is a
// List concern.
type ExpenseStore interface {
	Create(ctx context.Context, expense *Expense) error
	FindByID(ctx context.Context, id string) (*Expense, error)
	Update(ctx context.Context, expense *Expense) error
	List(ctx context.Context, filter ExpenseFilter) ([]Expense, error)
}

// WaiverStore persists fee waivers, same contract as ExpenseStore.
type WaiverStore interface {
	Create(ctx context.Context, waiver *FeeWaiver) error
	FindByID(ctx context.Context, id string) (*FeeWaiver, error)
	Update(ctx context.Context, waiver *FeeWaiver) error
	List(ctx context.Context, filter WaiverFilter) ([]FeeWaiver, error)
}

// CollectionStore persists fee collections. No update or delete; payments
// are append-only.
type CollectionStore interface {
	Create(ctx context.Context, collection *Collection) error
	List(ctx context.Context, filter CollectionFilter) ([]Collection, error)
}
