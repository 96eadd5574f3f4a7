// Package finance manages expenses, fee waivers and fee collections.
// Expenses and waivers are never physically removed; deletion marks the
// record with a timestamp, a mandatory reason and the deleting actor.
package finance

import "time"

// Actor identifies who performed a deletion.
type Actor struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

// Expense is money spent by the school.
type Expense struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Category     string     `json:"category"`
	Amount       int64      `json:"amount"` // cents
	IncurredOn   time.Time  `json:"incurred_on"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeleteReason string     `json:"delete_reason,omitempty"`
	DeletedBy    *Actor     `json:"deleted_by,omitempty"`
}

func (e *Expense) MarkDeleted(at time.Time, reason string, by Actor) {
	e.DeletedAt = &at
	e.DeleteReason = reason
	e.DeletedBy = &by
}

// FeeWaiver reduces what a student owes for a term.
type FeeWaiver struct {
	ID           string     `json:"id"`
	StudentID    string     `json:"student_id"`
	Amount       int64      `json:"amount"` // cents
	Reason       string     `json:"reason"`
	Term         string     `json:"term"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
	DeleteReason string     `json:"delete_reason,omitempty"`
	DeletedBy    *Actor     `json:"deleted_by,omitempty"`
}

func (w *FeeWaiver) MarkDeleted(at time.Time, reason string, by Actor) {
	w.DeletedAt = &at
	w.DeleteReason = reason
	w.DeletedBy = &by
}

// Collection is a received fee payment. Payments are immutable once
// recorded; there is no delete path, soft or otherwise.
type Collection struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	Amount     int64     `json:"amount"` // cents
	Method     string    `json:"method"`
	Reference  string    `json:"reference,omitempty"`
	ReceivedOn time.Time `json:"received_on"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary aggregates the money flows for the analytics view.
type Summary struct {
	TotalExpenses      int64            `json:"total_expenses"`
	TotalCollected     int64            `json:"total_collected"`
	TotalWaived        int64            `json:"total_waived"`
	Net                int64            `json:"net"`
	ExpensesByCategory map[string]int64 `json:"expenses_by_category"`
}
