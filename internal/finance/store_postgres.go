package finance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"schoolhub/pkg/platform/sentinel"
)

// PostgresExpenseStore persists expenses in the expenses table. The
// deleted_by actor is flattened into two columns.
type PostgresExpenseStore struct {
	db *sql.DB
}

func NewPostgresExpenseStore(db *sql.DB) *PostgresExpenseStore {
	return &PostgresExpenseStore{db: db}
}

const expenseColumns = `id, title, category, amount, incurred_on, notes,
	created_at, updated_at, deleted_at, delete_reason, deleted_by_id, deleted_by_name`

func scanExpense(row interface{ Scan(...any) error }) (*Expense, error) {
	var (
		e             Expense
		deleteReason  sql.NullString
		deletedByID   sql.NullString
		deletedByName sql.NullString
	)
	err := row.Scan(&e.ID, &e.Title, &e.Category, &e.Amount, &e.IncurredOn, &e.Notes,
		&e.CreatedAt, &e.UpdatedAt, &e.DeletedAt, &deleteReason, &deletedByID, &deletedByName)
	if err != nil {
		return nil, err
	}
	e.DeleteReason = deleteReason.String
	if deletedByID.Valid {
		e.DeletedBy = &Actor{UserID: deletedByID.String, UserName: deletedByName.String}
	}
	return &e, nil
}

func (s *PostgresExpenseStore) Create(ctx context.Context, e *Expense) error {
	const q = `
		INSERT INTO expenses (id, title, category, amount, incurred_on, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Category, e.Amount, e.IncurredOn, e.Notes, e.CreatedAt, e.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}
	return nil
}

func (s *PostgresExpenseStore) FindByID(ctx context.Context, id string) (*Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE id = $1`
	e, err := scanExpense(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select expense: %w", err)
	}
	return e, nil
}

func (s *PostgresExpenseStore) Update(ctx context.Context, e *Expense) error {
	var byID, byName any
	if e.DeletedBy != nil {
		byID, byName = e.DeletedBy.UserID, e.DeletedBy.UserName
	}
	const q = `
		UPDATE expenses
		SET title = $2, category = $3, amount = $4, incurred_on = $5, notes = $6,
			updated_at = $7, deleted_at = $8, delete_reason = NULLIF($9, ''),
			deleted_by_id = $10, deleted_by_name = $11
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q,
		e.ID, e.Title, e.Category, e.Amount, e.IncurredOn, e.Notes,
		time.Now().UTC(), e.DeletedAt, e.DeleteReason, byID, byName)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresExpenseStore) List(ctx context.Context, filter ExpenseFilter) ([]Expense, error) {
	q := `SELECT ` + expenseColumns + ` FROM expenses WHERE 1=1`
	var args []any
	if !filter.IncludeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		q += ` AND category = $` + strconv.Itoa(len(args))
	}
	if filter.Month != "" {
		args = append(args, filter.Month)
		q += ` AND to_char(incurred_on, 'YYYY-MM') = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY incurred_on DESC, created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// PostgresWaiverStore persists fee waivers in the fee_waivers table.
type PostgresWaiverStore struct {
	db *sql.DB
}

func NewPostgresWaiverStore(db *sql.DB) *PostgresWaiverStore {
	return &PostgresWaiverStore{db: db}
}

const waiverColumns = `id, student_id, amount, reason, term,
	created_at, updated_at, deleted_at, delete_reason, deleted_by_id, deleted_by_name`

func scanWaiver(row interface{ Scan(...any) error }) (*FeeWaiver, error) {
	var (
		w             FeeWaiver
		deleteReason  sql.NullString
		deletedByID   sql.NullString
		deletedByName sql.NullString
	)
	err := row.Scan(&w.ID, &w.StudentID, &w.Amount, &w.Reason, &w.Term,
		&w.CreatedAt, &w.UpdatedAt, &w.DeletedAt, &deleteReason, &deletedByID, &deletedByName)
	if err != nil {
		return nil, err
	}
	w.DeleteReason = deleteReason.String
	if deletedByID.Valid {
		w.DeletedBy = &Actor{UserID: deletedByID.String, UserName: deletedByName.String}
	}
	return &w, nil
}

func (s *PostgresWaiverStore) Create(ctx context.Context, w *FeeWaiver) error {
	const q = `
		INSERT INTO fee_waivers (id, student_id, amount, reason, term, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.db.ExecContext(ctx, q,
		w.ID, w.StudentID, w.Amount, w.Reason, w.Term, w.CreatedAt, w.UpdatedAt,
	); err != nil {
		return fmt.Errorf("insert fee waiver: %w", err)
	}
	return nil
}

func (s *PostgresWaiverStore) FindByID(ctx context.Context, id string) (*FeeWaiver, error) {
	q := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE id = $1`
	w, err := scanWaiver(s.db.QueryRowContext(ctx, q, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select fee waiver: %w", err)
	}
	return w, nil
}

func (s *PostgresWaiverStore) Update(ctx context.Context, w *FeeWaiver) error {
	var byID, byName any
	if w.DeletedBy != nil {
		byID, byName = w.DeletedBy.UserID, w.DeletedBy.UserName
	}
	const q = `
		UPDATE fee_waivers
		SET student_id = $2, amount = $3, reason = $4, term = $5,
			updated_at = $6, deleted_at = $7, delete_reason = NULLIF($8, ''),
			deleted_by_id = $9, deleted_by_name = $10
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, q,
		w.ID, w.StudentID, w.Amount, w.Reason, w.Term,
		time.Now().UTC(), w.DeletedAt, w.DeleteReason, byID, byName)
	if err != nil {
		return fmt.Errorf("update fee waiver: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresWaiverStore) List(ctx context.Context, filter WaiverFilter) ([]FeeWaiver, error) {
	q := `SELECT ` + waiverColumns + ` FROM fee_waivers WHERE 1=1`
	var args []any
	if !filter.IncludeDeleted {
		q += ` AND deleted_at IS NULL`
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		q += ` AND student_id = $` + strconv.Itoa(len(args))
	}
	if filter.Term != "" {
		args = append(args, filter.Term)
		q += ` AND term = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list fee waivers: %w", err)
	}
	defer rows.Close()

	var waivers []FeeWaiver
	for rows.Next() {
		w, err := scanWaiver(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fee waiver: %w", err)
		}
		waivers = append(waivers, *w)
	}
	return waivers, rows.Err()
}

// PostgresCollectionStore persists fee collections in the fee_collections
// table.
type PostgresCollectionStore struct {
	db *sql.DB
}

func NewPostgresCollectionStore(db *sql.DB) *PostgresCollectionStore {
	return &PostgresCollectionStore{db: db}
}

func (s *PostgresCollectionStore) Create(ctx context.Context, c *Collection) error {
	const q = `
		INSERT INTO fee_collections (id, student_id, amount, method, reference, received_on, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err := s.db.ExecContext(ctx, q,
		c.ID, c.StudentID, c.Amount, c.Method, c.Reference, c.ReceivedOn, c.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert fee collection: %w", err)
	}
	return nil
}

func (s *PostgresCollectionStore) List(ctx context.Context, filter CollectionFilter) ([]Collection, error) {
	q := `SELECT id, student_id, amount, method, reference, received_on, created_at
		FROM fee_collections WHERE 1=1`
	var args []any
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		q += ` AND student_id = $` + strconv.Itoa(len(args))
	}
	if filter.Month != "" {
		args = append(args, filter.Month)
		q += ` AND to_char(received_on, 'YYYY-MM') = $` + strconv.Itoa(len(args))
	}
	q += ` ORDER BY received_on DESC`

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list fee collections: %w", err)
	}
	defer rows.Close()

	var collections []Collection
	for rows.Next() {
		var c Collection
		if err := rows.Scan(&c.ID, &c.StudentID, &c.Amount, &c.Method,
			&c.Reference, &c.ReceivedOn, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan fee collection: %w", err)
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

var (
	_ ExpenseStore    = (*PostgresExpenseStore)(nil)
	_ WaiverStore     = (*PostgresWaiverStore)(nil)
	_ CollectionStore = (*PostgresCollectionStore)(nil)
)
