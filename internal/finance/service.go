package finance

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"schoolhub/internal/platform/metrics"
	dErrors "schoolhub/pkg/domain-errors"
)

// Service owns the financial business rules. Authorization happens before
// the service is reached; the actor passed to delete operations is already
// resolved and role-checked.
type Service struct {
	expenses    ExpenseStore
	waivers     WaiverStore
	collections CollectionStore
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) { s.tracer = tracer }
}

func NewService(expenses ExpenseStore, waivers WaiverStore, collections CollectionStore, opts ...Option) *Service {
	s := &Service{
		expenses:    expenses,
		waivers:     waivers,
		collections: collections,
		logger:      slog.Default(),
		tracer:      noop.NewTracerProvider().Tracer("finance"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tracer returns the service tracer so cmd wiring can share it.
func Tracer() trace.Tracer {
	return otel.Tracer("schoolhub/finance")
}

type CreateExpenseInput struct {
	Title      string    `json:"title"`
	Category   string    `json:"category"`
	Amount     int64     `json:"amount"`
	IncurredOn time.Time `json:"incurred_on"`
	Notes      string    `json:"notes"`
}

func (s *Service) CreateExpense(ctx context.Context, in CreateExpenseInput) (*Expense, error) {
	ctx, span := s.tracer.Start(ctx, "finance.CreateExpense")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	switch {
	case in.Title == "":
		return nil, dErrors.New(dErrors.CodeValidation, "title is required")
	case in.Category == "":
		return nil, dErrors.New(dErrors.CodeValidation, "category is required")
	case in.Amount <= 0:
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if in.IncurredOn.IsZero() {
		in.IncurredOn = time.Now().UTC()
	}

	now := time.Now().UTC()
	expense := &Expense{
		ID:         uuid.NewString(),
		Title:      in.Title,
		Category:   in.Category,
		Amount:     in.Amount,
		IncurredOn: in.IncurredOn,
		Notes:      strings.TrimSpace(in.Notes),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return expense, nil
}

func (s *Service) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error) {
	ctx, span := s.tracer.Start(ctx, "finance.ListExpenses")
	defer span.End()

	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return expenses, nil
}

// DeleteExpense soft-deletes one expense. found=false means the id does not
// exist; the handler maps that to 404.
func (s *Service) DeleteExpense(ctx context.Context, id, reason string, actor Actor) (*Expense, bool, error) {
	ctx, span := s.tracer.Start(ctx, "finance.DeleteExpense")
	defer span.End()

	expense, found, err := SoftDelete[*Expense](ctx, s.expenses, id, reason, actor)
	if err == nil && found {
		s.countSoftDelete("expense")
		s.logger.InfoContext(ctx, "expense deleted",
			"expense_id", id, "deleted_by", actor.UserID)
	}
	return expense, found, err
}

type CreateWaiverInput struct {
	StudentID string `json:"student_id"`
	Amount    int64  `json:"amount"`
	Reason    string `json:"reason"`
	Term      string `json:"term"`
}

func (s *Service) CreateWaiver(ctx context.Context, in CreateWaiverInput) (*FeeWaiver, error) {
	ctx, span := s.tracer.Start(ctx, "finance.CreateWaiver")
	defer span.End()

	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Reason = strings.TrimSpace(in.Reason)
	switch {
	case in.StudentID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "student_id is required")
	case in.Amount <= 0:
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	case in.Reason == "":
		return nil, dErrors.New(dErrors.CodeValidation, "reason is required")
	}

	now := time.Now().UTC()
	waiver := &FeeWaiver{
		ID:        uuid.NewString(),
		StudentID: in.StudentID,
		Amount:    in.Amount,
		Reason:    in.Reason,
		Term:      strings.TrimSpace(in.Term),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.waivers.Create(ctx, waiver); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return waiver, nil
}

func (s *Service) ListWaivers(ctx context.Context, filter WaiverFilter) ([]FeeWaiver, error) {
	ctx, span := s.tracer.Start(ctx, "finance.ListWaivers")
	defer span.End()

	waivers, err := s.waivers.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return waivers, nil
}

func (s *Service) DeleteWaiver(ctx context.Context, id, reason string, actor Actor) (*FeeWaiver, bool, error) {
	ctx, span := s.tracer.Start(ctx, "finance.DeleteWaiver")
	defer span.End()

	waiver, found, err := SoftDelete[*FeeWaiver](ctx, s.waivers, id, reason, actor)
	if err == nil && found {
		s.countSoftDelete("fee_waiver")
		s.logger.InfoContext(ctx, "fee waiver deleted",
			"waiver_id", id, "deleted_by", actor.UserID)
	}
	return waiver, found, err
}

type CreateCollectionInput struct {
	StudentID  string    `json:"student_id"`
	Amount     int64     `json:"amount"`
	Method     string    `json:"method"`
	Reference  string    `json:"reference"`
	ReceivedOn time.Time `json:"received_on"`
}

func (s *Service) CreateCollection(ctx context.Context, in CreateCollectionInput) (*Collection, error) {
	ctx, span := s.tracer.Start(ctx, "finance.CreateCollection")
	defer span.End()

	in.StudentID = strings.TrimSpace(in.StudentID)
	in.Method = strings.TrimSpace(in.Method)
	switch {
	case in.StudentID == "":
		return nil, dErrors.New(dErrors.CodeValidation, "student_id is required")
	case in.Amount <= 0:
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	case in.Method == "":
		return nil, dErrors.New(dErrors.CodeValidation, "method is required")
	}
	if in.ReceivedOn.IsZero() {
		in.ReceivedOn = time.Now().UTC()
	}

	collection := &Collection{
		ID:         uuid.NewString(),
		StudentID:  in.StudentID,
		Amount:     in.Amount,
		Method:     in.Method,
		Reference:  strings.TrimSpace(in.Reference),
		ReceivedOn: in.ReceivedOn,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.collections.Create(ctx, collection); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return collection, nil
}

func (s *Service) ListCollections(ctx context.Context, filter CollectionFilter) ([]Collection, error) {
	ctx, span := s.tracer.Start(ctx, "finance.ListCollections")
	defer span.End()

	collections, err := s.collections.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return collections, nil
}

// Analytics aggregates totals across the three record types. Deleted
// expenses and waivers do not count.
func (s *Service) Analytics(ctx context.Context) (*Summary, error) {
	ctx, span := s.tracer.Start(ctx, "finance.Analytics")
	defer span.End()

	expenses, err := s.expenses.List(ctx, ExpenseFilter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	waivers, err := s.waivers.List(ctx, WaiverFilter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	collections, err := s.collections.List(ctx, CollectionFilter{})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}

	summary := &Summary{ExpensesByCategory: make(map[string]int64)}
	for _, e := range expenses {
		summary.TotalExpenses += e.Amount
		summary.ExpensesByCategory[e.Category] += e.Amount
	}
	for _, w := range waivers {
		summary.TotalWaived += w.Amount
	}
	for _, c := range collections {
		summary.TotalCollected += c.Amount
	}
	summary.Net = summary.TotalCollected - summary.TotalExpenses - summary.TotalWaived
	return summary, nil
}

func (s *Service) countSoftDelete(record string) {
	if s.metrics != nil {
		s.metrics.SoftDeletesTotal.WithLabelValues(record).Inc()
	}
}
