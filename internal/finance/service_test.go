package finance

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "schoolhub/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService(
		NewMemoryExpenseStore(),
		NewMemoryWaiverStore(),
		NewMemoryCollectionStore(),
		WithLogger(slog.New(slog.DiscardHandler)),
	)
}

func TestCreateExpenseValidation(t *testing.T) {
	svc := newTestService()

	cases := []struct {
		name string
		in   CreateExpenseInput
	}{
		{"missing title", CreateExpenseInput{Category: "supplies", Amount: 100}},
		{"blank title", CreateExpenseInput{Title: "  ", Category: "supplies", Amount: 100}},
		{"missing category", CreateExpenseInput{Title: "Chairs", Amount: 100}},
		{"zero amount", CreateExpenseInput{Title: "Chairs", Category: "furniture"}},
		{"negative amount", CreateExpenseInput{Title: "Chairs", Category: "furniture", Amount: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateExpense(context.Background(), tc.in)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		})
	}
}

func TestCreateExpense(t *testing.T) {
	svc := newTestService()

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		Title:    "  Projector  ",
		Category: "equipment",
		Amount:   450_00,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, "Projector", expense.Title)
	assert.False(t, expense.IncurredOn.IsZero(), "incurred_on defaults to now")
	assert.Nil(t, expense.DeletedAt)
}

func TestDeleteExpense(t *testing.T) {
	svc := newTestService()
	actor := Actor{UserID: "u-1", UserName: "Head Admin"}

	expense, err := svc.CreateExpense(context.Background(), CreateExpenseInput{
		Title: "Duplicate bill", Category: "utilities", Amount: 80_00,
	})
	require.NoError(t, err)

	t.Run("requires a reason", func(t *testing.T) {
		_, _, err := svc.DeleteExpense(context.Background(), expense.ID, "  ", actor)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("unknown id is not found, not an error", func(t *testing.T) {
		_, found, err := svc.DeleteExpense(context.Background(), "nope", "duplicate", actor)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("deletes and hides from default listing", func(t *testing.T) {
		deleted, found, err := svc.DeleteExpense(context.Background(), expense.ID, "duplicate", actor)
		require.NoError(t, err)
		require.True(t, found)
		assert.NotNil(t, deleted.DeletedAt)

		visible, err := svc.ListExpenses(context.Background(), ExpenseFilter{})
		require.NoError(t, err)
		assert.Empty(t, visible)

		all, err := svc.ListExpenses(context.Background(), ExpenseFilter{IncludeDeleted: true})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestAnalytics(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	actor := Actor{UserID: "u-1", UserName: "Head Admin"}

	_, err := svc.CreateExpense(ctx, CreateExpenseInput{Title: "Desks", Category: "furniture", Amount: 300_00})
	require.NoError(t, err)
	_, err = svc.CreateExpense(ctx, CreateExpenseInput{Title: "Paint", Category: "maintenance", Amount: 50_00})
	require.NoError(t, err)
	doomed, err := svc.CreateExpense(ctx, CreateExpenseInput{Title: "Void", Category: "maintenance", Amount: 999_00})
	require.NoError(t, err)
	_, _, err = svc.DeleteExpense(ctx, doomed.ID, "entered twice", actor)
	require.NoError(t, err)

	_, err = svc.CreateWaiver(ctx, CreateWaiverInput{StudentID: "s-1", Amount: 120_00, Reason: "hardship"})
	require.NoError(t, err)

	_, err = svc.CreateCollection(ctx, CreateCollectionInput{
		StudentID: "s-2", Amount: 600_00, Method: "bank_transfer",
		ReceivedOn: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	summary, err := svc.Analytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(350_00), summary.TotalExpenses, "deleted expenses excluded")
	assert.Equal(t, int64(120_00), summary.TotalWaived)
	assert.Equal(t, int64(600_00), summary.TotalCollected)
	assert.Equal(t, int64(130_00), summary.Net)
	assert.Equal(t, int64(50_00), summary.ExpensesByCategory["maintenance"])
}
