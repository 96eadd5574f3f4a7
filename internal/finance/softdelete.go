package finance

import (
	"context"
	"errors"
	"strings"
	"time"

	dErrors "schoolhub/pkg/domain-errors"
	"schoolhub/pkg/platform/sentinel"
)

// Deletable is the capability a record needs to participate in soft deletion.
type Deletable interface {
	MarkDeleted(at time.Time, reason string, by Actor)
}

// DeleteStore is the minimal persistence capability soft deletion needs:
// find one record, persist one update.
type DeleteStore[T Deletable] interface {
	FindByID(ctx context.Context, id string) (T, error)
	Update(ctx context.Context, record T) error
}

// SoftDelete marks one record deleted. It is shared verbatim by every record
// type that supports deletion; expenses and waivers differ only in the store
// they pass in.
//
// The reason precondition is checked before any lookup: a caller who cannot
// say why a financial record is going away does not get to find out whether
// it exists. An absent record reports found=false with a nil error.
func SoftDelete[T Deletable](ctx context.Context, store DeleteStore[T], id, reason string, actor Actor) (T, bool, error) {
	var zero T

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return zero, false, dErrors.New(dErrors.CodeValidation, "delete reason is required")
	}
	if strings.TrimSpace(id) == "" {
		return zero, false, dErrors.New(dErrors.CodeValidation, "record id is required")
	}

	record, err := store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return zero, false, nil
		}
		return zero, false, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}

	record.MarkDeleted(time.Now().UTC(), reason, actor)
	if err := store.Update(ctx, record); err != nil {
		return zero, false, dErrors.Wrap(err, dErrors.CodeInternal, "internal server error")
	}
	return record, true, nil
}
