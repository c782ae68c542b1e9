package points

import (
	"fmt"
	"time"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// RolloverWindow is the per-year execution window with its at-most-once flag.
type RolloverWindow struct {
	Year        int        `json:"year"`
	StartDate   time.Time  `json:"startDate"`
	EndDate     time.Time  `json:"endDate"`
	HasExecuted bool       `json:"hasExecuted"`
	ExecutedAt  *time.Time `json:"executedAt,omitempty"`
}

// Validate checks the window bounds.
func (w RolloverWindow) Validate() error {
	if w.Year < 2000 || w.Year > 9999 {
		return apperrors.NewValidationError("year", "year is out of range")
	}
	if w.StartDate.IsZero() || w.EndDate.IsZero() {
		return apperrors.NewValidationError("startDate", "startDate and endDate are required")
	}
	if !w.EndDate.After(w.StartDate) {
		return apperrors.NewValidationError("endDate", "endDate must be after startDate")
	}
	return nil
}

// CheckRunnable decides whether a rollover may execute now.
func (w *RolloverWindow) CheckRunnable(now time.Time) error {
	if w == nil {
		return apperrors.NewBadRequestError("rollover is not configured for this year")
	}
	if w.HasExecuted {
		return apperrors.NewBadRequestError(fmt.Sprintf("rollover for %d has already been executed", w.Year))
	}
	if now.Before(w.StartDate) || now.After(w.EndDate) {
		err := apperrors.NewCustomError(apperrors.ErrPermissionDenied, "rollover is outside the allowed window")
		return err.WithDetails(map[string]interface{}{
			"allowedFrom": w.StartDate,
			"allowedTill": w.EndDate,
		})
	}
	return nil
}
