package dto

import (
	"time"

	"github.com/yigit/alumnet/internal/domain/points"
)

// UpdatePointsConfigRequest partially updates the points configuration.
type UpdatePointsConfigRequest struct {
	ProfileCompletionPoints *int `json:"profileCompletionPoints" binding:"omitempty,min=0"`
	ConnectionPoints        *int `json:"connectionPoints" binding:"omitempty,min=0"`
	PostPoints              *int `json:"postPoints" binding:"omitempty,min=0"`
	PostLimitCount          *int `json:"postLimitCount" binding:"omitempty,min=1"`
	PostLimitDays           *int `json:"postLimitDays" binding:"omitempty,min=1"`
}

// ManualAwardRequest grants points to an alumnus found by name or enrollment number.
type ManualAwardRequest struct {
	Search   string `json:"search" binding:"required,max=100" example:"ENR2019001"`
	Amount   int    `json:"amount" binding:"required,gt=0,max=10000" example:"25"`
	Category string `json:"category" binding:"omitempty,points_category" example:"alumniParticipation"`
	Message  string `json:"message" binding:"omitempty,max=500"`
}

// ManualAwardResponse reports the recipient's updated balance.
type ManualAwardResponse struct {
	User     UserSummary     `json:"user"`
	Category points.Category `json:"category"`
	Amount   int             `json:"amount"`
	Points   points.Balance  `json:"points"`
}

// SyncPointsResponse reports a total reconciliation run.
type SyncPointsResponse struct {
	UsersChecked  int `json:"usersChecked"`
	UsersRepaired int `json:"usersRepaired"`
}

// RolloverConfigRequest sets the window in which a year's rollover may run.
type RolloverConfigRequest struct {
	Year      int       `json:"year" binding:"required,min=2000,max=9999" example:"2025"`
	StartDate time.Time `json:"startDate" binding:"required"`
	EndDate   time.Time `json:"endDate" binding:"required,gtfield=StartDate"`
}

// TriggerRolloverRequest selects the year to roll over; empty means the current year.
type TriggerRolloverRequest struct {
	Year *int `json:"year" binding:"omitempty,min=2000,max=9999"`
}

// RolloverResponse reports an executed rollover.
type RolloverResponse struct {
	Year           int       `json:"year"`
	UsersProcessed int       `json:"usersProcessed"`
	UsersFailed    int       `json:"usersFailed"`
	ExecutedAt     time.Time `json:"executedAt"`
}
