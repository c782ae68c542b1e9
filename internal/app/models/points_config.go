package models

import (
	"time"

	"github.com/yigit/alumnet/internal/domain/points"
)

// PointsConfig is the singleton 'points_system_config' row.
type PointsConfig struct {
	ProfileCompletionPoints int        `json:"profileCompletionPoints" db:"profile_completion_points"`
	ConnectionPoints        int        `json:"connectionPoints" db:"connection_points"`
	PostPoints              int        `json:"postPoints" db:"post_points"`
	PostLimitCount          int        `json:"postLimitCount" db:"post_limit_count"`
	PostLimitDays           int        `json:"postLimitDays" db:"post_limit_days"`
	RolloverDate            *time.Time `json:"rolloverDate,omitempty" db:"rollover_date"`
	LastRolloverExecutedAt  *time.Time `json:"lastRolloverExecutedAt,omitempty" db:"last_rollover_executed_at"`
	UpdatedAt               time.Time  `json:"updatedAt" db:"updated_at"`
}

// Rules converts the config into ledger rules.
func (c *PointsConfig) Rules() points.Rules {
	return points.Rules{
		ProfileCompletionPoints: c.ProfileCompletionPoints,
		ConnectionPoints:        c.ConnectionPoints,
		PostPoints:              c.PostPoints,
		PostLimitCount:          c.PostLimitCount,
		PostLimitDays:           c.PostLimitDays,
	}
}
