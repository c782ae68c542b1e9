// Package points implements the per-user points ledger: category buckets with
// a derived total, the post rate limiter, the profile completion checklist and
// the yearly reset.
package points

import (
	"fmt"
	"time"

	"github.com/yigit/alumnet/internal/pkg/apperrors"
)

// Category is a ledger bucket.
type Category string

const (
	ProfileCompletion   Category = "profileCompletion"
	StudentEngagement   Category = "studentEngagement"
	Referrals           Category = "referrals"
	ContentContribution Category = "contentContribution"
	CampusEngagement    Category = "campusEngagement"
	InnovationSupport   Category = "innovationSupport"
	AlumniParticipation Category = "alumniParticipation"
)

// Categories lists every known bucket in display order.
var Categories = []Category{
	ProfileCompletion,
	StudentEngagement,
	Referrals,
	ContentContribution,
	CampusEngagement,
	InnovationSupport,
	AlumniParticipation,
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	for _, c := range Categories {
		if string(c) == s {
			return c, nil
		}
	}
	return "", apperrors.NewValidationError("category", fmt.Sprintf("unknown points category %q", s))
}

// Balance is a user's points. Total is always derived from the buckets.
type Balance struct {
	ProfileCompletion   int `json:"profileCompletion"`
	StudentEngagement   int `json:"studentEngagement"`
	Referrals           int `json:"referrals"`
	ContentContribution int `json:"contentContribution"`
	CampusEngagement    int `json:"campusEngagement"`
	InnovationSupport   int `json:"innovationSupport"`
	AlumniParticipation int `json:"alumniParticipation"`
	Total               int `json:"total"`
}

func (b *Balance) bucket(c Category) *int {
	switch c {
	case ProfileCompletion:
		return &b.ProfileCompletion
	case StudentEngagement:
		return &b.StudentEngagement
	case Referrals:
		return &b.Referrals
	case ContentContribution:
		return &b.ContentContribution
	case CampusEngagement:
		return &b.CampusEngagement
	case InnovationSupport:
		return &b.InnovationSupport
	case AlumniParticipation:
		return &b.AlumniParticipation
	}
	return nil
}

// Get returns the value of one bucket.
func (b Balance) Get(c Category) int {
	if p := b.bucket(c); p != nil {
		return *p
	}
	return 0
}

// Sum adds up every known bucket.
func (b Balance) Sum() int {
	total := 0
	for _, c := range Categories {
		total += b.Get(c)
	}
	return total
}

// RecomputeTotal re-derives Total and reports whether it had drifted.
func (b *Balance) RecomputeTotal() bool {
	sum := b.Sum()
	drifted := b.Total != sum
	b.Total = sum
	return drifted
}

// Award adds amount to the category and re-derives the total.
func (b *Balance) Award(c Category, amount int) error {
	p := b.bucket(c)
	if p == nil {
		return apperrors.NewValidationError("category", fmt.Sprintf("unknown points category %q", c))
	}
	*p += amount
	b.RecomputeTotal()
	return nil
}

// Snapshot archives a year's total.
type Snapshot struct {
	Year  int `json:"year"`
	Total int `json:"total"`
}

// Ledger is the points state carried on a user record.
type Ledger struct {
	Balance                  Balance
	LastYear                 *Snapshot
	PostLog                  []time.Time
	ProfileCompletionAwarded bool
}

// Rollover snapshots the total for year and zeroes every bucket, the post log
// and the one-time profile completion flag.
func (l *Ledger) Rollover(year int) {
	l.Balance.RecomputeTotal()
	l.LastYear = &Snapshot{Year: year, Total: l.Balance.Total}
	l.Balance = Balance{}
	l.PostLog = nil
	l.ProfileCompletionAwarded = false
}
