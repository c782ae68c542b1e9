package points

import (
	"strings"
	"time"
)

// Rules are the tunable reward amounts and limits.
type Rules struct {
	ProfileCompletionPoints int
	ConnectionPoints        int
	PostPoints              int
	PostLimitCount          int
	PostLimitDays           int
}

// AllowPost reports whether another post award fits in the trailing window
// and returns the log trimmed to that window.
func AllowPost(log []time.Time, now time.Time, limit, days int) (bool, []time.Time) {
	if limit < 1 || days < 1 {
		return false, log
	}
	cutoff := now.Add(-time.Duration(days) * 24 * time.Hour)
	recent := make([]time.Time, 0, len(log))
	for _, ts := range log {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	return len(recent) < limit, recent
}

// AwardPost grants the post reward when the rate limit allows it and returns
// the amount granted.
func (l *Ledger) AwardPost(r Rules, now time.Time) int {
	ok, recent := AllowPost(l.PostLog, now, r.PostLimitCount, r.PostLimitDays)
	l.PostLog = recent
	if !ok || r.PostPoints <= 0 {
		return 0
	}
	l.PostLog = append(l.PostLog, now)
	_ = l.Balance.Award(ContentContribution, r.PostPoints)
	return r.PostPoints
}

// AwardProfileCompletion grants the one-time reward when the profile is
// complete and it has not been granted before.
func (l *Ledger) AwardProfileCompletion(r Rules, p ProfileChecklist) int {
	if l.ProfileCompletionAwarded || !p.Complete() {
		return 0
	}
	l.ProfileCompletionAwarded = true
	_ = l.Balance.Award(ProfileCompletion, r.ProfileCompletionPoints)
	return r.ProfileCompletionPoints
}

// AwardConnection grants the reward for an accepted connection.
func (l *Ledger) AwardConnection(r Rules) int {
	if r.ConnectionPoints <= 0 {
		return 0
	}
	_ = l.Balance.Award(AlumniParticipation, r.ConnectionPoints)
	return r.ConnectionPoints
}

// EducationEntry is the slice of an education record the checklist reads.
type EducationEntry struct {
	Degree      string
	Institution string
}

// ExperienceEntry is the slice of an experience record the checklist reads.
type ExperienceEntry struct {
	Title   string
	Company string
}

// ProfileChecklist is the set of profile facts that decide completeness.
type ProfileChecklist struct {
	ProfilePicture string
	BannerImage    string
	Phone          string
	WhatsApp       string
	LinkedIn       string
	Address        string
	Bio            string
	Education      []EducationEntry
	Experience     []ExperienceEntry
}

// MinEducationEntries is how many complete education entries are required.
const MinEducationEntries = 2

// Complete reports whether every checklist item is filled in.
func (p ProfileChecklist) Complete() bool {
	for _, f := range []string{p.ProfilePicture, p.BannerImage, p.Phone, p.WhatsApp, p.LinkedIn, p.Address, p.Bio} {
		if strings.TrimSpace(f) == "" {
			return false
		}
	}

	education := 0
	for _, e := range p.Education {
		if strings.TrimSpace(e.Degree) != "" && strings.TrimSpace(e.Institution) != "" {
			education++
		}
	}
	if education < MinEducationEntries {
		return false
	}

	for _, e := range p.Experience {
		if strings.TrimSpace(e.Title) != "" && strings.TrimSpace(e.Company) != "" {
			return true
		}
	}
	return false
}
