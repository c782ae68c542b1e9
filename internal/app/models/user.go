package models

import (
	"time"

	"github.com/yigit/alumnet/internal/domain/graph"
	"github.com/yigit/alumnet/internal/domain/points"
)

// Education is one education entry on a profile.
type Education struct {
	Degree       string `json:"degree" example:"BSc"`
	Institution  string `json:"institution" example:"State University"`
	FieldOfStudy string `json:"fieldOfStudy,omitempty" example:"Computer Science"`
	Year         string `json:"year,omitempty" example:"2019"`
}

// Experience is one work experience entry on a profile.
type Experience struct {
	Title       string `json:"title" example:"Software Engineer"`
	Company     string `json:"company" example:"Acme"`
	Duration    string `json:"duration,omitempty" example:"2019-2022"`
	Description string `json:"description,omitempty"`
}

// WorkProfile is the user's current professional situation.
type WorkProfile struct {
	CurrentCompany  string `json:"currentCompany,omitempty"`
	Designation     string `json:"designation,omitempty"`
	Industry        string `json:"industry,omitempty" example:"Fintech"`
	ExperienceYears int    `json:"experienceYears,omitempty"`
}

// JobPreferences describes what the user is looking for.
type JobPreferences struct {
	OpenToWork         bool     `json:"openToWork"`
	JobType            string   `json:"jobType,omitempty" example:"full-time"`
	PreferredLocations []string `json:"preferredLocations,omitempty"`
	PreferredRoles     []string `json:"preferredRoles,omitempty"`
}

// Profile holds every editable profile field. Stored as one JSONB column.
type Profile struct {
	Bio            string         `json:"bio,omitempty"`
	Job            string         `json:"job,omitempty"`
	Course         string         `json:"course,omitempty" example:"B.Tech CSE"`
	Year           string         `json:"year,omitempty" example:"2020"`
	ProfilePicture string         `json:"profilePicture,omitempty"`
	BannerImage    string         `json:"bannerImage,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Address        string         `json:"address,omitempty"`
	WhatsApp       string         `json:"whatsapp,omitempty"`
	LinkedIn       string         `json:"linkedin,omitempty"`
	Education      []Education    `json:"education,omitempty"`
	Experience     []Experience   `json:"experience,omitempty"`
	Skills         []string       `json:"skills,omitempty"`
	WorkProfile    WorkProfile    `json:"workProfile"`
	JobPreferences JobPreferences `json:"jobPreferences"`
}

// VisitStats counts profile views. TodayVisits resets when VisitDay changes.
type VisitStats struct {
	TotalVisits int    `json:"totalVisits"`
	TodayVisits int    `json:"todayVisits"`
	VisitDay    string `json:"-"`
}

// User defines the user model based on the 'users' table
type User struct {
	ID               int64  `json:"id" db:"id" example:"1"`
	Name             string `json:"name" db:"name" example:"Jane Doe"`
	Email            string `json:"email" db:"email" example:"jane@example.com"`
	Password         string `json:"-" db:"password"`
	Role             Role   `json:"role" db:"role" example:"alumni"`
	EnrollmentNumber string `json:"enrollmentNumber,omitempty" db:"enrollment_number"`
	EmployeeID       string `json:"employeeId,omitempty" db:"employee_id"`
	IsAdmin          bool   `json:"isAdmin" db:"is_admin"`
	IsMainAdmin      bool   `json:"isMainAdmin" db:"is_main_admin"`
	Approved         bool   `json:"approved" db:"approved"`

	Profile Profile `json:"profile" db:"profile"`

	graph.Relations

	Points                   points.Balance   `json:"points" db:"points"`
	LastYearPoints           *points.Snapshot `json:"lastYearPoints,omitempty" db:"last_year_points"`
	PostPointLog             []time.Time      `json:"-" db:"post_point_log"`
	ProfileCompletionAwarded bool             `json:"profileCompletionAwarded" db:"profile_completion_awarded"`

	VisitStats VisitStats `json:"visitStats"`

	Version   int       `json:"-" db:"version"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// IsAlumni reports whether the user takes part in the points ledger.
func (u *User) IsAlumni() bool {
	return u.Role == RoleAlumni
}

// Ledger returns the user's points state.
func (u *User) Ledger() points.Ledger {
	return points.Ledger{
		Balance:                  u.Points,
		LastYear:                 u.LastYearPoints,
		PostLog:                  u.PostPointLog,
		ProfileCompletionAwarded: u.ProfileCompletionAwarded,
	}
}

// SetLedger writes points state back onto the user.
func (u *User) SetLedger(l points.Ledger) {
	u.Points = l.Balance
	u.LastYearPoints = l.LastYear
	u.PostPointLog = l.PostLog
	u.ProfileCompletionAwarded = l.ProfileCompletionAwarded
}

// Checklist projects the profile onto the completion checklist.
func (u *User) Checklist() points.ProfileChecklist {
	c := points.ProfileChecklist{
		ProfilePicture: u.Profile.ProfilePicture,
		BannerImage:    u.Profile.BannerImage,
		Phone:          u.Profile.Phone,
		WhatsApp:       u.Profile.WhatsApp,
		LinkedIn:       u.Profile.LinkedIn,
		Address:        u.Profile.Address,
		Bio:            u.Profile.Bio,
	}
	for _, e := range u.Profile.Education {
		c.Education = append(c.Education, points.EducationEntry{Degree: e.Degree, Institution: e.Institution})
	}
	for _, e := range u.Profile.Experience {
		c.Experience = append(c.Experience, points.ExperienceEntry{Title: e.Title, Company: e.Company})
	}
	return c
}

// MediaURLs lists the profile images stored on the user record.
func (u *User) MediaURLs() []string {
	var urls []string
	if u.Profile.ProfilePicture != "" {
		urls = append(urls, u.Profile.ProfilePicture)
	}
	if u.Profile.BannerImage != "" {
		urls = append(urls, u.Profile.BannerImage)
	}
	return urls
}

// RecordVisit applies one profile view to the stats. lastVisit is the
// visitor's previous view of this profile, nil on a first visit. A repeat
// visitor counts toward today once per calendar day and toward the total
// once per calendar year.
func (s *VisitStats) RecordVisit(lastVisit *time.Time, now time.Time) {
	today := now.Format(time.DateOnly)
	if s.VisitDay != today {
		s.VisitDay = today
		s.TodayVisits = 0
	}

	if lastVisit == nil {
		s.TotalVisits++
		s.TodayVisits++
		return
	}
	if lastVisit.Format(time.DateOnly) != today {
		s.TodayVisits++
	}
	if lastVisit.Year() != now.Year() {
		s.TotalVisits++
	}
}
