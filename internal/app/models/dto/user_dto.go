package dto

import (
	"time"

	"github.com/yigit/alumnet/internal/app/models"
	"github.com/yigit/alumnet/internal/domain/points"
)

// UserSummary is the display identity attached to content and notifications.
type UserSummary struct {
	ID             int64  `json:"id" example:"7"`
	Name           string `json:"name" example:"Jane Doe"`
	ProfilePicture string `json:"profilePicture,omitempty"`
}

// NewUserSummary builds the display identity of u.
func NewUserSummary(u *models.User) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, ProfilePicture: u.Profile.ProfilePicture}
}

// UserResponse is a full profile view.
type UserResponse struct {
	ID                       int64             `json:"id" example:"7"`
	Name                     string            `json:"name" example:"Jane Doe"`
	Email                    string            `json:"email" example:"jane@example.com"`
	Role                     models.Role       `json:"role" example:"alumni"`
	EnrollmentNumber         string            `json:"enrollmentNumber,omitempty"`
	EmployeeID               string            `json:"employeeId,omitempty"`
	IsAdmin                  bool              `json:"isAdmin"`
	IsMainAdmin              bool              `json:"isMainAdmin"`
	Approved                 bool              `json:"approved"`
	Profile                  models.Profile    `json:"profile"`
	Connections              []int64           `json:"connections"`
	PendingRequests          []int64           `json:"pendingRequests,omitempty"`
	SentRequests             []int64           `json:"sentRequests,omitempty"`
	Points                   *points.Balance   `json:"points,omitempty"`
	LastYearPoints           *points.Snapshot  `json:"lastYearPoints,omitempty"`
	ProfileCompletionAwarded bool              `json:"profileCompletionAwarded"`
	VisitStats               models.VisitStats `json:"visitStats"`
	CreatedAt                time.Time         `json:"createdAt"`
}

// NewUserResponse renders u. Pending and sent request lists are only
// included for the owner.
func NewUserResponse(u *models.User, owner bool) UserResponse {
	resp := UserResponse{
		ID:                       u.ID,
		Name:                     u.Name,
		Email:                    u.Email,
		Role:                     u.Role,
		EnrollmentNumber:         u.EnrollmentNumber,
		EmployeeID:               u.EmployeeID,
		IsAdmin:                  u.IsAdmin,
		IsMainAdmin:              u.IsMainAdmin,
		Approved:                 u.Approved,
		Profile:                  u.Profile,
		Connections:              nonNil(u.Connections),
		LastYearPoints:           u.LastYearPoints,
		ProfileCompletionAwarded: u.ProfileCompletionAwarded,
		VisitStats:               u.VisitStats,
		CreatedAt:                u.CreatedAt,
	}
	if u.IsAlumni() {
		balance := u.Points
		resp.Points = &balance
	}
	if owner {
		resp.PendingRequests = nonNil(u.PendingRequests)
		resp.SentRequests = nonNil(u.SentRequests)
	}
	return resp
}

// NewUserResponses renders a list of users for admin views.
func NewUserResponses(users []*models.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, NewUserResponse(u, false))
	}
	return out
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}

// UpdateProfileRequest is a partial profile update; nil fields are left as is.
type UpdateProfileRequest struct {
	Name           *string                `json:"name" binding:"omitempty,min=2,max=100"`
	Bio            *string                `json:"bio" binding:"omitempty,max=1000"`
	Job            *string                `json:"job" binding:"omitempty,max=200"`
	Course         *string                `json:"course" binding:"omitempty,max=100"`
	Year           *string                `json:"year" binding:"omitempty,max=10"`
	ProfilePicture *string                `json:"profilePicture" binding:"omitempty,max=2048"`
	BannerImage    *string                `json:"bannerImage" binding:"omitempty,max=2048"`
	Phone          *string                `json:"phone" binding:"omitempty,max=30"`
	Address        *string                `json:"address" binding:"omitempty,max=300"`
	WhatsApp       *string                `json:"whatsapp" binding:"omitempty,max=30"`
	LinkedIn       *string                `json:"linkedin" binding:"omitempty,max=300"`
	Education      *[]models.Education    `json:"education" binding:"omitempty,max=20"`
	Experience     *[]models.Experience   `json:"experience" binding:"omitempty,max=30"`
	Skills         *[]string              `json:"skills" binding:"omitempty,max=50"`
	WorkProfile    *models.WorkProfile    `json:"workProfile"`
	JobPreferences *models.JobPreferences `json:"jobPreferences"`
}

// UserFilter narrows the admin export and search listings.
type UserFilter struct {
	Query    string `form:"query" binding:"omitempty,max=100"`
	Course   string `form:"course" binding:"omitempty,max=100"`
	Year     string `form:"year" binding:"omitempty,max=10"`
	Industry string `form:"industry" binding:"omitempty,max=100"`
}

// RankedUser is a leaderboard or award eligibility row.
type RankedUser struct {
	Rank           int    `json:"rank" example:"1"`
	ID             int64  `json:"id" example:"7"`
	Name           string `json:"name" example:"Jane Doe"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	Course         string `json:"course,omitempty"`
	Year           string `json:"year,omitempty"`
	Total          int    `json:"total" example:"120"`
}

// NewRankedUsers ranks users in the given order using total(u) as the score.
func NewRankedUsers(users []*models.User, total func(*models.User) int) []RankedUser {
	out := make([]RankedUser, 0, len(users))
	for i, u := range users {
		out = append(out, RankedUser{
			Rank:           i + 1,
			ID:             u.ID,
			Name:           u.Name,
			ProfilePicture: u.Profile.ProfilePicture,
			Course:         u.Profile.Course,
			Year:           u.Profile.Year,
			Total:          total(u),
		})
	}
	return out
}
