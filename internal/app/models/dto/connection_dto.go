package dto

import "github.com/yigit/alumnet/internal/app/models"

// ConnectTargetRequest addresses the user a request is sent to or withdrawn from.
type ConnectTargetRequest struct {
	To int64 `json:"to" binding:"required,gt=0" example:"9"`
}

// ConnectSourceRequest addresses the user whose request is being answered.
type ConnectSourceRequest struct {
	From int64 `json:"from" binding:"required,gt=0" example:"9"`
}

// ConnectionUser is a user card in connection lists, suggestions and search.
type ConnectionUser struct {
	ID               int64       `json:"id" example:"9"`
	Name             string      `json:"name" example:"Sam Lee"`
	Email            string      `json:"email,omitempty"`
	Role             models.Role `json:"role" example:"alumni"`
	EnrollmentNumber string      `json:"enrollmentNumber,omitempty"`
	ProfilePicture   string      `json:"profilePicture,omitempty"`
	Job              string      `json:"job,omitempty"`
	Course           string      `json:"course,omitempty"`
	Year             string      `json:"year,omitempty"`
	Connections      int         `json:"connectionCount"`
	IsConnected      bool        `json:"isConnected"`
}

// NewConnectionUsers renders users as cards. connected marks which of them
// the viewer is already connected to; it may be nil.
func NewConnectionUsers(users []*models.User, connected func(id int64) bool) []ConnectionUser {
	out := make([]ConnectionUser, 0, len(users))
	for _, u := range users {
		card := ConnectionUser{
			ID:               u.ID,
			Name:             u.Name,
			Email:            u.Email,
			Role:             u.Role,
			EnrollmentNumber: u.EnrollmentNumber,
			ProfilePicture:   u.Profile.ProfilePicture,
			Job:              u.Profile.Job,
			Course:           u.Profile.Course,
			Year:             u.Profile.Year,
			Connections:      len(u.Connections),
		}
		if connected != nil {
			card.IsConnected = connected(u.ID)
		}
		out = append(out, card)
	}
	return out
}

// SuggestionsResponse groups connection suggestions.
type SuggestionsResponse struct {
	NewAlumni      []ConnectionUser `json:"newAlumni"`
	TopConnections []ConnectionUser `json:"topConnections"`
	RelatedPeople  []ConnectionUser `json:"relatedPeople"`
}
