package dto

import "time"

// ExportAlumniRow is one alumnus in the export listing.
type ExportAlumniRow struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Email            string `json:"email"`
	EnrollmentNumber string `json:"enrollmentNumber"`
	Course           string `json:"course"`
	Year             string `json:"year"`
	Phone            string `json:"phone"`
	LinkedIn         string `json:"linkedin"`
	CurrentCompany   string `json:"currentCompany"`
	Designation      string `json:"designation"`
	Industry         string `json:"industry"`
	TotalPoints      int    `json:"totalPoints"`
}

// DeleteUserResponse reports the outcome of the cascading delete.
type DeleteUserResponse struct {
	UserID       int64 `json:"userId"`
	PostsDeleted int64 `json:"postsDeleted"`
	MediaDeleted int   `json:"mediaDeleted"`
	MediaFailed  int   `json:"mediaFailed"`
}

// CreateEventRequest announces an alumni event.
type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required,max=200" example:"Homecoming 2025"`
	Date        time.Time `json:"date" binding:"required"`
	Location    string    `json:"location" binding:"required,max=300" example:"Main campus"`
	Description string    `json:"description" binding:"max=5000"`
}

// PresignRequest asks for a direct upload URL.
type PresignRequest struct {
	FileName    string `json:"fileName" binding:"required,max=255" example:"photo.png"`
	ContentType string `json:"contentType" binding:"required,max=100" example:"image/png"`
}

// MediaResponse is a stored media reference usable in posts and profiles.
type MediaResponse struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// PresignResponse carries a presigned PUT URL and the resulting media reference.
type PresignResponse struct {
	UploadURL string        `json:"uploadUrl"`
	Method    string        `json:"method" example:"PUT"`
	ExpiresIn int64         `json:"expiresIn" example:"900"`
	Media     MediaResponse `json:"media"`
}
