package models

import (
	"time"
)

// VideoStatus is the review state of a video.
type VideoStatus string

const (
	VideoStatusNoStatus   VideoStatus = "no_status"
	VideoStatusInProgress VideoStatus = "in_progress"
	VideoStatusReview     VideoStatus = "review"
	VideoStatusApproved   VideoStatus = "approved"
	VideoStatusRejected   VideoStatus = "rejected"
)

// Valid reports whether s is one of the known review states.
func (s VideoStatus) Valid() bool {
	switch s {
	case VideoStatusNoStatus, VideoStatusInProgress, VideoStatusReview, VideoStatusApproved, VideoStatusRejected:
		return true
	}
	return false
}

// Video represents an uploaded video file inside a folder.
type Video struct {
	ID          string      `json:"id" db:"id"`
	ProjectID   string      `json:"project_id" db:"project_id"`
	FolderID    string      `json:"folder_id" db:"folder_id"`
	Name        string      `json:"name" db:"name"`
	FilePath    string      `json:"file_path" db:"file_path"`
	FileSize    int64       `json:"file_size" db:"file_size"`
	FileType    string      `json:"file_type" db:"file_type"`
	Duration    *float64    `json:"duration" db:"duration"` // Nullable until the client reports it
	VideoStatus VideoStatus `json:"video_status" db:"video_status"`
	IsHidden    bool        `json:"is_hidden" db:"is_hidden"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`

	// Versions is filled in by folder listings.
	Versions []VideoVersion `json:"versions,omitempty" db:"-"`
}
