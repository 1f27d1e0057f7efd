package models

import "time"

// VideoVersion is an alternate rendition of a Video. SourceVideoID names the video
// (or the target itself for direct uploads) the rendition came from.
type VideoVersion struct {
	ID            string    `json:"id" db:"id"`
	ProjectID     string    `json:"project_id" db:"project_id"`
	FolderID      string    `json:"folder_id" db:"folder_id"`
	VideoID       string    `json:"video_id" db:"video_id"`
	SourceVideoID string    `json:"source_video_id" db:"source_video_id"`
	FilePath      string    `json:"file_path" db:"file_path"`
	FileSize      int64     `json:"file_size" db:"file_size"`
	FileType      string    `json:"file_type" db:"file_type"`
	Duration      *float64  `json:"duration" db:"duration"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`

	// IsOriginal marks the implicit version zero built from the video itself.
	IsOriginal bool `json:"is_original,omitempty" db:"-"`
}
