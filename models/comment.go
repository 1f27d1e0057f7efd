package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Comment is a timestamped note on a video. Replies reference their parent via ParentID.
type Comment struct {
	ID          string       `json:"id" db:"id"`
	ProjectID   string       `json:"project_id" db:"project_id"`
	FolderID    string       `json:"folder_id" db:"folder_id"`
	VideoID     string       `json:"video_id" db:"video_id"`
	ParentID    *string      `json:"parent_id" db:"parent_id"`
	UserName    string       `json:"user_name" db:"user_name"`
	UserEmail   string       `json:"user_email" db:"user_email"`
	Text        string       `json:"text" db:"text"`
	VideoTime   float64      `json:"video_time" db:"video_time"`
	DrawingData *DrawingData `json:"drawing_data" db:"drawing_data"`
	Likes       int          `json:"likes" db:"likes"`
	LikedBy     EmailSet     `json:"liked_by" db:"liked_by"`
	Resolved    bool         `json:"resolved" db:"resolved"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" db:"updated_at"`

	Replies []*Comment `json:"replies" db:"-"`
}

// DrawingData is a raster annotation tied to a playback timestamp.
type DrawingData struct {
	ImageData string  `json:"imageData"`
	Timestamp float64 `json:"timestamp"`

	legacy bool // read from a bare data URI column, timestamp not stored
}

// SettleTimestamp gives a drawing read from the bare data URI form the timestamp of
// its comment. Drawings stored as objects are left alone.
func (d *DrawingData) SettleTimestamp(videoTime float64) {
	if d == nil || !d.legacy {
		return
	}
	d.Timestamp = videoTime
	d.legacy = false
}

// Value stores the drawing as a JSON object.
func (d DrawingData) Value() (driver.Value, error) {
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan accepts the JSON object form. Rows written before the object form existed hold
// a bare data URI; the repository settles their timestamp from the comment.
func (d *DrawingData) Scan(src interface{}) error {
	var raw string
	switch v := src.(type) {
	case string:
		raw = v
	case []byte:
		raw = string(v)
	case nil:
		*d = DrawingData{}
		return nil
	default:
		return fmt.Errorf("drawing_data: unsupported type %T", src)
	}
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "{") {
		*d = DrawingData{}
		return json.Unmarshal([]byte(raw), d)
	}
	*d = DrawingData{ImageData: raw, legacy: true}
	return nil
}

// EmailSet is the set of emails that liked a comment, persisted as a JSON array.
// Order of insertion is preserved.
type EmailSet []string

// Has reports whether email is a member.
func (s EmailSet) Has(email string) bool {
	for _, e := range s {
		if e == email {
			return true
		}
	}
	return false
}

// Add returns the set with email added.
func (s EmailSet) Add(email string) EmailSet {
	if s.Has(email) {
		return s
	}
	out := make(EmailSet, 0, len(s)+1)
	out = append(out, s...)
	return append(out, email)
}

// Remove returns the set without email.
func (s EmailSet) Remove(email string) EmailSet {
	out := make(EmailSet, 0, len(s))
	for _, e := range s {
		if e != email {
			out = append(out, e)
		}
	}
	return out
}

// Value encodes the set as a JSON array; an empty set is "[]".
func (s EmailSet) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan decodes a JSON array. NULL and empty strings decode to an empty set.
func (s *EmailSet) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	case nil:
		*s = EmailSet{}
		return nil
	default:
		return fmt.Errorf("liked_by: unsupported type %T", src)
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		*s = EmailSet{}
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("liked_by: %w", err)
	}
	*s = EmailSet(list)
	return nil
}

// MarshalJSON always renders an array, never null.
func (s EmailSet) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(s))
}
