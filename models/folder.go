package models

import "time"

// Folder groups videos inside a project. Folders nest through ParentID.
type Folder struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Name      string    `json:"name" db:"name"`
	ParentID  *string   `json:"parent_id" db:"parent_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Children is only populated when folders are returned as a tree.
	Children []*Folder `json:"children,omitempty" db:"-"`
}
