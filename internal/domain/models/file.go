package models

import (
	"time"
)

// File is an uploaded object. Every file belongs to exactly one folder.
type File struct {
	ID             string     `json:"id" db:"id"`
	FileName       string     `json:"file_name" db:"file_name"`
	Size           int64      `json:"size" db:"size"`
	OwnerID        string     `json:"owner_id" db:"owner_id"`
	ParentFolderID string     `json:"parent_folder_id" db:"parent_folder_id"`
	BlobKey        string     `json:"blob_key" db:"blob_key"`
	ContentType    string     `json:"content_type" db:"content_type"`
	Shared         bool       `json:"shared" db:"shared"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// ShareLink is a time-limited public link to a folder or file.
type ShareLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
