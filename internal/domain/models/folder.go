package models

import (
	"time"
)

// Folder is one node of a user's folder tree. Exactly one folder per owner
// has IsRoot set; every other folder points at a parent via ParentFolderID.
type Folder struct {
	ID             string     `json:"id" db:"id"`
	FolderName     string     `json:"folder_name" db:"folder_name"`
	DisplayName    string     `json:"display_name" db:"display_name"`
	IsRoot         bool       `json:"is_root" db:"is_root"`
	OwnerID        string     `json:"owner_id" db:"owner_id"`
	ParentFolderID *string    `json:"parent_folder_id" db:"parent_folder_id"` // NULL only for root folders
	BlobPath       string     `json:"blob_path" db:"blob_path"`
	BlobKey        string     `json:"blob_key" db:"blob_key"` // key of the .folder-info marker object
	Shared         bool       `json:"shared" db:"shared"`
	ShareToken     *string    `json:"share_token,omitempty" db:"share_token"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`

	// Immediate children, populated on fetch paths that load them.
	Subfolders []Folder `json:"subfolders,omitempty"`
	Files      []File   `json:"files,omitempty"`
}

// HasChildren reports whether the loaded children collections are non-empty.
// Only meaningful after the children have been attached.
func (f *Folder) HasChildren() bool {
	return len(f.Subfolders) > 0 || len(f.Files) > 0
}

// ShareActive reports whether the folder share is currently within its
// window. A past ExpiresAt makes the share logically inactive even though
// Shared stays true (lazy expiration).
func (f *Folder) ShareActive(now time.Time) bool {
	if !f.Shared || f.ShareToken == nil {
		return false
	}
	if f.ExpiresAt != nil && f.ExpiresAt.Before(now) {
		return false
	}
	return true
}

// FolderTreeNode is a folder with its full descendant tree attached.
type FolderTreeNode struct {
	ID             string            `json:"id"`
	FolderName     string            `json:"folder_name"`
	DisplayName    string            `json:"display_name"`
	IsRoot         bool              `json:"is_root"`
	ParentFolderID *string           `json:"parent_folder_id"`
	CreatedAt      time.Time         `json:"created_at"`
	Subfolders     []*FolderTreeNode `json:"subfolders"` // Pointers for proper nesting
	Files          []File            `json:"files"`
}

// Ancestor is one entry of a root-to-leaf breadcrumb chain.
type Ancestor struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	ParentID *string `json:"parent_id"`
}
