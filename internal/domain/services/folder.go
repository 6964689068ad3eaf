package services

import (
	"context"

	"stratus/internal/domain/models"
)

// FolderService owns the folder hierarchy: root provisioning, fetch (flat
// and recursive), subfolder creation, ancestor resolution and recursive
// deletion.
type FolderService interface {
	// CreateRootFolder returns the principal's root folder, creating it on
	// first access. Idempotent; concurrent first calls converge on one row.
	CreateRootFolder(ctx context.Context, principal *models.Principal) (*models.Folder, error)

	// GetFolder retrieves a folder with its immediate files and subfolders.
	GetFolder(ctx context.Context, id string) (*models.Folder, error)

	// CreateSubfolder creates a non-root folder under parent. Sibling name
	// collisions are the caller's responsibility to pre-check.
	CreateSubfolder(ctx context.Context, parent *models.Folder, name string, root *models.Folder, ownerID string) (*models.Folder, error)

	// GetFolderRecursively returns the folder and every descendant as a
	// nested tree, or nil when the folder does not exist.
	GetFolderRecursively(ctx context.Context, id string) (*models.FolderTreeNode, error)

	// DeleteFolderRecursively deletes the subtree depth-first, best-effort.
	// Per-node failures are logged, not raised.
	DeleteFolderRecursively(ctx context.Context, id string) error

	// GetAncestors returns the root-to-leaf breadcrumb chain for folderID,
	// or the principal's root as a single-element chain when folderID is
	// nil. Returns nil when the starting folder does not exist.
	GetAncestors(ctx context.Context, folderID *string, principal *models.Principal) ([]models.Ancestor, error)
}

// IdentityClient is the slice of the identity provider the folder service
// needs: updating the mutable metadata bag that caches the root folder id.
type IdentityClient interface {
	CacheRootFolderID(ctx context.Context, userID, folderID string) error
}
