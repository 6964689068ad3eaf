package repositories

import (
	"context"
	"time"

	"stratus/internal/domain/models"
)

// FolderRepository defines data access operations for folders.
type FolderRepository interface {
	// Create inserts a new folder. A unique-constraint hit on the
	// one-root-per-owner index surfaces as domain.ErrConflict so callers
	// can fall back to a read instead of failing.
	Create(ctx context.Context, folder *models.Folder) error

	// GetByID retrieves a folder by ID without children.
	GetByID(ctx context.Context, id string) (*models.Folder, error)

	// GetRootByOwner retrieves the owner's root folder.
	GetRootByOwner(ctx context.Context, ownerID string) (*models.Folder, error)

	// ListSubfolders lists the immediate child folders of a parent.
	ListSubfolders(ctx context.Context, parentID string) ([]models.Folder, error)

	// Delete removes a single folder row.
	Delete(ctx context.Context, id string) error

	// SetShare overwrites the folder's sharing state with a fresh token
	// and expiry. Folder sharing replaces, never extends.
	SetShare(ctx context.Context, id, token string, expiresAt time.Time) error

	// GetByShareToken retrieves a folder by its share token.
	GetByShareToken(ctx context.Context, token string) (*models.Folder, error)
}
