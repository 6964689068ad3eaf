package repositories

import (
	"context"
	"time"

	"stratus/internal/domain/models"
)

// FileRepository defines data access operations for files.
type FileRepository interface {
	// Create inserts a new file row.
	Create(ctx context.Context, file *models.File) error

	// GetByID retrieves a file by ID.
	GetByID(ctx context.Context, id string) (*models.File, error)

	// ListByFolder lists the files directly inside a folder.
	ListByFolder(ctx context.Context, folderID string) ([]models.File, error)

	// Delete removes a file row.
	Delete(ctx context.Context, id string) error

	// ExtendShareExpiry marks the file shared and pushes expires_at to
	// candidate if that is later than the stored value. Returns the
	// persisted expiry, which is never earlier than what was there before.
	ExtendShareExpiry(ctx context.Context, id string, candidate time.Time) (time.Time, error)
}
