package services

import (
	"context"
	"io"

	"stratus/internal/domain/models"
)

// FileService handles file upload, fetch and deletion.
type FileService interface {
	// Upload stores the content in the blob store and records the file row.
	Upload(ctx context.Context, req *UploadRequest) (*models.File, error)

	// GetFile retrieves file metadata.
	GetFile(ctx context.Context, id string) (*models.File, error)

	// DeleteFile removes the blob object and then the row.
	DeleteFile(ctx context.Context, id string) error
}

// UploadRequest carries an upload into an existing folder.
type UploadRequest struct {
	OwnerID  string
	FolderID string
	FileName string
	Size     int64
	Content  io.Reader
}
