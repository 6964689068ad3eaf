package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"stratus/internal/config"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
	"stratus/internal/domain/services"
	"stratus/internal/domain/storage"
	"stratus/internal/filetype"
)

type fileService struct {
	fileRepo   repositories.FileRepository
	folderRepo repositories.FolderRepository
	blobs      storage.BlobStore
	filetypes  *filetype.Registry
	logger     *slog.Logger
}

// NewFileService creates a new file service.
func NewFileService(
	fileRepo repositories.FileRepository,
	folderRepo repositories.FolderRepository,
	blobs storage.BlobStore,
	filetypes *filetype.Registry,
	logger *slog.Logger,
) services.FileService {
	return &fileService{
		fileRepo:   fileRepo,
		folderRepo: folderRepo,
		blobs:      blobs,
		filetypes:  filetypes,
		logger:     logger,
	}
}

// Upload stores the content under an owner-scoped random key, then records
// the file row pointing at it.
func (s *fileService) Upload(ctx context.Context, req *services.UploadRequest) (*models.File, error) {
	if err := s.validateUpload(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	// The target folder must exist; files never float outside the tree.
	folder, err := s.folderRepo.GetByID(ctx, req.FolderID)
	if err != nil {
		return nil, fmt.Errorf("parent folder not found: %w", err)
	}

	entry := s.filetypes.Lookup(req.FileName)
	blobKey := fmt.Sprintf("%s/%s", req.OwnerID, uuid.NewString())

	if err := s.blobs.Put(ctx, blobKey, req.Content, req.Size, entry.MIMEType); err != nil {
		return nil, fmt.Errorf("failed to store file content: %w", err)
	}

	file := &models.File{
		FileName:       req.FileName,
		Size:           req.Size,
		OwnerID:        req.OwnerID,
		ParentFolderID: folder.ID,
		BlobKey:        blobKey,
		ContentType:    entry.MIMEType,
		CreatedAt:      time.Now(),
	}

	if err := s.fileRepo.Create(ctx, file); err != nil {
		// The blob is already written; try not to leave it orphaned.
		if rmErr := s.blobs.Remove(ctx, blobKey); rmErr != nil {
			s.logger.Warn("failed to clean up blob after insert failure",
				"blob_key", blobKey,
				"error", rmErr,
			)
		}
		return nil, err
	}

	s.logger.Info("file uploaded",
		"id", file.ID,
		"name", file.FileName,
		"size", file.Size,
		"folder_id", folder.ID,
		"content_type", file.ContentType,
	)

	return file, nil
}

// GetFile retrieves file metadata.
func (s *fileService) GetFile(ctx context.Context, id string) (*models.File, error) {
	return s.fileRepo.GetByID(ctx, id)
}

// DeleteFile removes the blob object and then the row. Ordering matters:
// the row goes last so no row ever references an unattempted blob delete.
func (s *fileService) DeleteFile(ctx context.Context, id string) error {
	file, err := s.fileRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if file.BlobKey != "" {
		if err := s.blobs.Remove(ctx, file.BlobKey); err != nil {
			return fmt.Errorf("failed to delete file content: %w", err)
		}
	}

	if err := s.fileRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("file deleted", "id", id, "name", file.FileName)
	return nil
}

func (s *fileService) validateUpload(req *services.UploadRequest) error {
	if req == nil {
		return fmt.Errorf("upload request is required")
	}
	if req.Content == nil {
		return fmt.Errorf("file content is required")
	}
	return validation.Errors{
		"file_name": validation.Validate(req.FileName,
			validation.Required,
			validation.Length(1, config.MaxFileNameLength),
			validation.Match(folderNamePattern).Error("file name cannot contain slashes"),
		),
		"folder_id": validation.Validate(req.FolderID, validation.Required),
		"owner_id":  validation.Validate(req.OwnerID, validation.Required),
	}.Filter()
}
