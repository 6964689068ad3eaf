package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"stratus/internal/config"
	"stratus/internal/domain"
	"stratus/internal/domain/repositories"
	"stratus/internal/domain/services"
)

type membershipValidator struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.FileRepository
	logger     *slog.Logger
}

// NewMembershipValidator creates the validator used by the sharing engine
// to scope token-based file access to a shared folder's subtree.
func NewMembershipValidator(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	logger *slog.Logger,
) services.MembershipValidator {
	return &membershipValidator{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		logger:     logger,
	}
}

// FileInRootFolder walks the file's folder-ancestor chain upward, one read
// per level, and reports whether candidateFolderID appears in it. A missing
// file or candidate folder yields false, not an error. O(depth) reads are
// fine for the shallow trees this system sees; deep hierarchies would want
// a materialized path instead.
func (v *membershipValidator) FileInRootFolder(ctx context.Context, candidateFolderID, fileID string) (bool, error) {
	file, err := v.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if _, err := v.folderRepo.GetByID(ctx, candidateFolderID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	currentID := file.ParentFolderID
	for i := 0; i < config.MaxTreeDepth; i++ {
		if currentID == candidateFolderID {
			return true, nil
		}
		folder, err := v.folderRepo.GetByID(ctx, currentID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return false, nil
			}
			return false, err
		}
		if folder.ParentFolderID == nil {
			return false, nil
		}
		currentID = *folder.ParentFolderID
	}

	return false, fmt.Errorf("ancestor chain exceeds maximum depth of %d", config.MaxTreeDepth)
}
