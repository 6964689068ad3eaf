package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"stratus/internal/config"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
	"stratus/internal/domain/services"
	"stratus/internal/domain/storage"
)

// folderMarkerName is the object written under every folder's blob path to
// prove the folder's existence in the object-store namespace.
const folderMarkerName = ".folder-info"

var folderNamePattern = regexp.MustCompile(`^[^/]+$`)

type folderService struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.FileRepository
	blobs      storage.BlobStore
	identity   services.IdentityClient
	txManager  repositories.TransactionManager
	logger     *slog.Logger
}

// NewFolderService creates a new folder hierarchy service.
func NewFolderService(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	blobs storage.BlobStore,
	identity services.IdentityClient,
	txManager repositories.TransactionManager,
	logger *slog.Logger,
) services.FolderService {
	return &folderService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobs:      blobs,
		identity:   identity,
		txManager:  txManager,
		logger:     logger,
	}
}

// CreateRootFolder returns the principal's root folder, creating it inside
// a transaction on first access. When two first-time requests race, the
// partial unique index on (owner_id) WHERE is_root guarantees a single
// winner; the loser sees a conflict and falls back to reading that row.
func (s *folderService) CreateRootFolder(ctx context.Context, principal *models.Principal) (*models.Folder, error) {
	if principal == nil || principal.ID == "" {
		return nil, fmt.Errorf("%w: missing principal", domain.ErrValidation)
	}

	var folder *models.Folder
	var created bool

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		existing, err := s.folderRepo.GetRootByOwner(txCtx, principal.ID)
		if err == nil {
			folder = existing
			return nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}

		name := principal.FullName()
		now := time.Now()
		candidate := &models.Folder{
			FolderName:  name,
			DisplayName: name,
			IsRoot:      true,
			OwnerID:     principal.ID,
			BlobPath:    name,
			BlobKey:     name + "/" + folderMarkerName,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.folderRepo.Create(txCtx, candidate); err != nil {
			return err
		}
		folder = candidate
		created = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("failed to provision root folder: %w", err)
		}
		// Lost the provisioning race. The aborted transaction is gone;
		// re-read the winner's row on a fresh connection.
		folder, err = s.folderRepo.GetRootByOwner(ctx, principal.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch root folder after conflict: %w", err)
		}
	}

	if err := s.attachChildren(ctx, folder); err != nil {
		return nil, err
	}

	// An existing root with content is treated as fully provisioned; the
	// marker write is skipped in that case.
	if created || !folder.HasChildren() {
		if err := s.writeMarker(ctx, folder); err != nil {
			return nil, fmt.Errorf("failed to write folder marker: %w", err)
		}
	}

	if principal.RootFolderID == "" {
		if err := s.identity.CacheRootFolderID(ctx, principal.ID, folder.ID); err != nil {
			// The metadata slot is a cache; losing the write only costs a
			// lookup on the next request.
			s.logger.Warn("failed to cache root folder id",
				"owner_id", principal.ID,
				"folder_id", folder.ID,
				"error", err,
			)
		} else {
			principal.RootFolderID = folder.ID
		}
	}

	if created {
		s.logger.Info("root folder created",
			"id", folder.ID,
			"owner_id", principal.ID,
			"display_name", folder.DisplayName,
		)
	}

	return folder, nil
}

// GetFolder retrieves a folder with its immediate files and subfolders.
func (s *folderService) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.attachChildren(ctx, folder); err != nil {
		return nil, err
	}

	return folder, nil
}

// CreateSubfolder creates a non-root folder under parent. Blob addressing
// derives from the root folder's name so all of an owner's objects live
// under one object-store prefix. Sibling-name collision checks are the
// caller's job; only the root-folder invariant is enforced here.
func (s *folderService) CreateSubfolder(ctx context.Context, parent *models.Folder, name string, root *models.Folder, ownerID string) (*models.Folder, error) {
	if err := validateFolderName(name); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if parent == nil || root == nil {
		return nil, fmt.Errorf("%w: parent and root folders are required", domain.ErrValidation)
	}

	blobPath := root.FolderName + "/" + name
	now := time.Now()
	folder := &models.Folder{
		FolderName:     name,
		DisplayName:    name,
		OwnerID:        ownerID,
		ParentFolderID: &parent.ID,
		BlobPath:       blobPath,
		BlobKey:        blobPath + "/" + folderMarkerName,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.folderRepo.Create(ctx, folder); err != nil {
		return nil, err
	}

	if err := s.writeMarker(ctx, folder); err != nil {
		return nil, fmt.Errorf("failed to write folder marker: %w", err)
	}

	parent.Subfolders = append(parent.Subfolders, *folder)

	s.logger.Info("subfolder created",
		"id", folder.ID,
		"name", name,
		"parent_id", parent.ID,
		"owner_id", ownerID,
	)

	return folder, nil
}

// GetFolderRecursively returns the folder and every descendant as a nested
// tree, nil when the folder does not exist. One shallow fetch per node.
func (s *folderService) GetFolderRecursively(ctx context.Context, id string) (*models.FolderTreeNode, error) {
	return s.fetchTree(ctx, id, 0)
}

func (s *folderService) fetchTree(ctx context.Context, id string, depth int) (*models.FolderTreeNode, error) {
	// The parent graph is acyclic by constraint; the cap only matters if
	// the store is corrupted.
	if depth >= config.MaxTreeDepth {
		return nil, fmt.Errorf("folder tree exceeds maximum depth of %d", config.MaxTreeDepth)
	}

	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	files, err := s.fileRepo.ListByFolder(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	if files == nil {
		files = []models.File{}
	}

	node := &models.FolderTreeNode{
		ID:             folder.ID,
		FolderName:     folder.FolderName,
		DisplayName:    folder.DisplayName,
		IsRoot:         folder.IsRoot,
		ParentFolderID: folder.ParentFolderID,
		CreatedAt:      folder.CreatedAt,
		Subfolders:     []*models.FolderTreeNode{},
		Files:          files,
	}

	subfolders, err := s.folderRepo.ListSubfolders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list subfolders: %w", err)
	}
	for _, sub := range subfolders {
		child, err := s.fetchTree(ctx, sub.ID, depth+1)
		if err != nil {
			return nil, err
		}
		if child != nil {
			node.Subfolders = append(node.Subfolders, child)
		}
	}

	return node, nil
}

// DeleteFolderRecursively deletes the subtree depth-first. Deletion is
// best-effort: blob failures are logged and skipped so the rest of the tree
// still gets processed. Durable rows are deleted only after their blob
// delete has been attempted, so rows never outlive unattempted blobs.
func (s *folderService) DeleteFolderRecursively(ctx context.Context, id string) error {
	return s.deleteTree(ctx, id, 0)
}

func (s *folderService) deleteTree(ctx context.Context, id string, depth int) error {
	if depth >= config.MaxTreeDepth {
		return fmt.Errorf("folder tree exceeds maximum depth of %d", config.MaxTreeDepth)
	}

	folder, err := s.folderRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	files, err := s.fileRepo.ListByFolder(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	for _, file := range files {
		if file.BlobKey != "" {
			if err := s.blobs.Remove(ctx, file.BlobKey); err != nil {
				// Skip the row too; a later retry can still find the file.
				s.logger.Warn("failed to delete file blob, skipping file",
					"file_id", file.ID,
					"blob_key", file.BlobKey,
					"error", err,
				)
				continue
			}
		}
		if err := s.fileRepo.Delete(ctx, file.ID); err != nil {
			s.logger.Warn("failed to delete file row",
				"file_id", file.ID,
				"error", err,
			)
		}
	}

	subfolders, err := s.folderRepo.ListSubfolders(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to list subfolders: %w", err)
	}
	for _, sub := range subfolders {
		if err := s.deleteTree(ctx, sub.ID, depth+1); err != nil {
			s.logger.Warn("failed to delete subfolder subtree",
				"folder_id", sub.ID,
				"error", err,
			)
		}
	}

	if folder.BlobKey != "" {
		if err := s.blobs.Remove(ctx, folder.BlobKey); err != nil {
			s.logger.Warn("failed to delete folder marker",
				"folder_id", folder.ID,
				"blob_key", folder.BlobKey,
				"error", err,
			)
		}
	}

	if err := s.folderRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("folder deleted", "id", id, "name", folder.FolderName)
	return nil
}

// GetAncestors returns the root-to-leaf breadcrumb chain for folderID. A
// nil folderID resolves the principal's own root folder to a single-element
// chain. Returns nil when the starting folder does not exist.
func (s *folderService) GetAncestors(ctx context.Context, folderID *string, principal *models.Principal) ([]models.Ancestor, error) {
	if folderID == nil || *folderID == "" {
		root, err := s.resolveRoot(ctx, principal)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return []models.Ancestor{{ID: root.ID, Name: root.DisplayName, ParentID: nil}}, nil
	}

	start, err := s.folderRepo.GetByID(ctx, *folderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	// Walk upward collecting entries, then reverse so the chain reads
	// root to leaf.
	chain := []models.Ancestor{{ID: start.ID, Name: start.DisplayName, ParentID: start.ParentFolderID}}
	current := start
	for i := 0; current.ParentFolderID != nil; i++ {
		if i >= config.MaxTreeDepth {
			return nil, fmt.Errorf("ancestor chain exceeds maximum depth of %d", config.MaxTreeDepth)
		}
		parent, err := s.folderRepo.GetByID(ctx, *current.ParentFolderID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve ancestor: %w", err)
		}
		chain = append(chain, models.Ancestor{ID: parent.ID, Name: parent.DisplayName, ParentID: parent.ParentFolderID})
		current = parent
	}

	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}

	return chain, nil
}

func (s *folderService) resolveRoot(ctx context.Context, principal *models.Principal) (*models.Folder, error) {
	if principal == nil || principal.ID == "" {
		return nil, fmt.Errorf("%w: missing principal", domain.ErrValidation)
	}
	if principal.RootFolderID != "" {
		return s.folderRepo.GetByID(ctx, principal.RootFolderID)
	}
	return s.folderRepo.GetRootByOwner(ctx, principal.ID)
}

func (s *folderService) attachChildren(ctx context.Context, folder *models.Folder) error {
	subfolders, err := s.folderRepo.ListSubfolders(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("failed to list subfolders: %w", err)
	}
	files, err := s.fileRepo.ListByFolder(ctx, folder.ID)
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	folder.Subfolders = subfolders
	folder.Files = files
	return nil
}

func (s *folderService) writeMarker(ctx context.Context, folder *models.Folder) error {
	marker := strings.NewReader(folder.ID)
	return s.blobs.Put(ctx, folder.BlobKey, marker, int64(len(folder.ID)), "text/plain")
}

func validateFolderName(name string) error {
	return validation.Validate(name,
		validation.Required,
		validation.Length(1, config.MaxFolderNameLength),
		validation.Match(folderNamePattern).Error("folder name cannot contain slashes"),
	)
}
