package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"stratus/internal/config"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
	"stratus/internal/domain/services"
	"stratus/internal/domain/storage"
)

type sharingService struct {
	folderRepo repositories.FolderRepository
	fileRepo   repositories.FileRepository
	blobs      storage.BlobStore
	membership services.MembershipValidator
	logger     *slog.Logger
}

// NewSharingService creates the sharing and expiration engine.
func NewSharingService(
	folderRepo repositories.FolderRepository,
	fileRepo repositories.FileRepository,
	blobs storage.BlobStore,
	membership services.MembershipValidator,
	logger *slog.Logger,
) services.SharingService {
	return &sharingService{
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobs:      blobs,
		membership: membership,
		logger:     logger,
	}
}

// newShareToken returns a URL-safe high-entropy token suitable as an opaque
// path segment.
func newShareToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ShareFolder issues a fresh token valid for hours. Folder sharing replaces:
// any prior token and window are overwritten unconditionally.
func (s *sharingService) ShareFolder(ctx context.Context, folderID string, hours int, originBaseURL string) (*models.ShareLink, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: share duration must be positive", domain.ErrValidation)
	}

	folder, err := s.folderRepo.GetByID(ctx, folderID)
	if err != nil {
		return nil, err
	}

	token, err := newShareToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(time.Duration(hours) * time.Hour)

	if err := s.folderRepo.SetShare(ctx, folder.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to share folder: %w", err)
	}

	s.logger.Info("folder shared",
		"folder_id", folder.ID,
		"hours", hours,
		"expires_at", expiresAt,
	)

	return &models.ShareLink{
		URL:       fmt.Sprintf("%s/shared/folder/%s", strings.TrimRight(originBaseURL, "/"), token),
		ExpiresAt: expiresAt,
	}, nil
}

// ShareFile presigns the file's blob for hours. Unlike folder sharing this
// extends: the persisted expiry only ever moves later.
func (s *sharingService) ShareFile(ctx context.Context, fileID string, hours int) (*models.ShareLink, error) {
	if hours <= 0 {
		return nil, fmt.Errorf("%w: share duration must be positive", domain.ErrValidation)
	}

	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if file.BlobKey == "" {
		return nil, fmt.Errorf("file %s has no stored content: %w", fileID, domain.ErrNotFound)
	}

	duration := time.Duration(hours) * time.Hour
	url, err := s.blobs.PresignedGet(ctx, file.BlobKey, duration)
	if err != nil {
		return nil, fmt.Errorf("failed to presign file: %w", err)
	}

	persisted, err := s.fileRepo.ExtendShareExpiry(ctx, file.ID, time.Now().Add(duration))
	if err != nil {
		return nil, fmt.Errorf("failed to extend file share expiry: %w", err)
	}

	s.logger.Info("file shared",
		"file_id", file.ID,
		"hours", hours,
		"expires_at", persisted,
	)

	return &models.ShareLink{URL: url, ExpiresAt: persisted}, nil
}

// GetFileURL returns a short-lived presigned URL for the owner's own
// download.
func (s *sharingService) GetFileURL(ctx context.Context, fileID string) (string, error) {
	file, err := s.fileRepo.GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	if file.BlobKey == "" {
		return "", fmt.Errorf("file %s has no stored content: %w", fileID, domain.ErrNotFound)
	}

	url, err := s.blobs.PresignedGet(ctx, file.BlobKey, config.OwnerDownloadTTL)
	if err != nil {
		return "", fmt.Errorf("failed to presign file: %w", err)
	}
	return url, nil
}

// GetFileFromShareToken gates anonymous file access. The file must lie
// beneath sharedRoot and the folder share must still be within its window;
// otherwise nil is returned with no error, which callers render as access
// denied. The presign duration is the remaining window rounded up to whole
// hours and capped at the signing backend's maximum; the advertised expiry
// is the folder's, since the link is valid at most until the share lapses.
func (s *sharingService) GetFileFromShareToken(ctx context.Context, sharedRoot *models.Folder, file *models.File) (*models.ShareLink, error) {
	if sharedRoot == nil || file == nil {
		return nil, nil
	}

	member, err := s.membership.FileInRootFolder(ctx, sharedRoot.ID, file.ID)
	if err != nil {
		return nil, err
	}
	if !member {
		return nil, nil
	}

	now := time.Now()
	if sharedRoot.ExpiresAt != nil && sharedRoot.ExpiresAt.Before(now) {
		return nil, nil
	}

	var remaining int64
	if sharedRoot.ExpiresAt == nil {
		remaining = int64(config.DefaultShareWindow.Seconds())
	} else {
		remaining = int64(sharedRoot.ExpiresAt.Sub(now).Seconds())
		if remaining < 1 {
			remaining = 1
		}
	}

	hours := int((remaining + 3599) / 3600)
	if hours > config.MaxPresignHours {
		hours = config.MaxPresignHours
	}

	link, err := s.ShareFile(ctx, file.ID, hours)
	if err != nil {
		return nil, err
	}

	advertised := link.ExpiresAt
	if sharedRoot.ExpiresAt != nil {
		advertised = *sharedRoot.ExpiresAt
	}

	return &models.ShareLink{URL: link.URL, ExpiresAt: advertised}, nil
}

// ResolveShareToken looks up the folder behind a public token. Unknown
// tokens are not found; lapsed ones are expired. The shared flag is never
// cleared here - expiry is enforced on this read path.
func (s *sharingService) ResolveShareToken(ctx context.Context, token string) (*models.Folder, error) {
	if token == "" {
		return nil, fmt.Errorf("share token: %w", domain.ErrNotFound)
	}

	folder, err := s.folderRepo.GetByShareToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if !folder.Shared || folder.ShareToken == nil {
		return nil, fmt.Errorf("share token: %w", domain.ErrNotFound)
	}
	if folder.ExpiresAt != nil && folder.ExpiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("share token: %w", domain.ErrShareExpired)
	}

	return folder, nil
}
