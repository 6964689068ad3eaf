package services

import (
	"context"

	"stratus/internal/domain/models"
)

// SharingService issues share tokens and presigned URLs with bounded
// expiration and gates anonymous file access behind folder membership.
type SharingService interface {
	// ShareFolder issues a fresh share token valid for hours, replacing any
	// prior token on the folder. Returns the public share URL and expiry.
	ShareFolder(ctx context.Context, folderID string, hours int, originBaseURL string) (*models.ShareLink, error)

	// ShareFile returns a presigned URL valid for hours. The persisted
	// expiry only ever moves later; repeated shares never shorten it.
	ShareFile(ctx context.Context, fileID string, hours int) (*models.ShareLink, error)

	// GetFileURL returns a short-lived presigned URL for the owner's own
	// download.
	GetFileURL(ctx context.Context, fileID string) (string, error)

	// GetFileFromShareToken returns a presigned URL for file when it lies
	// beneath sharedRoot and the folder share is still within its window.
	// Returns nil (no error) when access is denied.
	GetFileFromShareToken(ctx context.Context, sharedRoot *models.Folder, file *models.File) (*models.ShareLink, error)

	// ResolveShareToken looks up the folder behind a public share token,
	// rejecting unknown and expired tokens.
	ResolveShareToken(ctx context.Context, token string) (*models.Folder, error)
}

// MembershipValidator decides whether a file lies beneath a folder by
// walking the file's ancestor chain.
type MembershipValidator interface {
	// FileInRootFolder reports whether fileID's folder-ancestor chain
	// includes candidateFolderID. Missing file or folder yields false.
	FileInRootFolder(ctx context.Context, candidateFolderID, fileID string) (bool, error)
}
