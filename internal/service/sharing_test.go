package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stratus/internal/config"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/services"
)

type sharingFixture struct {
	svc        services.SharingService
	folderRepo *fakeFolderRepo
	fileRepo   *fakeFileRepo
	blobs      *fakeBlobStore
}

func newSharingFixture() *sharingFixture {
	folderRepo := newFakeFolderRepo()
	fileRepo := newFakeFileRepo()
	blobs := newFakeBlobStore()
	membership := NewMembershipValidator(folderRepo, fileRepo, discardLogger())
	svc := NewSharingService(folderRepo, fileRepo, blobs, membership, discardLogger())

	return &sharingFixture{
		svc:        svc,
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobs:      blobs,
	}
}

func (fx *sharingFixture) seedFolder(t *testing.T) *models.Folder {
	t.Helper()
	folder := &models.Folder{FolderName: "docs", DisplayName: "docs", OwnerID: "user-1", BlobPath: "root/docs"}
	require.NoError(t, fx.folderRepo.Create(context.Background(), folder))
	return folder
}

func (fx *sharingFixture) seedFile(t *testing.T, folderID string) *models.File {
	t.Helper()
	file := &models.File{FileName: "report.pdf", OwnerID: "user-1", ParentFolderID: folderID, BlobKey: "user-1/report"}
	require.NoError(t, fx.fileRepo.Create(context.Background(), file))
	return file
}

func TestShareFolder_ReplacesToken(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)

	first, err := fx.svc.ShareFolder(ctx, folder.ID, 24, "https://stratus.example.com")
	require.NoError(t, err)

	firstToken := first.URL[strings.LastIndex(first.URL, "/")+1:]
	assert.True(t, strings.HasPrefix(first.URL, "https://stratus.example.com/shared/folder/"))

	second, err := fx.svc.ShareFolder(ctx, folder.ID, 48, "https://stratus.example.com")
	require.NoError(t, err)

	secondToken := second.URL[strings.LastIndex(second.URL, "/")+1:]
	assert.NotEqual(t, firstToken, secondToken)

	// The old token stops resolving the moment a new one is issued.
	_, err = fx.svc.ResolveShareToken(ctx, firstToken)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	resolved, err := fx.svc.ResolveShareToken(ctx, secondToken)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, resolved.ID)
}

func TestShareFolder_InvalidHours(t *testing.T) {
	fx := newSharingFixture()
	folder := fx.seedFolder(t)

	for _, hours := range []int{0, -1} {
		_, err := fx.svc.ShareFolder(context.Background(), folder.ID, hours, "https://stratus.example.com")
		assert.ErrorIs(t, err, domain.ErrValidation, "hours %d", hours)
	}
}

func TestShareFolder_MissingFolder(t *testing.T) {
	fx := newSharingFixture()

	_, err := fx.svc.ShareFolder(context.Background(), "no-such-folder", 24, "https://stratus.example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestShareFile_ExtendsNeverShortens(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	long, err := fx.svc.ShareFile(ctx, file.ID, 48)
	require.NoError(t, err)

	// A shorter re-share keeps the later expiry on record.
	short, err := fx.svc.ShareFile(ctx, file.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, long.ExpiresAt, short.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(48*time.Hour), short.ExpiresAt, time.Minute)

	// But the presigned URL itself is minted for the requested window.
	assert.Equal(t, time.Hour, fx.blobs.lastPresign)
}

func TestShareFile_LongerReShareExtends(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	_, err := fx.svc.ShareFile(ctx, file.ID, 1)
	require.NoError(t, err)

	extended, err := fx.svc.ShareFile(ctx, file.ID, 72)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(72*time.Hour), extended.ExpiresAt, time.Minute)
}

func TestGetFileURL_OwnerWindow(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	url, err := fx.svc.GetFileURL(ctx, file.ID)
	require.NoError(t, err)

	assert.Contains(t, url, file.BlobKey)
	assert.Equal(t, config.OwnerDownloadTTL, fx.blobs.lastPresign)
}

func TestGetFileFromShareToken_MemberWithinWindow(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	_, err := fx.svc.ShareFolder(ctx, folder.ID, 24, "https://stratus.example.com")
	require.NoError(t, err)
	shared, err := fx.folderRepo.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	link, err := fx.svc.GetFileFromShareToken(ctx, shared, file)
	require.NoError(t, err)
	require.NotNil(t, link)

	// The advertised expiry is the folder share's, not the presign's.
	assert.Equal(t, *shared.ExpiresAt, link.ExpiresAt)
	assert.Contains(t, link.URL, file.BlobKey)

	// ~24h remaining rounds up to a 24h presign.
	assert.Equal(t, 24*time.Hour, fx.blobs.lastPresign)
}

func TestGetFileFromShareToken_NonMemberDenied(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)

	other := &models.Folder{FolderName: "other", OwnerID: "user-2", BlobPath: "other"}
	require.NoError(t, fx.folderRepo.Create(ctx, other))
	outsider := fx.seedFile(t, other.ID)

	_, err := fx.svc.ShareFolder(ctx, folder.ID, 24, "https://stratus.example.com")
	require.NoError(t, err)
	shared, err := fx.folderRepo.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	link, err := fx.svc.GetFileFromShareToken(ctx, shared, outsider)
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestGetFileFromShareToken_ExpiredWindowDenied(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	past := time.Now().Add(-time.Hour)
	token := "expired-token"
	require.NoError(t, fx.folderRepo.SetShare(ctx, folder.ID, token, past))
	shared, err := fx.folderRepo.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	link, err := fx.svc.GetFileFromShareToken(ctx, shared, file)
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestGetFileFromShareToken_NoExpiryUsesDefaultWindow(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	// A share row without an expiry (legacy data) falls back to the default
	// one-hour window.
	fx.folderRepo.mu.Lock()
	f := fx.folderRepo.folders[folder.ID]
	f.Shared = true
	token := "legacy-token"
	f.ShareToken = &token
	f.ExpiresAt = nil
	fx.folderRepo.mu.Unlock()

	shared, err := fx.folderRepo.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	link, err := fx.svc.GetFileFromShareToken(ctx, shared, file)
	require.NoError(t, err)
	require.NotNil(t, link)
	assert.Equal(t, time.Hour, fx.blobs.lastPresign)
}

func TestGetFileFromShareToken_PresignCapped(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)
	file := fx.seedFile(t, folder.ID)

	// A week-plus share window still presigns at the backend's maximum.
	_, err := fx.svc.ShareFolder(ctx, folder.ID, 1000, "https://stratus.example.com")
	require.NoError(t, err)
	shared, err := fx.folderRepo.GetByID(ctx, folder.ID)
	require.NoError(t, err)

	link, err := fx.svc.GetFileFromShareToken(ctx, shared, file)
	require.NoError(t, err)
	require.NotNil(t, link)

	assert.Equal(t, time.Duration(config.MaxPresignHours)*time.Hour, fx.blobs.lastPresign)
	// The advertised expiry still reflects the folder share window.
	assert.Equal(t, *shared.ExpiresAt, link.ExpiresAt)
}

func TestGetFileFromShareToken_NilInputs(t *testing.T) {
	fx := newSharingFixture()

	link, err := fx.svc.GetFileFromShareToken(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Nil(t, link)
}

func TestResolveShareToken(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)

	link, err := fx.svc.ShareFolder(ctx, folder.ID, 24, "https://stratus.example.com")
	require.NoError(t, err)
	token := link.URL[strings.LastIndex(link.URL, "/")+1:]

	resolved, err := fx.svc.ResolveShareToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, folder.ID, resolved.ID)

	_, err = fx.svc.ResolveShareToken(ctx, "bogus")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = fx.svc.ResolveShareToken(ctx, "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResolveShareToken_Expired(t *testing.T) {
	fx := newSharingFixture()
	ctx := context.Background()
	folder := fx.seedFolder(t)

	token := "lapsed-token"
	require.NoError(t, fx.folderRepo.SetShare(ctx, folder.ID, token, time.Now().Add(-time.Minute)))

	_, err := fx.svc.ResolveShareToken(ctx, token)
	assert.ErrorIs(t, err, domain.ErrShareExpired)
}
