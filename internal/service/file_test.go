package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/services"
	"stratus/internal/filetype"
)

type fileFixture struct {
	svc        services.FileService
	folderRepo *fakeFolderRepo
	fileRepo   *fakeFileRepo
	blobs      *fakeBlobStore
}

func newFileFixture(t *testing.T) *fileFixture {
	t.Helper()

	registry, err := filetype.NewRegistry()
	require.NoError(t, err)

	folderRepo := newFakeFolderRepo()
	fileRepo := newFakeFileRepo()
	blobs := newFakeBlobStore()
	svc := NewFileService(fileRepo, folderRepo, blobs, registry, discardLogger())

	return &fileFixture{
		svc:        svc,
		folderRepo: folderRepo,
		fileRepo:   fileRepo,
		blobs:      blobs,
	}
}

func (fx *fileFixture) seedFolder(t *testing.T) *models.Folder {
	t.Helper()
	folder := &models.Folder{FolderName: "docs", DisplayName: "docs", OwnerID: "user-1", BlobPath: "root/docs"}
	require.NoError(t, fx.folderRepo.Create(context.Background(), folder))
	return folder
}

func TestUpload(t *testing.T) {
	fx := newFileFixture(t)
	ctx := context.Background()
	folder := fx.seedFolder(t)

	file, err := fx.svc.Upload(ctx, &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: folder.ID,
		FileName: "report.pdf",
		Size:     6,
		Content:  strings.NewReader("%PDF-1"),
	})
	require.NoError(t, err)

	assert.Equal(t, "report.pdf", file.FileName)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, folder.ID, file.ParentFolderID)
	assert.True(t, strings.HasPrefix(file.BlobKey, "user-1/"))
	assert.True(t, fx.blobs.has(file.BlobKey))
}

func TestUpload_UnknownExtensionFallsBack(t *testing.T) {
	fx := newFileFixture(t)
	folder := fx.seedFolder(t)

	file, err := fx.svc.Upload(context.Background(), &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: folder.ID,
		FileName: "data.xyz123",
		Size:     4,
		Content:  strings.NewReader("data"),
	})
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", file.ContentType)
}

func TestUpload_Validation(t *testing.T) {
	fx := newFileFixture(t)
	folder := fx.seedFolder(t)

	tests := []struct {
		name string
		req  *services.UploadRequest
	}{
		{"nil request", nil},
		{"missing content", &services.UploadRequest{OwnerID: "user-1", FolderID: folder.ID, FileName: "a.txt"}},
		{"missing name", &services.UploadRequest{OwnerID: "user-1", FolderID: folder.ID, Content: strings.NewReader("x")}},
		{"slash in name", &services.UploadRequest{OwnerID: "user-1", FolderID: folder.ID, FileName: "a/b.txt", Content: strings.NewReader("x")}},
		{"missing folder", &services.UploadRequest{OwnerID: "user-1", FileName: "a.txt", Content: strings.NewReader("x")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Upload(context.Background(), tt.req)
			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestUpload_MissingParentFolder(t *testing.T) {
	fx := newFileFixture(t)

	_, err := fx.svc.Upload(context.Background(), &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: "no-such-folder",
		FileName: "a.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpload_CleansUpBlobOnInsertFailure(t *testing.T) {
	fx := newFileFixture(t)
	folder := fx.seedFolder(t)
	fx.fileRepo.createErr = assert.AnError

	_, err := fx.svc.Upload(context.Background(), &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: folder.ID,
		FileName: "a.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	require.Error(t, err)

	// The blob written before the failed insert must not linger.
	fx.blobs.mu.Lock()
	defer fx.blobs.mu.Unlock()
	assert.Empty(t, fx.blobs.objects)
}

func TestDeleteFile(t *testing.T) {
	fx := newFileFixture(t)
	ctx := context.Background()
	folder := fx.seedFolder(t)

	file, err := fx.svc.Upload(ctx, &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: folder.ID,
		FileName: "a.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteFile(ctx, file.ID))

	assert.False(t, fx.blobs.has(file.BlobKey))
	_, err = fx.fileRepo.GetByID(ctx, file.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteFile_BlobFailurePropagates(t *testing.T) {
	fx := newFileFixture(t)
	ctx := context.Background()
	folder := fx.seedFolder(t)

	file, err := fx.svc.Upload(ctx, &services.UploadRequest{
		OwnerID:  "user-1",
		FolderID: folder.ID,
		FileName: "a.txt",
		Size:     1,
		Content:  strings.NewReader("x"),
	})
	require.NoError(t, err)
	fx.blobs.removeErrs[file.BlobKey] = assert.AnError

	err = fx.svc.DeleteFile(ctx, file.ID)
	require.Error(t, err)

	// The row survives a failed blob delete so a retry can find it.
	_, err = fx.fileRepo.GetByID(ctx, file.ID)
	assert.NoError(t, err)
}
