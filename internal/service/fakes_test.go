package service

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

// fakeFolderRepo is an in-memory FolderRepository. It enforces the
// one-root-per-owner invariant the same way the partial unique index does:
// a second root insert for the same owner fails with a conflict.
type fakeFolderRepo struct {
	mu      sync.Mutex
	folders map[string]*models.Folder

	createErr        error // forced error on next Create, consumed once
	rootLookupMisses int   // forced not-found results from GetRootByOwner
}

func newFakeFolderRepo() *fakeFolderRepo {
	return &fakeFolderRepo{folders: make(map[string]*models.Folder)}
}

func (r *fakeFolderRepo) Create(ctx context.Context, folder *models.Folder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}

	if folder.IsRoot {
		for _, f := range r.folders {
			if f.IsRoot && f.OwnerID == folder.OwnerID {
				return &domain.ConflictError{
					Message:      "root folder already exists",
					ResourceType: "folder",
					ResourceID:   f.ID,
				}
			}
		}
	}

	folder.ID = uuid.NewString()
	clone := *folder
	r.folders[folder.ID] = &clone
	return nil
}

func (r *fakeFolderRepo) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.folders[id]
	if !ok {
		return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFolderRepo) GetRootByOwner(ctx context.Context, ownerID string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rootLookupMisses > 0 {
		r.rootLookupMisses--
		return nil, fmt.Errorf("root folder for %s: %w", ownerID, domain.ErrNotFound)
	}

	for _, f := range r.folders {
		if f.IsRoot && f.OwnerID == ownerID {
			clone := *f
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("root folder for %s: %w", ownerID, domain.ErrNotFound)
}

func (r *fakeFolderRepo) ListSubfolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.Folder
	for _, f := range r.folders {
		if f.ParentFolderID != nil && *f.ParentFolderID == parentID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFolderRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.folders[id]; !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	delete(r.folders, id)
	return nil
}

func (r *fakeFolderRepo) SetShare(ctx context.Context, id, token string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.folders[id]
	if !ok {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}
	f.Shared = true
	f.ShareToken = &token
	exp := expiresAt
	f.ExpiresAt = &exp
	f.UpdatedAt = time.Now()
	return nil
}

func (r *fakeFolderRepo) GetByShareToken(ctx context.Context, token string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, f := range r.folders {
		if f.ShareToken != nil && *f.ShareToken == token {
			clone := *f
			return &clone, nil
		}
	}
	return nil, fmt.Errorf("share token: %w", domain.ErrNotFound)
}

// fakeFileRepo is an in-memory FileRepository.
type fakeFileRepo struct {
	mu    sync.Mutex
	files map[string]*models.File

	createErr error // forced error on next Create, consumed once
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string]*models.File)}
}

func (r *fakeFileRepo) Create(ctx context.Context, file *models.File) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		err := r.createErr
		r.createErr = nil
		return err
	}

	file.ID = uuid.NewString()
	clone := *file
	r.files[file.ID] = &clone
	return nil
}

func (r *fakeFileRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	clone := *f
	return &clone, nil
}

func (r *fakeFileRepo) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []models.File
	for _, f := range r.files {
		if f.ParentFolderID == folderID {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[id]; !ok {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	delete(r.files, id)
	return nil
}

func (r *fakeFileRepo) ExtendShareExpiry(ctx context.Context, id string, candidate time.Time) (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.files[id]
	if !ok {
		return time.Time{}, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}
	f.Shared = true
	if f.ExpiresAt == nil || candidate.After(*f.ExpiresAt) {
		exp := candidate
		f.ExpiresAt = &exp
	}
	return *f.ExpiresAt, nil
}

// fakeBlobStore is an in-memory BlobStore that records presign calls and can
// be told to fail removals of specific keys.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	removed []string

	removeErrs  map[string]error
	lastPresign time.Duration
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects:    make(map[string][]byte),
		removeErrs: make(map[string]error),
	}
}

func (b *fakeBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBlobStore) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err, ok := b.removeErrs[key]; ok {
		return err
	}
	delete(b.objects, key)
	b.removed = append(b.removed, key)
	return nil
}

func (b *fakeBlobStore) PresignedGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastPresign = expiry
	return fmt.Sprintf("https://blobs.test/%s?expires=%d", key, int64(expiry.Seconds())), nil
}

func (b *fakeBlobStore) has(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.objects[key]
	return ok
}

// fakeIdentityClient records root-folder-id cache writes.
type fakeIdentityClient struct {
	mu     sync.Mutex
	cached map[string]string
	err    error
}

func newFakeIdentityClient() *fakeIdentityClient {
	return &fakeIdentityClient{cached: make(map[string]string)}
}

func (c *fakeIdentityClient) CacheRootFolderID(ctx context.Context, userID, folderID string) error {
	if c.err != nil {
		return c.err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached[userID] = folderID
	return nil
}

// fakeTxManager runs the function directly; the fakes have no transactions.
type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}
