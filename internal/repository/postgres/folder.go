package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"stratus/internal/domain"
	"stratus/internal/domain/models"
	"stratus/internal/domain/repositories"
)

const folderColumns = `id, folder_name, display_name, is_root, owner_id, parent_folder_id,
		blob_path, blob_key, shared, share_token, expires_at, created_at, updated_at`

// PostgresFolderRepository implements the FolderRepository interface.
type PostgresFolderRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFolderRepository creates a new folder repository.
func NewFolderRepository(config *RepositoryConfig) repositories.FolderRepository {
	return &PostgresFolderRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFolder(row interface{ Scan(...interface{}) error }, f *models.Folder) error {
	return row.Scan(
		&f.ID,
		&f.FolderName,
		&f.DisplayName,
		&f.IsRoot,
		&f.OwnerID,
		&f.ParentFolderID,
		&f.BlobPath,
		&f.BlobKey,
		&f.Shared,
		&f.ShareToken,
		&f.ExpiresAt,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
}

// Create inserts a new folder. A hit on the one-root-per-owner unique index
// comes back as domain.ErrConflict so the caller can re-read the winner.
func (r *PostgresFolderRepository) Create(ctx context.Context, folder *models.Folder) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (folder_name, display_name, is_root, owner_id, parent_folder_id,
			blob_path, blob_key, shared, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		folder.FolderName,
		folder.DisplayName,
		folder.IsRoot,
		folder.OwnerID,
		folder.ParentFolderID,
		folder.BlobPath,
		folder.BlobKey,
		folder.Shared,
		folder.CreatedAt,
		folder.UpdatedAt,
	).Scan(&folder.ID, &folder.CreatedAt, &folder.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return &domain.ConflictError{
				Message:      fmt.Sprintf("folder '%s' already exists", folder.FolderName),
				ResourceType: "folder",
			}
		}
		return fmt.Errorf("create folder: %w", err)
	}

	return nil
}

// GetByID retrieves a folder by ID without children.
func (r *PostgresFolderRepository) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, folderColumns, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	var folder models.Folder
	if err := scanFolder(exec.QueryRow(ctx, query, id), &folder); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder: %w", err)
	}

	return &folder, nil
}

// GetRootByOwner retrieves the owner's root folder.
func (r *PostgresFolderRepository) GetRootByOwner(ctx context.Context, ownerID string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE owner_id = $1 AND is_root
	`, folderColumns, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	var folder models.Folder
	if err := scanFolder(exec.QueryRow(ctx, query, ownerID), &folder); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("root folder for owner %s: %w", ownerID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get root folder: %w", err)
	}

	return &folder, nil
}

// ListSubfolders lists the immediate child folders of a parent.
func (r *PostgresFolderRepository) ListSubfolders(ctx context.Context, parentID string) ([]models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_folder_id = $1
		ORDER BY folder_name ASC
	`, folderColumns, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list subfolders: %w", err)
	}
	defer rows.Close()

	var folders []models.Folder
	for rows.Next() {
		var folder models.Folder
		if err := scanFolder(rows, &folder); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		folders = append(folders, folder)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate folders: %w", err)
	}

	return folders, nil
}

// Delete removes a single folder row.
func (r *PostgresFolderRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, id)
	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("cannot delete folder with children: %w", domain.ErrConflict)
		}
		return fmt.Errorf("delete folder: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// SetShare overwrites the folder's sharing state. Folder sharing replaces
// any previous token and window.
func (r *PostgresFolderRepository) SetShare(ctx context.Context, id, token string, expiresAt time.Time) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET shared = TRUE, share_token = $1, expires_at = $2, updated_at = NOW()
		WHERE id = $3
	`, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, token, expiresAt, id)
	if err != nil {
		return fmt.Errorf("set folder share: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("folder %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// GetByShareToken retrieves a folder by its share token.
func (r *PostgresFolderRepository) GetByShareToken(ctx context.Context, token string) (*models.Folder, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE share_token = $1
	`, folderColumns, r.tables.Folders)

	exec := GetExecutor(ctx, r.pool)
	var folder models.Folder
	if err := scanFolder(exec.QueryRow(ctx, query, token), &folder); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("share token: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get folder by share token: %w", err)
	}

	return &folder, nil
}
