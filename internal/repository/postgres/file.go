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

const fileColumns = `id, file_name, size, owner_id, parent_folder_id, blob_key,
		content_type, shared, expires_at, created_at`

// PostgresFileRepository implements the FileRepository interface.
type PostgresFileRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewFileRepository creates a new file repository.
func NewFileRepository(config *RepositoryConfig) repositories.FileRepository {
	return &PostgresFileRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

func scanFile(row interface{ Scan(...interface{}) error }, f *models.File) error {
	return row.Scan(
		&f.ID,
		&f.FileName,
		&f.Size,
		&f.OwnerID,
		&f.ParentFolderID,
		&f.BlobKey,
		&f.ContentType,
		&f.Shared,
		&f.ExpiresAt,
		&f.CreatedAt,
	)
}

// Create inserts a new file row.
func (r *PostgresFileRepository) Create(ctx context.Context, file *models.File) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (file_name, size, owner_id, parent_folder_id, blob_key,
			content_type, shared, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at
	`, r.tables.Files)

	exec := GetExecutor(ctx, r.pool)
	err := exec.QueryRow(ctx, query,
		file.FileName,
		file.Size,
		file.OwnerID,
		file.ParentFolderID,
		file.BlobKey,
		file.ContentType,
		file.Shared,
		file.CreatedAt,
	).Scan(&file.ID, &file.CreatedAt)

	if err != nil {
		if isPgForeignKeyError(err) {
			return fmt.Errorf("parent folder %s: %w", file.ParentFolderID, domain.ErrNotFound)
		}
		return fmt.Errorf("create file: %w", err)
	}

	return nil
}

// GetByID retrieves a file by ID.
func (r *PostgresFileRepository) GetByID(ctx context.Context, id string) (*models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE id = $1
	`, fileColumns, r.tables.Files)

	exec := GetExecutor(ctx, r.pool)
	var file models.File
	if err := scanFile(exec.QueryRow(ctx, query, id), &file); err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get file: %w", err)
	}

	return &file, nil
}

// ListByFolder lists the files directly inside a folder.
func (r *PostgresFileRepository) ListByFolder(ctx context.Context, folderID string) ([]models.File, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM %s
		WHERE parent_folder_id = $1
		ORDER BY file_name ASC
	`, fileColumns, r.tables.Files)

	exec := GetExecutor(ctx, r.pool)
	rows, err := exec.Query(ctx, query, folderID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	defer rows.Close()

	var files []models.File
	for rows.Next() {
		var file models.File
		if err := scanFile(rows, &file); err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, file)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate files: %w", err)
	}

	return files, nil
}

// Delete removes a file row.
func (r *PostgresFileRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = $1
	`, r.tables.Files)

	exec := GetExecutor(ctx, r.pool)
	result, err := exec.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete file: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// ExtendShareExpiry pushes expires_at later, never earlier. GREATEST against
// the epoch covers rows that were never shared before.
func (r *PostgresFileRepository) ExtendShareExpiry(ctx context.Context, id string, candidate time.Time) (time.Time, error) {
	query := fmt.Sprintf(`
		UPDATE %s
		SET shared = TRUE,
			expires_at = GREATEST($1, COALESCE(expires_at, 'epoch'::timestamptz))
		WHERE id = $2
		RETURNING expires_at
	`, r.tables.Files)

	exec := GetExecutor(ctx, r.pool)
	var persisted time.Time
	if err := exec.QueryRow(ctx, query, candidate, id).Scan(&persisted); err != nil {
		if isPgNoRowsError(err) {
			return time.Time{}, fmt.Errorf("file %s: %w", id, domain.ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("extend file share expiry: %w", err)
	}

	return persisted, nil
}
