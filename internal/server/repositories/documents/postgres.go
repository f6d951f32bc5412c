// Package documents provides PostgreSQL-backed persistence for document
// metadata. The encrypted payloads themselves live in the blob store.
package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
)

// PostgresRepository implements document storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the document and assigns the database-generated identifier.
func (r *PostgresRepository) Create(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (claim_id, file_name, encrypted_path, file_size, file_type)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id;
	`
	err := r.db.QueryRowContext(ctx, query,
		document.ClaimID, document.FileName, document.EncryptedPath, document.FileSize, document.FileType,
	).Scan(&document.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns a single document. Missing rows map to common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `SELECT id, claim_id, file_name, encrypted_path, file_size, file_type FROM documents WHERE id=$1`

	var item models.Document
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&item.ID, &item.ClaimID, &item.FileName, &item.EncryptedPath, &item.FileSize, &item.FileType,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select document: %w", err)
	}
	return &item, nil
}

// SelectByClaimID returns all documents attached to the claim in insertion order.
func (r *PostgresRepository) SelectByClaimID(ctx context.Context, claimID int64) ([]*models.Document, error) {
	query := `SELECT id, claim_id, file_name, encrypted_path, file_size, file_type FROM documents
		WHERE claim_id=$1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, claimID)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	result := []*models.Document{}
	for rows.Next() {
		var item models.Document
		if err := rows.Scan(
			&item.ID, &item.ClaimID, &item.FileName, &item.EncryptedPath, &item.FileSize, &item.FileType,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByClaimID removes every document row belonging to the claim.
func (r *PostgresRepository) DeleteByClaimID(ctx context.Context, claimID int64) error {
	query := `DELETE FROM documents WHERE claim_id=$1`
	if _, err := r.db.ExecContext(ctx, query, claimID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
