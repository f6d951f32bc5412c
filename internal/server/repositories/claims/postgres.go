// Package claims provides PostgreSQL-backed persistence for claim records.
package claims

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
)

// PostgresRepository implements claim storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const claimColumns = `id, lecturer_name, lecturer_email, claim_month, hours_worked, hourly_rate,
	additional_notes, status, submitted_at, coordinator_reviewed_at, coordinator_comments,
	manager_reviewed_at, manager_comments`

func scanClaim(row interface{ Scan(dest ...any) error }) (*models.Claim, error) {
	var item models.Claim
	var status string
	var coordinatorReviewedAt, managerReviewedAt sql.NullTime

	err := row.Scan(
		&item.ID, &item.LecturerName, &item.LecturerEmail, &item.ClaimMonth,
		&item.HoursWorked, &item.HourlyRate, &item.AdditionalNotes, &status,
		&item.SubmittedAt, &coordinatorReviewedAt, &item.CoordinatorComments,
		&managerReviewedAt, &item.ManagerComments,
	)
	if err != nil {
		return nil, err
	}

	item.Status = models.Status(status)
	if coordinatorReviewedAt.Valid {
		t := coordinatorReviewedAt.Time
		item.CoordinatorReviewedAt = &t
	}
	if managerReviewedAt.Valid {
		t := managerReviewedAt.Time
		item.ManagerReviewedAt = &t
	}
	item.Documents = []*models.Document{}

	return &item, nil
}

// Create inserts the claim and assigns the database-generated identifier.
func (r *PostgresRepository) Create(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claims (lecturer_name, lecturer_email, claim_month, hours_worked, hourly_rate,
			additional_notes, status, submitted_at, coordinator_comments, manager_comments)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id;
	`
	err := r.db.QueryRowContext(ctx, query,
		claim.LecturerName, claim.LecturerEmail, claim.ClaimMonth, claim.HoursWorked, claim.HourlyRate,
		claim.AdditionalNotes, string(claim.Status), claim.SubmittedAt,
		claim.CoordinatorComments, claim.ManagerComments,
	).Scan(&claim.ID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// GetByID returns a single claim. Missing rows map to common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE id=$1`

	item, err := scanClaim(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select claim: %w", err)
	}
	return item, nil
}

// Update replaces the full claim record. Exactly one row must be affected.
func (r *PostgresRepository) Update(ctx context.Context, claim *models.Claim) error {
	query := `
		UPDATE claims SET lecturer_name=$2, lecturer_email=$3, claim_month=$4, hours_worked=$5,
			hourly_rate=$6, additional_notes=$7, status=$8, submitted_at=$9,
			coordinator_reviewed_at=$10, coordinator_comments=$11,
			manager_reviewed_at=$12, manager_comments=$13
		WHERE id=$1;
	`
	res, err := r.db.ExecContext(ctx, query,
		claim.ID, claim.LecturerName, claim.LecturerEmail, claim.ClaimMonth, claim.HoursWorked,
		claim.HourlyRate, claim.AdditionalNotes, string(claim.Status), claim.SubmittedAt,
		claim.CoordinatorReviewedAt, claim.CoordinatorComments,
		claim.ManagerReviewedAt, claim.ManagerComments,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

// UpdateStatusIf writes the status and review fields only when the stored
// status still equals expected. Zero rows affected means another writer got
// there first (or the claim is gone) and nothing was changed.
func (r *PostgresRepository) UpdateStatusIf(ctx context.Context, claim *models.Claim, expected models.Status) error {
	query := `
		UPDATE claims SET status=$3,
			coordinator_reviewed_at=$4, coordinator_comments=$5,
			manager_reviewed_at=$6, manager_comments=$7
		WHERE id=$1 AND status=$2;
	`
	res, err := r.db.ExecContext(ctx, query,
		claim.ID, string(expected), string(claim.Status),
		claim.CoordinatorReviewedAt, claim.CoordinatorComments,
		claim.ManagerReviewedAt, claim.ManagerComments,
	)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrStatusConflict
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (r *PostgresRepository) selectClaims(ctx context.Context, query string, args ...any) ([]*models.Claim, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select claims: %w", err)
	}
	defer rows.Close()

	var result []*models.Claim
	for rows.Next() {
		item, err := scanClaim(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SelectAll returns every claim, newest submissions first.
func (r *PostgresRepository) SelectAll(ctx context.Context) ([]*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims ORDER BY submitted_at DESC, id DESC`
	return r.selectClaims(ctx, query)
}

// SelectByStatus returns claims in the given status, newest first.
func (r *PostgresRepository) SelectByStatus(ctx context.Context, status models.Status) ([]*models.Claim, error) {
	query := `SELECT ` + claimColumns + ` FROM claims WHERE status=$1 ORDER BY submitted_at DESC, id DESC`
	return r.selectClaims(ctx, query, string(status))
}
