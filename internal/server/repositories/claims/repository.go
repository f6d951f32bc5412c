package claims

import (
	"context"

	"github.com/dmitrijs2005/claimflow/internal/server/models"
)

// Repository is the persistence contract the claim workflow consumes.
type Repository interface {
	// Create inserts the claim and assigns its identifier.
	Create(ctx context.Context, claim *models.Claim) error
	// GetByID returns the claim or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Claim, error)
	// Update replaces the full claim record.
	Update(ctx context.Context, claim *models.Claim) error
	// UpdateStatusIf persists the claim's status and review fields only if
	// the stored row still carries the expected status. When the check
	// fails it returns common.ErrStatusConflict and nothing is written:
	// this is the check-and-set that serializes racing transitions.
	UpdateStatusIf(ctx context.Context, claim *models.Claim, expected models.Status) error
	// SelectAll returns every claim, newest submissions first.
	SelectAll(ctx context.Context) ([]*models.Claim, error)
	// SelectByStatus returns claims filtered to the given status.
	SelectByStatus(ctx context.Context, status models.Status) ([]*models.Claim, error)
}
