package documents

import (
	"context"

	"github.com/dmitrijs2005/claimflow/internal/server/models"
)

// Repository is the persistence contract for document metadata. Document
// rows are created atomically with a successful encryption and never
// mutated; they disappear only when their owning claim is deleted.
type Repository interface {
	// Create inserts the document and assigns its identifier.
	Create(ctx context.Context, document *models.Document) error
	// GetByID returns the document or common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	// SelectByClaimID returns all documents attached to a claim.
	SelectByClaimID(ctx context.Context, claimID int64) ([]*models.Document, error)
	// DeleteByClaimID removes all documents of a claim (cascade policy).
	DeleteByClaimID(ctx context.Context, claimID int64) error
}
