package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/logging"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/claimflow/internal/timex"
)

// ClaimService implements the claim workflow: submission with its evidence
// batch, the review listings, and the four review transitions.
type ClaimService struct {
	db        *sql.DB
	repos     repomanager.RepositoryManager
	documents *DocumentService
	clock     timex.Clock
	logger    logging.Logger
}

func NewClaimService(db *sql.DB, repos repomanager.RepositoryManager, documents *DocumentService,
	clock timex.Clock, logger logging.Logger) *ClaimService {
	return &ClaimService{
		db:        db,
		repos:     repos,
		documents: documents,
		clock:     clock,
		logger:    logger.With("module", "claims"),
	}
}

// CreateResult carries the stored claim plus any per-file upload warnings.
// Warnings never fail the submission; the claim persists regardless.
type CreateResult struct {
	Claim    *models.Claim
	Warnings []string
}

// ClaimInput is the submission payload for a new claim.
type ClaimInput struct {
	Claim   *models.Claim
	Uploads []*Upload
}

// Create validates and stores a new claim. A validation failure aborts the
// whole submission. A failing document batch does not: the claim is stored
// without documents and the failure is reported as a warning. Individual
// upload failures after storage likewise degrade to warnings.
func (s *ClaimService) Create(ctx context.Context, in *ClaimInput) (*CreateResult, error) {
	claim := in.Claim
	claim.Status = models.StatusPending
	claim.SubmittedAt = s.clock.Now()
	if claim.Documents == nil {
		claim.Documents = []*models.Document{}
	}

	if violations := claim.Validate(); len(violations) > 0 {
		return nil, &models.ValidationError{Fields: violations}
	}

	var warnings []string

	uploads := in.Uploads
	if err := ValidateUploads(uploads); err != nil {
		warnings = append(warnings, err.Error())
		uploads = nil
	}

	if err := s.repos.Claims(s.db).Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("storing claim: %w", err)
	}

	for _, up := range uploads {
		doc, err := s.documents.Attach(ctx, claim.ID, up)
		if err != nil {
			s.logger.Warn(ctx, "document upload failed", "claim_id", claim.ID, "file", up.FileName, "error", err)
			warnings = append(warnings, fmt.Sprintf("Claim submitted, but failed to upload file: %s", up.FileName))
			continue
		}
		claim.Documents = append(claim.Documents, doc)
	}

	s.logger.Info(ctx, "claim submitted", "claim_id", claim.ID,
		"lecturer", claim.LecturerName, "documents", len(claim.Documents))

	return &CreateResult{Claim: claim, Warnings: warnings}, nil
}

// Get returns a claim with its documents loaded. Both reads run on one
// transaction so the document list always matches the claim row it is
// attached to.
func (s *ClaimService) Get(ctx context.Context, id int64) (*models.Claim, error) {
	var claim *models.Claim

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		c, err := s.repos.Claims(tx).GetByID(ctx, id)
		if err != nil {
			return err
		}

		docs, err := s.repos.Documents(tx).SelectByClaimID(ctx, id)
		if err != nil {
			return fmt.Errorf("loading documents for claim %d: %w", id, err)
		}
		c.Documents = docs

		claim = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return claim, nil
}

// List returns all claims, newest first.
func (s *ClaimService) List(ctx context.Context) ([]*models.Claim, error) {
	return s.repos.Claims(s.db).SelectAll(ctx)
}

// ListCoordinatorVerified returns the manager's work queue.
func (s *ClaimService) ListCoordinatorVerified(ctx context.Context) ([]*models.Claim, error) {
	return s.repos.Claims(s.db).SelectByStatus(ctx, models.StatusCoordinatorVerified)
}

// transition loads the claim, applies fn in memory, and persists the result
// with a status check-and-set. When two reviewers race, exactly one write
// wins; the loser gets common.ErrStatusConflict.
func (s *ClaimService) transition(ctx context.Context, id int64, fn func(c *models.Claim) error) (*models.Claim, error) {
	claim, err := s.repos.Claims(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	expected := claim.Status
	if err := fn(claim); err != nil {
		return nil, err
	}
	s.logger.Debug(ctx, "applying transition", "claim_id", id, "from", expected, "to", claim.Status)

	if err := s.repos.Claims(s.db).UpdateStatusIf(ctx, claim, expected); err != nil {
		return nil, err
	}
	return claim, nil
}

// Verify moves a pending claim to CoordinatorVerified.
func (s *ClaimService) Verify(ctx context.Context, id int64, comments string) (*models.Claim, error) {
	claim, err := s.transition(ctx, id, func(c *models.Claim) error {
		return c.VerifyByCoordinator(comments, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "claim verified", "claim_id", id)
	return claim, nil
}

// RejectVerification moves a pending claim to CoordinatorRejected. A
// rejection reason is mandatory and is checked before the claim is even
// looked up, so the caller is asked for a reason first.
func (s *ClaimService) RejectVerification(ctx context.Context, id int64, comments string) (*models.Claim, error) {
	if strings.TrimSpace(comments) == "" {
		return nil, common.ErrCommentsRequired
	}
	claim, err := s.transition(ctx, id, func(c *models.Claim) error {
		return c.RejectByCoordinator(comments, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "claim verification rejected", "claim_id", id)
	return claim, nil
}

// Approve moves a coordinator-verified claim to ManagerApproved and returns
// the approved payment amount, formatted with two decimal places.
func (s *ClaimService) Approve(ctx context.Context, id int64, comments string) (string, error) {
	claim, err := s.transition(ctx, id, func(c *models.Claim) error {
		return c.ApproveByManager(comments, s.clock.Now())
	})
	if err != nil {
		return "", err
	}

	amount := claim.TotalAmount().StringFixed(2)
	s.logger.Info(ctx, "claim approved", "claim_id", id, "amount", amount)
	return amount, nil
}

// Reject moves a coordinator-verified claim to ManagerRejected. A rejection
// reason is mandatory; leading and trailing whitespace alone does not count.
// Like RejectVerification, the comment guard runs before the lookup.
func (s *ClaimService) Reject(ctx context.Context, id int64, comments string) (*models.Claim, error) {
	if strings.TrimSpace(comments) == "" {
		return nil, common.ErrCommentsRequired
	}
	claim, err := s.transition(ctx, id, func(c *models.Claim) error {
		return c.RejectByManager(comments, s.clock.Now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "claim rejected", "claim_id", id, "reason", strings.TrimSpace(comments))
	return claim, nil
}
