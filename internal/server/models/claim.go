// Package models defines the persisted domain entities of the claim system
// and the workflow rules that govern them.
package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/timex"
	"github.com/shopspring/decimal"
)

// Status is the claim's position in the review workflow. Transitions are
// only legal through the methods on Claim; there is no other mutation path.
type Status string

const (
	StatusPending             Status = "Pending"
	StatusCoordinatorVerified Status = "CoordinatorVerified"
	StatusCoordinatorRejected Status = "CoordinatorRejected"
	StatusManagerApproved     Status = "ManagerApproved"
	StatusManagerRejected     Status = "ManagerRejected"
)

// Field acceptance limits.
const (
	MaxLecturerNameLength = 100
	MaxNotesLength        = 500
)

var (
	// MaxHoursWorked and MaxHourlyRate are inclusive upper bounds.
	MaxHoursWorked = decimal.NewFromInt(600)
	MaxHourlyRate  = decimal.NewFromInt(5000)
)

// Comments substituted when a reviewer approves without a message.
const (
	DefaultManagerApprovalComment     = "Approved by Academic Manager"
	DefaultCoordinatorApprovalComment = "Verified by Programme Coordinator"
)

// Claim is a lecturer's monthly work-hours submission awaiting payment
// approval. Review timestamp/comment pairs are stamped exactly once by the
// transition that owns them and never cleared afterwards.
type Claim struct {
	ID int64

	LecturerName    string
	LecturerEmail   string
	ClaimMonth      time.Time
	HoursWorked     decimal.Decimal
	HourlyRate      decimal.Decimal
	AdditionalNotes string

	Status      Status
	SubmittedAt time.Time

	CoordinatorReviewedAt *time.Time
	CoordinatorComments   string
	ManagerReviewedAt     *time.Time
	ManagerComments       string

	Documents []*Document
}

// NewClaim constructs a claim with its creation defaults: Pending status,
// submission timestamp from the given clock, empty (non-nil) document list.
func NewClaim(clock timex.Clock) *Claim {
	return &Claim{
		Status:      StatusPending,
		SubmittedAt: clock.Now(),
		Documents:   []*Document{},
	}
}

// TotalAmount is the payable amount: hours worked times hourly rate,
// computed with exact decimal arithmetic. It is derived on read and
// never stored independently.
func (c *Claim) TotalAmount() decimal.Decimal {
	return c.HoursWorked.Mul(c.HourlyRate)
}

// FieldError is a single field-scoped validation violation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// ValidationError aggregates all field violations of a rejected payload.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Error()
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}

// Validate checks every field rule independently and returns all
// violations. An empty result means the claim payload is acceptable.
func (c *Claim) Validate() []FieldError {
	var violations []FieldError

	name := strings.TrimSpace(c.LecturerName)
	if name == "" {
		violations = append(violations, FieldError{Field: "LecturerName", Message: "is required"})
	} else if utf8.RuneCountInString(c.LecturerName) > MaxLecturerNameLength {
		violations = append(violations, FieldError{
			Field:   "LecturerName",
			Message: fmt.Sprintf("must not exceed %d characters", MaxLecturerNameLength),
		})
	}

	email := strings.TrimSpace(c.LecturerEmail)
	if email == "" {
		violations = append(violations, FieldError{Field: "LecturerEmail", Message: "is required"})
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		violations = append(violations, FieldError{Field: "LecturerEmail", Message: "is not a valid email address"})
	}

	if !c.HoursWorked.IsPositive() {
		violations = append(violations, FieldError{Field: "HoursWorked", Message: "must be greater than 0"})
	} else if c.HoursWorked.GreaterThan(MaxHoursWorked) {
		violations = append(violations, FieldError{
			Field:   "HoursWorked",
			Message: fmt.Sprintf("must not exceed %s", MaxHoursWorked),
		})
	}

	if !c.HourlyRate.IsPositive() {
		violations = append(violations, FieldError{Field: "HourlyRate", Message: "must be greater than 0"})
	} else if c.HourlyRate.GreaterThan(MaxHourlyRate) {
		violations = append(violations, FieldError{
			Field:   "HourlyRate",
			Message: fmt.Sprintf("must not exceed %s", MaxHourlyRate),
		})
	}

	if utf8.RuneCountInString(c.AdditionalNotes) > MaxNotesLength {
		violations = append(violations, FieldError{
			Field:   "AdditionalNotes",
			Message: fmt.Sprintf("must not exceed %d characters", MaxNotesLength),
		})
	}

	return violations
}

// VerifyByCoordinator moves a pending claim into CoordinatorVerified,
// stamping the coordinator review pair. Blank comments get the default
// verification message.
func (c *Claim) VerifyByCoordinator(comments string, now time.Time) error {
	if c.Status != StatusPending {
		return fmt.Errorf("claim cannot be verified in status %q: %w", c.Status, common.ErrInvalidTransition)
	}
	if strings.TrimSpace(comments) == "" {
		comments = DefaultCoordinatorApprovalComment
	}
	c.Status = StatusCoordinatorVerified
	c.CoordinatorReviewedAt = &now
	c.CoordinatorComments = comments
	return nil
}

// RejectByCoordinator moves a pending claim into the terminal
// CoordinatorRejected state. A rejection always requires an explicit
// reason; the comment is stored verbatim.
func (c *Claim) RejectByCoordinator(comments string, now time.Time) error {
	if strings.TrimSpace(comments) == "" {
		return common.ErrCommentsRequired
	}
	if c.Status != StatusPending {
		return fmt.Errorf("claim cannot be rejected in status %q: %w", c.Status, common.ErrInvalidTransition)
	}
	c.Status = StatusCoordinatorRejected
	c.CoordinatorReviewedAt = &now
	c.CoordinatorComments = comments
	return nil
}

// ApproveByManager moves a coordinator-verified claim into the terminal
// ManagerApproved state. Blank comments get the default approval message.
// On a guard failure the claim is left untouched.
func (c *Claim) ApproveByManager(comments string, now time.Time) error {
	if c.Status != StatusCoordinatorVerified {
		return fmt.Errorf("claim cannot be approved in status %q: %w", c.Status, common.ErrInvalidTransition)
	}
	if strings.TrimSpace(comments) == "" {
		comments = DefaultManagerApprovalComment
	}
	c.Status = StatusManagerApproved
	c.ManagerReviewedAt = &now
	c.ManagerComments = comments
	return nil
}

// RejectByManager moves a coordinator-verified claim into the terminal
// ManagerRejected state. The missing-comment guard is checked before the
// status guard so the caller is asked for a reason first; the comment is
// stored verbatim, never substituted.
func (c *Claim) RejectByManager(comments string, now time.Time) error {
	if strings.TrimSpace(comments) == "" {
		return common.ErrCommentsRequired
	}
	if c.Status != StatusCoordinatorVerified {
		return fmt.Errorf("claim cannot be rejected in status %q: %w", c.Status, common.ErrInvalidTransition)
	}
	c.Status = StatusManagerRejected
	c.ManagerReviewedAt = &now
	c.ManagerComments = comments
	return nil
}
