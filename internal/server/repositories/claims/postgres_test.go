package claims

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
	"github.com/shopspring/decimal"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func claimRow() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "lecturer_name", "lecturer_email", "claim_month", "hours_worked", "hourly_rate",
		"additional_notes", "status", "submitted_at", "coordinator_reviewed_at", "coordinator_comments",
		"manager_reviewed_at", "manager_comments",
	})
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+claims\b.*RETURNING\s+id;?\s*$`

	mock.ExpectQuery(q).
		WithArgs("Dr. John Smith", "john@uni.ac.za", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			"notes", "Pending", sqlmock.AnyArg(), "", "").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))

	claim := &models.Claim{
		LecturerName:    "Dr. John Smith",
		LecturerEmail:   "john@uni.ac.za",
		ClaimMonth:      time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		HoursWorked:     decimal.NewFromInt(100),
		HourlyRate:      decimal.NewFromInt(450),
		AdditionalNotes: "notes",
		Status:          models.StatusPending,
		SubmittedAt:     time.Now(),
	}

	if err := repo.Create(context.Background(), claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.ID != 42 {
		t.Fatalf("expected assigned id 42, got %d", claim.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	submitted := time.Date(2025, time.March, 5, 8, 0, 0, 0, time.UTC)
	reviewed := time.Date(2025, time.March, 7, 9, 0, 0, 0, time.UTC)

	rows := claimRow().AddRow(
		int64(7), "Dr. John Smith", "john@uni.ac.za",
		time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		"37.5", "425.50", "", "CoordinatorVerified", submitted,
		reviewed, "checked", nil, "",
	)

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+claims\s+WHERE\s+id=\$1$`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	claim, err := repo.GetByID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claim.Status != models.StatusCoordinatorVerified {
		t.Fatalf("unexpected status: %s", claim.Status)
	}
	if !claim.TotalAmount().Equal(decimal.RequireFromString("15956.25")) {
		t.Fatalf("unexpected total: %s", claim.TotalAmount())
	}
	if claim.CoordinatorReviewedAt == nil || !claim.CoordinatorReviewedAt.Equal(reviewed) {
		t.Fatalf("coordinator review timestamp not scanned")
	}
	if claim.ManagerReviewedAt != nil {
		t.Fatalf("manager review timestamp should be nil")
	}
	if claim.Documents == nil {
		t.Fatalf("documents must be initialized")
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+claims\s+WHERE\s+id=\$1$`).
		WithArgs(int64(99)).
		WillReturnRows(claimRow())

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestUpdate_ReplacesFullRecord(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+claims\s+SET\s+lecturer_name=\$2.*WHERE\s+id=\$1;?\s*$`

	now := time.Now()
	mock.ExpectExec(q).
		WithArgs(int64(7), "Dr. John Smith", "john@uni.ac.za", sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), "updated notes", "CoordinatorVerified", sqlmock.AnyArg(),
			sqlmock.AnyArg(), "checked", sqlmock.AnyArg(), "").
		WillReturnResult(sqlmock.NewResult(0, 1))

	claim := &models.Claim{
		ID:                    7,
		LecturerName:          "Dr. John Smith",
		LecturerEmail:         "john@uni.ac.za",
		ClaimMonth:            time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC),
		HoursWorked:           decimal.NewFromInt(100),
		HourlyRate:            decimal.NewFromInt(450),
		AdditionalNotes:       "updated notes",
		Status:                models.StatusCoordinatorVerified,
		SubmittedAt:           now,
		CoordinatorReviewedAt: &now,
		CoordinatorComments:   "checked",
	}

	if err := repo.Update(context.Background(), claim); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+claims\s+SET\s+lecturer_name=\$2.*WHERE\s+id=\$1;?\s*$`

	mock.ExpectExec(q).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claim := &models.Claim{ID: 99, LecturerName: "A", LecturerEmail: "a@uni.ac.za"}

	err := repo.Update(context.Background(), claim)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestUpdateStatusIf_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+claims\s+SET\s+status=\$3.*WHERE\s+id=\$1\s+AND\s+status=\$2;?\s*$`

	mock.ExpectExec(q).
		WithArgs(int64(7), "CoordinatorVerified", "ManagerApproved",
			sqlmock.AnyArg(), "checked", sqlmock.AnyArg(), "Approved by Academic Manager").
		WillReturnResult(sqlmock.NewResult(0, 1))

	now := time.Now()
	claim := &models.Claim{
		ID:                  7,
		Status:              models.StatusManagerApproved,
		CoordinatorComments: "checked",
		ManagerReviewedAt:   &now,
		ManagerComments:     "Approved by Academic Manager",
	}

	if err := repo.UpdateStatusIf(context.Background(), claim, models.StatusCoordinatorVerified); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateStatusIf_Conflict(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*UPDATE\s+claims\s+SET\s+status=\$3.*WHERE\s+id=\$1\s+AND\s+status=\$2;?\s*$`

	mock.ExpectExec(q).
		WillReturnResult(sqlmock.NewResult(0, 0))

	claim := &models.Claim{ID: 7, Status: models.StatusManagerRejected, ManagerComments: "no"}

	err := repo.UpdateStatusIf(context.Background(), claim, models.StatusCoordinatorVerified)
	if !errors.Is(err, common.ErrStatusConflict) {
		t.Fatalf("want ErrStatusConflict, got %v", err)
	}
}

func TestSelectByStatus(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := claimRow().AddRow(
		int64(1), "A", "a@uni.ac.za", time.Now(), "10", "100", "", "CoordinatorVerified",
		time.Now(), nil, "", nil, "",
	).AddRow(
		int64(2), "B", "b@uni.ac.za", time.Now(), "20", "200", "", "CoordinatorVerified",
		time.Now(), nil, "", nil, "",
	)

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+claims\s+WHERE\s+status=\$1\s+ORDER\s+BY\b.*$`).
		WithArgs("CoordinatorVerified").
		WillReturnRows(rows)

	result, err := repo.SelectByStatus(context.Background(), models.StatusCoordinatorVerified)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 claims, got %d", len(result))
	}
}
