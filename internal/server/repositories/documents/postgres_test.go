package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_AssignsID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^\s*INSERT\s+INTO\s+documents\b.*RETURNING\s+id;?\s*$`

	mock.ExpectQuery(q).
		WithArgs(int64(7), "timesheet.pdf", "claims/2025/03/abc.bin", int64(2048), ".pdf").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	doc := &models.Document{
		ClaimID:       7,
		FileName:      "timesheet.pdf",
		EncryptedPath: "claims/2025/03/abc.bin",
		FileSize:      2048,
		FileType:      ".pdf",
	}

	if err := repo.Create(context.Background(), doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID != 3 {
		t.Fatalf("expected assigned id 3, got %d", doc.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+documents\s+WHERE\s+id=\$1$`).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "claim_id", "file_name", "encrypted_path", "file_size", "file_type"}))

	_, err := repo.GetByID(context.Background(), 99)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestSelectByClaimID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "claim_id", "file_name", "encrypted_path", "file_size", "file_type"}).
		AddRow(int64(1), int64(7), "a.pdf", "claims/2025/03/a.bin", int64(100), ".pdf").
		AddRow(int64(2), int64(7), "b.xlsx", "claims/2025/03/b.bin", int64(200), ".xlsx")

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+documents\s+WHERE\s+claim_id=\$1\s+ORDER\s+BY\s+id$`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	result, err := repo.SelectByClaimID(context.Background(), 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(result))
	}
	if result[1].ContentType() != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		t.Fatalf("unexpected content type: %s", result[1].ContentType())
	}
}

func TestSelectByClaimID_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+.*\s+FROM\s+documents\s+WHERE\s+claim_id=\$1\s+ORDER\s+BY\s+id$`).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "claim_id", "file_name", "encrypted_path", "file_size", "file_type"}))

	result, err := repo.SelectByClaimID(context.Background(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result == nil || len(result) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", result)
	}
}

func TestDeleteByClaimID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(`(?s)^DELETE\s+FROM\s+documents\s+WHERE\s+claim_id=\$1$`).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	if err := repo.DeleteByClaimID(context.Background(), 7); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
