package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/claimflow/internal/common"
	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/claims"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/documents"
)

// testDB supplies a working transaction source for the services; the fake
// repositories ignore the handle itself.
func testDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type fixedClock struct {
	t time.Time
}

func (c fixedClock) Now() time.Time { return c.t }

// fakeClaimRepo is an in-memory claims.Repository. It stores copies, the
// way a real database would, so in-memory mutations by the service never
// leak into the "stored" rows without an explicit write.
type fakeClaimRepo struct {
	mu     sync.Mutex
	rows   map[int64]models.Claim
	nextID int64

	failCreate bool
}

func newFakeClaimRepo() *fakeClaimRepo {
	return &fakeClaimRepo{rows: make(map[int64]models.Claim)}
}

func (r *fakeClaimRepo) Create(ctx context.Context, claim *models.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("create failed")
	}
	r.nextID++
	claim.ID = r.nextID
	r.rows[claim.ID] = *claim
	return nil
}

func (r *fakeClaimRepo) GetByID(ctx context.Context, id int64) (*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	row.Documents = []*models.Document{}
	return &row, nil
}

func (r *fakeClaimRepo) Update(ctx context.Context, claim *models.Claim) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[claim.ID]; !ok {
		return common.ErrorNotFound
	}
	r.rows[claim.ID] = *claim
	return nil
}

func (r *fakeClaimRepo) UpdateStatusIf(ctx context.Context, claim *models.Claim, expected models.Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[claim.ID]
	if !ok {
		return common.ErrorNotFound
	}
	if row.Status != expected {
		return fmt.Errorf("claim %d: %w", claim.ID, common.ErrStatusConflict)
	}
	r.rows[claim.ID] = *claim
	return nil
}

func (r *fakeClaimRepo) SelectAll(ctx context.Context) ([]*models.Claim, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Claim{}
	for _, row := range r.rows {
		row := row
		out = append(out, &row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *fakeClaimRepo) SelectByStatus(ctx context.Context, status models.Status) ([]*models.Claim, error) {
	all, _ := r.SelectAll(ctx)
	out := []*models.Claim{}
	for _, c := range all {
		if c.Status == status {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeDocumentRepo struct {
	mu     sync.Mutex
	rows   map[int64]models.Document
	nextID int64

	failCreate bool
}

func newFakeDocumentRepo() *fakeDocumentRepo {
	return &fakeDocumentRepo{rows: make(map[int64]models.Document)}
}

func (r *fakeDocumentRepo) Create(ctx context.Context, document *models.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failCreate {
		return errors.New("create failed")
	}
	r.nextID++
	document.ID = r.nextID
	r.rows[document.ID] = *document
	return nil
}

func (r *fakeDocumentRepo) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &row, nil
}

func (r *fakeDocumentRepo) SelectByClaimID(ctx context.Context, claimID int64) ([]*models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Document{}
	for _, row := range r.rows {
		if row.ClaimID == claimID {
			row := row
			out = append(out, &row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeDocumentRepo) DeleteByClaimID(ctx context.Context, claimID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, row := range r.rows {
		if row.ClaimID == claimID {
			delete(r.rows, id)
		}
	}
	return nil
}

type fakeRepoManager struct {
	claims    *fakeClaimRepo
	documents *fakeDocumentRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{claims: newFakeClaimRepo(), documents: newFakeDocumentRepo()}
}

func (m *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }

func (m *fakeRepoManager) Claims(db dbx.DBTX) claims.Repository { return m.claims }

func (m *fakeRepoManager) Documents(db dbx.DBTX) documents.Repository { return m.documents }

type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte

	failPut bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: make(map[string][]byte)}
}

func (s *fakeBlobStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failPut {
		return errors.New("put failed")
	}
	s.blobs[key] = append([]byte(nil), data...)
	return nil
}

func (s *fakeBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.blobs[key]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return append([]byte(nil), data...), nil
}

func (s *fakeBlobStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[key]; !ok {
		return common.ErrorNotFound
	}
	delete(s.blobs, key)
	return nil
}
