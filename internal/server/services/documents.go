// Package services implements the claim workflow use cases on top of the
// repositories and the blob store.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/claimflow/internal/cryptox"
	"github.com/dmitrijs2005/claimflow/internal/logging"
	"github.com/dmitrijs2005/claimflow/internal/server/keys"
	"github.com/dmitrijs2005/claimflow/internal/server/models"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/claimflow/internal/server/storage"
	"github.com/dmitrijs2005/claimflow/internal/timex"
)

// MaxUploadSize is the per-file acceptance limit for evidence uploads.
const MaxUploadSize = 5 << 20

// allowedExtensions lists the accepted upload types, keyed by the
// normalized lower-case extension.
var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
	".xlsx": true,
}

// Upload is one evidence file as received from the client.
type Upload struct {
	FileName string
	Content  []byte
}

// UploadError reports why a specific file failed the acceptance gate.
type UploadError struct {
	FileName string
	Reason   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("%s: %s", e.FileName, e.Reason)
}

// ValidateUploads runs the acceptance gate over a batch of uploads. The
// first failing file stops the check; checks per file run in a fixed
// order: size limit, then empty content, then extension.
func ValidateUploads(uploads []*Upload) error {
	for _, up := range uploads {
		if len(up.Content) > MaxUploadSize {
			return &UploadError{FileName: up.FileName, Reason: "exceeds the 5 MB size limit"}
		}
		if len(up.Content) == 0 {
			return &UploadError{FileName: up.FileName, Reason: "is empty"}
		}
		ext := strings.ToLower(filepath.Ext(up.FileName))
		if !allowedExtensions[ext] {
			return &UploadError{FileName: up.FileName, Reason: "has an unsupported file type"}
		}
	}
	return nil
}

// DownloadResult is a decrypted document ready to serve.
type DownloadResult struct {
	Content     []byte
	ContentType string
	FileName    string
}

// DocumentService encrypts evidence files into the blob store and records
// their metadata. Plaintext exists only in memory, never at rest.
type DocumentService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	store  storage.BlobStore
	keys   keys.Provider
	clock  timex.Clock
	logger logging.Logger
}

func NewDocumentService(db *sql.DB, repos repomanager.RepositoryManager, store storage.BlobStore,
	keys keys.Provider, clock timex.Clock, logger logging.Logger) *DocumentService {
	return &DocumentService{
		db:     db,
		repos:  repos,
		store:  store,
		keys:   keys,
		clock:  clock,
		logger: logger.With("module", "documents"),
	}
}

// storageKey builds the blob locator for a new document. The locator is
// derived from the clock and a fresh UUID only; uploader input never
// reaches the path.
func (s *DocumentService) storageKey(now time.Time) string {
	return fmt.Sprintf("claims/%d/%02d/%s.bin", now.Year(), int(now.Month()), uuid.NewString())
}

// Encrypt seals the content and writes the resulting blob, returning its
// locator. The blob is written before any metadata so a stored record
// always points at an existing blob.
func (s *DocumentService) Encrypt(ctx context.Context, content []byte) (string, error) {
	blob, err := cryptox.Seal(content, s.keys.Key())
	if err != nil {
		return "", fmt.Errorf("sealing document: %w", err)
	}

	key := s.storageKey(s.clock.Now())
	if err := s.store.Put(ctx, key, blob); err != nil {
		return "", fmt.Errorf("storing document blob: %w", err)
	}
	return key, nil
}

// Decrypt fetches the blob at the locator and opens it with the current key.
func (s *DocumentService) Decrypt(ctx context.Context, locator string) ([]byte, error) {
	blob, err := s.store.Get(ctx, locator)
	if err != nil {
		return nil, fmt.Errorf("fetching document blob: %w", err)
	}

	content, err := cryptox.Open(blob, s.keys.Key())
	if err != nil {
		return nil, fmt.Errorf("opening document blob %s: %w", locator, err)
	}
	return content, nil
}

// Attach encrypts one upload and records its metadata against the claim.
// The stored file name is stripped of any client-supplied path.
func (s *DocumentService) Attach(ctx context.Context, claimID int64, up *Upload) (*models.Document, error) {
	locator, err := s.Encrypt(ctx, up.Content)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(up.FileName)
	doc := &models.Document{
		ClaimID:       claimID,
		FileName:      name,
		EncryptedPath: locator,
		FileSize:      int64(len(up.Content)),
		FileType:      strings.ToLower(filepath.Ext(name)),
	}

	if err := s.repos.Documents(s.db).Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("recording document: %w", err)
	}

	s.logger.Info(ctx, "document attached", "claim_id", claimID, "file", name, "size", doc.FileSize)
	return doc, nil
}

// Download returns the decrypted content of a stored document together
// with its original name and MIME type.
func (s *DocumentService) Download(ctx context.Context, id int64) (*DownloadResult, error) {
	doc, err := s.repos.Documents(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.Decrypt(ctx, doc.EncryptedPath)
	if err != nil {
		return nil, err
	}

	return &DownloadResult{
		Content:     content,
		ContentType: doc.ContentType(),
		FileName:    doc.FileName,
	}, nil
}
