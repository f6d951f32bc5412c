package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/claims"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/documents"
)

// RepositoryManager hands out repositories bound to a DB or TX handle so a
// service can run several repository calls inside one transaction.
type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Claims(db dbx.DBTX) claims.Repository
	Documents(db dbx.DBTX) documents.Repository
}
