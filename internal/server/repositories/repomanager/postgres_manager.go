// Package repomanager wires the concrete repository implementations and the
// schema migrations behind a single injection point.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/claimflow/internal/dbx"
	"github.com/dmitrijs2005/claimflow/internal/server/migrations"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/claims"
	"github.com/dmitrijs2005/claimflow/internal/server/repositories/documents"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Claims(db dbx.DBTX) claims.Repository {
	return claims.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Documents(db dbx.DBTX) documents.Repository {
	return documents.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}
