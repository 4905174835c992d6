package migrations

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pressly/goose/v3"

	"github.com/Abraxas-365/hireflow/pkg/errx"
	"github.com/Abraxas-365/hireflow/pkg/logx"
)

//go:embed sql/*.sql
var FS embed.FS

const dir = "sql"

// Up aplica las migraciones pendientes
func Up(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(FS)
	goose.SetLogger(logx.Logger())
	if err := goose.SetDialect("postgres"); err != nil {
		return errx.Wrap(err, "failed to set migration dialect", errx.TypeInternal)
	}
	if err := goose.UpContext(ctx, db, dir); err != nil {
		return errx.Wrap(err, "failed to apply migrations", errx.TypeInternal)
	}
	return nil
}
