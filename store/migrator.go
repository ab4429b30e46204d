package store

import (
	"context"
	"embed"
	"log/slog"

	"github.com/pkg/errors"
)

// Schema files live at store/migration/{driver}/LATEST.sql and hold the
// full current schema. A fresh database is initialized from LATEST.sql;
// already-initialized databases are left untouched.

//go:embed migration
var migrationFS embed.FS

// LatestSchemaFileName is the name of the latest schema file.
const LatestSchemaFileName = "LATEST.sql"

// Migrate initializes the database schema when it has not been set up
// yet. It is safe to run on every start.
func (s *Store) Migrate(ctx context.Context) error {
	initialized, err := s.driver.IsInitialized(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to check if database is initialized")
	}
	if initialized {
		return nil
	}

	buf, err := migrationFS.ReadFile("migration/" + s.profile.Driver + "/" + LatestSchemaFileName)
	if err != nil {
		return errors.Wrap(err, "failed to read latest schema file")
	}

	if _, err := s.driver.GetDB().ExecContext(ctx, string(buf)); err != nil {
		return errors.Wrap(err, "failed to apply latest schema")
	}

	slog.Info("database schema initialized", slog.String("driver", s.profile.Driver))
	return nil
}
