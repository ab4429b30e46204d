package db

import (
	"github.com/pkg/errors"

	"github.com/noa10/mataresit-app-sub001/internal/profile"
	"github.com/noa10/mataresit-app-sub001/store"
	"github.com/noa10/mataresit-app-sub001/store/db/postgres"
	"github.com/noa10/mataresit-app-sub001/store/db/sqlite"
)

// PostgreSQL is the primary database for production use: it is the only
// driver with vector search (pgvector). SQLite is supported for
// development and testing without the vector signal.

// NewDBDriver creates new db driver based on profile.
func NewDBDriver(profile *profile.Profile) (store.Driver, error) {
	var driver store.Driver
	var err error

	switch profile.Driver {
	case "sqlite":
		driver, err = sqlite.NewDB(profile)
	case "postgres":
		driver, err = postgres.NewDB(profile)
	default:
		return nil, errors.New("unknown db driver: only 'postgres' and 'sqlite' are supported")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	return driver, nil
}
