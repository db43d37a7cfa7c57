package database

import (
	"context"
	"fmt"
	"net/url"

	"otikaapi/internal/config"
	"otikaapi/internal/database/migration"
	"otikaapi/internal/logging"
	"otikaapi/internal/repository"
	"otikaapi/internal/repository/mongodb"
	"otikaapi/internal/repository/postgres"
)

// OpenStore connects to the configured backend and returns its DocumentStore.
// When nothing is configured it returns a nil store and BackendNone so the
// API can still start and report the store as unavailable.
func OpenStore(ctx context.Context, c config.DatabaseConfig, log *logging.Logger) (repository.DocumentStore, Backend, error) {
	backend, err := DetectBackend(c)
	if err != nil {
		return nil, BackendNone, err
	}

	switch backend {
	case BackendPostgres:
		db, err := NewPostgres(c)
		if err != nil {
			return nil, backend, err
		}
		if c.AutoMigrate {
			if err := migration.EnsureMigrated(ctx, db, log, hostOf(c)); err != nil {
				_ = db.Close()
				return nil, backend, fmt.Errorf("migrate: %w", err)
			}
		}
		return postgres.NewDocumentPostgres(db, DatabaseName(c)), backend, nil

	case BackendMongo:
		client, err := NewMongo(ctx, c)
		if err != nil {
			return nil, backend, err
		}
		return mongodb.NewDocumentMongo(client, DatabaseName(c)), backend, nil
	}

	return nil, BackendNone, nil
}

// hostOf returns the host for log fields without leaking credentials.
func hostOf(c config.DatabaseConfig) string {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			return u.Host
		}
		return ""
	}
	return c.Host
}
