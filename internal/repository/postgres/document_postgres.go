package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"otikaapi/internal/model"
	"otikaapi/internal/repository"
)

const uniqueViolation = "23505"

var identifier = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// newID yields 24-hex-char identifiers, the same shape MongoDB assigns, so
// clients see one identifier format whichever backend is configured.
var newID = func() string { return primitive.NewObjectID().Hex() }

var now = func() time.Time { return time.Now().UTC() }

// DocumentPostgres is a PostgreSQL implementation of repository.DocumentStore.
// Documents are kept as JSONB in a single table partitioned by a collection column.
type DocumentPostgres struct {
	db   *sql.DB
	name string
}

// NewDocumentPostgres creates a new DocumentPostgres store. name is reported by Name.
func NewDocumentPostgres(db *sql.DB, name string) *DocumentPostgres {
	return &DocumentPostgres{db: db, name: name}
}

var _ repository.DocumentStore = (*DocumentPostgres)(nil)

// Create inserts doc as a JSONB body and returns the generated id.
func (r *DocumentPostgres) Create(ctx context.Context, collection string, doc any) (string, error) {
	if r.db == nil {
		return "", repository.ErrStoreUnavailable
	}
	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("store write: encode document: %w", err)
	}

	const q = `
		INSERT INTO documents (id, collection, body, created_at)
		VALUES ($1, $2, $3::jsonb, $4)
		RETURNING id
	`
	var id string
	if err := r.db.QueryRowContext(ctx, q, newID(), collection, string(body), now()).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return "", fmt.Errorf("%w: %s", repository.ErrDuplicateKey, pgErr.Message)
		}
		return "", fmt.Errorf("store write: %w", err)
	}
	return id, nil
}

// Query returns documents of collection in insertion order.
// A non-empty filter is matched with JSONB containment.
func (r *DocumentPostgres) Query(ctx context.Context, collection string, filter model.Filter, limit int) ([]model.Record, error) {
	if r.db == nil {
		return nil, repository.ErrStoreUnavailable
	}

	q := `SELECT id, body FROM documents WHERE collection = $1`
	args := []any{collection}
	if len(filter) > 0 {
		f, err := json.Marshal(filter)
		if err != nil {
			return nil, fmt.Errorf("encode filter: %w", err)
		}
		args = append(args, string(f))
		q += fmt.Sprintf(" AND body @> $%d::jsonb", len(args))
	}
	q += " ORDER BY created_at ASC, id ASC"
	if limit > 0 {
		args = append(args, limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]model.Record, 0)
	for rows.Next() {
		var (
			id   string
			body []byte
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		rec := model.Record{}
		if err := json.Unmarshal(body, &rec); err != nil {
			return nil, fmt.Errorf("decode document %s: %w", id, err)
		}
		delete(rec, "_id")
		rec["id"] = id
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// EnsureUnique creates a partial unique index on body->>field scoped to collection.
func (r *DocumentPostgres) EnsureUnique(ctx context.Context, collection, field string) error {
	if r.db == nil {
		return repository.ErrStoreUnavailable
	}
	// Identifiers are interpolated, so only plain lowercase names are accepted.
	if !identifier.MatchString(collection) || !identifier.MatchString(field) {
		return fmt.Errorf("invalid unique index target %q.%q", collection, field)
	}
	stmt := fmt.Sprintf(
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_documents_%[1]s_%[2]s ON documents ((body->>'%[2]s')) WHERE collection = '%[1]s'`,
		collection, field,
	)
	if _, err := r.db.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("ensure unique %s.%s: %w", collection, field, err)
	}
	return nil
}

func (r *DocumentPostgres) Ping(ctx context.Context) error {
	if r.db == nil {
		return repository.ErrStoreUnavailable
	}
	return r.db.PingContext(ctx)
}

func (r *DocumentPostgres) Name() string { return r.name }

// CollectionNames lists collections that currently hold documents.
func (r *DocumentPostgres) CollectionNames(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, repository.ErrStoreUnavailable
	}
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT collection FROM documents ORDER BY collection`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := make([]string, 0)
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *DocumentPostgres) Close(context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
