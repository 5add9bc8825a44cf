package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

// Open opens (or creates) the database file and applies the schema.
// SQLite allows one writer, so the pool is pinned to a single connection.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create data directory for %s", path)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite open")
	}
	db.SetMaxOpenConns(1)
	if err := NewIncidentRepository(db).Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type IncidentRepository struct {
	db *sql.DB
}

func NewIncidentRepository(db *sql.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

func (r *IncidentRepository) Migrate(ctx context.Context) error {
	const q = `
CREATE TABLE IF NOT EXISTS incidents (
  seq        INTEGER PRIMARY KEY AUTOINCREMENT,
  id         TEXT NOT NULL UNIQUE,
  type       TEXT NOT NULL,
  platform   TEXT NOT NULL,
  message    TEXT NOT NULL,
  severity   TEXT NOT NULL,
  notes      TEXT NOT NULL,
  created_at TEXT NOT NULL
);`
	_, err := r.db.ExecContext(ctx, q)
	return errors.Wrap(err, "sqlite migrate incidents")
}

func (r *IncidentRepository) Save(ctx context.Context, in *domain.Incident) error {
	const q = `
INSERT INTO incidents (id, type, platform, message, severity, notes, created_at)
VALUES (?,?,?,?,?,?,?)
ON CONFLICT (id) DO UPDATE SET
  type=excluded.type, platform=excluded.platform, message=excluded.message,
  severity=excluded.severity, notes=excluded.notes;`
	created := in.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, in.ID, in.Type, in.Platform, in.Message, in.Severity, in.Notes,
		created.UTC().Format(time.RFC3339Nano))
	return errors.Wrap(err, "sqlite save incident")
}

func (r *IncidentRepository) List(ctx context.Context) ([]*domain.Incident, error) {
	const q = `
SELECT id, type, platform, message, severity, notes, created_at
FROM incidents
ORDER BY seq ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite list incidents")
	}
	defer rows.Close()

	out := []*domain.Incident{}
	for rows.Next() {
		var in domain.Incident
		var created string
		if err := rows.Scan(&in.ID, &in.Type, &in.Platform, &in.Message, &in.Severity, &in.Notes, &created); err != nil {
			return nil, err
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, errors.Wrapf(err, "incident %s: bad created_at", in.ID)
		}
		in.Timestamp = ts
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (r *IncidentRepository) Delete(ctx context.Context, id domain.IncidentID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = ?`, id)
	return errors.Wrap(err, "sqlite delete incident")
}

func (r *IncidentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
