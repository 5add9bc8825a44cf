package postgres

import (
	"context"
	"database/sql"
	"time"

	_ "github.com/lib/pq"
	"github.com/pkg/errors"

	domain "github.com/bryanwahyu/footprint-shield/internal/domain/incidents"
)

// Open connects, checks the server answers and creates the incidents table.
// The incident workload is a handful of small writes, so the pool stays small.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "postgres open")
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "postgres ping")
	}
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
  seq        BIGSERIAL PRIMARY KEY,
  id         VARCHAR(64)  NOT NULL UNIQUE,
  type       VARCHAR(64)  NOT NULL,
  platform   VARCHAR(128) NOT NULL,
  message    TEXT         NOT NULL,
  severity   VARCHAR(32)  NOT NULL,
  notes      TEXT         NOT NULL,
  created_at TIMESTAMPTZ  NOT NULL
);`
	_, err := r.db.ExecContext(ctx, q)
	return errors.Wrap(err, "postgres migrate incidents")
}

// Save inserts or updates an incident record
func (r *IncidentRepository) Save(ctx context.Context, in *domain.Incident) error {
	const q = `
INSERT INTO incidents
  (id, type, platform, message, severity, notes, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (id) DO UPDATE SET
  type=EXCLUDED.type,
  platform=EXCLUDED.platform,
  message=EXCLUDED.message,
  severity=EXCLUDED.severity,
  notes=EXCLUDED.notes;
`
	created := in.Timestamp
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx, q, in.ID, in.Type, in.Platform, in.Message, in.Severity, in.Notes, created)
	return errors.Wrap(err, "postgres save incident")
}

func (r *IncidentRepository) List(ctx context.Context) ([]*domain.Incident, error) {
	const q = `
SELECT id, type, platform, message, severity, notes, created_at
FROM incidents
ORDER BY seq ASC;`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "postgres list incidents")
	}
	defer rows.Close()

	out := []*domain.Incident{}
	for rows.Next() {
		var in domain.Incident
		var created time.Time
		if err := rows.Scan(&in.ID, &in.Type, &in.Platform, &in.Message, &in.Severity, &in.Notes, &created); err != nil {
			return nil, err
		}
		in.Timestamp = created
		out = append(out, &in)
	}
	return out, rows.Err()
}

func (r *IncidentRepository) Delete(ctx context.Context, id domain.IncidentID) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	return errors.Wrap(err, "postgres delete incident")
}

func (r *IncidentRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
