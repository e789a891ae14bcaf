package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/riddhimistry141/FLOOD-PREDICTION-GUJARATE-URBAN-AREA/internal/domain"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLite persists history in a SQLite database. Insertion order is the
// autoincrement seq column.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens the database at dsn and applies pending migrations.
func OpenSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// One connection serialises writes and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load history migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migrate driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m is not closed: closing it would close db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("history migration failed: %w", err)
	}
	return nil
}

func (s *SQLite) Append(ctx context.Context, rec domain.PredictionRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO predictions (id, rainfall, temperature, humidity, result, level,
			confidence, tabular_prob, sequence_prob, mean_prob, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Rainfall, rec.Temperature, rec.Humidity, rec.Result, string(rec.Level),
		rec.Confidence, rec.TabularProb, rec.SequenceProb, rec.MeanProb,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]domain.PredictionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rainfall, temperature, humidity, result, level,
			confidence, tabular_prob, sequence_prob, mean_prob, created_at
		FROM predictions ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query predictions: %w", err)
	}
	defer rows.Close()

	var out []domain.PredictionRecord
	for rows.Next() {
		var (
			rec       domain.PredictionRecord
			level     string
			createdAt string
		)
		if err := rows.Scan(&rec.ID, &rec.Rainfall, &rec.Temperature, &rec.Humidity, &rec.Result, &level,
			&rec.Confidence, &rec.TabularProb, &rec.SequenceProb, &rec.MeanProb, &createdAt); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.Level = domain.RiskLevel(level)
		rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Len(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count predictions: %w", err)
	}
	return n, nil
}

// Ping reports whether the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
