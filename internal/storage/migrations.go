package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, tx pgx.Tx) error
	Down        func(ctx context.Context, tx pgx.Tx) error
}

type migrationVersion struct {
	Version     int
	AppliedAt   time.Time
	Description string
}

type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func createSnapshots(ctx context.Context, tx pgx.Tx) error {
	sql := `
	CREATE TABLE snapshots (
		id       BIGSERIAL PRIMARY KEY,
		taken_at TIMESTAMPTZ NOT NULL,
		version  INT NOT NULL,
		body     JSONB NOT NULL
	);`
	_, err := tx.Exec(ctx, sql)
	return err
}

func dropSnapshots(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `DROP TABLE snapshots;`)
	return err
}

func createSnapshotsTakenAtIndex(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `CREATE INDEX idx_snapshots_taken_at ON snapshots (taken_at);`)
	return err
}

func dropSnapshotsTakenAtIndex(ctx context.Context, tx pgx.Tx) error {
	_, err := tx.Exec(ctx, `DROP INDEX idx_snapshots_taken_at;`)
	return err
}

var Migrations = []Migration{
	{Version: 1, Description: "Create snapshots table", Up: createSnapshots, Down: dropSnapshots},
	{Version: 2, Description: "Index snapshots by taken_at", Up: createSnapshotsTakenAtIndex, Down: dropSnapshotsTakenAtIndex},
}

func ensureVersionTable(ctx context.Context, db DBTX) error {
	sql := "CREATE TABLE IF NOT EXISTS __db_migrations (version INT PRIMARY KEY, applied_at TIMESTAMP WITH TIME ZONE NOT NULL, description TEXT NOT NULL);"

	_, err := db.Exec(ctx, sql)

	return err
}

func getMaxAppliedVersion(ctx context.Context, db DBTX) (int, error) {
	sql := "SELECT version FROM __db_migrations ORDER BY version DESC LIMIT 1;"

	var version int

	err := db.QueryRow(ctx, sql).Scan(&version)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return version, err
}

func insertMigration(ctx context.Context, tx pgx.Tx, m migrationVersion) error {
	sql := "INSERT INTO __db_migrations (version, applied_at, description) VALUES ($1, $2, $3);"

	_, err := tx.Exec(ctx, sql, m.Version, m.AppliedAt, m.Description)

	return err
}

func deleteMigration(ctx context.Context, tx pgx.Tx, version int) error {
	sql := "DELETE FROM __db_migrations WHERE version = $1;"

	_, err := tx.Exec(ctx, sql, version)

	return err
}

// MigrateUp applies every migration up to and including targetVersion.
func MigrateUp(ctx context.Context, pool *pgxpool.Pool, targetVersion int) error {
	err := ensureVersionTable(ctx, pool)

	if err != nil {
		return err
	}

	maxAppliedVersion, err := getMaxAppliedVersion(ctx, pool)

	if err != nil {
		return err
	}

	for _, m := range Migrations {
		if m.Version > targetVersion {
			break
		}

		if m.Version <= maxAppliedVersion {
			continue
		}

		err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			err := m.Up(ctx, tx)

			if err != nil {
				return err
			}

			return insertMigration(ctx, tx, migrationVersion{
				Version:     m.Version,
				AppliedAt:   time.Now().UTC(),
				Description: m.Description,
			})
		})

		if err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown reverts applied migrations down to, and including, targetVersion.
func MigrateDown(ctx context.Context, pool *pgxpool.Pool, targetVersion int) error {
	err := ensureVersionTable(ctx, pool)

	if err != nil {
		return err
	}

	maxAppliedVersion, err := getMaxAppliedVersion(ctx, pool)

	if err != nil {
		return err
	}

	for i := len(Migrations) - 1; i >= 0; i-- {
		m := Migrations[i]

		if m.Version > maxAppliedVersion {
			continue
		}

		if m.Version < targetVersion {
			break
		}

		err := pgx.BeginTxFunc(ctx, pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
			err := m.Down(ctx, tx)

			if err != nil {
				return err
			}

			return deleteMigration(ctx, tx, m.Version)
		})

		if err != nil {
			return err
		}
	}

	return nil
}
