// internal/storage/pgstore.go
//
// PostgresStore 將整份快照以 JSONB 形式寫入 snapshots 資料表。
// 每次 Save 新增一列並只保留最近 keep 份，Load 永遠讀取最新一份。
// 與 FileStore 相同的 Snapshot 結構，因此兩個後端可以互相搬移資料。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	postgresStorageKind = "postgres_snapshot"
	defaultKeep         = 10
)

type PostgresStore struct {
	pool *pgxpool.Pool
	keep int
}

// OpenPostgres 建立連線池、確認連線並套用所有 migration。
func OpenPostgres(ctx context.Context, connStr string, maxConns int32) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connStr)

	if err != nil {
		return nil, fmt.Errorf("pgx failed to parse config: %w", err)
	}

	if maxConns > 0 {
		config.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)

	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	err = MigrateUp(ctx, pool, math.MaxInt32)

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate snapshots schema failed: %w", err)
	}

	return &PostgresStore{pool: pool, keep: defaultKeep}, nil
}

// SetKeep 設定保留的歷史快照份數（至少 1）。
func (s *PostgresStore) SetKeep(n int) {
	if n < 1 {
		n = 1
	}
	s.keep = n
}

func (s *PostgresStore) Load(ctx context.Context) (Snapshot, error) {
	sql := "SELECT body FROM snapshots ORDER BY id DESC LIMIT 1"

	var body []byte

	err := s.pool.QueryRow(ctx, sql).Scan(&body)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrNoSnapshot
		}

		return Snapshot{}, fmt.Errorf("select latest snapshot failed: %w", err)
	}

	var snap Snapshot

	err = json.Unmarshal(body, &snap)

	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot failed: %w", err)
	}

	err = checkVersion(snap)

	if err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}

func (s *PostgresStore) Save(ctx context.Context, snap Snapshot) error {
	snap.Meta.Storage = postgresStorageKind
	snap.Meta.Version = SchemaVersion
	snap.Meta.Timestamp = time.Now().UTC()

	body, err := json.Marshal(snap)

	if err != nil {
		return fmt.Errorf("encode snapshot failed: %w", err)
	}

	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		err := insertSnapshot(ctx, tx, snap.Meta, body)

		if err != nil {
			return fmt.Errorf("insert snapshot failed: %w", err)
		}

		err = pruneSnapshots(ctx, tx, s.keep)

		if err != nil {
			return fmt.Errorf("prune snapshots failed: %w", err)
		}

		return nil
	})
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func insertSnapshot(ctx context.Context, dbtx DBTX, meta Meta, body []byte) error {
	sql := "INSERT INTO snapshots (taken_at, version, body) VALUES ($1, $2, $3::jsonb)"

	_, err := dbtx.Exec(ctx, sql, meta.Timestamp, meta.Version, body)

	return err
}

func pruneSnapshots(ctx context.Context, dbtx DBTX, keep int) error {
	sql := "DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT $1)"

	_, err := dbtx.Exec(ctx, sql, keep)

	return err
}

func countSnapshots(ctx context.Context, dbtx DBTX) (int, error) {
	sql := "SELECT COUNT(*) FROM snapshots"

	var n int

	err := dbtx.QueryRow(ctx, sql).Scan(&n)

	return n, err
}
