// internal/storage/store.go
//
// Store 為快照後端的共同介面；目前有兩個實作：
//   - FileStore：單一 JSON 檔（預設）
//   - PostgresStore：將快照以 JSONB 保存於 PostgreSQL
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshot 代表後端尚無任何快照（第一次啟動），不是錯誤狀態。
	ErrNoSnapshot = errors.New("no snapshot found")

	// ErrUnsupportedVersion 代表快照版本與本程式不相容。
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Store loads and saves whole-directory snapshots.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}

func checkVersion(snap Snapshot) error {
	if snap.Meta.Version != SchemaVersion {
		return fmt.Errorf("%w: got %d, want %d", ErrUnsupportedVersion, snap.Meta.Version, SchemaVersion)
	}
	return nil
}
