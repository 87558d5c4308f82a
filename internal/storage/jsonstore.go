// internal/storage/jsonstore.go
//
// 提供 JSON 快照 (Snapshot) 的序列化與反序列化實作。
// 採「原子寫入」策略 (atomic write)：先寫入 .tmp 檔，再以 rename() 取代原檔，
// 寫入中途失敗時原檔保持完整。
// 檔案只在 Load/Save 呼叫期間開啟，呼叫結束即關閉。
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileStorageKind = "json_snapshot"

// FileStore 將快照保存於單一 JSON 檔。
type FileStore struct {
	path string
}

// NewFileStore 建立指向 path 的檔案後端；檔案不存在時不會建立。
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path 回傳快照檔路徑。
func (s *FileStore) Path() string { return s.path }

// Load 讀取 JSON 快照；檔案不存在時回傳 ErrNoSnapshot。
func (s *FileStore) Load(_ context.Context) (Snapshot, error) {
	return LoadSnapshot(s.path)
}

// Save 以原子方式覆寫 JSON 快照。
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	return SaveSnapshot(s.path, snap)
}

// Close 無需釋放任何資源。
func (s *FileStore) Close() error { return nil }

// LoadSnapshot 讀取指定路徑的 JSON 快照，並解析成 Snapshot 結構。
func LoadSnapshot(path string) (Snapshot, error) {
	var snap Snapshot
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snap, ErrNoSnapshot
		}
		return snap, fmt.Errorf("open snapshot failed: %w", err)
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot failed: %w", err)
	}
	if err := checkVersion(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SaveSnapshot 將 Snapshot 序列化為 JSON 檔案，並採原子方式寫入。
// 流程：
//  1. 設定 Meta.Storage、版本與當前時間戳。
//  2. 寫入 path+".tmp" 暫存檔並 fsync。
//  3. 使用 os.Rename() 取代正式檔案。
func SaveSnapshot(path string, snap Snapshot) error {
	snap.Meta.Storage = fileStorageKind
	snap.Meta.Version = SchemaVersion
	snap.Meta.Timestamp = time.Now().UTC()
	tmp := path + ".tmp"

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create snapshot dir failed: %w", err)
		}
	}

	// 快照內含密碼雜湊，只給擁有者讀寫
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("create temp snapshot failed: %w", err)
	}

	// 使用縮排格式輸出，方便人類閱讀
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode snapshot failed: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync snapshot failed: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close snapshot failed: %w", err)
	}

	// 原子替換
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace snapshot failed: %w", err)
	}
	return nil
}
