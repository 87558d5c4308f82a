package bank

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bankcli/internal/applog"
	"bankcli/internal/storage"
)

// Gateway 連接 Directory 與快照後端：啟動時載入一次，每個 save point 整體覆寫。
// Save 彼此互斥，訊號處理與選單同時保存時不會交錯寫入同一個暫存檔。
type Gateway struct {
	mu    sync.Mutex
	store storage.Store
}

func NewGateway(store storage.Store) *Gateway {
	return &Gateway{store: store}
}

// Load 將後端最新快照還原到 d。
// 後端沒有快照時視為全新開始；其他讀取或還原失敗只記錄錯誤，d 保持空白。
func (g *Gateway) Load(ctx context.Context, d *Directory) {
	logger := applog.FromContext(ctx)

	snap, err := g.store.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNoSnapshot) {
			logger.InfoContext(ctx, "no existing data found, starting fresh")
			return
		}
		logger.ErrorContext(ctx, "error loading data, starting with an empty directory", "error", err)
		return
	}

	if err := d.Restore(snap); err != nil {
		logger.ErrorContext(ctx, "error restoring data, starting with an empty directory", "error", err)
		return
	}

	logger.InfoContext(ctx, "data loaded successfully", "accounts", d.Len(), "snapshot_time", snap.Meta.Timestamp)
}

// Save 將 d 的完整快照寫入後端；失敗時記錄並回傳錯誤，由呼叫端決定是否提示使用者。
func (g *Gateway) Save(ctx context.Context, d *Directory) error {
	logger := applog.FromContext(ctx)

	g.mu.Lock()
	defer g.mu.Unlock()

	snap := d.Snapshot()
	if err := g.store.Save(ctx, snap); err != nil {
		logger.ErrorContext(ctx, "error saving data", "error", err)
		return fmt.Errorf("save snapshot failed: %w", err)
	}

	logger.DebugContext(ctx, "data saved", "accounts", len(snap.Accounts))
	return nil
}
