// cmd/bank/main.go

// 本程式提供互動式主控台銀行：註冊、登入、存提款、轉帳與對帳單。
// 此檔案負責初始化模組（config, applog, storage, bank, console），
// 啟動時載入快照，並於每次變更、正常離開與收到中斷訊號時保存。

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"bankcli/internal/applog"
	"bankcli/internal/bank"
	"bankcli/internal/config"
	"bankcli/internal/console"
	"bankcli/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "bank:", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath, "path to the base YAML config")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := applog.New(os.Stderr, applog.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	ctx := applog.WithLogger(context.Background(), logger)
	logger.InfoContext(ctx, "starting", "storage", cfg.Storage, "env", cfg.ENV)

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ids, err := bank.NewIDProvider(cfg.NodeID)
	if err != nil {
		return err
	}

	// 初始化銀行核心模組並嘗試載入上次快照，失敗時以空目錄啟動
	dir := bank.NewDirectory(bank.WithIDProvider(ids), bank.WithBcryptCost(cfg.BcryptCost))
	gateway := bank.NewGateway(store)
	gateway.Load(ctx, dir)

	persist := func(ctx context.Context) error {
		return gateway.Save(ctx, dir)
	}

	var opts []console.Option
	if term.IsTerminal(int(os.Stdin.Fd())) {
		opts = append(opts, console.WithPasswordReader(readHiddenPassword))
	}
	c := console.NewController(dir, persist, os.Stdin, os.Stdout, opts...)

	// 監聽 SIGINT/SIGTERM，結束前保存狀態
	go func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		sig := <-ch
		logger.InfoContext(ctx, "signal received, saving before exit", "signal", sig.String())
		_ = persist(ctx)
		store.Close()
		os.Exit(0)
	}()

	if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "console stopped", "error", err)
		_ = persist(ctx)
		return err
	}

	logger.InfoContext(ctx, "bye")
	return nil
}

// openStore 依設定選擇快照後端。
func openStore(ctx context.Context, cfg *config.AppConfig) (storage.Store, error) {
	switch cfg.Storage {
	case config.StoragePostgres:
		pg, err := storage.OpenPostgres(ctx, cfg.DBConnStr, cfg.DBMaxConnections)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		pg.SetKeep(cfg.SnapshotsKept)
		return pg, nil
	default:
		applog.FromContext(ctx).DebugContext(ctx, "using file store", slog.String("path", cfg.DataFile))
		return storage.NewFileStore(cfg.DataFile), nil
	}
}

// readHiddenPassword 從終端機讀取密碼且不回顯。
func readHiddenPassword() (string, error) {
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stdout)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
