// internal/console/controller.go
//
// Package console
// ─────────────────────────────────────────────
// 提供互動式文字選單，作為 bank 模組的應用層 (Application Layer)。
// 每個選單動作僅負責：
//  1. 讀取並驗證使用者輸入（無效輸入一律重新提示）
//  2. 呼叫 bank.Directory 執行商業邏輯
//  3. 輸出結果訊息
//  4. 成功變更狀態後呼叫 c.save()，將整個目錄寫入快照
//
// 狀態機：MainMenu → {Register, Login, Exit}；登入成功 → AccountMenu →
// {Deposit, Withdraw, Transfer, Statement, Logout → MainMenu}。
// 輸入結束 (EOF) 等同選擇 Exit。
package console

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"bankcli/internal/applog"
	"bankcli/internal/bank"
)

// PasswordReader 讀取一行密碼（不含換行）。終端機環境可改為不回顯的實作。
type PasswordReader func() (string, error)

// Controller 為選單層核心結構：
// - dir：注入的帳戶目錄（唯一可變狀態）。
// - persist：注入持久化鉤子，controller 不需關心儲存後端。
type Controller struct {
	dir     *bank.Directory
	persist func(ctx context.Context) error

	in           *bufio.Reader
	out          io.Writer
	readPassword PasswordReader
}

// Option 調整 Controller 的輸入來源。
type Option func(*Controller)

// WithPasswordReader 替換密碼讀取方式。
func WithPasswordReader(r PasswordReader) Option {
	return func(c *Controller) { c.readPassword = r }
}

// NewController 建立選單控制器。
// persist 可為 nil；若提供則會於每次成功變更與離開時觸發。
func NewController(dir *bank.Directory, persist func(ctx context.Context) error, in io.Reader, out io.Writer, opts ...Option) *Controller {
	c := &Controller{
		dir:     dir,
		persist: persist,
		in:      bufio.NewReaderSize(in, maxLineBytes),
		out:     out,
	}
	c.readPassword = c.readLine
	for _, o := range opts {
		o(c)
	}
	return c
}

// session 代表一次登入到登出之間的狀態。
type session struct {
	id       string
	username string
	number   int64
}

// Run 執行主選單直到使用者選擇 Exit 或輸入結束。
// 正常離開回傳 nil；ctx 取消時回傳 ctx.Err()。
func (c *Controller) Run(ctx context.Context) error {
	err := c.loop(ctx, c.mainMenu())
	if errors.Is(err, io.EOF) {
		c.exit(ctx)
		return nil
	}
	return err
}

// loop 顯示選單、讀取選項並分派，直到某個動作要求離開。
func (c *Controller) loop(ctx context.Context, m menu) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		c.render(m)
		choice, err := c.readChoice(1, len(m.items))
		if err != nil {
			return err
		}

		leave, err := m.items[choice-1].run(ctx)
		if err != nil {
			return err
		}
		if leave {
			return nil
		}
	}
}

// ────────────────
// 主選單動作
// ────────────────

func (c *Controller) register(ctx context.Context) (bool, error) {
	c.printf("Enter username: ")
	username, err := c.readTrimmed()
	if err != nil {
		return false, c.rejectLong(err)
	}

	if _, err := c.dir.FindByUsername(username); err == nil {
		c.println("❌ Username already exists!")
		return false, nil
	}

	c.printf("Enter password: ")
	password, err := c.readPassword()
	if err != nil {
		return false, c.rejectLong(err)
	}

	a, err := c.dir.Register(username, password)
	if err != nil {
		c.println(registerFailure(err))
		return false, nil
	}

	applog.FromContext(ctx).InfoContext(ctx, "account registered", "username", a.Username, "account", a.Number)
	c.save(ctx)
	c.printf("✅ Registration successful! Account: %d\n", a.Number)
	return false, nil
}

func (c *Controller) login(ctx context.Context) (bool, error) {
	c.printf("Username: ")
	username, err := c.readTrimmed()
	if err != nil {
		return false, c.rejectLong(err)
	}
	c.printf("Password: ")
	password, err := c.readPassword()
	if err != nil {
		return false, c.rejectLong(err)
	}

	logger := applog.FromContext(ctx)

	a, err := c.dir.Login(username, password)
	if err != nil {
		logger.WarnContext(ctx, "login failed", "username", username)
		c.println("❌ Invalid credentials!")
		return false, nil
	}

	s := &session{id: uuid.NewString(), username: a.Username, number: a.Number}
	sessionLogger := logger.With(slog.Group("session", "id", s.id, "username", s.username))
	ctx = applog.WithLogger(ctx, sessionLogger)

	sessionLogger.InfoContext(ctx, "login")
	c.printf("✅ Login successful! Welcome, %s\n", a.Username)

	if err := c.loop(ctx, c.accountMenu(s)); err != nil {
		return false, err
	}
	sessionLogger.InfoContext(ctx, "logout")
	return false, nil
}

func (c *Controller) exit(ctx context.Context) {
	c.save(ctx)
	c.println("Thank you for banking with us!")
}

// ────────────────
// 帳戶選單動作
// ────────────────

func (c *Controller) deposit(ctx context.Context, s *session) (bool, error) {
	c.printf("Enter deposit amount: $")
	amount, err := c.readAmount()
	if err != nil {
		return false, err
	}

	a, err := c.dir.Deposit(s.username, amount)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "deposit rejected", "error", err)
		c.println("❌ Invalid deposit amount!")
		return false, nil
	}

	applog.FromContext(ctx).InfoContext(ctx, "deposit", "amount", amount.StringFixed(2))
	c.save(ctx)
	c.printf("✅ Deposit successful! New balance: %s\n", money(a.Balance))
	return false, nil
}

func (c *Controller) withdraw(ctx context.Context, s *session) (bool, error) {
	c.printf("Enter withdrawal amount: $")
	amount, err := c.readAmount()
	if err != nil {
		return false, err
	}

	a, err := c.dir.Withdraw(s.username, amount)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "withdrawal rejected", "error", err)
		c.println("❌ Insufficient funds or invalid amount!")
		return false, nil
	}

	applog.FromContext(ctx).InfoContext(ctx, "withdrawal", "amount", amount.StringFixed(2))
	c.save(ctx)
	c.printf("✅ Withdrawal successful! New balance: %s\n", money(a.Balance))
	return false, nil
}

func (c *Controller) transfer(ctx context.Context, s *session) (bool, error) {
	c.printf("Enter recipient account number: ")
	to, err := c.readAccountNumber()
	if err != nil {
		return false, err
	}

	if _, err := c.dir.FindByAccountNumber(to); err != nil {
		c.println("❌ Recipient account not found!")
		return false, nil
	}
	if to == s.number {
		c.println("❌ Cannot transfer to your own account!")
		return false, nil
	}

	c.printf("Enter transfer amount: $")
	amount, err := c.readAmount()
	if err != nil {
		return false, err
	}

	res, err := c.dir.Transfer(s.username, to, amount)
	if err != nil {
		applog.FromContext(ctx).WarnContext(ctx, "transfer rejected", "to", to, "error", err)
		c.println(transferFailure(err))
		return false, nil
	}

	applog.FromContext(ctx).InfoContext(ctx, "transfer",
		"from", res.FromNumber, "to", res.ToNumber, "amount", res.Amount.StringFixed(2))
	c.save(ctx)
	c.println("✅ Transfer successful!")
	c.printf("New balance: %s\n", money(res.FromBalance))
	return false, nil
}

func (c *Controller) statement(_ context.Context, s *session) (bool, error) {
	a, err := c.dir.FindByUsername(s.username)
	if err != nil {
		return false, err
	}
	c.println(a.Statement())
	return false, nil
}

func (c *Controller) logout(_ context.Context, _ *session) (bool, error) {
	c.println("Logged out successfully.")
	return true, nil
}

// save 觸發持久化鉤子；失敗只提示使用者，選單照常繼續。
func (c *Controller) save(ctx context.Context) {
	if c.persist == nil {
		return
	}
	if err := c.persist(ctx); err != nil {
		c.println("⚠️  Warning: could not save data, recent changes may be lost.")
	}
}

// rejectLong 將過長的輸入行轉為提示並回到選單；其他錯誤原樣回傳。
func (c *Controller) rejectLong(err error) error {
	if errors.Is(err, errLineTooLong) {
		c.println("❌ Input too long!")
		return nil
	}
	return err
}

func registerFailure(err error) string {
	switch {
	case errors.Is(err, bank.ErrDuplicateUsername):
		return "❌ Username already exists!"
	case errors.Is(err, bank.ErrEmptyUsername):
		return "❌ Username cannot be empty!"
	case errors.Is(err, bank.ErrEmptyPassword):
		return "❌ Password cannot be empty!"
	case errors.Is(err, bank.ErrPasswordTooLong):
		return "❌ Password is too long!"
	}
	return "❌ Registration failed: " + err.Error()
}

func transferFailure(err error) string {
	switch {
	case errors.Is(err, bank.ErrInsufficientFunds):
		return "❌ Transfer failed - insufficient funds!"
	case errors.Is(err, bank.ErrRecipientNotFound):
		return "❌ Recipient account not found!"
	case errors.Is(err, bank.ErrSameAccount):
		return "❌ Cannot transfer to your own account!"
	case errors.Is(err, bank.ErrInvalidAmount):
		return "❌ Invalid transfer amount!"
	}
	return "❌ Transfer failed: " + err.Error()
}
