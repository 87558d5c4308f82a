// internal/bank/bank.go

// Package bank 定義核心商業邏輯：註冊、登入、存款、提款、轉帳與對帳單。
// Directory 為唯一的可變狀態，由呼叫端明確持有（無全域變數）。
// 採用單一互斥鎖 (sync.Mutex) 序列化所有狀態變更；轉帳的扣款與入帳在同一臨界區內完成。
// 金額以 decimal.Decimal 保存，避免浮點誤差。
package bank

import (
	"slices"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
)

// maxNumberAttempts 為產生不重複帳號的最大重試次數。
const maxNumberAttempts = 100

// Directory 為聚合根 (Aggregate Root)：管理全系統帳戶。
// - accts：帳戶索引表（username → *Account）
// - byNumber：帳號索引（account number → username），用於轉帳查找並保證帳號唯一
// 內部指標只在臨界區內修改，對外一律回傳拷貝。
type Directory struct {
	mu       sync.Mutex
	accts    map[string]*Account
	byNumber map[int64]string

	numbers    NumberGenerator
	ids        IDProvider
	clock      Clock
	bcryptCost int
}

// Option 調整 Directory 的相依元件，主要供測試注入。
type Option func(*Directory)

func WithNumberGenerator(g NumberGenerator) Option { return func(d *Directory) { d.numbers = g } }
func WithIDProvider(p IDProvider) Option           { return func(d *Directory) { d.ids = p } }
func WithClock(c Clock) Option                     { return func(d *Directory) { d.clock = c } }
func WithBcryptCost(cost int) Option               { return func(d *Directory) { d.bcryptCost = cost } }

// NewDirectory 建立空白帳戶目錄（僅就緒的 in-memory 狀態，無外部依賴）。
func NewDirectory(opts ...Option) *Directory {
	d := &Directory{
		accts:      make(map[string]*Account),
		byNumber:   make(map[int64]string),
		numbers:    NewRandomNumbers(),
		clock:      NewClock(),
		bcryptCost: 10,
	}
	for _, o := range opts {
		o(d)
	}
	if d.ids == nil {
		// node 0 is always within snowflake's range
		ids, err := NewIDProvider(0)
		if err != nil {
			panic(err)
		}
		d.ids = ids
	}
	return d
}

// Register 建立新帳戶：使用者名稱需唯一（大小寫敏感），帳號保證不與既有帳戶重複。
func (d *Directory) Register(username, password string) (*Account, error) {
	if strings.TrimSpace(username) == "" {
		return nil, ErrEmptyUsername
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.accts[username]; ok {
		return nil, ErrDuplicateUsername
	}

	hash, err := hashPassword(password, d.bcryptCost)
	if err != nil {
		return nil, err
	}
	number, err := d.allocateNumber()
	if err != nil {
		return nil, err
	}

	a := &Account{
		Username:     username,
		PasswordHash: hash,
		Number:       number,
		Balance:      decimal.Zero,
		CreatedAt:    d.clock.NowUTC(),
	}
	d.accts[username] = a
	d.byNumber[number] = username
	return a.clone(), nil
}

// allocateNumber 需在持有 mu 時呼叫。
func (d *Directory) allocateNumber() (int64, error) {
	for range maxNumberAttempts {
		n := d.numbers.Candidate()
		if !ValidAccountNumber(n) {
			continue
		}
		if _, taken := d.byNumber[n]; !taken {
			return n, nil
		}
	}
	return 0, ErrNumberSpaceExhausted
}

// Login 驗證帳密；帳號不存在與密碼錯誤回傳相同錯誤。
func (d *Directory) Login(username, password string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accts[username]
	if !ok || !a.Authenticate(password) {
		return nil, ErrInvalidCredentials
	}
	return a.clone(), nil
}

// FindByUsername 依使用者名稱取得帳戶快照。
func (d *Directory) FindByUsername(username string) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.clone(), nil
}

// FindByAccountNumber 依帳號取得帳戶快照。
func (d *Directory) FindByAccountNumber(number int64) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.lookupNumber(number)
	if !ok {
		return nil, ErrAccountNotFound
	}
	return a.clone(), nil
}

func (d *Directory) lookupNumber(number int64) (*Account, bool) {
	username, ok := d.byNumber[number]
	if !ok {
		return nil, false
	}
	a, ok := d.accts[username]
	return a, ok
}

// Len 回傳帳戶數。
func (d *Directory) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.accts)
}

// Accounts 回傳所有帳戶的拷貝，依使用者名稱排序。
func (d *Directory) Accounts() []*Account {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Account, 0, len(d.accts))
	for _, a := range d.accts {
		out = append(out, a.clone())
	}
	slices.SortFunc(out, func(x, y *Account) int { return strings.Compare(x.Username, y.Username) })
	return out
}

// Deposit 對 username 的帳戶存款，回傳更新後的帳戶快照。
func (d *Directory) Deposit(username string, amount decimal.Decimal) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if err := a.Deposit(amount, d.stamp()); err != nil {
		return nil, err
	}
	return a.clone(), nil
}

// Withdraw 從 username 的帳戶提款，回傳更新後的帳戶快照。
func (d *Directory) Withdraw(username string, amount decimal.Decimal) (*Account, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	a, ok := d.accts[username]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if err := a.Withdraw(amount, d.stamp()); err != nil {
		return nil, err
	}
	return a.clone(), nil
}

// TransferResult 回報轉帳後雙方餘額。
type TransferResult struct {
	FromNumber  int64
	ToNumber    int64
	Amount      decimal.Decimal
	FromBalance decimal.Decimal
	ToBalance   decimal.Decimal
}

// Transfer 為「單一臨界區內」的原子操作：
// 1) 檢核金額 → 2) 解析目標帳號 → 3) 檢查餘額 → 4) 同步扣款與入帳（雙邊交易紀錄）。
// 任一步驟失敗皆不會改變任何帳戶狀態；持久化由呼叫端在成功後執行一次。
func (d *Directory) Transfer(fromUsername string, toNumber int64, amount decimal.Decimal) (TransferResult, error) {
	if !ValidAmount(amount) {
		return TransferResult{}, ErrInvalidAmount
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	from, ok := d.accts[fromUsername]
	if !ok {
		return TransferResult{}, ErrAccountNotFound
	}
	to, ok := d.lookupNumber(toNumber)
	if !ok {
		return TransferResult{}, ErrRecipientNotFound
	}
	if from == to {
		return TransferResult{}, ErrSameAccount
	}
	if from.Balance.LessThan(amount) {
		return TransferResult{}, ErrInsufficientFunds
	}

	// 前面已完成所有檢查，以下兩步不會失敗
	now := d.clock.NowUTC()
	_ = from.Withdraw(amount, Stamp{ID: d.ids.NextID(), Time: now, Counterparty: to.Number})
	_ = to.Deposit(amount, Stamp{ID: d.ids.NextID(), Time: now, Counterparty: from.Number})

	return TransferResult{
		FromNumber:  from.Number,
		ToNumber:    to.Number,
		Amount:      amount,
		FromBalance: from.Balance,
		ToBalance:   to.Balance,
	}, nil
}

// stamp 需在持有 mu 時呼叫。
func (d *Directory) stamp() Stamp {
	return Stamp{ID: d.ids.NextID(), Time: d.clock.NowUTC()}
}
