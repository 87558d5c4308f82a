// 本檔定義 Account 與 Transaction 結構及單一帳戶上的操作，不含任何 I/O 或儲存細節。

package bank

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TxKind 為交易類型。
type TxKind string

const (
	TxDeposit    TxKind = "DEPOSIT"
	TxWithdrawal TxKind = "WITHDRAWAL"
)

// MaxAmount 為單筆存款、提款或轉帳的上限。
var MaxAmount = decimal.New(1_000_000_000, 0)

// ValidAmount reports whether amount is positive and within MaxAmount.
func ValidAmount(amount decimal.Decimal) bool {
	return amount.IsPositive() && amount.LessThanOrEqual(MaxAmount)
}

// statementTimeLayout 為對帳單上的時間格式。
const statementTimeLayout = "2006-01-02 15:04:05 MST"

// Transaction represents one immutable ledger entry.
// Amount is signed: withdrawals are negative.
type Transaction struct {
	ID           int64
	Kind         TxKind
	Amount       decimal.Decimal
	Time         time.Time
	Counterparty int64 // 轉帳對方帳號，非轉帳為 0
}

// Stamp 攜帶新交易的識別資訊，由 Directory 產生。
type Stamp struct {
	ID           int64
	Time         time.Time
	Counterparty int64
}

// Account represents a registered user and their bank account.
type Account struct {
	Username     string
	PasswordHash string
	Number       int64
	Balance      decimal.Decimal
	CreatedAt    time.Time
	Transactions []Transaction
}

// Authenticate 僅在 password 與註冊時的明文完全相同時回傳 true。
func (a *Account) Authenticate(password string) bool {
	return verifyPassword(a.PasswordHash, password)
}

// Deposit 存款：金額需 > 0 且不超過 MaxAmount；失敗時不改變任何狀態。
// 餘額與交易紀錄同時更新，維持「餘額 = 交易金額總和」。
func (a *Account) Deposit(amount decimal.Decimal, s Stamp) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	a.Balance = a.Balance.Add(amount)
	a.Transactions = append(a.Transactions, Transaction{
		ID: s.ID, Kind: TxDeposit, Amount: amount, Time: s.Time, Counterparty: s.Counterparty,
	})
	return nil
}

// Withdraw 提款：金額需 > 0 且不得超過餘額（維持非負）。
// 交易紀錄以負數保存。
func (a *Account) Withdraw(amount decimal.Decimal, s Stamp) error {
	if !ValidAmount(amount) {
		return ErrInvalidAmount
	}
	if amount.GreaterThan(a.Balance) {
		return ErrInsufficientFunds
	}
	a.Balance = a.Balance.Sub(amount)
	a.Transactions = append(a.Transactions, Transaction{
		ID: s.ID, Kind: TxWithdrawal, Amount: amount.Neg(), Time: s.Time, Counterparty: s.Counterparty,
	})
	return nil
}

// Statement 產生人類可讀的對帳單；交易依加入順序（時間先後）列出，金額固定兩位小數。
func (a *Account) Statement() string {
	var sb strings.Builder
	sb.WriteString("=== ACCOUNT STATEMENT ===\n")
	fmt.Fprintf(&sb, "Account: %d\n", a.Number)
	fmt.Fprintf(&sb, "Balance: $%s\n\n", a.Balance.StringFixed(2))
	sb.WriteString("Transactions:\n")
	for _, t := range a.Transactions {
		sb.WriteString(t.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// String 格式：<timestamp> | <KIND> | $<signed amount>，轉帳附註對方帳號。
func (t Transaction) String() string {
	line := fmt.Sprintf("%s | %s | $%s", t.Time.Format(statementTimeLayout), t.Kind, t.Amount.StringFixed(2))
	if t.Counterparty == 0 {
		return line
	}
	if t.Amount.IsNegative() {
		return fmt.Sprintf("%s (transfer to %d)", line, t.Counterparty)
	}
	return fmt.Sprintf("%s (transfer from %d)", line, t.Counterparty)
}

// ledgerSum 回傳所有交易金額的總和，用來檢查餘額不變量。
func (a *Account) ledgerSum() decimal.Decimal {
	sum := decimal.Zero
	for _, t := range a.Transactions {
		sum = sum.Add(t.Amount)
	}
	return sum
}

// clone 深拷貝帳戶，讓交易切片不與內部狀態共用。
func (a *Account) clone() *Account {
	cp := *a
	cp.Transactions = make([]Transaction, len(a.Transactions))
	copy(cp.Transactions, a.Transactions)
	return &cp
}
