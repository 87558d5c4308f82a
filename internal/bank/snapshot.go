package bank

import (
	"fmt"

	"bankcli/internal/storage"
)

// Snapshot 匯出目錄狀態到可持久化的 storage.Snapshot。
// 帳戶依使用者名稱排序，讓相同狀態產出相同檔案內容。
func (d *Directory) Snapshot() storage.Snapshot {
	s := storage.Snapshot{
		Meta: storage.Meta{Note: "username -> account directory"},
	}
	for _, a := range d.Accounts() {
		pa := storage.PersistAccount{
			Username:      a.Username,
			PasswordHash:  a.PasswordHash,
			AccountNumber: a.Number,
			Balance:       a.Balance,
			CreatedAt:     a.CreatedAt,
			Transactions:  make([]storage.PersistTransaction, 0, len(a.Transactions)),
		}
		for _, t := range a.Transactions {
			pa.Transactions = append(pa.Transactions, storage.PersistTransaction{
				ID:           t.ID,
				Kind:         string(t.Kind),
				Amount:       t.Amount,
				Timestamp:    t.Time,
				Counterparty: t.Counterparty,
			})
		}
		s.Accounts = append(s.Accounts, pa)
	}
	return s
}

// Restore 由 storage.Snapshot 還原目錄狀態。
// 先完整驗證再替換：任何不變量被破壞時回傳 ErrCorruptSnapshot，原狀態保持不變。
func (d *Directory) Restore(s storage.Snapshot) error {
	accts := make(map[string]*Account, len(s.Accounts))
	byNumber := make(map[int64]string, len(s.Accounts))

	for _, pa := range s.Accounts {
		if pa.Username == "" {
			return fmt.Errorf("%w: empty username", ErrCorruptSnapshot)
		}
		if _, dup := accts[pa.Username]; dup {
			return fmt.Errorf("%w: duplicate username %q", ErrCorruptSnapshot, pa.Username)
		}
		if other, dup := byNumber[pa.AccountNumber]; dup {
			return fmt.Errorf("%w: account number %d shared by %q and %q", ErrCorruptSnapshot, pa.AccountNumber, other, pa.Username)
		}

		a := &Account{
			Username:     pa.Username,
			PasswordHash: pa.PasswordHash,
			Number:       pa.AccountNumber,
			Balance:      pa.Balance,
			CreatedAt:    pa.CreatedAt,
			Transactions: make([]Transaction, 0, len(pa.Transactions)),
		}
		for _, pt := range pa.Transactions {
			kind := TxKind(pt.Kind)
			if kind != TxDeposit && kind != TxWithdrawal {
				return fmt.Errorf("%w: unknown transaction kind %q", ErrCorruptSnapshot, pt.Kind)
			}
			a.Transactions = append(a.Transactions, Transaction{
				ID:           pt.ID,
				Kind:         kind,
				Amount:       pt.Amount,
				Time:         pt.Timestamp,
				Counterparty: pt.Counterparty,
			})
		}
		if a.Balance.IsNegative() {
			return fmt.Errorf("%w: negative balance for %q", ErrCorruptSnapshot, a.Username)
		}
		if !a.Balance.Equal(a.ledgerSum()) {
			return fmt.Errorf("%w: balance of %q does not match its transactions", ErrCorruptSnapshot, a.Username)
		}

		accts[a.Username] = a
		byNumber[a.Number] = a.Username
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.accts = accts
	d.byNumber = byNumber
	return nil
}
