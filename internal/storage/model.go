// internal/storage/model.go
//
// 定義「資料持久化層 (storage layer)」的結構模型。
// 該層只描述快照在磁碟（JSON）或資料庫（JSONB）上的長相，
// 並保存必要的中繼資訊 (Meta)，以便版本控制與切換後端。
//
// ───────────────────────────────
// 設計理念：
// - **關注分離**：此層僅定義資料結構，不涉入商業邏輯。
// - **可演進性**：Meta 保留版本與時間戳，讀取時可拒絕未來版本。
// - **可攜性**：金額一律以十進位字串保存，不依賴任何語言的原生序列化格式。
// ───────────────────────────────
package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SchemaVersion 為目前寫出的快照結構版本。
const SchemaVersion = 2

// Meta 為所有持久化快照的中繼資料 (metadata)。
type Meta struct {
	Storage   string    `json:"storage"`        // 儲存類型，例如 "json_snapshot"、"postgres_snapshot"
	Version   int       `json:"version"`        // 結構版本號
	Timestamp time.Time `json:"timestamp"`      // 快照建立時間
	Note      string    `json:"note,omitempty"` // 備註欄
}

// PersistTransaction 為單筆交易紀錄在儲存層的格式。
type PersistTransaction struct {
	ID           int64           `json:"id"`
	Kind         string          `json:"kind"`
	Amount       decimal.Decimal `json:"amount"` // 帶正負號，提款為負
	Timestamp    time.Time       `json:"timestamp"`
	Counterparty int64           `json:"counterparty,omitempty"` // 轉帳對方帳號
}

// PersistAccount 為帳戶在儲存層的序列化格式。
// 不含同步鎖或方法，僅保存資料狀態。
type PersistAccount struct {
	Username      string               `json:"username"`
	PasswordHash  string               `json:"password_hash"`
	AccountNumber int64                `json:"account_number"`
	Balance       decimal.Decimal      `json:"balance"`
	CreatedAt     time.Time            `json:"created_at"`
	Transactions  []PersistTransaction `json:"transactions"`
}

// Snapshot 為整個帳戶目錄的完整快照，整體載入、整體覆寫。
type Snapshot struct {
	Meta     Meta             `json:"_meta"`
	Accounts []PersistAccount `json:"accounts"`
}
