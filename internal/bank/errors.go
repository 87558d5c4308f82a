// internal/bank/errors.go
//
// 本檔集中定義「領域錯誤（domain errors）」。
// 這些錯誤屬於商業邏輯層級（非系統錯誤），由上層 console 控制器轉換成使用者訊息。

package bank

import "errors"

var (
	// ErrDuplicateUsername 代表使用者名稱已被註冊（大小寫視為不同）。
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrEmptyUsername 代表使用者名稱為空白。
	ErrEmptyUsername = errors.New("username must not be empty")

	// ErrEmptyPassword 代表密碼為空字串。
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrPasswordTooLong 代表密碼超過 bcrypt 可處理的 72 bytes。
	ErrPasswordTooLong = errors.New("password longer than 72 bytes")

	// ErrInvalidCredentials 代表帳號不存在或密碼錯誤；兩者刻意不區分。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrAccountNotFound 代表依使用者名稱或帳號查無帳戶。
	ErrAccountNotFound = errors.New("account not found")

	// ErrRecipientNotFound 代表轉帳目標帳號不存在。
	ErrRecipientNotFound = errors.New("recipient account not found")

	// ErrInvalidAmount 代表金額非法（<= 0 或超過 MaxAmount）。
	ErrInvalidAmount = errors.New("amount must be > 0 and at most 1000000000")

	// ErrInsufficientFunds 代表餘額不足，導致提款或轉帳失敗。
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrSameAccount 代表轉帳來源與目標帳戶相同。
	ErrSameAccount = errors.New("from and to are same")

	// ErrNumberSpaceExhausted 代表連續多次產生的帳號皆已被使用。
	ErrNumberSpaceExhausted = errors.New("could not allocate a free account number")

	// ErrCorruptSnapshot 代表快照內容違反帳戶不變量（重複帳號、餘額與交易不符等）。
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
