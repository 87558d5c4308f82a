// internal/console/controller_test.go
//
// 本檔為 console 層的整合測試。
// 以腳本化輸入模擬完整操作流程，驗證選單與 bank 層之間的整合、輸入重新提示、
// 以及持久化鉤子 (persist hook) 是否在每次成功變更後正確觸發。
package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"bankcli/internal/bank"
)

// seqNumbers 依序回傳 1000000001, 1000000002, ...
type seqNumbers struct{ next int64 }

func (s *seqNumbers) Candidate() int64 {
	s.next++
	return 1_000_000_000 + s.next
}

const (
	aliceNumber = "1000000001"
	bobNumber   = "1000000002"
)

type harness struct {
	dir     *bank.Directory
	out     *bytes.Buffer
	persist atomic.Int32
	failing bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		dir: bank.NewDirectory(bank.WithNumberGenerator(&seqNumbers{}), bank.WithBcryptCost(4)),
		out: &bytes.Buffer{},
	}
}

// run 以多行腳本作為輸入執行 controller。
func (h *harness) run(t *testing.T, lines ...string) error {
	t.Helper()
	persist := func(ctx context.Context) error {
		h.persist.Add(1)
		if h.failing {
			return errors.New("disk full")
		}
		return nil
	}
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	return NewController(h.dir, persist, in, h.out).Run(context.Background())
}

func (h *harness) balance(t *testing.T, username string) decimal.Decimal {
	t.Helper()
	a, err := h.dir.FindByUsername(username)
	require.NoError(t, err)
	return a.Balance
}

// TestFullSessionAndPersistHook
// ------------------------------------------------------------
// 驗證註冊、登入、存提款、轉帳、對帳單、登出與離開的完整流程。
// ------------------------------------------------------------
func TestFullSessionAndPersistHook(t *testing.T) {
	h := newHarness(t)

	err := h.run(t,
		// 1️⃣ 註冊兩個帳戶
		"1", "alice", "pw",
		"1", "bob", "secret",
		// 2️⃣ 登入 alice
		"2", "alice", "pw",
		// 3️⃣ 存款與提款
		"1", "100",
		"2", "0.50",
		// 4️⃣ 轉帳給 bob
		"3", bobNumber, "40",
		// 5️⃣ 對帳單、登出、離開
		"4",
		"5",
		"3",
	)
	require.NoError(t, err)

	out := h.out.String()
	require.Contains(t, out, "=== BANKING SYSTEM ===")
	require.Contains(t, out, "✅ Registration successful! Account: "+aliceNumber)
	require.Contains(t, out, "✅ Registration successful! Account: "+bobNumber)
	require.Contains(t, out, "✅ Login successful! Welcome, alice")
	require.Contains(t, out, "Account: "+aliceNumber+" | Balance: $0.00")
	require.Contains(t, out, "✅ Deposit successful! New balance: $100.00")
	require.Contains(t, out, "✅ Withdrawal successful! New balance: $99.50")
	require.Contains(t, out, "✅ Transfer successful!\nNew balance: $59.50")
	require.Contains(t, out, "=== ACCOUNT STATEMENT ===\nAccount: "+aliceNumber+"\nBalance: $59.50")
	require.Contains(t, out, "(transfer to "+bobNumber+")")
	require.Contains(t, out, "Logged out successfully.")
	require.True(t, strings.HasSuffix(out, "Thank you for banking with us!\n"))

	require.True(t, h.balance(t, "alice").Equal(decimal.RequireFromString("59.50")))
	require.True(t, h.balance(t, "bob").Equal(decimal.RequireFromString("40")))

	// register×2 + deposit + withdraw + transfer + exit
	require.EqualValues(t, 6, h.persist.Load())
}

func TestMenuRepromptsOnInvalidChoice(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t, "abc", "", "9", "0", "3"))

	out := h.out.String()
	require.Equal(t, 2, strings.Count(out, "Invalid input! Please enter a number: "))
	require.Equal(t, 2, strings.Count(out, "Please enter a number between 1-3: "))
	require.Contains(t, out, "Thank you for banking with us!")
	require.EqualValues(t, 1, h.persist.Load())
}

// TestEOFActsAsExit 輸入結束時執行最後一次保存並正常返回。
func TestEOFActsAsExit(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{name: "empty input", input: ""},
		{name: "eof inside account menu", input: "1\nalice\npw\n2\nalice\npw\n1\n"},
		{name: "eof while reading amount", input: "1\nalice\npw\n2\nalice\npw\n1\nabc\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			var calls atomic.Int32
			persist := func(ctx context.Context) error {
				calls.Add(1)
				return nil
			}

			err := NewController(h.dir, persist, strings.NewReader(tc.input), h.out).Run(context.Background())

			require.NoError(t, err)
			require.True(t, strings.HasSuffix(h.out.String(), "Thank you for banking with us!\n"))
			require.GreaterOrEqual(t, calls.Load(), int32(1))
		})
	}
}

func TestRegisterFailures(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t,
		"1", "alice", "pw",
		// 同名註冊在詢問密碼前即被拒絕
		"1", "alice",
		"1", "   ",
		"pw",
		"1", "carol", "",
		"3",
	))

	out := h.out.String()
	require.Contains(t, out, "❌ Username already exists!")
	require.Contains(t, out, "❌ Username cannot be empty!")
	require.Contains(t, out, "❌ Password cannot be empty!")
	require.Equal(t, 1, h.dir.Len())

	// 原帳戶密碼不變
	_, err := h.dir.Login("alice", "pw")
	require.NoError(t, err)

	// register + exit
	require.EqualValues(t, 2, h.persist.Load())
}

func TestInvalidLogin(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t,
		"1", "alice", "pw",
		"2", "alice", "PW",
		"2", "nobody", "pw",
		"3",
	))

	out := h.out.String()
	require.Equal(t, 2, strings.Count(out, "❌ Invalid credentials!"))
	require.NotContains(t, out, "ACCOUNT MENU")
}

func TestAmountPromptValidation(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t,
		"1", "alice", "pw",
		"2", "alice", "pw",
		"1", "abc", "1e3", "1e50000000", ".5", "-5", "0", "1.234", "1000000000.01", "10.25",
		"2", "20",
		"5", "3",
	))

	out := h.out.String()
	// abc、指數表示法與缺整數位皆視為非數字
	require.Equal(t, 4, strings.Count(out, "Invalid amount! Please enter a number: $"))
	require.Contains(t, out, "Amounts cannot exceed $1000000000.00: $")
	require.Equal(t, 2, strings.Count(out, "Please enter a positive amount: $"))
	require.Contains(t, out, "Amounts support at most 2 decimal places: $")
	require.Contains(t, out, "✅ Deposit successful! New balance: $10.25")
	require.Contains(t, out, "❌ Insufficient funds or invalid amount!")

	require.True(t, h.balance(t, "alice").Equal(decimal.RequireFromString("10.25")))
	// register + deposit + exit；失敗的提款不保存
	require.EqualValues(t, 3, h.persist.Load())
}

func TestTransferFailures(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.run(t,
		"1", "alice", "pw",
		"1", "bob", "pw",
		"2", "alice", "pw",
		"1", "100",
		// ❌ 收款帳號不存在（先輸入非數字）
		"3", "not-a-number", "999",
		// ❌ 轉給自己
		"3", aliceNumber,
		// ❌ 餘額不足
		"3", bobNumber, "150",
		"5", "3",
	))

	out := h.out.String()
	require.Contains(t, out, "Invalid input! Please enter a number: ")
	require.Contains(t, out, "❌ Recipient account not found!")
	require.Contains(t, out, "❌ Cannot transfer to your own account!")
	require.Contains(t, out, "❌ Transfer failed - insufficient funds!")

	require.True(t, h.balance(t, "alice").Equal(decimal.RequireFromString("100")))
	require.True(t, h.balance(t, "bob").IsZero())

	// register×2 + deposit + exit
	require.EqualValues(t, 4, h.persist.Load())
}

// TestPersistFailureWarnsAndContinues 保存失敗只提示，不中斷選單。
func TestPersistFailureWarnsAndContinues(t *testing.T) {
	h := newHarness(t)
	h.failing = true

	require.NoError(t, h.run(t,
		"1", "alice", "pw",
		"2", "alice", "pw",
		"1", "5",
		"5", "3",
	))

	out := h.out.String()
	require.Contains(t, out, "Warning: could not save data")
	require.Contains(t, out, "✅ Deposit successful! New balance: $5.00")
	require.Contains(t, out, "Thank you for banking with us!")
	require.True(t, h.balance(t, "alice").Equal(decimal.RequireFromString("5")))
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewController(h.dir, nil, strings.NewReader("1\nalice\npw\n"), h.out).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, h.dir.Len())
}

func TestPasswordReaderIsUsed(t *testing.T) {
	h := newHarness(t)
	var asked int
	reader := func() (string, error) {
		asked++
		return "hidden", nil
	}

	// 密碼不經由主輸入讀取
	in := strings.NewReader("1\nalice\n2\nalice\n5\n3\n")
	require.NoError(t, NewController(h.dir, nil, in, h.out, WithPasswordReader(reader)).Run(context.Background()))

	require.Equal(t, 2, asked)
	require.Contains(t, h.out.String(), "✅ Login successful! Welcome, alice")
}

// TestOversizedLinesAreRejected 超過單行上限的輸入被丟棄並重新提示，不會中斷選單。
func TestOversizedLinesAreRejected(t *testing.T) {
	huge := strings.Repeat("x", 70*1024)
	hugeNumber := strings.Repeat("9", 70*1024)

	testCases := []struct {
		name     string
		lines    []string
		testFunc func(t *testing.T, h *harness)
	}{
		{
			name:  "menu choice",
			lines: []string{huge, "3"},
			testFunc: func(t *testing.T, h *harness) {
				require.Contains(t, h.out.String(), "Invalid input! Please enter a number: ")
			},
		},
		{
			name:  "username",
			lines: []string{"1", huge, "1", "alice", "pw", "3"},
			testFunc: func(t *testing.T, h *harness) {
				require.Contains(t, h.out.String(), "❌ Input too long!")
				require.Equal(t, 1, h.dir.Len())
			},
		},
		{
			name:  "password",
			lines: []string{"1", "alice", huge, "3"},
			testFunc: func(t *testing.T, h *harness) {
				require.Contains(t, h.out.String(), "❌ Input too long!")
				require.Equal(t, 0, h.dir.Len())
			},
		},
		{
			name:  "amount",
			lines: []string{"1", "alice", "pw", "2", "alice", "pw", "1", hugeNumber, "7", "5", "3"},
			testFunc: func(t *testing.T, h *harness) {
				require.Contains(t, h.out.String(), "Invalid amount! Please enter a number: $")
				require.True(t, h.balance(t, "alice").Equal(decimal.RequireFromString("7")))
			},
		},
		{
			name:  "recipient account number",
			lines: []string{"1", "alice", "pw", "2", "alice", "pw", "3", hugeNumber, "999", "5", "3"},
			testFunc: func(t *testing.T, h *harness) {
				require.Contains(t, h.out.String(), "Invalid input! Please enter a number: ")
				require.Contains(t, h.out.String(), "❌ Recipient account not found!")
			},
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			h := newHarness(t)

			require.NoError(t, h.run(t, testCase.lines...))
			require.True(t, strings.HasSuffix(h.out.String(), "Thank you for banking with us!\n"))

			testCase.testFunc(t, h)
		})
	}
}

func TestReadLineHandlesCRLFAndMissingFinalNewline(t *testing.T) {
	c := NewController(bank.NewDirectory(), nil, strings.NewReader("first\r\nlast"), &bytes.Buffer{})

	line, err := c.readLine()
	require.NoError(t, err)
	require.Equal(t, "first", line)

	line, err = c.readLine()
	require.NoError(t, err)
	require.Equal(t, "last", line)

	_, err = c.readLine()
	require.ErrorIs(t, err, io.EOF)
}
