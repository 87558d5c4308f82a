// internal/console/prompt.go
//
// 本檔集中處理輸入解析與輸出格式。
// 所有輸入在無效時重新提示，直到取得合法值或輸入結束 (io.EOF)。
// 超過 maxLineBytes 的行整行丟棄並視為無效輸入。
package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bankcli/internal/bank"
)

// maxLineBytes 為單行輸入上限（含換行）。
const maxLineBytes = 4096

// errLineTooLong 代表該行超過 maxLineBytes，已被丟棄。
var errLineTooLong = errors.New("input line too long")

// plainAmount 只接受一般十進位寫法，不接受指數表示法。
var plainAmount = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)

// readLine 讀取一行原始輸入（去除行尾 \r\n）。
func (c *Controller) readLine() (string, error) {
	var line []byte
	tooLong := false

	for {
		chunk, err := c.in.ReadSlice('\n')
		if !tooLong {
			line = append(line, chunk...)
			if len(line) > maxLineBytes {
				tooLong, line = true, nil
			}
		}

		switch {
		case err == nil:
			if tooLong {
				return "", errLineTooLong
			}
			return strings.TrimRight(string(line), "\r\n"), nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return "", errLineTooLong
			}
			if len(line) == 0 {
				return "", io.EOF
			}
			return strings.TrimRight(string(line), "\r"), nil
		default:
			return "", err
		}
	}
}

func (c *Controller) readTrimmed() (string, error) {
	line, err := c.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// readChoice 讀取 [min, max] 之間的整數。
func (c *Controller) readChoice(min, max int) (int, error) {
	for {
		line, err := c.readTrimmed()
		if err != nil && !errors.Is(err, errLineTooLong) {
			return 0, err
		}
		n, convErr := strconv.Atoi(line)
		if err != nil || convErr != nil {
			c.printf("Invalid input! Please enter a number: ")
			continue
		}
		if n < min || n > max {
			c.printf("Please enter a number between %d-%d: ", min, max)
			continue
		}
		return n, nil
	}
}

// readAmount 讀取最多兩位小數、不超過 bank.MaxAmount 的正數金額。
func (c *Controller) readAmount() (decimal.Decimal, error) {
	for {
		line, err := c.readTrimmed()
		if err != nil && !errors.Is(err, errLineTooLong) {
			return decimal.Zero, err
		}
		if err != nil || !plainAmount.MatchString(line) {
			c.printf("Invalid amount! Please enter a number: $")
			continue
		}
		amount, err := decimal.NewFromString(line)
		if err != nil {
			c.printf("Invalid amount! Please enter a number: $")
			continue
		}
		if !amount.IsPositive() {
			c.printf("Please enter a positive amount: $")
			continue
		}
		if !amount.Equal(amount.Truncate(2)) {
			c.printf("Amounts support at most 2 decimal places: $")
			continue
		}
		if amount.GreaterThan(bank.MaxAmount) {
			c.printf("Amounts cannot exceed %s: $", money(bank.MaxAmount))
			continue
		}
		return amount, nil
	}
}

func (c *Controller) readAccountNumber() (int64, error) {
	for {
		line, err := c.readTrimmed()
		if err != nil && !errors.Is(err, errLineTooLong) {
			return 0, err
		}
		n, convErr := strconv.ParseInt(line, 10, 64)
		if err != nil || convErr != nil {
			c.printf("Invalid input! Please enter a number: ")
			continue
		}
		return n, nil
	}
}

func (c *Controller) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(c.out, format, args...)
}

func (c *Controller) println(s string) {
	_, _ = fmt.Fprintln(c.out, s)
}

// money 以兩位小數輸出金額，例如 $59.50。
func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
