// internal/console/menu.go
//
// 本檔負責選單定義與顯示。
// 與 controller.go 分離：controller 定義「如何處理選項」，menu 定義「選項如何被導向」。
package console

import (
	"context"
	"fmt"
)

// menuItem 為單一選項；run 回傳 true 代表離開目前選單。
type menuItem struct {
	label string
	run   func(ctx context.Context) (leave bool, err error)
}

type menu struct {
	title  string
	header func() string
	items  []menuItem
}

// mainMenu 建立主選單。
func (c *Controller) mainMenu() menu {
	return menu{
		title: "BANKING SYSTEM",
		items: []menuItem{
			{label: "Register", run: c.register},
			{label: "Login", run: c.login},
			{label: "Exit", run: func(ctx context.Context) (bool, error) {
				c.exit(ctx)
				return true, nil
			}},
		},
	}
}

// accountMenu 建立登入後的帳戶選單，所有動作綁定同一個 session。
func (c *Controller) accountMenu(s *session) menu {
	bind := func(fn func(context.Context, *session) (bool, error)) func(context.Context) (bool, error) {
		return func(ctx context.Context) (bool, error) { return fn(ctx, s) }
	}

	return menu{
		title: "ACCOUNT MENU",
		header: func() string {
			a, err := c.dir.FindByUsername(s.username)
			if err != nil {
				return fmt.Sprintf("Account: %d", s.number)
			}
			return fmt.Sprintf("Account: %d | Balance: %s", a.Number, money(a.Balance))
		},
		items: []menuItem{
			{label: "Deposit", run: bind(c.deposit)},
			{label: "Withdraw", run: bind(c.withdraw)},
			{label: "Transfer Funds", run: bind(c.transfer)},
			{label: "Account Statement", run: bind(c.statement)},
			{label: "Logout", run: bind(c.logout)},
		},
	}
}

func (c *Controller) render(m menu) {
	c.printf("\n=== %s ===\n", m.title)
	if m.header != nil {
		c.println(m.header())
	}
	for i, it := range m.items {
		c.printf("%d. %s\n", i+1, it.label)
	}
	c.printf("Choose option: ")
}
