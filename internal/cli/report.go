package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/Rhymond/go-money"
	"github.com/charmbracelet/lipgloss"
	"github.com/sc4plugins/custom-budget-departments/internal/engine"
	"github.com/sc4plugins/custom-budget-departments/internal/hostsim"
	"github.com/sc4plugins/custom-budget-departments/internal/model"
	"github.com/sc4plugins/custom-budget-departments/internal/service"
)

var currencyMu sync.Mutex

// MoneyFormatter renders whole simoleon amounts.
type MoneyFormatter struct {
	code string
}

// NewMoneyFormatter returns a formatter for the currency code. Codes go-money
// does not know are registered with symbol and no fractional digits.
func NewMoneyFormatter(code, symbol string) *MoneyFormatter {
	currencyMu.Lock()
	defer currencyMu.Unlock()

	if money.GetCurrency(code) == nil {
		money.AddCurrency(code, symbol, "$1", ".", ",", 0)
	}
	return &MoneyFormatter{code: code}
}

// Format renders amount in the formatter's currency.
func (f *MoneyFormatter) Format(amount int64) string {
	return money.New(amount, f.code).Display()
}

// LineRow is one line item of the budget report.
type LineRow struct {
	Algorithm string
	Line      model.LineNumber
	Buildings int64
	Expenses  int64
	Income    int64
	IsIncome  bool
}

// DepartmentRow is one department of the budget report.
type DepartmentRow struct {
	Lines []LineRow
	ID    model.DepartmentID
	Group model.BudgetGroup
}

// BudgetRows collects the departments of budget, annotated with the
// algorithms registry assigns to their lines.
func BudgetRows(budget *hostsim.BudgetSimulator, registry *engine.Registry) []DepartmentRow {
	var rows []DepartmentRow
	for _, id := range budget.Departments() {
		dept := budget.Department(id)
		row := DepartmentRow{ID: id, Group: dept.Group}

		for _, line := range dept.Lines() {
			item := dept.Line(line)
			lr := LineRow{
				Line:      line,
				Buildings: item.SecondaryInfoField(),
				Expenses:  item.FullExpenses(),
				Income:    item.Income(),
				IsIncome:  item.Type() == service.LineItemIncome,
				Algorithm: "untracked",
			}
			if registry != nil {
				if tx, ok := registry.Transaction(id, line); ok {
					lr.Algorithm = tx.AlgorithmType().String()
				}
			}
			row.Lines = append(row.Lines, lr)
		}
		rows = append(rows, row)
	}
	return rows
}

// RenderBudget renders the budget panel as text.
func RenderBudget(rows []DepartmentRow, f *MoneyFormatter) string {
	if len(rows) == 0 {
		return SubtleStyle.Render("No custom budget departments.")
	}

	var b strings.Builder
	var totalIncome, totalExpenses int64
	for _, dept := range rows {
		var lines []string
		lines = append(lines, TableHeaderStyle.Render(fmt.Sprintf("%-12s %9s %14s  %s", "Line", "Buildings", "Amount", "Algorithm")))
		for _, l := range dept.Lines {
			amount := ExpenseStyle.Render(fmt.Sprintf("%14s", f.Format(-l.Expenses)))
			if l.IsIncome {
				amount = IncomeStyle.Render(fmt.Sprintf("%14s", f.Format(l.Income)))
				totalIncome += l.Income
			} else {
				totalExpenses += l.Expenses
			}
			lines = append(lines, fmt.Sprintf("%-12s %9d %s  %s",
				l.Line, l.Buildings, amount, SubtleStyle.Render(l.Algorithm)))
		}

		title := fmt.Sprintf("Department %s (%s)", dept.ID, dept.Group)
		b.WriteString(RenderBox(title, lipgloss.JoinVertical(lipgloss.Left, lines...)))
		b.WriteString("\n")
	}

	b.WriteString(fmt.Sprintf("Income %s  Expenses %s  Net %s\n",
		IncomeStyle.Render(f.Format(totalIncome)),
		ExpenseStyle.Render(f.Format(totalExpenses)),
		f.Format(totalIncome-totalExpenses)))
	return b.String()
}

// RenderRegistry lists the persisted transactions of a registry.
func RenderRegistry(registry *engine.Registry, f *MoneyFormatter) string {
	if registry == nil || registry.Len() == 0 {
		return SubtleStyle.Render("No saved line item transactions.")
	}

	lines := []string{
		TableHeaderStyle.Render(fmt.Sprintf("%-12s %-12s %-8s %14s  %s", "Department", "Line", "Kind", "Per building", "Algorithm")),
	}
	for _, dept := range registry.Departments() {
		for _, line := range registry.Lines(dept) {
			tx, _ := registry.Transaction(dept, line)
			kind := "expense"
			if tx.IsIncome() {
				kind = "income"
			}
			lines = append(lines, TableCellStyle.Render(fmt.Sprintf("%-12s %-12s %-8s %14s  %s",
				dept, line, kind, f.Format(tx.PerBuildingCashFlow()), tx.AlgorithmType())))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
