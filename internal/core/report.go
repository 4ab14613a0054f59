package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

type (
	// Summary holds the month totals shown on the metric cards.
	Summary struct {
		TotalIncome   decimal.Decimal
		TotalExpenses decimal.Decimal
		Balance       decimal.Decimal
	}

	// DayPoint is one slot of the daily chart series.
	DayPoint struct {
		Day     int
		Income  decimal.Decimal
		Expense decimal.Decimal
	}

	// CategoryTotal is one slice of the expense-by-category chart.
	CategoryTotal struct {
		Name  string
		Total decimal.Decimal
	}

	// MonthTotal is one bar group of the cross-month comparison chart.
	MonthTotal struct {
		Label   string
		Income  decimal.Decimal
		Expense decimal.Decimal
	}
)

// seriesDays and seriesStride bound the daily chart to 15 points regardless
// of month length. Day 31 falls outside the series.
const (
	seriesDays   = 30
	seriesStride = 2
)

// DefaultComparisonWindow is the trailing month count kept by MonthlyComparison.
const DefaultComparisonWindow = 5

// SelectMonth returns the transactions belonging to the given month, newest
// day first. Ties on the same day keep their input order. Records whose date
// yields no month key are excluded; an unmatched month yields an empty slice.
func SelectMonth(key MonthKey, txs []Transaction) []Transaction {
	var out []Transaction
	for _, t := range txs {
		if k := MonthKeyForDate(t.Date); !k.IsZero() && k == key {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return DayOfMonth(out[i].Date) > DayOfMonth(out[j].Date)
	})
	return out
}

// Summarize reduces a transaction set into income/expense totals and balance.
// The balance may be negative; an empty input yields all zeros.
func Summarize(txs []Transaction) Summary {
	s := Summary{
		TotalIncome:   decimal.Zero,
		TotalExpenses: decimal.Zero,
	}
	for _, t := range txs {
		switch t.Type {
		case Income:
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
		case Expense:
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// savingsRate is the share of the balance suggested as savings.
var savingsRate = decimal.New(3, -1)

// SuggestedSavings returns 30% of the balance, the estimated-savings metric
// card. A negative balance gives a negative suggestion.
func (s Summary) SuggestedSavings() decimal.Decimal {
	return s.Balance.Mul(savingsRate)
}

// PercentOfIncome returns v as a percentage of the month's income, zero when
// there is no income. Keeps the metric cards free of division by zero.
func (s Summary) PercentOfIncome(v decimal.Decimal) decimal.Decimal {
	if s.TotalIncome.IsZero() {
		return decimal.Zero
	}
	return v.Div(s.TotalIncome).Mul(decimal.NewFromInt(100))
}

// DailySeries buckets already month-filtered transactions by day of month,
// summing income and expense separately. It reports every other day from 1
// to 30, filling unreferenced days with zeros.
func DailySeries(monthTxs []Transaction) []DayPoint {
	type sums struct {
		income, expense decimal.Decimal
	}
	daily := make(map[int]*sums)
	for _, t := range monthTxs {
		day := DayOfMonth(t.Date)
		if day == 0 {
			continue
		}
		b, ok := daily[day]
		if !ok {
			b = &sums{income: decimal.Zero, expense: decimal.Zero}
			daily[day] = b
		}
		switch t.Type {
		case Income:
			b.income = b.income.Add(t.Amount)
		case Expense:
			b.expense = b.expense.Add(t.Amount)
		}
	}

	out := make([]DayPoint, 0, seriesDays/seriesStride)
	for d := 1; d <= seriesDays; d += seriesStride {
		p := DayPoint{Day: d, Income: decimal.Zero, Expense: decimal.Zero}
		if b, ok := daily[d]; ok {
			p.Income, p.Expense = b.income, b.expense
		}
		out = append(out, p)
	}
	return out
}

// CategoryBreakdown groups the month's expenses by category name, largest
// total first. Equal totals keep first-encountered order. No expenses yields
// an empty slice.
func CategoryBreakdown(monthTxs []Transaction) []CategoryTotal {
	idx := make(map[string]int)
	var out []CategoryTotal
	for _, t := range monthTxs {
		if t.Type != Expense {
			continue
		}
		i, ok := idx[t.Category]
		if !ok {
			i = len(out)
			idx[t.Category] = i
			out = append(out, CategoryTotal{Name: t.Category, Total: decimal.Zero})
		}
		out[i].Total = out[i].Total.Add(t.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// MonthlyComparison groups the entire history by month, sums income and
// expense per month, and returns the trailing window in chronological order
// with short month labels. window <= 0 falls back to the default. An empty
// history returns a single zero placeholder entry instead of an empty slice.
func MonthlyComparison(txs []Transaction, window int) []MonthTotal {
	if window <= 0 {
		window = DefaultComparisonWindow
	}
	type sums struct {
		income, expense decimal.Decimal
	}
	groups := make(map[MonthKey]*sums)
	for _, t := range txs {
		k := MonthKeyForDate(t.Date)
		if k.IsZero() {
			continue
		}
		g, ok := groups[k]
		if !ok {
			g = &sums{income: decimal.Zero, expense: decimal.Zero}
			groups[k] = g
		}
		switch t.Type {
		case Income:
			g.income = g.income.Add(t.Amount)
		case Expense:
			g.expense = g.expense.Add(t.Amount)
		}
	}

	if len(groups) == 0 {
		return []MonthTotal{{Label: PlaceholderLabel, Income: decimal.Zero, Expense: decimal.Zero}}
	}

	keys := make([]MonthKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })
	if len(keys) > window {
		keys = keys[len(keys)-window:]
	}

	out := make([]MonthTotal, 0, len(keys))
	for _, k := range keys {
		g := groups[k]
		out = append(out, MonthTotal{Label: k.ShortLabel(), Income: g.income, Expense: g.expense})
	}
	return out
}

// Months returns the distinct month keys present in the history, newest
// first. Feeds the month selector.
func Months(txs []Transaction) []MonthKey {
	seen := make(map[MonthKey]struct{})
	var keys []MonthKey
	for _, t := range txs {
		k := MonthKeyForDate(t.Date)
		if k.IsZero() {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[j].Before(keys[i]) })
	return keys
}
