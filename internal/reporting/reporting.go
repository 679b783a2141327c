// Package reporting derives read-only views from persisted state. Nothing
// here mutates orders, shifts or the transaction log.
package reporting

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/inventory"
	"comanda/backend/internal/ledger"
	"comanda/backend/internal/orders"
	"comanda/backend/internal/pricing"
)

const topN = 5

type ItemSales struct {
	MenuItemID string `json:"menu_item_id"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

type CategorySales struct {
	CategoryID string  `json:"category_id"`
	Name       string  `json:"name"`
	Total      float64 `json:"total"`
}

type WaiterRevenue struct {
	WaiterID string  `json:"waiter_id"`
	Name     string  `json:"name"`
	Total    float64 `json:"total"`
}

// PaidInShift returns paid orders placed since the shift opened.
func PaidInShift(all []domain.Order, shift domain.ShiftReport) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range all {
		if o.Status == domain.StatusPaid && !o.Timestamp.Before(shift.DayOpenedTimestamp) {
			out = append(out, o)
		}
	}
	return out
}

// ActiveInShift returns orders placed since the shift opened that are still
// on the kitchen path.
func ActiveInShift(all []domain.Order, shift domain.ShiftReport) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range all {
		if orders.InService(o) && !o.Timestamp.Before(shift.DayOpenedTimestamp) {
			out = append(out, o)
		}
	}
	return out
}

func TopSelling(paid []domain.Order, limit int) []ItemSales {
	byID := make(map[string]*ItemSales)
	order := make([]string, 0)
	for _, o := range paid {
		for _, item := range o.Items {
			entry, ok := byID[item.MenuItem.ID]
			if !ok {
				entry = &ItemSales{MenuItemID: item.MenuItem.ID, Name: item.MenuItem.Name}
				byID[item.MenuItem.ID] = entry
				order = append(order, item.MenuItem.ID)
			}
			entry.Quantity += item.Quantity
		}
	}
	out := make([]ItemSales, 0, len(order))
	for _, id := range order {
		out = append(out, *byID[id])
	}
	slices.SortStableFunc(out, func(a, b ItemSales) int {
		return cmp.Compare(b.Quantity, a.Quantity)
	})
	return truncate(out, limit)
}

// SalesByCategory sums line prices per category, largest first. Categories
// with no sales are omitted.
func SalesByCategory(paid []domain.Order, categories []domain.Category, limit int) []CategorySales {
	out := make([]CategorySales, 0, len(categories))
	for _, cat := range categories {
		total := 0.0
		for _, o := range paid {
			for _, item := range o.Items {
				if item.MenuItem.CategoryID == cat.ID {
					total += item.TotalPrice
				}
			}
		}
		if total > 0 {
			out = append(out, CategorySales{CategoryID: cat.ID, Name: cat.Name, Total: pricing.RoundCents(total)})
		}
	}
	slices.SortStableFunc(out, func(a, b CategorySales) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return truncate(out, limit)
}

func RevenueByWaiter(paid []domain.Order, waiters []domain.Waiter) []WaiterRevenue {
	out := make([]WaiterRevenue, 0, len(waiters))
	for _, w := range waiters {
		total := 0.0
		for _, o := range paid {
			if o.WaiterID == w.ID {
				total += o.Total
			}
		}
		if total > 0 {
			out = append(out, WaiterRevenue{WaiterID: w.ID, Name: w.Name, Total: pricing.RoundCents(total)})
		}
	}
	slices.SortStableFunc(out, func(a, b WaiterRevenue) int {
		return cmp.Compare(b.Total, a.Total)
	})
	return out
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

type Dashboard struct {
	ShiftID         string                 `json:"shift_id"`
	OpenedAt        time.Time              `json:"opened_at"`
	TotalRevenue    float64                `json:"total_revenue"`
	PaidOrders      int                    `json:"paid_orders"`
	ActiveOrders    int                    `json:"active_orders"`
	ActiveTables    int                    `json:"active_tables"`
	LowStock        []domain.InventoryItem `json:"low_stock"`
	TopSelling      []ItemSales            `json:"top_selling"`
	SalesByCategory []CategorySales        `json:"sales_by_category"`
}

func BuildDashboard(state Source, shift domain.ShiftReport) Dashboard {
	paid := PaidInShift(state.Orders, shift)
	active := ActiveInShift(state.Orders, shift)
	revenue := 0.0
	for _, o := range paid {
		revenue += o.Total
	}
	tables := make(map[domain.TableRef]bool)
	for _, o := range active {
		tables[o.Table()] = true
	}
	return Dashboard{
		ShiftID:         shift.ID,
		OpenedAt:        shift.DayOpenedTimestamp,
		TotalRevenue:    pricing.RoundCents(revenue),
		PaidOrders:      len(paid),
		ActiveOrders:    len(active),
		ActiveTables:    len(tables),
		LowStock:        inventory.NewLedger(&state.Inventory).LowStock(),
		TopSelling:      TopSelling(paid, topN),
		SalesByCategory: SalesByCategory(paid, state.Categories, topN),
	}
}

// Source is the slice of persisted state the reports read.
type Source struct {
	Orders       []domain.Order
	Inventory    []domain.InventoryItem
	Categories   []domain.Category
	Waiters      []domain.Waiter
	Transactions []domain.Transaction
	Shifts       []domain.ShiftReport
}

type DailyReport struct {
	Shift                domain.ShiftReport   `json:"shift"`
	TotalRevenue         float64              `json:"total_revenue"`
	ExpectedCashInDrawer float64              `json:"expected_cash_in_drawer"`
	SalesByCategory      []CategorySales      `json:"sales_by_category"`
	RevenueByWaiter      []WaiterRevenue      `json:"revenue_by_waiter"`
	ClosedShifts         []domain.ShiftReport `json:"closed_shifts"`
}

func BuildDailyReport(state Source, shift domain.ShiftReport) DailyReport {
	paid := PaidInShift(state.Orders, shift)
	return DailyReport{
		Shift:                shift,
		TotalRevenue:         pricing.RoundCents(ledger.TotalRevenue(shift)),
		ExpectedCashInDrawer: pricing.RoundCents(ledger.ExpectedCashInDrawer(shift)),
		SalesByCategory:      SalesByCategory(paid, state.Categories, 0),
		RevenueByWaiter:      RevenueByWaiter(paid, state.Waiters),
		ClosedShifts:         ClosedShifts(state.Shifts),
	}
}

// ClosedShifts lists closed shift reports, most recently opened first.
func ClosedShifts(shifts []domain.ShiftReport) []domain.ShiftReport {
	out := make([]domain.ShiftReport, 0)
	for _, s := range shifts {
		if s.Status == domain.ShiftClosed {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b domain.ShiftReport) int {
		return b.DayOpenedTimestamp.Compare(a.DayOpenedTimestamp)
	})
	return out
}

type ManagerOverview struct {
	LowStock     []domain.InventoryItem `json:"low_stock"`
	ActiveOrders []domain.Order         `json:"active_orders"`
	CreditOrders []domain.Order         `json:"credit_orders"`
}

func BuildManagerOverview(state Source) ManagerOverview {
	out := ManagerOverview{
		LowStock:     inventory.NewLedger(&state.Inventory).LowStock(),
		ActiveOrders: make([]domain.Order, 0),
		CreditOrders: CreditOrders(state.Orders),
	}
	for _, o := range state.Orders {
		if orders.IsOpen(o) {
			out.ActiveOrders = append(out.ActiveOrders, o)
		}
	}
	return out
}

func CreditOrders(all []domain.Order) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range all {
		if o.Status == domain.StatusOnCredit {
			out = append(out, o)
		}
	}
	return out
}

// ShiftSummary is the end-of-day sheet handed to the closing waiter.
type ShiftSummary struct {
	Shift                domain.ShiftReport `json:"shift"`
	TotalRevenue         float64            `json:"total_revenue"`
	ExpectedCashInDrawer float64            `json:"expected_cash_in_drawer"`
	Reconciled           bool               `json:"reconciled"`
}

func BuildShiftSummary(shift domain.ShiftReport, txs []domain.Transaction) ShiftSummary {
	return ShiftSummary{
		Shift:                shift,
		TotalRevenue:         pricing.RoundCents(ledger.TotalRevenue(shift)),
		ExpectedCashInDrawer: pricing.RoundCents(ledger.ExpectedCashInDrawer(shift)),
		Reconciled:           ledger.Reconciles(shift, txs),
	}
}

type Period string

const (
	PeriodDay     Period = "day"
	PeriodMonth   Period = "month"
	PeriodQuarter Period = "quarter"
	PeriodYear    Period = "year"
)

type CashSummary struct {
	Period       Period               `json:"period"`
	From         time.Time            `json:"from"`
	TotalSales   float64              `json:"total_sales"`
	ManualIncome float64              `json:"manual_income"`
	TotalTax     float64              `json:"total_tax"`
	Transactions []domain.Transaction `json:"transactions"`
}

// BuildCashSummary reports the open shift's running figures for PeriodDay
// and sums the transaction log for longer periods. Transactions are listed
// newest first.
func BuildCashSummary(period Period, now time.Time, active *domain.ShiftReport, txs []domain.Transaction) (CashSummary, error) {
	summary := CashSummary{Period: period, Transactions: make([]domain.Transaction, 0)}
	switch period {
	case PeriodDay:
		if active == nil {
			return summary, nil
		}
		summary.From = active.DayOpenedTimestamp
		summary.TotalSales = pricing.RoundCents(active.CashSales + active.CardSales)
		summary.ManualIncome = pricing.RoundCents(active.ManualIncomeCash + active.ManualIncomeCard)
		summary.TotalTax = pricing.RoundCents(active.TotalTax)
	case PeriodMonth:
		summary.From = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case PeriodQuarter:
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		summary.From = time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, now.Location())
	case PeriodYear:
		summary.From = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		return CashSummary{}, fmt.Errorf("unknown period %q", period)
	}

	var sales, manual, tax float64
	for _, tx := range txs {
		if tx.Timestamp.Before(summary.From) {
			continue
		}
		summary.Transactions = append(summary.Transactions, tx)
		switch tx.Type {
		case domain.TransactionSale:
			sales += tx.Amount
		case domain.TransactionManual:
			manual += tx.Amount
		}
		tax += tx.Tax
	}
	slices.SortStableFunc(summary.Transactions, func(a, b domain.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	if period != PeriodDay {
		summary.TotalSales = pricing.RoundCents(sales)
		summary.ManualIncome = pricing.RoundCents(manual)
		summary.TotalTax = pricing.RoundCents(tax)
	}
	return summary, nil
}
