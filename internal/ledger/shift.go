// Package ledger keeps the shift cash ledger and the transaction log. Every
// money movement is appended to the log and folded into the open shift's
// running figures in the same step, so the two always reconcile.
package ledger

import (
	"fmt"
	"time"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/orders"
	"comanda/backend/internal/pricing"
)

// ActiveIndex returns the position of the OPEN shift, or -1.
func ActiveIndex(shifts []domain.ShiftReport) int {
	for i, s := range shifts {
		if s.Status == domain.ShiftOpen {
			return i
		}
	}
	return -1
}

func Active(shifts []domain.ShiftReport) (domain.ShiftReport, bool) {
	idx := ActiveIndex(shifts)
	if idx < 0 {
		return domain.ShiftReport{}, false
	}
	return shifts[idx], true
}

// Open starts a new shift. At most one shift is OPEN at a time.
func Open(shifts []domain.ShiftReport, id string, openingBalance float64, at time.Time) (domain.ShiftReport, error) {
	if openingBalance < 0 {
		return domain.ShiftReport{}, domain.Fail(domain.ReasonNegativeOpeningBalance, "%.2f", openingBalance)
	}
	if existing, ok := Active(shifts); ok {
		return domain.ShiftReport{}, domain.Fail(domain.ReasonShiftAlreadyOpen, "shift %s", existing.ID)
	}
	return domain.ShiftReport{
		ID:                 id,
		Status:             domain.ShiftOpen,
		DayOpenedTimestamp: at,
		OpeningBalance:     openingBalance,
	}, nil
}

// Sale is one payment to record: the settled order with its tender legs.
type Sale struct {
	OrderID  int64
	Cash     float64
	Card     float64
	FinalTax float64
}

func SaleOf(s orders.Settlement) Sale {
	return Sale{OrderID: s.Order.ID, Cash: s.CashAmount, Card: s.CardAmount, FinalTax: s.FinalTax}
}

// RecordSale appends one sale transaction per nonzero tender leg, card
// first, and folds the legs into the shift.
func RecordSale(shift *domain.ShiftReport, sale Sale, rate float64, newID func() string, at time.Time) []domain.Transaction {
	txs := make([]domain.Transaction, 0, 2)
	if sale.Card > 0 {
		txs = append(txs, domain.Transaction{
			ID:            newID(),
			Type:          domain.TransactionSale,
			PaymentMethod: domain.TenderCard,
			OrderID:       sale.OrderID,
			ShiftID:       shift.ID,
			Amount:        sale.Card,
			Tax:           pricing.Tax(sale.Card, rate),
			Description:   fmt.Sprintf("Order #%d (Card)", sale.OrderID),
			Timestamp:     at,
			Taxable:       true,
		})
	}
	if sale.Cash > 0 {
		txs = append(txs, domain.Transaction{
			ID:            newID(),
			Type:          domain.TransactionSale,
			PaymentMethod: domain.TenderCash,
			OrderID:       sale.OrderID,
			ShiftID:       shift.ID,
			Amount:        sale.Cash,
			Tax:           pricing.Tax(sale.Cash, rate),
			Description:   fmt.Sprintf("Order #%d (Cash)", sale.OrderID),
			Timestamp:     at,
			Taxable:       true,
		})
	}
	shift.CashSales += sale.Cash
	shift.CardSales += sale.Card
	shift.TotalTax += sale.FinalTax
	return txs
}

// RecordManualIncome books money taken outside an order.
func RecordManualIncome(shift *domain.ShiftReport, amount float64, description string, method domain.Tender, rate float64, id string, at time.Time) (domain.Transaction, error) {
	if amount <= 0 {
		return domain.Transaction{}, domain.Fail(domain.ReasonInvalidAmount, "%.2f", amount)
	}
	if method != domain.TenderCash && method != domain.TenderCard {
		return domain.Transaction{}, domain.Fail(domain.ReasonInvalidTender, "%q", method)
	}
	tax := pricing.Tax(amount, rate)
	if method == domain.TenderCash {
		shift.ManualIncomeCash += amount
	} else {
		shift.ManualIncomeCard += amount
	}
	shift.TotalTax += tax
	return domain.Transaction{
		ID:            id,
		Type:          domain.TransactionManual,
		PaymentMethod: method,
		ShiftID:       shift.ID,
		Amount:        amount,
		Tax:           tax,
		Description:   description,
		Timestamp:     at,
		Taxable:       true,
	}, nil
}

// InWindow reports whether t falls inside the shift, which starts at its
// open timestamp.
func InWindow(shift domain.ShiftReport, t time.Time) bool {
	if t.Before(shift.DayOpenedTimestamp) {
		return false
	}
	if shift.DayClosedTimestamp != nil && t.After(*shift.DayClosedTimestamp) {
		return false
	}
	return true
}

// BlockingOrders lists orders placed in this shift that are still in
// service. Credit accounts have already been handed to a named customer and
// do not block.
func BlockingOrders(all []domain.Order, shift domain.ShiftReport) []domain.Order {
	out := make([]domain.Order, 0)
	for _, o := range all {
		if orders.IsOpen(o) && o.Status != domain.StatusOnCredit && !o.Timestamp.Before(shift.DayOpenedTimestamp) {
			out = append(out, o)
		}
	}
	return out
}

// Close freezes the shift figures. It fails while any order placed during
// the shift is still in service.
func Close(shift *domain.ShiftReport, all []domain.Order, at time.Time) error {
	if shift.Status != domain.ShiftOpen {
		return domain.Fail(domain.ReasonNoOpenShift, "shift %s is %s", shift.ID, shift.Status)
	}
	if open := BlockingOrders(all, *shift); len(open) > 0 {
		return domain.Fail(domain.ReasonOpenOrdersRemain, "%d open orders", len(open))
	}
	cash, card := shift.CashSales, shift.CardSales
	manualCash, manualCard := shift.ManualIncomeCash, shift.ManualIncomeCard
	revenue := cash + card + manualCash + manualCard
	tax := shift.TotalTax
	closedAt := at

	shift.Status = domain.ShiftClosed
	shift.DayClosedTimestamp = &closedAt
	shift.FinalCashSales = &cash
	shift.FinalCardSales = &card
	shift.FinalManualIncomeCash = &manualCash
	shift.FinalManualIncomeCard = &manualCard
	shift.FinalTotalRevenue = &revenue
	shift.FinalTotalTax = &tax
	return nil
}

func ExpectedCashInDrawer(shift domain.ShiftReport) float64 {
	return shift.OpeningBalance + shift.CashSales + shift.ManualIncomeCash
}

func TotalRevenue(shift domain.ShiftReport) float64 {
	return shift.CashSales + shift.CardSales + shift.ManualIncomeCash + shift.ManualIncomeCard
}
