package ledger

import (
	"comanda/backend/internal/domain"
	"comanda/backend/internal/pricing"
)

// Totals sums the transaction log for one shift by type and tender.
type Totals struct {
	CashSales        float64 `json:"cash_sales"`
	CardSales        float64 `json:"card_sales"`
	ManualIncomeCash float64 `json:"manual_income_cash"`
	ManualIncomeCard float64 `json:"manual_income_card"`
	Tax              float64 `json:"tax"`
	Count            int     `json:"count"`
}

func TotalsFor(shiftID string, txs []domain.Transaction) Totals {
	var t Totals
	for _, tx := range txs {
		if tx.ShiftID != shiftID {
			continue
		}
		t.Count++
		t.Tax += tx.Tax
		switch {
		case tx.Type == domain.TransactionSale && tx.PaymentMethod == domain.TenderCash:
			t.CashSales += tx.Amount
		case tx.Type == domain.TransactionSale && tx.PaymentMethod == domain.TenderCard:
			t.CardSales += tx.Amount
		case tx.Type == domain.TransactionManual && tx.PaymentMethod == domain.TenderCash:
			t.ManualIncomeCash += tx.Amount
		case tx.Type == domain.TransactionManual && tx.PaymentMethod == domain.TenderCard:
			t.ManualIncomeCard += tx.Amount
		}
	}
	return t
}

// Reconciles reports whether the shift's running figures match its
// transaction log to the cent.
func Reconciles(shift domain.ShiftReport, txs []domain.Transaction) bool {
	t := TotalsFor(shift.ID, txs)
	return pricing.SumEqualsCents(shift.CashSales, t.CashSales) &&
		pricing.SumEqualsCents(shift.CardSales, t.CardSales) &&
		pricing.SumEqualsCents(shift.ManualIncomeCash, t.ManualIncomeCash) &&
		pricing.SumEqualsCents(shift.ManualIncomeCard, t.ManualIncomeCard) &&
		pricing.SumEqualsCents(shift.TotalTax, t.Tax)
}
