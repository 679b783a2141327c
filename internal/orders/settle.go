package orders

import (
	"comanda/backend/internal/domain"
	"comanda/backend/internal/pricing"
)

// Settlement is the outcome of a confirmed payment: the paid order plus the
// per-tender amounts the shift ledger records.
type Settlement struct {
	Order      domain.Order `json:"order"`
	Discount   float64      `json:"discount"`
	FinalTotal float64      `json:"final_total"`
	FinalTax   float64      `json:"final_tax"`
	CashAmount float64      `json:"cash_amount"`
	CardAmount float64      `json:"card_amount"`
	Change     float64      `json:"change"`
}

// DiscountFor resolves the payment-time discount: presets take precedence
// over a free amount, and the result never goes below zero. An unknown
// preset is rejected.
func DiscountFor(total float64, req domain.PaymentRequest) (float64, error) {
	switch req.DiscountPreset {
	case "":
	case domain.DiscountHalf:
		return total / 2, nil
	case domain.DiscountFree:
		return total, nil
	default:
		return 0, domain.Fail(domain.ReasonInvalidDiscount, "unknown preset %q", req.DiscountPreset)
	}
	if req.DiscountAmount < 0 {
		return 0, nil
	}
	return req.DiscountAmount, nil
}

// changeFor checks the cash handed over against total. Zero received means
// the exact amount was tendered.
func changeFor(total, received float64) (float64, error) {
	switch {
	case received < 0:
		return 0, domain.Fail(domain.ReasonInvalidAmount, "amount received must not be negative")
	case received == 0:
		return 0, nil
	case pricing.Cents(received) < pricing.Cents(total):
		return 0, domain.Fail(domain.ReasonInsufficientTender, "received %.2f, due %.2f", received, total)
	}
	return pricing.RoundCents(received - total), nil
}

// Settle validates the tender and marks the order paid. Only ready and
// on_credit orders can be paid.
func Settle(o domain.Order, req domain.PaymentRequest, rate float64) (Settlement, error) {
	if o.Status != domain.StatusReady && o.Status != domain.StatusOnCredit {
		return Settlement{}, domain.Fail(domain.ReasonInvalidTransition, "order %d is %s", o.ID, o.Status)
	}

	discount, err := DiscountFor(o.Total, req)
	if err != nil {
		return Settlement{}, err
	}
	finalTotal := o.Total - discount
	if finalTotal < 0 {
		finalTotal = 0
	}

	var cash, card, change float64
	details := &domain.PaymentDetails{Method: req.Method}
	switch req.Method {
	case domain.TenderCash:
		change, err = changeFor(finalTotal, req.AmountReceived)
		if err != nil {
			return Settlement{}, err
		}
		cash = finalTotal
		details.Amount = finalTotal
		details.Received = req.AmountReceived
		details.Change = change
	case domain.TenderCard:
		card = finalTotal
		details.Amount = finalTotal
	case domain.TenderSplit:
		if req.CashAmount < 0 || req.CardAmount < 0 {
			return Settlement{}, domain.Fail(domain.ReasonInvalidAmount, "split legs must not be negative")
		}
		if !pricing.SumEqualsCents(finalTotal, req.CashAmount, req.CardAmount) {
			return Settlement{}, domain.Fail(domain.ReasonSplitMismatch, "cash %.2f + card %.2f != %.2f", req.CashAmount, req.CardAmount, finalTotal)
		}
		cash, card = req.CashAmount, req.CardAmount
		details.CashAmount = cash
		details.CardAmount = card
	default:
		return Settlement{}, domain.Fail(domain.ReasonInvalidTender, "%q", req.Method)
	}

	b := pricing.Split(finalTotal, rate)
	paid := o.Clone()
	paid.Status = domain.StatusPaid
	paid.PaymentDetails = details
	paid.Total = finalTotal
	paid.Tax = b.Tax
	paid.Subtotal = b.Net

	return Settlement{
		Order:      paid,
		Discount:   o.Total - finalTotal,
		FinalTotal: finalTotal,
		FinalTax:   b.Tax,
		CashAmount: cash,
		CardAmount: card,
		Change:     change,
	}, nil
}
