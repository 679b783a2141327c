package ledger

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/pricing"
)

const rate = pricing.DefaultTaxRate

var opened = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func idGen() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("tx-%d", n)
	}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func reasonIs(err error, reason domain.Reason) bool {
	return errors.Is(err, &domain.Failure{Reason: reason})
}

func openShift(t *testing.T, balance float64) domain.ShiftReport {
	t.Helper()
	shift, err := Open(nil, "shift-1", balance, opened)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return shift
}

func TestOpenRejectsSecondShiftAndNegativeBalance(t *testing.T) {
	shift := openShift(t, 100)
	if _, err := Open([]domain.ShiftReport{shift}, "shift-2", 0, opened); !reasonIs(err, domain.ReasonShiftAlreadyOpen) {
		t.Fatalf("expected SHIFT_ALREADY_OPEN, got %v", err)
	}
	if _, err := Open(nil, "shift-3", -1, opened); !reasonIs(err, domain.ReasonNegativeOpeningBalance) {
		t.Fatalf("expected NEGATIVE_OPENING_BALANCE, got %v", err)
	}
	if _, err := Open(nil, "shift-4", 0, opened); err != nil {
		t.Fatalf("zero opening balance is valid: %v", err)
	}
}

func TestSplitSaleWritesTwoTransactions(t *testing.T) {
	shift := openShift(t, 100)
	finalTax := pricing.Tax(121, rate)
	txs := RecordSale(&shift, Sale{OrderID: 42, Cash: 60.5, Card: 60.5, FinalTax: finalTax}, rate, idGen(), opened.Add(time.Hour))

	if len(txs) != 2 {
		t.Fatalf("expected two transactions, got %d", len(txs))
	}
	if txs[0].PaymentMethod != domain.TenderCard || txs[1].PaymentMethod != domain.TenderCash {
		t.Fatalf("expected card leg first, got %+v", txs)
	}
	for _, tx := range txs {
		if tx.Amount != 60.5 || math.Abs(tx.Tax-10.5) > 0.005 {
			t.Fatalf("unexpected leg %+v", tx)
		}
	}
	if math.Abs(txs[0].Tax+txs[1].Tax-21) > 0.01 {
		t.Fatalf("leg taxes should sum to about 21, got %v", txs[0].Tax+txs[1].Tax)
	}
	if shift.CashSales != 60.5 || shift.CardSales != 60.5 || !almost(shift.TotalTax, finalTax) {
		t.Fatalf("unexpected shift %+v", shift)
	}
	if !Reconciles(shift, txs) {
		t.Fatalf("shift does not reconcile with its log")
	}
}

func TestZeroLegsProduceNoTransaction(t *testing.T) {
	shift := openShift(t, 0)
	txs := RecordSale(&shift, Sale{OrderID: 1}, rate, idGen(), opened)
	if len(txs) != 0 {
		t.Fatalf("expected no transactions for a free order, got %+v", txs)
	}
}

func TestManualIncome(t *testing.T) {
	shift := openShift(t, 50)
	tx, err := RecordManualIncome(&shift, 24.2, "Tip jar", domain.TenderCash, rate, "tx-1", opened)
	if err != nil {
		t.Fatalf("manual income: %v", err)
	}
	if tx.Type != domain.TransactionManual || !almost(tx.Tax, 4.2) {
		t.Fatalf("unexpected tx %+v", tx)
	}
	if shift.ManualIncomeCash != 24.2 || !almost(ExpectedCashInDrawer(shift), 74.2) {
		t.Fatalf("unexpected shift %+v", shift)
	}
	if _, err := RecordManualIncome(&shift, 0, "x", domain.TenderCash, rate, "tx-2", opened); !reasonIs(err, domain.ReasonInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %v", err)
	}
	if _, err := RecordManualIncome(&shift, 5, "x", domain.TenderSplit, rate, "tx-3", opened); !reasonIs(err, domain.ReasonInvalidTender) {
		t.Fatalf("expected INVALID_TENDER, got %v", err)
	}
	if !Reconciles(shift, []domain.Transaction{tx}) {
		t.Fatalf("manual income does not reconcile")
	}
}

func TestCloseBlockedByOpenOrdersInShift(t *testing.T) {
	shift := openShift(t, 0)
	all := []domain.Order{
		{ID: 1, Status: domain.StatusPreparing, Timestamp: opened.Add(time.Minute)},
		{ID: 2, Status: domain.StatusPending, Timestamp: opened.Add(-time.Hour)},
		{ID: 3, Status: domain.StatusOnCredit, Timestamp: opened.Add(time.Minute)},
	}
	if err := Close(&shift, all, opened.Add(time.Hour)); !reasonIs(err, domain.ReasonOpenOrdersRemain) {
		t.Fatalf("expected OPEN_ORDERS_REMAIN, got %v", err)
	}
	if shift.Status != domain.ShiftOpen {
		t.Fatalf("failed close must not change the shift")
	}
	all[0].Status = domain.StatusPaid
	if err := Close(&shift, all, opened.Add(time.Hour)); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestCloseFreezesFigures(t *testing.T) {
	shift := openShift(t, 10)
	RecordSale(&shift, Sale{OrderID: 1, Cash: 30, Card: 20, FinalTax: pricing.Tax(50, rate)}, rate, idGen(), opened)
	RecordManualIncome(&shift, 5, "x", domain.TenderCard, rate, "tx-m", opened)

	if err := Close(&shift, nil, opened.Add(8*time.Hour)); err != nil {
		t.Fatalf("close: %v", err)
	}
	if shift.Status != domain.ShiftClosed || shift.DayClosedTimestamp == nil {
		t.Fatalf("unexpected shift %+v", shift)
	}
	if *shift.FinalTotalRevenue != 55 || *shift.FinalCashSales != 30 || *shift.FinalManualIncomeCard != 5 {
		t.Fatalf("unexpected frozen figures %+v", shift)
	}
	if !almost(*shift.FinalTotalTax, shift.TotalTax) {
		t.Fatalf("frozen tax mismatch")
	}
	if err := Close(&shift, nil, opened.Add(9*time.Hour)); !reasonIs(err, domain.ReasonNoOpenShift) {
		t.Fatalf("closed shift must not close again, got %v", err)
	}
}

func TestInWindow(t *testing.T) {
	shift := openShift(t, 0)
	if InWindow(shift, opened.Add(-time.Second)) {
		t.Fatalf("before open must be outside")
	}
	if !InWindow(shift, opened) {
		t.Fatalf("open instant is inside")
	}
	closed := opened.Add(time.Hour)
	shift.DayClosedTimestamp = &closed
	if InWindow(shift, closed.Add(time.Second)) {
		t.Fatalf("after close must be outside")
	}
}
