package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/inventory"
	"comanda/backend/internal/reporting"
	"comanda/backend/internal/store"
)

// OrderFilter narrows order listings. Zero values match everything.
// CurrentShift restricts to orders placed since the open shift started.
type OrderFilter struct {
	Statuses     []domain.OrderStatus
	Table        *domain.TableRef
	CurrentShift bool
}

func (f OrderFilter) match(o domain.Order, shift *domain.ShiftReport) bool {
	if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, o.Status) {
		return false
	}
	if f.Table != nil && o.Table() != *f.Table {
		return false
	}
	if f.CurrentShift && (shift == nil || o.Timestamp.Before(shift.DayOpenedTimestamp)) {
		return false
	}
	return true
}

// Orders lists orders newest first.
func (s *Service) Orders(ctx context.Context, filter OrderFilter) ([]domain.Order, error) {
	out := make([]domain.Order, 0)
	err := s.view(ctx, func(state *store.State) error {
		var shift *domain.ShiftReport
		if filter.CurrentShift {
			shift, _ = activeShift(state)
		}
		for _, o := range state.Orders {
			if filter.match(o, shift) {
				out = append(out, o)
			}
		}
		return nil
	})
	slices.SortStableFunc(out, func(a, b domain.Order) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, err
}

func (s *Service) Order(ctx context.Context, id int64) (domain.Order, error) {
	var order domain.Order
	err := s.view(ctx, func(state *store.State) error {
		idx, err := findOrder(state, id)
		if err != nil {
			return err
		}
		order = state.Orders[idx]
		return nil
	})
	return order, err
}

func (s *Service) CreditOrders(ctx context.Context) ([]domain.Order, error) {
	var out []domain.Order
	err := s.view(ctx, func(state *store.State) error {
		out = reporting.CreditOrders(state.Orders)
		return nil
	})
	return out, err
}

// Receipt is the printable record of a paid order.
type Receipt struct {
	Order     domain.Order `json:"order"`
	TaxRate   float64      `json:"tax_rate"`
	PrintedAt time.Time    `json:"printed_at"`
}

func (s *Service) Receipt(ctx context.Context, id int64) (Receipt, error) {
	order, err := s.Order(ctx, id)
	if err != nil {
		return Receipt{}, err
	}
	if order.Status != domain.StatusPaid {
		return Receipt{}, domain.Fail(domain.ReasonReceiptUnavailable, "order %d is %s", id, order.Status)
	}
	return Receipt{Order: order, TaxRate: s.taxRate, PrintedAt: s.now()}, nil
}

func (s *Service) HeldOrders(ctx context.Context) ([]domain.HeldOrder, error) {
	var out []domain.HeldOrder
	err := s.view(ctx, func(state *store.State) error {
		out = slices.Clone(state.HeldOrders)
		return nil
	})
	return out, err
}

func (s *Service) Inventory(ctx context.Context) ([]inventory.Level, error) {
	var out []inventory.Level
	err := s.view(ctx, func(state *store.State) error {
		out = inventory.Levels(state.Inventory)
		return nil
	})
	return out, err
}

func (s *Service) Menu(ctx context.Context) ([]domain.MenuItem, error) {
	var out []domain.MenuItem
	err := s.view(ctx, func(state *store.State) error {
		out = state.MenuItems
		return nil
	})
	return out, err
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := s.view(ctx, func(state *store.State) error {
		out = state.Categories
		return nil
	})
	return out, err
}

func (s *Service) Waiters(ctx context.Context) ([]domain.Waiter, error) {
	var out []domain.Waiter
	err := s.view(ctx, func(state *store.State) error {
		out = state.Waiters
		return nil
	})
	return out, err
}

func (s *Service) Transactions(ctx context.Context) ([]domain.Transaction, error) {
	if err := authorize(ctx, domain.CapViewTransactions); err != nil {
		return nil, err
	}
	var out []domain.Transaction
	err := s.view(ctx, func(state *store.State) error {
		out = slices.Clone(state.Transactions)
		return nil
	})
	slices.SortStableFunc(out, func(a, b domain.Transaction) int {
		return b.Timestamp.Compare(a.Timestamp)
	})
	return out, err
}

func source(state *store.State) reporting.Source {
	return reporting.Source{
		Orders:       state.Orders,
		Inventory:    state.Inventory,
		Categories:   state.Categories,
		Waiters:      state.Waiters,
		Transactions: state.Transactions,
		Shifts:       state.Shifts,
	}
}

// Dashboard summarizes the open shift for the floor.
func (s *Service) Dashboard(ctx context.Context) (reporting.Dashboard, error) {
	var out reporting.Dashboard
	err := s.view(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		out = reporting.BuildDashboard(source(state), *shift)
		return nil
	})
	return out, err
}

func (s *Service) DailyReport(ctx context.Context) (reporting.DailyReport, error) {
	if err := authorize(ctx, domain.CapViewReports); err != nil {
		return reporting.DailyReport{}, err
	}
	var out reporting.DailyReport
	err := s.view(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		out = reporting.BuildDailyReport(source(state), *shift)
		return nil
	})
	return out, err
}

func (s *Service) ManagerOverview(ctx context.Context) (reporting.ManagerOverview, error) {
	if err := authorize(ctx, domain.CapViewReports); err != nil {
		return reporting.ManagerOverview{}, err
	}
	var out reporting.ManagerOverview
	err := s.view(ctx, func(state *store.State) error {
		out = reporting.BuildManagerOverview(source(state))
		return nil
	})
	return out, err
}

func (s *Service) CashSummary(ctx context.Context, period reporting.Period) (reporting.CashSummary, error) {
	if err := authorize(ctx, domain.CapViewReports); err != nil {
		return reporting.CashSummary{}, err
	}
	var out reporting.CashSummary
	err := s.view(ctx, func(state *store.State) error {
		active, _ := activeShift(state)
		summary, err := reporting.BuildCashSummary(period, s.now(), active, state.Transactions)
		if err != nil {
			return domain.Fail(domain.ReasonInvalidPeriod, "%v", err)
		}
		out = summary
		return nil
	})
	return out, err
}

func (s *Service) ClosedShifts(ctx context.Context) ([]domain.ShiftReport, error) {
	if err := authorize(ctx, domain.CapViewReports); err != nil {
		return nil, err
	}
	var out []domain.ShiftReport
	err := s.view(ctx, func(state *store.State) error {
		out = reporting.ClosedShifts(state.Shifts)
		return nil
	})
	return out, err
}

// ShiftSummary returns the end-of-day sheet for one shift. Closed shifts
// never change, so their summaries are served from the cache when present.
func (s *Service) ShiftSummary(ctx context.Context, shiftID string) (reporting.ShiftSummary, error) {
	if err := authorize(ctx, domain.CapViewReports); err != nil {
		return reporting.ShiftSummary{}, err
	}

	cached, ok, err := s.summaries.Get(ctx, shiftID)
	if err != nil {
		log.Printf("[service] WARN: shift summary cache read failed shift=%s: %v", shiftID, err)
	}
	if ok && cached != nil {
		return *cached, nil
	}

	var summary reporting.ShiftSummary
	err = s.view(ctx, func(state *store.State) error {
		for _, shift := range state.Shifts {
			if shift.ID == shiftID {
				summary = reporting.BuildShiftSummary(shift, state.Transactions)
				return nil
			}
		}
		return fmt.Errorf("shift %s: %w", shiftID, store.ErrNotFound)
	})
	if err != nil {
		return reporting.ShiftSummary{}, err
	}

	if summary.Shift.Status == domain.ShiftClosed {
		if err := s.summaries.Set(ctx, shiftID, &summary, s.summaryTTL); err != nil {
			log.Printf("[service] WARN: shift summary cache write failed shift=%s: %v", shiftID, err)
		}
	}
	return summary, nil
}
