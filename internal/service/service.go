package service

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync"
	"time"

	"comanda/backend/internal/cache"
	"comanda/backend/internal/domain"
	"comanda/backend/internal/inventory"
	"comanda/backend/internal/kitchen"
	"comanda/backend/internal/ledger"
	"comanda/backend/internal/orders"
	"comanda/backend/internal/pricing"
	"comanda/backend/internal/store"
	"comanda/backend/internal/xid"
)

// Options tune a Service. A nil TaxRate selects pricing.DefaultTaxRate.
type Options struct {
	TaxRate    *float64
	Layout     []domain.AreaLayout
	SummaryTTL time.Duration
}

// Service owns every state transition. Each command loads the persisted
// state, mutates it and commits the touched buckets in one write while
// holding mu, so a reader never sees an order paid without its ledger entry.
type Service struct {
	mu         sync.Mutex
	repo       *store.Repository
	gate       *PINGate
	notifier   kitchen.Notifier
	summaries  cache.SummaryCache
	orderIDs   *xid.Sequence
	taxRate    float64
	layout     []domain.AreaLayout
	summaryTTL time.Duration
	now        func() time.Time
}

func New(repo *store.Repository, gate *PINGate, notifier kitchen.Notifier, summaries cache.SummaryCache, opts Options) *Service {
	if notifier == nil {
		notifier = kitchen.NoopNotifier{}
	}
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	taxRate := pricing.DefaultTaxRate
	if opts.TaxRate != nil {
		taxRate = *opts.TaxRate
	}
	if len(opts.Layout) == 0 {
		opts.Layout = domain.DefaultLayout()
	}
	if opts.SummaryTTL <= 0 {
		opts.SummaryTTL = time.Hour
	}

	return &Service{
		repo:       repo,
		gate:       gate,
		notifier:   notifier,
		summaries:  summaries,
		orderIDs:   &xid.Sequence{},
		taxRate:    taxRate,
		layout:     opts.Layout,
		summaryTTL: opts.SummaryTTL,
		now:        func() time.Time { return time.Now().UTC().Round(0) },
	}
}

func (s *Service) TaxRate() float64 {
	return s.taxRate
}

func (s *Service) Layout() []domain.AreaLayout {
	return slices.Clone(s.layout)
}

// update runs fn against freshly loaded state and commits what it marked.
// Nothing is written when fn fails.
func (s *Service) update(ctx context.Context, fn func(*store.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.repo.Commit(ctx, state)
}

func (s *Service) view(ctx context.Context, fn func(*store.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.repo.Load(ctx)
	if err != nil {
		return err
	}
	return fn(state)
}

func activeShift(state *store.State) (*domain.ShiftReport, error) {
	idx := ledger.ActiveIndex(state.Shifts)
	if idx < 0 {
		return nil, domain.Fail(domain.ReasonNoOpenShift, "")
	}
	return &state.Shifts[idx], nil
}

func findOrder(state *store.State, id int64) (int, error) {
	for i, o := range state.Orders {
		if o.ID == id {
			return i, nil
		}
	}
	return -1, domain.Fail(domain.ReasonOrderNotFound, "order %d", id)
}

func (s *Service) validTable(ref domain.TableRef) bool {
	for _, area := range s.layout {
		if area.Area == ref.Area && area.Contains(ref.Number) {
			return true
		}
	}
	return false
}

// OpenDay starts a shift with the counted opening balance.
func (s *Service) OpenDay(ctx context.Context, openingBalance float64) (domain.ShiftReport, error) {
	var opened domain.ShiftReport
	err := s.update(ctx, func(state *store.State) error {
		shift, err := ledger.Open(state.Shifts, xid.New("shift"), openingBalance, s.now())
		if err != nil {
			return err
		}
		state.Shifts = append(state.Shifts, shift)
		state.Mark(store.BucketShifts)
		opened = shift
		return nil
	})
	if err != nil {
		return domain.ShiftReport{}, err
	}

	s.logAudit(ctx, "day_open", "shift", opened.ID, fmt.Sprintf("opening_balance=%.2f", openingBalance))
	return opened, nil
}

func (s *Service) ActiveShift(ctx context.Context) (domain.ShiftReport, bool, error) {
	var (
		shift domain.ShiftReport
		ok    bool
	)
	err := s.view(ctx, func(state *store.State) error {
		shift, ok = ledger.Active(state.Shifts)
		return nil
	})
	return shift, ok, err
}

// OpenOrdersForClose lists the orders that must be named and converted to
// credit before the day can close.
func (s *Service) OpenOrdersForClose(ctx context.Context) ([]domain.Order, error) {
	var open []domain.Order
	err := s.view(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		open = ledger.BlockingOrders(state.Orders, *shift)
		return nil
	})
	return open, err
}

// CloseDay converts every open order of the shift into a credit account for
// the given customer and closes the shift. Either all of it lands or none.
func (s *Service) CloseDay(ctx context.Context, customerNames map[int64]string) (domain.ShiftReport, error) {
	if err := authorize(ctx, domain.CapCloseDay); err != nil {
		return domain.ShiftReport{}, err
	}

	var (
		closed    domain.ShiftReport
		converted []domain.Order
	)
	err := s.update(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		blocking := ledger.BlockingOrders(state.Orders, *shift)
		for _, o := range blocking {
			idx, err := findOrder(state, o.ID)
			if err != nil {
				return err
			}
			if err := orders.MarkOnCredit(&state.Orders[idx], customerNames[o.ID]); err != nil {
				return err
			}
			converted = append(converted, state.Orders[idx])
		}
		if err := ledger.Close(shift, state.Orders, s.now()); err != nil {
			return err
		}
		state.Mark(store.BucketOrders, store.BucketShifts)
		closed = *shift
		return nil
	})
	if err != nil {
		return domain.ShiftReport{}, err
	}

	for _, o := range converted {
		s.logAudit(ctx, "order_on_credit", "order", fmt.Sprint(o.ID), fmt.Sprintf("customer=%s,total=%.2f", o.CustomerName, o.Total))
	}
	s.logAudit(ctx, "day_close", "shift", closed.ID, fmt.Sprintf("revenue=%.2f,tax=%.2f,credit_orders=%d", *closed.FinalTotalRevenue, *closed.FinalTotalTax, len(converted)))
	return closed, nil
}

// AdvanceOrder walks an order one step along the kitchen path.
func (s *Service) AdvanceOrder(ctx context.Context, id int64, to domain.OrderStatus) (domain.Order, error) {
	var advanced domain.Order
	err := s.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		idx, err := findOrder(state, id)
		if err != nil {
			return err
		}
		if err := orders.Advance(&state.Orders[idx], to); err != nil {
			return err
		}
		state.Mark(store.BucketOrders)
		advanced = state.Orders[idx].Clone()
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logAudit(ctx, "order_status", "order", fmt.Sprint(id), fmt.Sprintf("status=%s", advanced.Status))
	s.publish(ctx, kitchen.EventStatus, advanced)
	return advanced, nil
}

// CancelOrder cancels an order and puts the stock it consumed back.
func (s *Service) CancelOrder(ctx context.Context, id int64) (domain.Order, error) {
	var cancelled domain.Order
	err := s.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		idx, err := findOrder(state, id)
		if err != nil {
			return err
		}
		if err := orders.Cancel(&state.Orders[idx]); err != nil {
			return err
		}
		inventory.NewLedger(&state.Inventory).RestoreItems(state.Orders[idx].Items)
		state.Mark(store.BucketOrders, store.BucketInventory)
		cancelled = state.Orders[idx].Clone()
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logAudit(ctx, "order_cancel", "order", fmt.Sprint(id), fmt.Sprintf("total=%.2f", cancelled.Total))
	s.publish(ctx, kitchen.EventCancelled, cancelled)
	return cancelled, nil
}

// PayOrder settles a ready or credit order. The paid order, its sale
// transactions and the shift increments are committed together.
func (s *Service) PayOrder(ctx context.Context, id int64, req domain.PaymentRequest) (orders.Settlement, error) {
	var settlement orders.Settlement
	err := s.update(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		idx, err := findOrder(state, id)
		if err != nil {
			return err
		}
		if state.Orders[idx].Status == domain.StatusOnCredit {
			if err := authorize(ctx, domain.CapSettleCredit); err != nil {
				return err
			}
		}
		settled, err := orders.Settle(state.Orders[idx], req, s.taxRate)
		if err != nil {
			return err
		}
		at := s.now()
		txs := ledger.RecordSale(shift, ledger.SaleOf(settled), s.taxRate, func() string { return xid.New("tx") }, at)
		state.Orders[idx] = settled.Order
		state.Transactions = append(state.Transactions, txs...)
		state.Mark(store.BucketOrders, store.BucketTransactions, store.BucketShifts)
		settlement = settled
		return nil
	})
	if err != nil {
		return orders.Settlement{}, err
	}

	s.logAudit(ctx, "order_pay", "order", fmt.Sprint(id), fmt.Sprintf("method=%s,total=%.2f,discount=%.2f,cash=%.2f,card=%.2f",
		req.Method, settlement.FinalTotal, settlement.Discount, settlement.CashAmount, settlement.CardAmount))
	return settlement, nil
}

// RecordManualIncome books money taken outside an order against the open
// shift.
func (s *Service) RecordManualIncome(ctx context.Context, amount float64, description string, method domain.Tender) (domain.Transaction, error) {
	if err := authorize(ctx, domain.CapManualIncome); err != nil {
		return domain.Transaction{}, err
	}

	var tx domain.Transaction
	err := s.update(ctx, func(state *store.State) error {
		shift, err := activeShift(state)
		if err != nil {
			return err
		}
		recorded, err := ledger.RecordManualIncome(shift, amount, description, method, s.taxRate, xid.New("tx"), s.now())
		if err != nil {
			return err
		}
		state.Transactions = append(state.Transactions, recorded)
		state.Mark(store.BucketTransactions, store.BucketShifts)
		tx = recorded
		return nil
	})
	if err != nil {
		return domain.Transaction{}, err
	}

	s.logAudit(ctx, "manual_income", "transaction", tx.ID, fmt.Sprintf("method=%s,amount=%.2f", method, amount))
	return tx, nil
}

func (s *Service) Restock(ctx context.Context, stockItemID string, units float64) (domain.InventoryItem, error) {
	if err := authorize(ctx, domain.CapRestock); err != nil {
		return domain.InventoryItem{}, err
	}
	if units <= 0 {
		return domain.InventoryItem{}, domain.Fail(domain.ReasonInvalidAmount, "%.2f", units)
	}

	var item domain.InventoryItem
	err := s.update(ctx, func(state *store.State) error {
		updated, ok := inventory.NewLedger(&state.Inventory).Restock(stockItemID, units)
		if !ok {
			return domain.Fail(domain.ReasonStockItemNotFound, "%s", stockItemID)
		}
		state.Mark(store.BucketInventory)
		item = updated
		return nil
	})
	if err != nil {
		return domain.InventoryItem{}, err
	}

	s.logAudit(ctx, "inventory_restock", "inventory", stockItemID, fmt.Sprintf("units=%.2f,quantity=%.2f", units, item.Quantity))
	return item, nil
}

// OpenDrawer only records that the drawer was opened outside a sale.
func (s *Service) OpenDrawer(ctx context.Context) error {
	if err := authorize(ctx, domain.CapOpenDrawer); err != nil {
		return err
	}
	s.logAudit(ctx, "cash_drawer_open", "drawer", "main", "")
	return nil
}

func (s *Service) publish(ctx context.Context, event kitchen.Event, order domain.Order) {
	if err := s.notifier.Publish(ctx, kitchen.TicketFor(event, order, s.now())); err != nil {
		log.Printf("[kitchen] WARN: failed to publish %s ticket order=%d: %v", event, order.ID, err)
	}
}

func (s *Service) logAudit(ctx context.Context, action string, entityType string, entityID string, detail string) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		actor = domain.Actor{Username: "system"}
	}
	role := string(actor.Role)
	if role == "" {
		role = "-"
	}
	log.Printf("[audit] actor=%s role=%s action=%s entity=%s/%s %s", actor.Username, role, action, entityType, entityID, detail)
}
