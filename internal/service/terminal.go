package service

import (
	"context"
	"fmt"
	"sync"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/heldorders"
	"comanda/backend/internal/inventory"
	"comanda/backend/internal/kitchen"
	"comanda/backend/internal/orders"
	"comanda/backend/internal/store"
	"comanda/backend/internal/xid"
)

// Terminal is one operator session: the selected waiter and table, the
// unlocked role and the cart being composed. The session survives restarts
// through the session buckets; the cart does not.
type Terminal struct {
	svc *Service

	mu          sync.Mutex
	session     domain.Session
	cart        *orders.Cart
	pendingHeld *domain.HeldOrder
}

// Terminal restores the persisted session and starts with an empty cart.
func (s *Service) Terminal(ctx context.Context) (*Terminal, error) {
	session, err := s.repo.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if !session.Role.Valid() {
		session.Role = domain.RoleNone
	}
	return &Terminal{svc: s, session: session, cart: orders.NewCart()}, nil
}

func (t *Terminal) Session() domain.Session {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// Context attaches the terminal's operator to ctx for role checks and audit.
func (t *Terminal) Context(ctx context.Context) context.Context {
	t.mu.Lock()
	defer t.mu.Unlock()
	return WithActor(ctx, t.actor())
}

func (t *Terminal) actor() domain.Actor {
	name := t.session.WaiterID
	if name == "" {
		name = "terminal"
	}
	return domain.Actor{Username: name, Role: t.session.Role}
}

func (t *Terminal) save(ctx context.Context, next domain.Session) error {
	if err := t.svc.repo.SaveSession(ctx, next); err != nil {
		return err
	}
	t.session = next
	return nil
}

func (t *Terminal) SelectWaiter(ctx context.Context, waiterID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.svc.view(ctx, func(state *store.State) error {
		for _, w := range state.Waiters {
			if w.ID == waiterID {
				return nil
			}
		}
		return domain.Fail(domain.ReasonWaiterNotFound, "%s", waiterID)
	})
	if err != nil {
		return err
	}
	next := t.session
	next.WaiterID = waiterID
	return t.save(ctx, next)
}

// SelectTable makes ref the target of the cart; lines already in the cart
// move with it. When a held order exists for the table it is returned and
// the cart stays locked until the operator resumes or discards it. A table
// with a held order can only be selected with an empty cart.
func (t *Terminal) SelectTable(ctx context.Context, ref domain.TableRef) (*domain.HeldOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.svc.validTable(ref) {
		return nil, domain.Fail(domain.ReasonInvalidTable, "%s %d", ref.Area, ref.Number)
	}

	var held *domain.HeldOrder
	err := t.svc.view(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		if h, ok := heldorders.NewRegistry(&state.HeldOrders).Get(ref); ok {
			held = &h
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if held != nil && !t.cart.Empty() {
		return nil, domain.Fail(domain.ReasonCartNotEmpty, "%s has a held order; submit, hold or clear the cart first", tableKey(ref))
	}

	next := t.session
	next.Table = &ref
	if err := t.save(ctx, next); err != nil {
		return nil, err
	}
	t.pendingHeld = held
	return held, nil
}

// ResumeHeld reloads the held order for the selected table into the cart.
// The session takes over the held order's waiter.
func (t *Terminal) ResumeHeld(ctx context.Context) (domain.HeldOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	held, err := t.takeHeld(ctx)
	if err != nil {
		return domain.HeldOrder{}, err
	}
	next := t.session
	next.WaiterID = held.WaiterID
	if err := t.save(ctx, next); err != nil {
		return domain.HeldOrder{}, err
	}
	t.cart = orders.RestoreCart(held.Items, held.Notes)
	t.svc.logAudit(t.actorContext(ctx), "held_resume", "table", tableKey(held.Table()), fmt.Sprintf("lines=%d", len(held.Items)))
	return held, nil
}

// DiscardHeldAndStart drops the held order and starts an empty cart.
func (t *Terminal) DiscardHeldAndStart(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	held, err := t.takeHeld(ctx)
	if err != nil {
		return err
	}
	t.cart = orders.NewCart()
	t.svc.logAudit(t.actorContext(ctx), "held_discard", "table", tableKey(held.Table()), fmt.Sprintf("lines=%d", len(held.Items)))
	return nil
}

func (t *Terminal) takeHeld(ctx context.Context) (domain.HeldOrder, error) {
	if t.session.Table == nil {
		return domain.HeldOrder{}, domain.Fail(domain.ReasonNoTable, "")
	}
	ref := *t.session.Table

	var held domain.HeldOrder
	err := t.svc.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		h, ok := heldorders.NewRegistry(&state.HeldOrders).Remove(ref)
		if !ok {
			return domain.Fail(domain.ReasonHeldOrderNotFound, "%s", tableKey(ref))
		}
		state.Mark(store.BucketHeldOrders)
		held = h
		return nil
	})
	if err != nil {
		return domain.HeldOrder{}, err
	}
	t.pendingHeld = nil
	return held, nil
}

func (t *Terminal) composable() error {
	if t.pendingHeld != nil {
		return domain.Fail(domain.ReasonHeldOrderExists, "%s", tableKey(t.pendingHeld.Table()))
	}
	return nil
}

// AddItem prices a menu item with its customizations and appends it to the
// cart as a new line.
func (t *Terminal) AddItem(ctx context.Context, menuItemID string, selection orders.Selection, removed []string) (domain.OrderItem, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.composable(); err != nil {
		return domain.OrderItem{}, err
	}

	var item domain.MenuItem
	err := t.svc.view(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		for _, m := range state.MenuItems {
			if m.ID == menuItemID {
				item = m
				return nil
			}
		}
		return domain.Fail(domain.ReasonMenuItemNotFound, "%s", menuItemID)
	})
	if err != nil {
		return domain.OrderItem{}, err
	}
	return t.cart.Add(item, selection, removed, xid.New(menuItemID))
}

func (t *Terminal) UpdateQuantity(lineID string, quantity int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cart.UpdateQuantity(lineID, quantity)
}

func (t *Terminal) RemoveItem(lineID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cart.Remove(lineID)
}

func (t *Terminal) SetItemDiscount(lineID string, percent float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cart.SetDiscount(lineID, percent)
}

func (t *Terminal) SetNotes(notes string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cart.SetNotes(notes)
}

type CartView struct {
	Table    *domain.TableRef   `json:"table"`
	WaiterID string             `json:"waiter_id"`
	Items    []domain.OrderItem `json:"items"`
	Notes    string             `json:"notes"`
	Totals   orders.Totals      `json:"totals"`
}

func (t *Terminal) Cart() CartView {
	t.mu.Lock()
	defer t.mu.Unlock()
	return CartView{
		Table:    t.session.Table,
		WaiterID: t.session.WaiterID,
		Items:    t.cart.Items(),
		Notes:    t.cart.Notes(),
		Totals:   t.cart.Totals(t.svc.taxRate),
	}
}

// Hold parks the cart for the selected table. Any earlier held order for the
// table is replaced. Inventory is not touched.
func (t *Terminal) Hold(ctx context.Context) (domain.HeldOrder, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.composable(); err != nil {
		return domain.HeldOrder{}, err
	}
	if t.cart.Empty() {
		return domain.HeldOrder{}, domain.Fail(domain.ReasonEmptyCart, "")
	}
	if t.session.WaiterID == "" {
		return domain.HeldOrder{}, domain.Fail(domain.ReasonNoWaiter, "")
	}
	if t.session.Table == nil {
		return domain.HeldOrder{}, domain.Fail(domain.ReasonNoTable, "")
	}

	held := domain.HeldOrder{
		TableNumber: t.session.Table.Number,
		Area:        t.session.Table.Area,
		WaiterID:    t.session.WaiterID,
		Items:       t.cart.Items(),
		Notes:       t.cart.Notes(),
		Timestamp:   t.svc.now(),
	}
	err := t.svc.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		heldorders.NewRegistry(&state.HeldOrders).Put(held)
		state.Mark(store.BucketHeldOrders)
		return nil
	})
	if err != nil {
		return domain.HeldOrder{}, err
	}

	next := t.session
	next.Table = nil
	if err := t.save(ctx, next); err != nil {
		return domain.HeldOrder{}, err
	}
	t.cart.Clear()
	t.svc.logAudit(t.actorContext(ctx), "order_hold", "table", tableKey(held.Table()), fmt.Sprintf("lines=%d", len(held.Items)))
	return held, nil
}

// Submit sends the cart to the kitchen as a pending order and consumes the
// stock of every line. The cart is kept if the commit fails.
func (t *Terminal) Submit(ctx context.Context) (domain.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.composable(); err != nil {
		return domain.Order{}, err
	}

	var order domain.Order
	err := t.svc.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		for _, o := range state.Orders {
			t.svc.orderIDs.Observe(o.ID)
		}
		at := t.svc.now()
		draft := orders.RestoreCart(t.cart.Items(), t.cart.Notes())
		placed, err := orders.Submit(draft, orders.Placement{
			ID:       t.svc.orderIDs.Next(at),
			WaiterID: t.session.WaiterID,
			Table:    t.session.Table,
			At:       at,
		}, t.svc.taxRate)
		if err != nil {
			return err
		}
		inventory.NewLedger(&state.Inventory).ConsumeItems(placed.Items)
		state.Orders = append(state.Orders, placed)
		state.Mark(store.BucketOrders, store.BucketInventory)
		order = placed
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	t.cart.Clear()
	next := t.session
	next.Table = nil
	if err := t.save(ctx, next); err != nil {
		return domain.Order{}, err
	}

	t.svc.logAudit(t.actorContext(ctx), "order_submit", "order", fmt.Sprint(order.ID), fmt.Sprintf("table=%s,lines=%d,total=%.2f", tableKey(order.Table()), len(order.Items), order.Total))
	t.svc.publish(ctx, kitchen.EventSubmitted, order)
	return order.Clone(), nil
}

// AddToExistingOrder pulls an order that is still in service back into the
// cart so more lines can be added. The order is removed and its stock
// restored; submitting again places it afresh. Unsent lines are only kept
// when they were composed for the order's own table.
func (t *Terminal) AddToExistingOrder(ctx context.Context, orderID int64) (domain.Order, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.composable(); err != nil {
		return domain.Order{}, err
	}

	var reopened domain.Order
	err := t.svc.update(ctx, func(state *store.State) error {
		if _, err := activeShift(state); err != nil {
			return err
		}
		idx, err := findOrder(state, orderID)
		if err != nil {
			return err
		}
		o := state.Orders[idx]
		if !orders.Reopenable(o) {
			return domain.Fail(domain.ReasonInvalidTransition, "order %d is %s", o.ID, o.Status)
		}
		if !t.cart.Empty() && (t.session.Table == nil || *t.session.Table != o.Table()) {
			return domain.Fail(domain.ReasonCartNotEmpty, "cart holds unsent lines for another table than order %d", o.ID)
		}
		inventory.NewLedger(&state.Inventory).RestoreItems(o.Items)
		state.Orders = append(state.Orders[:idx], state.Orders[idx+1:]...)
		state.Mark(store.BucketOrders, store.BucketInventory)
		reopened = o
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	table := reopened.Table()
	next := t.session
	next.Table = &table
	next.WaiterID = reopened.WaiterID
	if err := t.save(ctx, next); err != nil {
		return domain.Order{}, err
	}
	lines := append(domain.CloneItems(reopened.Items), t.cart.Items()...)
	notes := reopened.Notes
	if t.cart.Notes() != "" {
		notes = t.cart.Notes()
	}
	t.cart = orders.RestoreCart(lines, notes)

	t.svc.logAudit(t.actorContext(ctx), "order_reopen", "order", fmt.Sprint(orderID), fmt.Sprintf("lines=%d", len(reopened.Items)))
	t.svc.publish(ctx, kitchen.EventReopened, reopened)
	return reopened, nil
}

// Unlock elevates the session to the role behind pin.
func (t *Terminal) Unlock(ctx context.Context, pin string) (domain.Role, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	role, ok := t.svc.gate.Resolve(pin)
	if !ok {
		return domain.RoleNone, domain.Fail(domain.ReasonInvalidPIN, "")
	}
	next := t.session
	next.Role = role
	if err := t.save(ctx, next); err != nil {
		return domain.RoleNone, err
	}
	t.svc.logAudit(t.actorContext(ctx), "role_unlock", "session", t.session.WaiterID, fmt.Sprintf("role=%s", role))
	return role, nil
}

func (t *Terminal) Lock(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := t.session
	next.Role = domain.RoleNone
	return t.save(ctx, next)
}

// Logout ends the session: waiter, table, role and cart are cleared.
func (t *Terminal) Logout(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	actorCtx := t.actorContext(ctx)
	if err := t.save(ctx, domain.Session{}); err != nil {
		return err
	}
	t.cart = orders.NewCart()
	t.pendingHeld = nil
	t.svc.logAudit(actorCtx, "logout", "session", "", "")
	return nil
}

// actorContext is Context for callers already holding mu.
func (t *Terminal) actorContext(ctx context.Context) context.Context {
	return WithActor(ctx, t.actor())
}

func tableKey(ref domain.TableRef) string {
	return fmt.Sprintf("%s-%d", ref.Area, ref.Number)
}
