package orders

import (
	"strings"
	"time"

	"comanda/backend/internal/domain"
)

// transitions lists every status change the lifecycle allows. Payment and
// credit conversion have their own entry points; Advance only walks the
// kitchen path.
var transitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.StatusPending:   {domain.StatusPreparing, domain.StatusCancelled, domain.StatusOnCredit},
	domain.StatusPreparing: {domain.StatusReady, domain.StatusCancelled, domain.StatusOnCredit},
	domain.StatusReady:     {domain.StatusPaid, domain.StatusCancelled, domain.StatusOnCredit},
	domain.StatusOnCredit:  {domain.StatusPaid, domain.StatusCancelled},
}

var kitchenPath = map[domain.OrderStatus]domain.OrderStatus{
	domain.StatusPending:   domain.StatusPreparing,
	domain.StatusPreparing: domain.StatusReady,
}

func CanTransition(from, to domain.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsOpen reports whether an order still needs attention before the day can
// close.
func IsOpen(o domain.Order) bool {
	return o.Status != domain.StatusPaid && o.Status != domain.StatusCancelled
}

// InService reports whether an order is still on the kitchen path.
func InService(o domain.Order) bool {
	switch o.Status {
	case domain.StatusPending, domain.StatusPreparing, domain.StatusReady:
		return true
	default:
		return false
	}
}

type Placement struct {
	ID       int64
	WaiterID string
	Table    *domain.TableRef
	At       time.Time
}

// Submit turns the cart into a pending order and clears it. Stock is not
// touched here; the caller consumes inventory in the same commit.
func Submit(cart *Cart, p Placement, rate float64) (domain.Order, error) {
	if cart == nil || cart.Empty() {
		return domain.Order{}, domain.Fail(domain.ReasonEmptyCart, "")
	}
	if strings.TrimSpace(p.WaiterID) == "" {
		return domain.Order{}, domain.Fail(domain.ReasonNoWaiter, "")
	}
	if p.Table == nil {
		return domain.Order{}, domain.Fail(domain.ReasonNoTable, "")
	}
	totals := cart.Totals(rate)
	order := domain.Order{
		ID:          p.ID,
		TableNumber: p.Table.Number,
		Area:        p.Table.Area,
		WaiterID:    p.WaiterID,
		Items:       cart.Items(),
		Status:      domain.StatusPending,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Total:       totals.Total,
		Notes:       cart.Notes(),
		Timestamp:   p.At,
	}
	cart.Clear()
	return order, nil
}

// Advance moves an order one step along pending → preparing → ready.
func Advance(o *domain.Order, to domain.OrderStatus) error {
	if next, ok := kitchenPath[o.Status]; !ok || next != to {
		return domain.Fail(domain.ReasonInvalidTransition, "order %d: %s → %s", o.ID, o.Status, to)
	}
	o.Status = to
	return nil
}

// Cancel marks the order cancelled. The caller restores its stock.
func Cancel(o *domain.Order) error {
	if !CanTransition(o.Status, domain.StatusCancelled) {
		return domain.Fail(domain.ReasonInvalidTransition, "order %d is %s", o.ID, o.Status)
	}
	o.Status = domain.StatusCancelled
	return nil
}

// MarkOnCredit converts an in-service order into a named credit account.
func MarkOnCredit(o *domain.Order, customerName string) error {
	name := strings.TrimSpace(customerName)
	if name == "" {
		return domain.Fail(domain.ReasonCustomerNameRequired, "order %d", o.ID)
	}
	if !InService(*o) {
		return domain.Fail(domain.ReasonInvalidTransition, "order %d is %s", o.ID, o.Status)
	}
	o.Status = domain.StatusOnCredit
	o.CustomerName = name
	return nil
}

// Reopenable reports whether an order may be pulled back into the cart to
// add more lines.
func Reopenable(o domain.Order) bool {
	return InService(o)
}
