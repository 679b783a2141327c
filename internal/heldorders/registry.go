package heldorders

import (
	"comanda/backend/internal/domain"
)

// Registry keeps at most one parked cart per (table, area). It works over the
// persisted heldOrders list and never touches placed orders.
type Registry struct {
	held *[]domain.HeldOrder
}

func NewRegistry(held *[]domain.HeldOrder) *Registry {
	return &Registry{held: held}
}

func (r *Registry) index(ref domain.TableRef) int {
	for i, h := range *r.held {
		if h.TableNumber == ref.Number && h.Area == ref.Area {
			return i
		}
	}
	return -1
}

// Put stores h, replacing whatever was parked at the same table.
func (r *Registry) Put(h domain.HeldOrder) {
	h.Items = domain.CloneItems(h.Items)
	if idx := r.index(h.Table()); idx >= 0 {
		*r.held = append((*r.held)[:idx], (*r.held)[idx+1:]...)
	}
	*r.held = append(*r.held, h)
}

func (r *Registry) Get(ref domain.TableRef) (domain.HeldOrder, bool) {
	idx := r.index(ref)
	if idx < 0 {
		return domain.HeldOrder{}, false
	}
	h := (*r.held)[idx]
	h.Items = domain.CloneItems(h.Items)
	return h, true
}

// Remove deletes and returns the entry for ref.
func (r *Registry) Remove(ref domain.TableRef) (domain.HeldOrder, bool) {
	idx := r.index(ref)
	if idx < 0 {
		return domain.HeldOrder{}, false
	}
	h := (*r.held)[idx]
	*r.held = append((*r.held)[:idx], (*r.held)[idx+1:]...)
	return h, true
}

func (r *Registry) List() []domain.HeldOrder {
	out := make([]domain.HeldOrder, len(*r.held))
	for i, h := range *r.held {
		h.Items = domain.CloneItems(h.Items)
		out[i] = h
	}
	return out
}
