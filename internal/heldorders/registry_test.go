package heldorders

import (
	"testing"
	"time"

	"comanda/backend/internal/domain"
)

func held(table int, area domain.Area, waiter string, lines ...string) domain.HeldOrder {
	items := make([]domain.OrderItem, 0, len(lines))
	for _, id := range lines {
		items = append(items, domain.OrderItem{ID: id, Quantity: 1, TotalPrice: 5})
	}
	return domain.HeldOrder{TableNumber: table, Area: area, WaiterID: waiter, Items: items, Timestamp: time.Now()}
}

func TestPutReplacesSameTable(t *testing.T) {
	var list []domain.HeldOrder
	reg := NewRegistry(&list)
	reg.Put(held(3, domain.AreaBar, "w1", "a"))
	reg.Put(held(3, domain.AreaVIP, "w1", "b"))
	reg.Put(held(3, domain.AreaBar, "w2", "c", "d"))

	if len(list) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(list))
	}
	got, ok := reg.Get(domain.TableRef{Number: 3, Area: domain.AreaBar})
	if !ok || got.WaiterID != "w2" || len(got.Items) != 2 {
		t.Fatalf("expected replaced entry, got %+v", got)
	}
}

func TestRemoveReturnsEntryOnce(t *testing.T) {
	var list []domain.HeldOrder
	reg := NewRegistry(&list)
	reg.Put(held(7, domain.AreaBarra, "w1", "a"))

	ref := domain.TableRef{Number: 7, Area: domain.AreaBarra}
	if _, ok := reg.Remove(ref); !ok {
		t.Fatalf("expected entry to be removed")
	}
	if _, ok := reg.Remove(ref); ok {
		t.Fatalf("second remove should miss")
	}
	if len(reg.List()) != 0 {
		t.Fatalf("registry not empty")
	}
}

func TestGetReturnsCopy(t *testing.T) {
	var list []domain.HeldOrder
	reg := NewRegistry(&list)
	reg.Put(held(1, domain.AreaBar, "w1", "a"))
	got, _ := reg.Get(domain.TableRef{Number: 1, Area: domain.AreaBar})
	got.Items[0].Quantity = 99
	again, _ := reg.Get(domain.TableRef{Number: 1, Area: domain.AreaBar})
	if again.Items[0].Quantity != 1 {
		t.Fatalf("registry entry mutated through Get")
	}
}
