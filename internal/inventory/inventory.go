package inventory

import (
	"comanda/backend/internal/domain"
)

// Ledger adjusts stock quantities in place over the persisted inventory list.
// Quantities may go negative; the kitchen keeps serving and the shortfall
// shows up as out-of-stock.
type Ledger struct {
	items *[]domain.InventoryItem
}

func NewLedger(items *[]domain.InventoryItem) *Ledger {
	return &Ledger{items: items}
}

func (l *Ledger) index(id string) int {
	for i, item := range *l.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) Find(id string) (domain.InventoryItem, bool) {
	idx := l.index(id)
	if idx < 0 {
		return domain.InventoryItem{}, false
	}
	return (*l.items)[idx], true
}

// Consume decrements stock. An unknown id is ignored and reported as false.
func (l *Ledger) Consume(stockItemID string, units float64) bool {
	idx := l.index(stockItemID)
	if idx < 0 {
		return false
	}
	(*l.items)[idx].Quantity -= units
	return true
}

func (l *Ledger) Restock(stockItemID string, units float64) (domain.InventoryItem, bool) {
	idx := l.index(stockItemID)
	if idx < 0 {
		return domain.InventoryItem{}, false
	}
	(*l.items)[idx].Quantity += units
	return (*l.items)[idx], true
}

// ConsumeItems applies StockConsumption×Quantity for every line.
func (l *Ledger) ConsumeItems(lines []domain.OrderItem) {
	for _, line := range lines {
		if line.MenuItem.StockItemID == "" {
			continue
		}
		l.Consume(line.MenuItem.StockItemID, line.MenuItem.StockConsumption*float64(line.Quantity))
	}
}

// RestoreItems reverses ConsumeItems.
func (l *Ledger) RestoreItems(lines []domain.OrderItem) {
	for _, line := range lines {
		if line.MenuItem.StockItemID == "" {
			continue
		}
		l.Restock(line.MenuItem.StockItemID, line.MenuItem.StockConsumption*float64(line.Quantity))
	}
}

func (l *Ledger) LowStock() []domain.InventoryItem {
	out := make([]domain.InventoryItem, 0)
	for _, item := range *l.items {
		if IsLowStock(item) {
			out = append(out, item)
		}
	}
	return out
}

func IsLowStock(item domain.InventoryItem) bool {
	return item.Quantity <= item.LowStockThreshold
}

func IsOutOfStock(item domain.InventoryItem) bool {
	return item.Quantity <= 0
}

// Level is the presentation view of one stock row.
type Level struct {
	domain.InventoryItem
	LowStock   bool `json:"lowStock"`
	OutOfStock bool `json:"outOfStock"`
}

func Levels(items []domain.InventoryItem) []Level {
	out := make([]Level, 0, len(items))
	for _, item := range items {
		out = append(out, Level{InventoryItem: item, LowStock: IsLowStock(item), OutOfStock: IsOutOfStock(item)})
	}
	return out
}
