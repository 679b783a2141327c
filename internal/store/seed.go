package store

import (
	"comanda/backend/internal/domain"
)

// SeedState is the demo catalog a fresh installation starts with.
func SeedState() *State {
	return &State{
		Categories: []domain.Category{
			{ID: "cat1", Name: "Pizzas"},
			{ID: "cat2", Name: "Pastas"},
			{ID: "cat3", Name: "Salads"},
			{ID: "cat4", Name: "Drinks"},
			{ID: "cat5", Name: "Desserts"},
		},
		Inventory: []domain.InventoryItem{
			{ID: "inv1", Name: "Pizza Dough", Quantity: 50, Unit: "units", LowStockThreshold: 10},
			{ID: "inv2", Name: "Tomato Sauce", Quantity: 20, Unit: "liters", LowStockThreshold: 5},
			{ID: "inv3", Name: "Mozzarella", Quantity: 15, Unit: "kg", LowStockThreshold: 3},
			{ID: "inv4", Name: "Pepperoni", Quantity: 5, Unit: "kg", LowStockThreshold: 1},
			{ID: "inv5", Name: "Lettuce", Quantity: 10, Unit: "heads", LowStockThreshold: 2},
			{ID: "inv6", Name: "Pasta", Quantity: 30, Unit: "kg", LowStockThreshold: 5},
			{ID: "inv7", Name: "Cola", Quantity: 100, Unit: "cans", LowStockThreshold: 24},
			{ID: "inv8", Name: "Tiramisu Portion", Quantity: 12, Unit: "units", LowStockThreshold: 4},
			{ID: "inv9", Name: "Fanta", Quantity: 100, Unit: "cans", LowStockThreshold: 24},
			{ID: "inv10", Name: "Sprite", Quantity: 100, Unit: "cans", LowStockThreshold: 24},
			{ID: "inv11", Name: "Water", Quantity: 100, Unit: "bottles", LowStockThreshold: 24},
			{ID: "inv12", Name: "Beer", Quantity: 50, Unit: "bottles", LowStockThreshold: 12},
			{ID: "inv13", Name: "House Wine", Quantity: 10, Unit: "liters", LowStockThreshold: 2},
		},
		MenuItems: []domain.MenuItem{
			{
				ID: "item1", Name: "Margherita Pizza", Price: 8.99, CategoryID: "cat1",
				Ingredients: []string{"Dough", "Tomato Sauce", "Mozzarella", "Basil"},
				Customizations: []domain.CustomizationCategory{
					{ID: "cust1", Name: "Crust", Type: domain.CustomizationSingle, Options: []domain.CustomizationOption{
						{ID: "custopt1", Name: "Thin Crust", PriceModifier: 0},
						{ID: "custopt2", Name: "Thick Crust", PriceModifier: 1.5},
					}},
					{ID: "cust2", Name: "Extra Toppings", Type: domain.CustomizationMultiple, Options: []domain.CustomizationOption{
						{ID: "custopt3", Name: "Extra Cheese", PriceModifier: 2},
						{ID: "custopt4", Name: "Mushrooms", PriceModifier: 1},
					}},
				},
				StockItemID: "inv1", StockConsumption: 1,
			},
			{ID: "item2", Name: "Pepperoni Pizza", Price: 10.5, CategoryID: "cat1", Ingredients: []string{"Dough", "Tomato Sauce", "Mozzarella", "Pepperoni"}, StockItemID: "inv1", StockConsumption: 1},
			{ID: "item3", Name: "Spaghetti Carbonara", Price: 12, CategoryID: "cat2", Ingredients: []string{"Spaghetti", "Eggs", "Pancetta", "Parmesan"}, StockItemID: "inv6", StockConsumption: 0.2},
			{ID: "item4", Name: "Coca-Cola", Price: 2, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv7", StockConsumption: 1},
			{ID: "item7", Name: "Fanta", Price: 2, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv9", StockConsumption: 1},
			{ID: "item8", Name: "Sprite", Price: 2, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv10", StockConsumption: 1},
			{ID: "item9", Name: "Agua", Price: 2, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv11", StockConsumption: 1},
			{ID: "item10", Name: "Cerveza", Price: 3, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv12", StockConsumption: 1},
			{ID: "item11", Name: "Vino de la casa", Price: 3, CategoryID: "cat4", Ingredients: []string{}, StockItemID: "inv13", StockConsumption: 0.15},
			{ID: "item5", Name: "Tiramisu", Price: 6, CategoryID: "cat5", Ingredients: []string{"Ladyfingers", "Coffee", "Mascarpone", "Cocoa"}, StockItemID: "inv8", StockConsumption: 1},
			{ID: "item6", Name: "Caesar Salad", Price: 7.5, CategoryID: "cat3", Ingredients: []string{"Lettuce", "Croutons", "Parmesan", "Caesar Dressing"}, StockItemID: "inv5", StockConsumption: 0.5},
		},
		Waiters: []domain.Waiter{
			{ID: "waiter1", Name: "Alice"},
			{ID: "waiter2", Name: "Bob"},
			{ID: "waiter3", Name: "Charlie"},
			{ID: "waiter4", Name: "Diana"},
		},
		Orders:       []domain.Order{},
		Transactions: []domain.Transaction{},
		Shifts:       []domain.ShiftReport{},
		HeldOrders:   []domain.HeldOrder{},
	}
}
