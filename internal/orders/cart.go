package orders

import (
	"strings"

	"comanda/backend/internal/domain"
	"comanda/backend/internal/pricing"
)

// Cart is the order being composed for the selected table. It is owned by
// one operator session and is not persisted.
type Cart struct {
	items []domain.OrderItem
	notes string
}

func NewCart() *Cart {
	return &Cart{}
}

// RestoreCart loads previously held or submitted lines back into a cart.
func RestoreCart(items []domain.OrderItem, notes string) *Cart {
	return &Cart{items: domain.CloneItems(items), notes: notes}
}

// Selection maps a customization category id to the chosen option ids.
type Selection map[string][]string

// Add prices a menu item with its customizations and appends it as a new
// line. Lines are never merged; every add gets lineID.
func (c *Cart) Add(item domain.MenuItem, selection Selection, removed []string, lineID string) (domain.OrderItem, error) {
	chosen, modifiers, err := resolveSelection(item, selection)
	if err != nil {
		return domain.OrderItem{}, err
	}
	removedClean := make([]string, 0, len(removed))
	for _, ingredient := range removed {
		ingredient = strings.TrimSpace(ingredient)
		if ingredient == "" {
			continue
		}
		if !containsString(item.Ingredients, ingredient) {
			return domain.OrderItem{}, domain.Fail(domain.ReasonInvalidCustomization, "%s has no ingredient %q", item.Name, ingredient)
		}
		removedClean = append(removedClean, ingredient)
	}

	line := domain.OrderItem{
		ID:                 lineID,
		MenuItem:           item.Clone(),
		Quantity:           1,
		Customizations:     chosen,
		RemovedIngredients: removedClean,
		TotalPrice:         pricing.LinePrice(item.Price, modifiers, 1),
	}
	c.items = append(c.items, line)
	return line.Clone(), nil
}

func resolveSelection(item domain.MenuItem, selection Selection) (map[string][]domain.CustomizationOption, []float64, error) {
	chosen := make(map[string][]domain.CustomizationOption)
	modifiers := make([]float64, 0)
	for categoryID, optionIDs := range selection {
		if len(optionIDs) == 0 {
			continue
		}
		category, ok := findCustomization(item, categoryID)
		if !ok {
			return nil, nil, domain.Fail(domain.ReasonInvalidCustomization, "%s has no customization %q", item.Name, categoryID)
		}
		if category.Type == domain.CustomizationSingle && len(optionIDs) > 1 {
			return nil, nil, domain.Fail(domain.ReasonInvalidCustomization, "%s allows a single choice", category.Name)
		}
		options := make([]domain.CustomizationOption, 0, len(optionIDs))
		for _, optionID := range optionIDs {
			option, ok := findOption(category, optionID)
			if !ok {
				return nil, nil, domain.Fail(domain.ReasonInvalidCustomization, "%s has no option %q", category.Name, optionID)
			}
			options = append(options, option)
			modifiers = append(modifiers, option.PriceModifier)
		}
		chosen[categoryID] = options
	}
	return chosen, modifiers, nil
}

func findCustomization(item domain.MenuItem, id string) (domain.CustomizationCategory, bool) {
	for _, c := range item.Customizations {
		if c.ID == id {
			return c, true
		}
	}
	return domain.CustomizationCategory{}, false
}

func findOption(category domain.CustomizationCategory, id string) (domain.CustomizationOption, bool) {
	for _, o := range category.Options {
		if o.ID == id {
			return o, true
		}
	}
	return domain.CustomizationOption{}, false
}

func containsString(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func (c *Cart) indexOf(lineID string) int {
	for i, item := range c.items {
		if item.ID == lineID {
			return i
		}
	}
	return -1
}

// UpdateQuantity rescales the line price to the new quantity. Quantities
// below 1 are ignored; the line stays as it was.
func (c *Cart) UpdateQuantity(lineID string, quantity int) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return domain.Fail(domain.ReasonLineNotFound, "line %s", lineID)
	}
	if quantity < 1 {
		return nil
	}
	line := &c.items[idx]
	unit := line.TotalPrice / float64(line.Quantity)
	line.Quantity = quantity
	line.TotalPrice = unit * float64(quantity)
	return nil
}

func (c *Cart) Remove(lineID string) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return domain.Fail(domain.ReasonLineNotFound, "line %s", lineID)
	}
	c.items = append(c.items[:idx], c.items[idx+1:]...)
	return nil
}

func (c *Cart) SetDiscount(lineID string, percent float64) error {
	idx := c.indexOf(lineID)
	if idx < 0 {
		return domain.Fail(domain.ReasonLineNotFound, "line %s", lineID)
	}
	c.items[idx].Discount = pricing.ClampPercent(percent)
	return nil
}

func (c *Cart) SetNotes(notes string) {
	c.notes = strings.TrimSpace(notes)
}

func (c *Cart) Notes() string {
	return c.notes
}

func (c *Cart) Items() []domain.OrderItem {
	return domain.CloneItems(c.items)
}

func (c *Cart) Empty() bool {
	return len(c.items) == 0
}

func (c *Cart) Clear() {
	c.items = nil
	c.notes = ""
}

func (c *Cart) Totals(rate float64) Totals {
	return TotalsOf(c.items, rate)
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// LineTotal is the gross price of a line after its own discount.
func LineTotal(item domain.OrderItem) float64 {
	return pricing.Discounted(item.TotalPrice, item.Discount)
}

// TotalsOf sums discounted line totals and derives the tax split from the
// gross.
func TotalsOf(items []domain.OrderItem, rate float64) Totals {
	gross := 0.0
	for _, item := range items {
		gross += LineTotal(item)
	}
	b := pricing.Split(gross, rate)
	return Totals{Subtotal: b.Net, Tax: b.Tax, Total: b.Gross}
}
