package domain

import (
	"slices"
	"time"
)

type Area string

const (
	AreaBar   Area = "Bar"
	AreaVIP   Area = "VIP"
	AreaBarra Area = "Barra"
)

func (a Area) Valid() bool {
	switch a {
	case AreaBar, AreaVIP, AreaBarra:
		return true
	default:
		return false
	}
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusPaid      OrderStatus = "paid"
	StatusCancelled OrderStatus = "cancelled"
	StatusOnCredit  OrderStatus = "on_credit"
)

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return s == StatusPaid || s == StatusCancelled
}

type CustomizationType string

const (
	CustomizationSingle   CustomizationType = "single"
	CustomizationMultiple CustomizationType = "multiple"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Waiter struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type InventoryItem struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Quantity          float64 `json:"quantity"`
	Unit              string  `json:"unit"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
}

type CustomizationOption struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PriceModifier float64 `json:"priceModifier"`
}

type CustomizationCategory struct {
	ID      string                `json:"id"`
	Name    string                `json:"name"`
	Type    CustomizationType     `json:"type"`
	Options []CustomizationOption `json:"options"`
}

type MenuItem struct {
	ID               string                  `json:"id"`
	Name             string                  `json:"name"`
	Price            float64                 `json:"price"`
	CategoryID       string                  `json:"categoryId"`
	ImageURL         string                  `json:"imageUrl,omitempty"`
	Ingredients      []string                `json:"ingredients"`
	Customizations   []CustomizationCategory `json:"customizations,omitempty"`
	StockItemID      string                  `json:"stockItemId"`
	StockConsumption float64                 `json:"stockConsumption"`
}

// Clone returns a deep copy so order snapshots never alias catalog data.
func (m MenuItem) Clone() MenuItem {
	out := m
	out.Ingredients = slices.Clone(m.Ingredients)
	if m.Customizations != nil {
		out.Customizations = make([]CustomizationCategory, len(m.Customizations))
		for i, c := range m.Customizations {
			c.Options = slices.Clone(c.Options)
			out.Customizations[i] = c
		}
	}
	return out
}

type OrderItem struct {
	ID                 string                           `json:"id"`
	MenuItem           MenuItem                         `json:"menuItem"`
	Quantity           int                              `json:"quantity"`
	Customizations     map[string][]CustomizationOption `json:"customizations"`
	RemovedIngredients []string                         `json:"removedIngredients"`
	TotalPrice         float64                          `json:"totalPrice"`
	Discount           float64                          `json:"discount,omitempty"`
}

func (i OrderItem) Clone() OrderItem {
	out := i
	out.MenuItem = i.MenuItem.Clone()
	out.RemovedIngredients = slices.Clone(i.RemovedIngredients)
	if i.Customizations != nil {
		out.Customizations = make(map[string][]CustomizationOption, len(i.Customizations))
		for k, v := range i.Customizations {
			out.Customizations[k] = slices.Clone(v)
		}
	}
	return out
}

func CloneItems(items []OrderItem) []OrderItem {
	if items == nil {
		return nil
	}
	out := make([]OrderItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

type Tender string

const (
	TenderCash  Tender = "cash"
	TenderCard  Tender = "card"
	TenderSplit Tender = "split"
)

type PaymentDetails struct {
	Method     Tender  `json:"method"`
	Amount     float64 `json:"amount,omitempty"`
	CashAmount float64 `json:"cashAmount,omitempty"`
	CardAmount float64 `json:"cardAmount,omitempty"`
	Received   float64 `json:"received,omitempty"`
	Change     float64 `json:"change,omitempty"`
}

type DiscountPreset string

const (
	DiscountNone DiscountPreset = ""
	DiscountHalf DiscountPreset = "half"
	DiscountFree DiscountPreset = "free"
)

// PaymentRequest is what the operator confirms in the payment dialog.
type PaymentRequest struct {
	Method         Tender         `json:"method"`
	CashAmount     float64        `json:"cash_amount,omitempty"`
	CardAmount     float64        `json:"card_amount,omitempty"`
	DiscountAmount float64        `json:"discount_amount,omitempty"`
	DiscountPreset DiscountPreset `json:"discount_preset,omitempty"`
	// AmountReceived is the cash handed over; zero means exact tender.
	AmountReceived float64 `json:"amount_received,omitempty"`
}

type TableRef struct {
	Number int  `json:"id"`
	Area   Area `json:"area"`
}

type Order struct {
	ID             int64           `json:"id"`
	TableNumber    int             `json:"tableNumber"`
	Area           Area            `json:"area"`
	WaiterID       string          `json:"waiterId"`
	Items          []OrderItem     `json:"items"`
	Status         OrderStatus     `json:"status"`
	Subtotal       float64         `json:"subtotal"`
	Tax            float64         `json:"tax"`
	Total          float64         `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	Timestamp      time.Time       `json:"timestamp"`
	PaymentDetails *PaymentDetails `json:"paymentDetails,omitempty"`
	CustomerName   string          `json:"customerName,omitempty"`
}

func (o Order) Table() TableRef {
	return TableRef{Number: o.TableNumber, Area: o.Area}
}

func (o Order) Clone() Order {
	out := o
	out.Items = CloneItems(o.Items)
	if o.PaymentDetails != nil {
		details := *o.PaymentDetails
		out.PaymentDetails = &details
	}
	return out
}

type HeldOrder struct {
	TableNumber int         `json:"tableNumber"`
	Area        Area        `json:"area"`
	WaiterID    string      `json:"waiterId"`
	Items       []OrderItem `json:"items"`
	Notes       string      `json:"notes,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

func (h HeldOrder) Table() TableRef {
	return TableRef{Number: h.TableNumber, Area: h.Area}
}

type TransactionType string

const (
	TransactionSale   TransactionType = "sale"
	TransactionManual TransactionType = "manual"
)

type Transaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	PaymentMethod Tender          `json:"paymentMethod"`
	OrderID       int64           `json:"orderId,omitempty"`
	ShiftID       string          `json:"shiftId,omitempty"`
	Amount        float64         `json:"amount"`
	Tax           float64         `json:"tax"`
	Description   string          `json:"description"`
	Timestamp     time.Time       `json:"timestamp"`
	Taxable       bool            `json:"taxable"`
}

type ShiftStatus string

const (
	ShiftOpen   ShiftStatus = "OPEN"
	ShiftClosed ShiftStatus = "CLOSED"
)

type ShiftReport struct {
	ID                    string      `json:"id"`
	Status                ShiftStatus `json:"status"`
	DayOpenedTimestamp    time.Time   `json:"dayOpenedTimestamp"`
	DayClosedTimestamp    *time.Time  `json:"dayClosedTimestamp"`
	OpeningBalance        float64     `json:"openingBalance"`
	CashSales             float64     `json:"cashSales"`
	CardSales             float64     `json:"cardSales"`
	ManualIncomeCash      float64     `json:"manualIncomeCash"`
	ManualIncomeCard      float64     `json:"manualIncomeCard"`
	TotalTax              float64     `json:"totalTax"`
	FinalCashSales        *float64    `json:"finalCashSales,omitempty"`
	FinalCardSales        *float64    `json:"finalCardSales,omitempty"`
	FinalManualIncomeCash *float64    `json:"finalManualIncomeCash,omitempty"`
	FinalManualIncomeCard *float64    `json:"finalManualIncomeCard,omitempty"`
	FinalTotalRevenue     *float64    `json:"finalTotalRevenue,omitempty"`
	FinalTotalTax         *float64    `json:"finalTotalTax,omitempty"`
}

// Session is the operator context that survives reloads: who is serving,
// which table is selected and which role has been unlocked.
type Session struct {
	WaiterID string    `json:"waiterId,omitempty"`
	Table    *TableRef `json:"table,omitempty"`
	Role     Role      `json:"role,omitempty"`
}

type Actor struct {
	Username string
	Role     Role
}

// AreaLayout numbers the tables of one floor area consecutively from First.
type AreaLayout struct {
	Area   Area `json:"area" yaml:"area"`
	First  int  `json:"first" yaml:"first"`
	Tables int  `json:"tables" yaml:"tables"`
}

func (l AreaLayout) Contains(table int) bool {
	return table >= l.First && table < l.First+l.Tables
}

func DefaultLayout() []AreaLayout {
	return []AreaLayout{
		{Area: AreaBar, First: 1, Tables: 20},
		{Area: AreaVIP, First: 21, Tables: 20},
		{Area: AreaBarra, First: 41, Tables: 20},
	}
}
