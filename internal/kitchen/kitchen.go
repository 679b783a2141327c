// Package kitchen publishes order tickets to whatever is preparing them.
// Publishing is best effort: a lost ticket never rolls back an order.
package kitchen

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"comanda/backend/internal/domain"
)

type Event string

const (
	EventSubmitted Event = "submitted"
	EventStatus    Event = "status"
	EventCancelled Event = "cancelled"
	EventReopened  Event = "reopened"
)

type TicketLine struct {
	Name           string   `json:"name"`
	Quantity       int      `json:"quantity"`
	Customizations []string `json:"customizations,omitempty"`
	Without        []string `json:"without,omitempty"`
}

type Ticket struct {
	Event    Event              `json:"event"`
	OrderID  int64              `json:"order_id"`
	Table    int                `json:"table"`
	Area     domain.Area        `json:"area"`
	WaiterID string             `json:"waiter_id"`
	Status   domain.OrderStatus `json:"status"`
	Lines    []TicketLine       `json:"lines"`
	Notes    string             `json:"notes,omitempty"`
	SentAt   time.Time          `json:"sent_at"`
}

// TicketFor renders the kitchen view of an order: no prices, just what to
// cook and what to leave out.
func TicketFor(event Event, o domain.Order, at time.Time) Ticket {
	lines := make([]TicketLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, TicketLine{
			Name:           item.MenuItem.Name,
			Quantity:       item.Quantity,
			Customizations: describeCustomizations(item),
			Without:        item.RemovedIngredients,
		})
	}
	return Ticket{
		Event:    event,
		OrderID:  o.ID,
		Table:    o.TableNumber,
		Area:     o.Area,
		WaiterID: o.WaiterID,
		Status:   o.Status,
		Lines:    lines,
		Notes:    o.Notes,
		SentAt:   at,
	}
}

func describeCustomizations(item domain.OrderItem) []string {
	categoryNames := make(map[string]string, len(item.MenuItem.Customizations))
	for _, c := range item.MenuItem.Customizations {
		categoryNames[c.ID] = c.Name
	}
	keys := make([]string, 0, len(item.Customizations))
	for k := range item.Customizations {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		options := item.Customizations[k]
		if len(options) == 0 {
			continue
		}
		names := make([]string, 0, len(options))
		for _, o := range options {
			names = append(names, o.Name)
		}
		label := categoryNames[k]
		if label == "" {
			label = k
		}
		out = append(out, fmt.Sprintf("%s: %s", label, strings.Join(names, ", ")))
	}
	return out
}

type Notifier interface {
	Publish(ctx context.Context, ticket Ticket) error
}

type NoopNotifier struct{}

func (NoopNotifier) Publish(_ context.Context, _ Ticket) error {
	return nil
}
