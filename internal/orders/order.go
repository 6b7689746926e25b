// Package orders holds the driver's assigned-order model and the helpers
// the dashboard applies to it: the optimistic delivered flip, fuzzy search,
// and the fixed-interval refresh loop.
package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/agnivade/levenshtein"
)

// Status values the dispatch service is known to send. The field is
// free-form; anything unrecognized renders as the default open state.
const (
	StatusDelivered  = "Order Delivered"
	StatusInProgress = "In Progress"
)

// Product identifies what is being delivered.
type Product struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Customer is the recipient contact embedded in an order.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Order is a read-only remote entity; it is fetched, never created or
// deleted locally. The only local mutation is the delivered flip applied
// after a successful mark-delivered call.
type Order struct {
	ID                string    `json:"id"`
	Product           Product   `json:"product"`
	Quantity          int       `json:"quantity"`
	Status            string    `json:"status"`
	DeliveryAddress   string    `json:"deliveryAddress,omitempty"`
	DeliveryLatitude  string    `json:"deliveryLatitude,omitempty"`
	DeliveryLongitude string    `json:"deliveryLongitude,omitempty"`
	OrderDeliveredAt  string    `json:"orderDeliveredAt,omitempty"`
	User              *Customer `json:"user,omitempty"`
}

// Delivered reports whether the order has reached its terminal state.
func (o Order) Delivered() bool {
	return o.Status == StatusDelivered
}

// DisplayLocation returns the delivery address, falling back to the raw
// coordinate pair when no address text was recorded.
func (o Order) DisplayLocation() string {
	if o.DeliveryAddress != "" {
		return o.DeliveryAddress
	}
	return fmt.Sprintf("%s, %s", o.DeliveryLatitude, o.DeliveryLongitude)
}

// MarkDelivered returns a copy of list with exactly the matching order
// flipped to delivered and stamped with now; every other order is returned
// unchanged. Call only after the remote mark-delivered succeeded.
func MarkDelivered(list []Order, id string, now time.Time) []Order {
	out := make([]Order, len(list))
	copy(out, list)
	for i := range out {
		if out[i].ID == id {
			out[i].Status = StatusDelivered
			out[i].OrderDeliveredAt = now.UTC().Format(time.RFC3339)
		}
	}
	return out
}

// Filter narrows list to orders matching query against id, product name or
// delivery address. Substring matches win outright; otherwise product-name
// words within a levenshtein distance of a third of the query length pass,
// so "grocceries" still finds "Groceries".
func Filter(list []Order, query string) []Order {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return list
	}
	var out []Order
	for _, o := range list {
		if matches(o, query) {
			out = append(out, o)
		}
	}
	return out
}

func matches(o Order, query string) bool {
	haystacks := []string{
		strings.ToLower(o.ID),
		strings.ToLower(o.Product.Name),
		strings.ToLower(o.DeliveryAddress),
	}
	for _, h := range haystacks {
		if strings.Contains(h, query) {
			return true
		}
	}
	limit := len(query) / 3
	if limit == 0 {
		return false
	}
	for _, word := range strings.Fields(strings.ToLower(o.Product.Name)) {
		if levenshtein.ComputeDistance(word, query) <= limit {
			return true
		}
	}
	return false
}
