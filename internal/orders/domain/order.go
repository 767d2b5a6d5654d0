package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus captures the lifecycle of an order in the system.
type OrderStatus string

const (
	StatusPending    OrderStatus = "pending"
	StatusProcessing OrderStatus = "processing"
	StatusShipped    OrderStatus = "shipped"
	StatusDelivered  OrderStatus = "delivered"
	StatusCancelled  OrderStatus = "cancelled"
)

// ParseOrderStatus returns the status named by s or false when s is not one of the known values.
func ParseOrderStatus(s string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	switch status {
	case StatusPending, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled:
		return status, true
	default:
		return "", false
	}
}

// forward lists the single next step along the fulfilment path.
var forward = map[OrderStatus]OrderStatus{
	StatusPending:    StatusProcessing,
	StatusProcessing: StatusShipped,
	StatusShipped:    StatusDelivered,
}

// CanTransition reports whether an order may move from one status to another.
// Orders advance one step at a time and can be cancelled from any non-terminal status.
func CanTransition(from, to OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == StatusCancelled {
		return true
	}
	return forward[from] == to
}

// IsTerminal indicates whether no further transitions are allowed.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentStripe PaymentMethod = "Stripe"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentStripe
}

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

// MaxItemQuantity caps the units of a single product in one order, across all of its lines.
const MaxItemQuantity = 10000

// OrderItem is a line of an order. Price is the unit price at the time the order was placed.
type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Subtotal is price times quantity for the line.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

type ShippingAddress struct {
	FullName   string `json:"full_name"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	District   string `json:"district"`
	Ward       string `json:"ward"`
	PostalCode string `json:"postal_code"`
}

type ShippingMethod struct {
	Method       string `json:"method"`
	ExpectedDate string `json:"expected_date"`
	Courier      string `json:"courier"`
	TrackingID   string `json:"tracking_id"`
}

// Order represents a purchase placed through the storefront.
type Order struct {
	ID              string          `json:"id"`
	ShortID         string          `json:"short_id"`
	UserID          *string         `json:"user,omitempty"`
	Phone           string          `json:"phone"`
	Items           []OrderItem     `json:"items"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Status          OrderStatus     `json:"status"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	ShippingMethod  ShippingMethod  `json:"shipping_method"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsGuest reports whether the order has no registered user attached.
func (o Order) IsGuest() bool {
	return o.UserID == nil
}

// OwnedBy reports whether userID placed the order.
func (o Order) OwnedBy(userID string) bool {
	return o.UserID != nil && userID != "" && *o.UserID == userID
}

// ItemsTotal sums the snapshotted line subtotals.
func (o Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// StockDeltas aggregates item quantities per product, preserving first-seen order.
func StockDeltas(items []OrderItem) []StockDelta {
	index := make(map[string]int, len(items))
	var deltas []StockDelta
	for _, item := range items {
		if i, ok := index[item.ProductID]; ok {
			deltas[i].Quantity += item.Quantity
			continue
		}
		index[item.ProductID] = len(deltas)
		deltas = append(deltas, StockDelta{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	return deltas
}

// StockDelta is the total quantity of one product referenced by an order.
type StockDelta struct {
	ProductID string
	Quantity  int
}

// ApplyStatus moves the order to status and updates the payment status that follows from it.
// Callers must check CanTransition first.
func (o *Order) ApplyStatus(status OrderStatus, now time.Time) {
	o.Status = status
	o.UpdatedAt = now
	switch {
	case status == StatusDelivered && o.PaymentMethod == PaymentCOD && o.PaymentStatus == PaymentPending:
		o.PaymentStatus = PaymentPaid
	case status == StatusCancelled && o.PaymentStatus == PaymentPaid:
		o.PaymentStatus = PaymentRefunded
	}
}
