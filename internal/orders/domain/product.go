package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is the inventory record an order line points to.
type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Price         decimal.Decimal  `json:"price"`
	DiscountPrice *decimal.Decimal `json:"discount_price,omitempty"`
	Quantity      int              `json:"quantity"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// UnitPrice is the discount price when one is set, otherwise the list price.
func (p Product) UnitPrice() decimal.Decimal {
	if p.DiscountPrice != nil && p.DiscountPrice.IsPositive() {
		return *p.DiscountPrice
	}
	return p.Price
}
