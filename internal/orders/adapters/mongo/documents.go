package mongo

import (
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type orderDocument struct {
	ID              string                 `bson:"_id"`
	ShortID         string                 `bson:"short_id"`
	UserID          *string                `bson:"user_id"`
	Phone           string                 `bson:"phone"`
	Items           []orderItemDocument    `bson:"items"`
	TotalPrice      primitive.Decimal128   `bson:"total_price"`
	PaymentMethod   string                 `bson:"payment_method"`
	PaymentStatus   string                 `bson:"payment_status"`
	Status          string                 `bson:"status"`
	ShippingAddress domain.ShippingAddress `bson:"shipping_address"`
	ShippingMethod  domain.ShippingMethod  `bson:"shipping_method"`
	CreatedAt       time.Time              `bson:"created_at"`
	UpdatedAt       time.Time              `bson:"updated_at"`
}

type orderItemDocument struct {
	ProductID string               `bson:"product_id"`
	Name      string               `bson:"name"`
	Quantity  int                  `bson:"quantity"`
	Price     primitive.Decimal128 `bson:"price"`
}

type productDocument struct {
	ID            string                `bson:"_id"`
	Name          string                `bson:"name"`
	Price         primitive.Decimal128  `bson:"price"`
	DiscountPrice *primitive.Decimal128 `bson:"discount_price,omitempty"`
	Quantity      int                   `bson:"quantity"`
	UpdatedAt     time.Time             `bson:"updated_at"`
}

type userDocument struct {
	ID    string `bson:"_id"`
	Name  string `bson:"name"`
	Phone string `bson:"phone"`
	Role  string `bson:"role"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func newOrderDocument(order domain.Order) (orderDocument, error) {
	total, err := toDecimal128(order.TotalPrice)
	if err != nil {
		return orderDocument{}, err
	}

	items := make([]orderItemDocument, len(order.Items))
	for i, item := range order.Items {
		price, err := toDecimal128(item.Price)
		if err != nil {
			return orderDocument{}, err
		}
		items[i] = orderItemDocument{ProductID: item.ProductID, Name: item.Name, Quantity: item.Quantity, Price: price}
	}

	return orderDocument{
		ID:              order.ID,
		ShortID:         order.ShortID,
		UserID:          order.UserID,
		Phone:           order.Phone,
		Items:           items,
		TotalPrice:      total,
		PaymentMethod:   string(order.PaymentMethod),
		PaymentStatus:   string(order.PaymentStatus),
		Status:          string(order.Status),
		ShippingAddress: order.ShippingAddress,
		ShippingMethod:  order.ShippingMethod,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}, nil
}

func (d orderDocument) toDomain() (domain.Order, error) {
	total, err := fromDecimal128(d.TotalPrice)
	if err != nil {
		return domain.Order{}, err
	}

	items := make([]domain.OrderItem, len(d.Items))
	for i, item := range d.Items {
		price, err := fromDecimal128(item.Price)
		if err != nil {
			return domain.Order{}, err
		}
		items[i] = domain.OrderItem{ProductID: item.ProductID, Name: item.Name, Quantity: item.Quantity, Price: price}
	}

	return domain.Order{
		ID:              d.ID,
		ShortID:         d.ShortID,
		UserID:          d.UserID,
		Phone:           d.Phone,
		Items:           items,
		TotalPrice:      total,
		PaymentMethod:   domain.PaymentMethod(d.PaymentMethod),
		PaymentStatus:   domain.PaymentStatus(d.PaymentStatus),
		Status:          domain.OrderStatus(d.Status),
		ShippingAddress: d.ShippingAddress,
		ShippingMethod:  d.ShippingMethod,
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

func newProductDocument(p domain.Product) (productDocument, error) {
	price, err := toDecimal128(p.Price)
	if err != nil {
		return productDocument{}, err
	}
	doc := productDocument{ID: p.ID, Name: p.Name, Price: price, Quantity: p.Quantity, UpdatedAt: p.UpdatedAt}
	if p.DiscountPrice != nil {
		discount, err := toDecimal128(*p.DiscountPrice)
		if err != nil {
			return productDocument{}, err
		}
		doc.DiscountPrice = &discount
	}
	return doc, nil
}

func (d productDocument) toDomain() (domain.Product, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return domain.Product{}, err
	}
	product := domain.Product{ID: d.ID, Name: d.Name, Price: price, Quantity: d.Quantity, UpdatedAt: d.UpdatedAt}
	if d.DiscountPrice != nil {
		discount, err := fromDecimal128(*d.DiscountPrice)
		if err != nil {
			return domain.Product{}, err
		}
		product.DiscountPrice = &discount
	}
	return product, nil
}
