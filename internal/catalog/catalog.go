// Package catalog loads a JSON fixture of products and users into an order store.
// It backs local environments where no catalogue service feeds the database.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

type Catalog struct {
	Products []domain.Product `json:"products"`
	Users    []domain.User    `json:"users"`
}

type ProductWriter interface {
	Save(ctx context.Context, product domain.Product) error
}

type UserWriter interface {
	Save(ctx context.Context, user domain.User) error
}

// Load reads a catalogue file. Phone numbers are normalized so they match checkout lookups.
func Load(path string) (Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}

	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	for i, u := range c.Users {
		phone, ok := domain.NormalizePhone(u.Phone)
		if !ok {
			return Catalog{}, fmt.Errorf("user %s: invalid phone number %q", u.ID, u.Phone)
		}
		c.Users[i].Phone = phone
		if c.Users[i].Role == "" {
			c.Users[i].Role = domain.RoleCustomer
		}
	}
	for _, p := range c.Products {
		if p.Quantity < 0 {
			return Catalog{}, fmt.Errorf("product %s: quantity must not be negative", p.ID)
		}
	}
	return c, nil
}

// Seed upserts every product and user.
func Seed(ctx context.Context, c Catalog, products ProductWriter, users UserWriter) error {
	for _, p := range c.Products {
		if err := products.Save(ctx, p); err != nil {
			return fmt.Errorf("seed product %s: %w", p.ID, err)
		}
	}
	for _, u := range c.Users {
		if err := users.Save(ctx, u); err != nil {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}
	return nil
}
