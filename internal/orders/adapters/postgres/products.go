package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const productColumns = `id::text, name, price, discount_price, quantity, updated_at`

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	if uuid.Validate(id) != nil {
		return nil, ports.ErrNotFound
	}
	product, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("select product: %w", err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1::uuid[])`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := []domain.Product{}
	for rows.Next() {
		product, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, product)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// AdjustStock applies delta in a single conditional UPDATE so concurrent
// reservations can never drive the quantity below zero.
func (r *ProductRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	var quantity int
	err := r.pool.QueryRow(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = NOW()
		WHERE id = $1 AND quantity + $2 >= 0
		RETURNING quantity
	`, id, delta).Scan(&quantity)
	if err == nil {
		return quantity, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust stock: %w", err)
	}

	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check product exists: %w", err)
	}
	if !exists {
		return 0, ports.ErrNotFound
	}
	return 0, ports.ErrInsufficientStock
}

// Save upserts a product. It backs catalogue seeding and tests.
func (r *ProductRepository) Save(ctx context.Context, product domain.Product) error {
	var discount decimal.NullDecimal
	if product.DiscountPrice != nil {
		discount = decimal.NewNullDecimal(*product.DiscountPrice)
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, name, price, discount_price, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, discount_price = EXCLUDED.discount_price,
		    quantity = EXCLUDED.quantity, updated_at = NOW()
	`, product.ID, product.Name, product.Price, discount, product.Quantity)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		product  domain.Product
		discount decimal.NullDecimal
	)
	if err := row.Scan(&product.ID, &product.Name, &product.Price, &discount, &product.Quantity, &product.UpdatedAt); err != nil {
		return domain.Product{}, err
	}
	if discount.Valid {
		product.DiscountPrice = &discount.Decimal
	}
	return product, nil
}
