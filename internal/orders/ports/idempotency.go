package ports

import "context"

// StoredResponse contains the response data to replay for a reused key.
type StoredResponse struct {
	StatusCode int    `json:"status_code"`
	Body       []byte `json:"body"`
	OrderID    string `json:"order_id"`
}

// IdempotencyStore ensures create operations can be retried safely.
// Get returns nil without error when the key is unknown.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*StoredResponse, error)
	Save(ctx context.Context, key string, response StoredResponse) error
}
