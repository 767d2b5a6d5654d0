package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/dejobratic/storefront/internal/orders/app"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Service is the application surface the handlers drive.
type Service interface {
	CreateOrder(ctx context.Context, input app.CreateOrderInput) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, actor domain.Actor, id, status string) (*domain.Order, error)
	CancelOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	GetOrder(ctx context.Context, actor domain.Actor, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, actor domain.Actor, query queries.ListOrdersQuery) ([]domain.Order, error)
	SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error
	GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error)
}

// Handler exposes HTTP endpoints for order operations.
type Handler struct {
	service Service
}

// NewHandler constructs a Handler.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Register binds the order handlers to the provided ServeMux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/orders", h.createOrder)
	mux.HandleFunc("GET /v1/orders", h.listOrders)
	mux.HandleFunc("GET /v1/orders/{id}", h.getOrder)
	mux.HandleFunc("PUT /v1/orders/{id}/status", h.updateOrderStatus)
	mux.HandleFunc("DELETE /v1/orders/{id}", h.cancelOrder)
}

type orderResponse struct {
	Message string        `json:"message"`
	Order   *domain.Order `json:"order"`
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if idemKey != "" {
		idemKey = idempotencyScope(actorFromRequest(r), idemKey)

		stored, err := h.service.GetIdempotentResponse(ctx, idemKey)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		if stored != nil {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(stored.StatusCode)
			_, _ = w.Write(stored.Body)
			return
		}
	}

	var payload app.CreateOrderInput
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	order, err := h.service.CreateOrder(ctx, payload)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	body, err := json.Marshal(orderResponse{Message: "order created", Order: order})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if idemKey != "" {
		stored := ports.StoredResponse{
			StatusCode: http.StatusCreated,
			Body:       body,
			OrderID:    order.ID,
		}
		// The order exists at this point, so a failed save must not turn the response into an error.
		if err := h.service.SaveIdempotentResponse(ctx, idemKey, stored); err != nil {
			slog.ErrorContext(ctx, "failed to store idempotent response",
				"error", err,
				"order_id", order.ID,
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/v1/orders/"+order.ID)
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderResponse{Message: "order found", Order: order})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	query := queries.ListOrdersQuery{Status: r.URL.Query().Get("status")}

	var err error
	if query.Page, err = queryInt(r, "page"); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if query.PageSize, err = queryInt(r, "page_size"); err != nil {
		writeServiceError(w, r, err)
		return
	}

	orders, err := h.service.ListOrders(r.Context(), actorFromRequest(r), query)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"message": "orders found", "orders": orders})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var payload updateStatusRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		writeServiceError(w, r, err)
		return
	}

	order, err := h.service.UpdateOrderStatus(r.Context(), actorFromRequest(r), r.PathValue("id"), payload.Status)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Message: "order status updated", Order: order})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.CancelOrder(r.Context(), actorFromRequest(r), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, orderResponse{Message: "order cancelled", Order: order})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"message": message})
}

// writeServiceError maps business errors to their status code. Anything else is logged
// in full and reported to the caller without detail.
// idempotencyScope namespaces a client key by caller, so a replay only reaches the caller that stored it.
func idempotencyScope(actor domain.Actor, key string) string {
	if actor.UserID == "" {
		return "guest:" + key
	}
	return "user:" + actor.UserID + ":" + key
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch domain.KindOf(err) {
	case domain.KindValidation, domain.KindConflict:
		status = http.StatusBadRequest
	case domain.KindNotFound:
		status = http.StatusNotFound
	case domain.KindForbidden:
		status = http.StatusForbidden
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"stack", string(debug.Stack()),
		)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}
