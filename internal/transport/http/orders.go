package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/cimillas/order-intake/internal/app"
	"github.com/cimillas/order-intake/internal/domain"
)

const idempotencyHeader = "Idempotency-Key"

// OrderService is the minimal interface the order handlers need.
type OrderService interface {
	CreateOrder(ctx context.Context, in app.CreateOrderInput) (app.CreateOrderResult, error)
	GetOrder(ctx context.Context, orderID string) (domain.Order, error)
}

type OrderHandler struct {
	svc    OrderService
	logger zerolog.Logger
}

func NewOrderHandler(svc OrderService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{svc: svc, logger: logger}
}

type orderItemPayload struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"quantity"`
}

type createOrderRequest struct {
	CustomerID     string             `json:"customerId"`
	IdempotencyKey string             `json:"idempotencyKey"`
	Items          []orderItemPayload `json:"items"`
}

type orderResponse struct {
	OrderID    string             `json:"orderId"`
	CustomerID string             `json:"customerId"`
	Status     string             `json:"status"`
	Items      []orderItemPayload `json:"items"`
	Timestamp  time.Time          `json:"timestamp"`
}

// CreateOrder handles POST /orders. A replayed idempotency key answers 200
// with the original order; a fresh order answers 201.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, codeValidationError, "invalid request body", err)
		return
	}
	if msg, ok := validateCreateOrderRequest(req); !ok {
		writeError(w, h.logger, http.StatusBadRequest, codeValidationError, msg, nil)
		return
	}

	key := req.IdempotencyKey
	if strings.TrimSpace(key) == "" {
		key = r.Header.Get(idempotencyHeader)
	}

	items := make([]domain.OrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.OrderItem{SKU: item.SKU, Quantity: item.Quantity})
	}

	res, err := h.svc.CreateOrder(r.Context(), app.CreateOrderInput{
		CustomerID:     req.CustomerID,
		IdempotencyKey: key,
		Items:          items,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if !res.Created {
		status = http.StatusOK
	}
	writeJSON(w, status, toOrderResponse(res.Order))
}

// GetOrder handles GET /orders/{orderID}.
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")

	order, err := h.svc.GetOrder(r.Context(), orderID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
		writeError(w, h.logger, http.StatusNotFound, codeNotFound, "order not found", nil)
	case errors.Is(err, domain.ErrIdempotencyConflict):
		writeError(w, h.logger, http.StatusConflict, codeConflict,
			"idempotency key was already used with a different request payload", nil)
	case errors.Is(err, domain.ErrCustomerRequired),
		errors.Is(err, domain.ErrEmptyItems),
		errors.Is(err, domain.ErrInvalidSKU),
		errors.Is(err, domain.ErrInvalidQuantity):
		writeError(w, h.logger, http.StatusBadRequest, codeValidationError, err.Error(), nil)
	default:
		writeError(w, h.logger, http.StatusInternalServerError, codeInternalError, "internal error", err)
	}
}

func validateCreateOrderRequest(req createOrderRequest) (string, bool) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return "customerId is required", false
	}
	if len(req.Items) == 0 {
		return "items must not be empty", false
	}
	for i, item := range req.Items {
		if strings.TrimSpace(item.SKU) == "" {
			return fmt.Sprintf("items[%d].sku is required", i), false
		}
		if item.Quantity < 1 {
			return fmt.Sprintf("items[%d].quantity must be positive", i), false
		}
	}
	return "", true
}

func toOrderResponse(order domain.Order) orderResponse {
	items := make([]orderItemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, orderItemPayload{SKU: item.SKU, Quantity: item.Quantity})
	}
	return orderResponse{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Status:     string(order.Status),
		Items:      items,
		Timestamp:  order.CreatedAt,
	}
}
