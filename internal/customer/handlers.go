package customer

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/aruzhan-dev/backend-cargo/internal/common"
	"github.com/aruzhan-dev/backend-cargo/internal/money"
	"github.com/aruzhan-dev/backend-cargo/internal/order"
	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
	"github.com/aruzhan-dev/backend-cargo/internal/reconcile"
	"github.com/aruzhan-dev/backend-cargo/internal/store"
)

// Handler exposes the customer and order update endpoints that route through
// the payment reconciler and the totals recomputation.
type Handler struct {
	Svc      *Service
	Engine   *pricing.Engine
	Validate *validator.Validate
}

type distributeRequest struct {
	TotalDownPayment string `json:"total_down_payment" validate:"required"`
}

// DistributeDownPayment handles PUT /v1/customers/{customerId}/down-payment.
func (h *Handler) DistributeDownPayment(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid customer id", nil)
		return
	}
	var req distributeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "total_down_payment is required", nil)
			return
		}
	}
	total, err := money.Parse(req.TotalDownPayment)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "total_down_payment must be a number", nil)
		return
	}

	result, err := h.Svc.DistributeDownPayment(r.Context(), customerID, total)
	if err != nil {
		writeReconcileError(w, err)
		return
	}

	allocations := make([]map[string]any, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		allocations = append(allocations, map[string]any{
			"order_id":          a.OrderID,
			"down_payment":      a.DownPayment.StringFixed(2),
			"remaining_balance": a.RemainingBalance.StringFixed(2),
		})
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"applied":     result.Applied.StringFixed(2),
			"capped":      result.Capped,
			"allocations": allocations,
		},
	})
}

type setDownPaymentRequest struct {
	DownPayment string `json:"down_payment" validate:"required"`
}

// SetDownPayment handles PUT /v1/orders/{orderId}/down-payment, the
// single-order path that bypasses the reconciler.
func (h *Handler) SetDownPayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req setDownPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "down_payment is required", nil)
			return
		}
	}
	amount, err := money.Parse(req.DownPayment)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "down_payment must be a number", nil)
		return
	}

	fin, err := h.Svc.SetOrderDownPayment(r.Context(), orderID, amount)
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"order_id":          fin.ID,
			"down_payment":      fin.DownPayment.StringFixed(2),
			"remaining_balance": fin.RemainingBalance.StringFixed(2),
		},
	})
}

// RecomputeTotals handles POST /v1/orders/{orderId}/totals/recompute,
// triggered after order item edits.
func (h *Handler) RecomputeTotals(w http.ResponseWriter, r *http.Request) {
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	totals, err := h.Svc.RecomputeTotals(r.Context(), orderID)
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": totalsPayload(orderID, totals)})
}

type recalculateRequest struct {
	Country  string `json:"country" validate:"required"`
	Category string `json:"category" validate:"required"`
	Weight   string `json:"weight" validate:"required"`
}

// RecalculateShipping handles POST /v1/orders/{orderId}/shipping/recalculate:
// it reprices the order against its current items and persists the result.
func (h *Handler) RecalculateShipping(w http.ResponseWriter, r *http.Request) {
	if h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	orderID, ok := orderIDParam(w, r)
	if !ok {
		return
	}
	var req recalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "country, category and weight are required", nil)
			return
		}
	}
	weight, err := money.ParseNonNegative(req.Weight)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "weight must be a non-negative number", nil)
		return
	}

	items, err := h.Svc.Orders.ListOrderItems(r.Context(), orderID)
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	snapshot := make([]pricing.Item, 0, len(items))
	for _, it := range items {
		snapshot = append(snapshot, pricing.Item{Name: it.Name, Quantity: it.Quantity, UnitPrice: it.OriginalPrice})
	}
	calc, err := h.Engine.CalculateShipping(r.Context(), req.Country, req.Category, weight, pricing.ItemsValue(snapshot), pricing.Fingerprint(snapshot))
	if err != nil {
		switch {
		case errors.Is(err, pricing.ErrRateNotFound):
			common.JSONError(w, http.StatusNotFound, "CONFIG_NOT_FOUND", "no shipping rate configured for country", nil)
		case errors.Is(err, pricing.ErrInvalidInput):
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "weight must be non-negative", nil)
		default:
			common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping calculation failed", nil)
		}
		return
	}

	totals, err := h.Svc.ApplyShippingCalculation(r.Context(), orderID, calc)
	if err != nil {
		writeReconcileError(w, err)
		return
	}
	payload := totalsPayload(orderID, totals)
	payload["shipping_cost"] = calc.BaseShipping.StringFixed(2)
	payload["commission"] = calc.Commission.StringFixed(2)
	payload["currency"] = calc.Currency
	common.JSON(w, http.StatusOK, map[string]any{"data": payload})
}

func totalsPayload(orderID uuid.UUID, t order.Totals) map[string]any {
	return map[string]any{
		"order_id":        orderID,
		"total_amount":    t.TotalAmount.StringFixed(2),
		"items_subtotal":  t.ItemsSubtotal.StringFixed(2),
		"items_profit":    t.ItemsProfit.StringFixed(2),
		"shipping_profit": t.ShippingProfit.StringFixed(2),
		"total_profit":    t.TotalProfit.StringFixed(2),
	}
}

func orderIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid order id", nil)
		return uuid.UUID{}, false
	}
	return orderID, true
}

func writeReconcileError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, reconcile.ErrInvalidPayment):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "down payment must be non-negative", nil)
	case errors.Is(err, reconcile.ErrNoAllocationBasis):
		common.JSONError(w, http.StatusUnprocessableEntity, "NO_ALLOCATION_BASIS", "customer orders have no positive total to allocate against", nil)
	case errors.Is(err, reconcile.ErrNoOpenOrders):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "customer has no open orders", nil)
	case errors.Is(err, ErrDownPaymentExceedsTotal):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "down payment exceeds order total", nil)
	case errors.Is(err, ErrStaleCalculation):
		common.JSONError(w, http.StatusConflict, "STALE_CALCULATION", "order items changed since the shipping calculation was produced", nil)
	case errors.Is(err, store.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "operation failed", nil)
	}
}
