package pricing

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	validator "github.com/go-playground/validator/v10"

	"github.com/aruzhan-dev/backend-cargo/internal/common"
	"github.com/aruzhan-dev/backend-cargo/internal/money"
	"github.com/aruzhan-dev/backend-cargo/internal/obs"
)

// Handler exposes the shipping calculation endpoint.
type Handler struct {
	Engine   *Engine
	Convert  money.Converter
	Validate *validator.Validate
}

type calculateRequest struct {
	Country    string `json:"country" validate:"required"`
	Category   string `json:"category" validate:"required"`
	Weight     string `json:"weight" validate:"required"`
	OrderValue string `json:"order_value" validate:"required"`
	ItemsHash  string `json:"items_hash"`
	// Currency optionally requests conversion into the caller's base currency.
	Currency string `json:"currency"`
}

// Calculate handles POST /v1/shipping/calculate. All four pricing inputs are
// mandatory; missing or malformed fields yield a client error before the
// engine runs.
func (h *Handler) Calculate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.Engine == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "pricing engine not configured", nil)
		return
	}
	var req calculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "country, category, weight and order_value are required", validationDetails(err))
			return
		}
	}
	weight, err := money.ParseNonNegative(req.Weight)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "weight must be a non-negative number", nil)
		return
	}
	orderValue, err := money.ParseNonNegative(req.OrderValue)
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "order_value must be a non-negative number", nil)
		return
	}

	calc, err := h.Engine.CalculateShipping(r.Context(), req.Country, req.Category, weight, orderValue, req.ItemsHash)
	if err != nil {
		obs.ObservePricingCalculation(req.Country, "error")
		writeEngineError(w, err)
		return
	}

	currency := calc.Currency
	baseShipping, commission, total := calc.BaseShipping, calc.Commission, calc.Total
	if target := strings.TrimSpace(req.Currency); target != "" && !strings.EqualFold(target, calc.Currency) {
		if h.Convert == nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "currency conversion not available", nil)
			return
		}
		if baseShipping, err = h.Convert.Convert(calc.BaseShipping, calc.Currency, target); err == nil {
			commission, err = h.Convert.Convert(calc.Commission, calc.Currency, target)
		}
		if err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "unknown currency", nil)
			return
		}
		total = baseShipping.Add(commission)
		currency = strings.ToUpper(target)
	}

	obs.ObservePricingCalculation(calc.Country, "ok")
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"base_shipping": baseShipping.StringFixed(2),
			"commission":    commission.StringFixed(2),
			"total":         total.StringFixed(2),
			"currency":      currency,
			"items_hash":    calc.ItemsHash,
		},
	})
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRateNotFound):
		common.JSONError(w, http.StatusNotFound, "CONFIG_NOT_FOUND", "no shipping rate configured for country", nil)
	case errors.Is(err, ErrInvalidInput):
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "weight and order_value must be non-negative", nil)
	default:
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "shipping calculation failed", nil)
	}
}

func validationDetails(err error) any {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return map[string]any{"fields": fields}
}
