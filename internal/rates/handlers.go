package rates

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"

	"github.com/aruzhan-dev/backend-cargo/internal/common"
	"github.com/aruzhan-dev/backend-cargo/internal/money"
	"github.com/aruzhan-dev/backend-cargo/internal/pricing"
)

// Handler exposes admin endpoints for rate reference data.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type upsertRateRequest struct {
	BaseRate       string `json:"base_rate" validate:"required"`
	PerKgRate      string `json:"per_kg_rate" validate:"required"`
	CommissionRate string `json:"commission_rate" validate:"required"`
	Currency       string `json:"currency" validate:"required,len=3"`
}

// UpsertRate handles PUT /v1/admin/shipping-rates/{country}.
func (h *Handler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	var req upsertRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "base_rate, per_kg_rate, commission_rate and currency are required", nil)
			return
		}
	}
	rate := pricing.Rate{Country: country, Currency: req.Currency}
	var err error
	if rate.BaseRate, err = money.ParseNonNegative(req.BaseRate); err == nil {
		if rate.PerKgRate, err = money.ParseNonNegative(req.PerKgRate); err == nil {
			rate.CommissionRate, err = money.ParseNonNegative(req.CommissionRate)
		}
	}
	if err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "rates must be non-negative numbers", nil)
		return
	}
	if err := h.Svc.SaveRate(r.Context(), rate); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save shipping rate", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": rate})
}

type addRuleRequest struct {
	MinValue   string  `json:"min_value" validate:"required"`
	MaxValue   *string `json:"max_value"`
	Percentage string  `json:"percentage" validate:"required"`
	FixedFee   string  `json:"fixed_fee"`
}

// AddRule handles POST /v1/admin/shipping-rates/{country}/rules.
func (h *Handler) AddRule(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	var req addRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "min_value and percentage are required", nil)
			return
		}
	}
	rule := pricing.Rule{Country: country}
	var err error
	if rule.MinValue, err = money.ParseNonNegative(req.MinValue); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "min_value must be a non-negative number", nil)
		return
	}
	if req.MaxValue != nil {
		parsed, perr := money.ParseNonNegative(*req.MaxValue)
		if perr != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "max_value must be a non-negative number", nil)
			return
		}
		rule.MaxValue = &parsed
	}
	if rule.Percentage, err = money.ParseNonNegative(req.Percentage); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "percentage must be a non-negative number", nil)
		return
	}
	if req.FixedFee != "" {
		if rule.FixedFee, err = money.ParseNonNegative(req.FixedFee); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "fixed_fee must be a non-negative number", nil)
			return
		}
	}
	if err := h.Svc.AddRule(r.Context(), rule); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", err.Error(), nil)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": rule})
}

type upsertMultiplierRequest struct {
	Category   string `json:"category" validate:"required"`
	Multiplier string `json:"multiplier" validate:"required"`
}

// UpsertMultiplier handles PUT /v1/admin/shipping-rates/{country}/multipliers.
func (h *Handler) UpsertMultiplier(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	var req upsertMultiplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "category and multiplier are required", nil)
			return
		}
	}
	multiplier, err := money.Parse(req.Multiplier)
	if err != nil || !multiplier.IsPositive() {
		common.JSONError(w, http.StatusUnprocessableEntity, "INVALID_INPUT", "multiplier must be a positive number", nil)
		return
	}
	if err := h.Svc.SaveMultiplier(r.Context(), country, req.Category, multiplier); err != nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to save category multiplier", nil)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{"country": country, "category": req.Category, "multiplier": multiplier},
	})
}
