package controllers

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/api/validators"
	"github.com/angelmondragon/hydrus-backend/internal/catalog"
	"github.com/angelmondragon/hydrus-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

type createProductRequest struct {
	Name           string          `json:"name" validate:"required,max=100"`
	Description    *string         `json:"description,omitempty" validate:"omitempty,max=1000"`
	PricingModel   string          `json:"pricing_model" validate:"required,oneof=STANDARD_SUBSCRIPTION METERED_BILLING PREPAID_CREDITS"`
	Amount         decimal.Decimal `json:"amount" validate:"gte=0,lte=999999"`
	Currency       string          `json:"currency" validate:"required,oneof=USD EUR GBP"`
	Interval       string          `json:"interval,omitempty" validate:"omitempty,oneof=MONTHLY YEARLY"`
	IntervalCount  int             `json:"interval_count,omitempty" validate:"omitempty,gte=1,lte=12"`
	TrialDays      *int            `json:"trial_days,omitempty" validate:"omitempty,gte=0,lte=365"`
	RequirePayment bool            `json:"require_payment"`
}

func (r createProductRequest) toCreateInput() (catalog.CreateProductInput, error) {
	model, err := enums.ParsePricingModel(strings.TrimSpace(r.PricingModel))
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing_model")
	}
	currency, err := enums.ParseCurrency(strings.TrimSpace(r.Currency))
	if err != nil {
		return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid currency")
	}
	var interval enums.BillingInterval
	if raw := strings.TrimSpace(r.Interval); raw != "" {
		interval, err = enums.ParseBillingInterval(raw)
		if err != nil {
			return catalog.CreateProductInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid interval")
		}
	}
	return catalog.CreateProductInput{
		Name:           r.Name,
		Description:    r.Description,
		PricingModel:   model,
		Amount:         r.Amount,
		Currency:       currency,
		Interval:       interval,
		IntervalCount:  r.IntervalCount,
		TrialDays:      r.TrialDays,
		RequirePayment: r.RequirePayment,
	}, nil
}

// AdminCreateProduct creates a processor product and price and mirrors them locally.
func AdminCreateProduct(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var payload createProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toCreateInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"products": products})
	}
}
