package controllers

import (
	"net/http"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/api/validators"
	"github.com/angelmondragon/hydrus-backend/internal/customers"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
	"github.com/angelmondragon/hydrus-backend/pkg/pagination"
)

const maxSearchLength = 100

type createCustomerRequest struct {
	Email    string            `json:"email" validate:"required,email,max=254"`
	Name     string            `json:"name" validate:"required,max=100"`
	Metadata map[string]string `json:"metadata,omitempty" validate:"omitempty,max=50,dive,keys,max=40,endkeys,max=500"`
}

func AdminCreateCustomer(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		var payload createCustomerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		customer, err := svc.Create(r.Context(), customers.CreateInput{
			Email:    payload.Email,
			Name:     payload.Name,
			Metadata: payload.Metadata,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, customer)
	}
}

// AdminListCustomers pages through customers with an optional email/name search.
func AdminListCustomers(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "customer service unavailable"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 100000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), customers.ListInput{
			Page:   page,
			Limit:  limit,
			Search: validators.QueryString(r, "search", maxSearchLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
