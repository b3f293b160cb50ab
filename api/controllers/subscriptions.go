package controllers

import (
	"net/http"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/api/validators"
	"github.com/angelmondragon/hydrus-backend/internal/subscriptions"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

func AdminListSubscriptions(svc subscriptions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "subscription service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 100, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subs, err := svc.List(r.Context(), subscriptions.ListInput{
			Status: validators.QueryString(r, "status", 32),
			Limit:  limit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"subscriptions": subs})
	}
}
