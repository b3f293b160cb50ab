package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/api/validators"
	"github.com/angelmondragon/hydrus-backend/internal/webhooklog"
	"github.com/angelmondragon/hydrus-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

type WebhookLogLister interface {
	ListRecent(ctx context.Context, query webhooklog.ListQuery) ([]models.WebhookLog, error)
}

// AdminListWebhookLogs serves the processor event audit trail, newest first.
// ?unprocessed=true narrows it to events whose handler has not completed.
func AdminListWebhookLogs(lister WebhookLogLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if lister == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook log store unavailable"))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 50, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		unprocessed, err := validators.ParseQueryBool(r, "unprocessed")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := lister.ListRecent(r.Context(), webhooklog.ListQuery{
			Limit:           limit,
			EventType:       validators.QueryString(r, "event_type", 64),
			UnprocessedOnly: unprocessed,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list webhook logs"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"webhook_logs": entries})
	}
}
