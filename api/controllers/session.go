package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/hydrus-backend/api/middleware"
	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/pkg/auth/session"
	"github.com/angelmondragon/hydrus-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

// AdminSignOut revokes the current session and clears the cookie.
func AdminSignOut(revoker session.Revoker, cfg config.SessionConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if revoker == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session manager unavailable"))
			return
		}

		sessionID := middleware.SessionIDFromContext(r.Context())
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session missing"))
			return
		}

		if err := revoker.Revoke(r.Context(), sessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session"))
			return
		}

		if cfg.CookieName != "" {
			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    "",
				Path:     "/",
				Expires:  time.Unix(0, 0),
				MaxAge:   -1,
				HttpOnly: true,
				Secure:   r.TLS != nil,
				SameSite: http.SameSiteLaxMode,
			})
		}
		responses.WriteSuccess(w, map[string]string{"status": "signed_out"})
	}
}
