package controllers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"

	"github.com/angelmondragon/hydrus-backend/api/responses"
	"github.com/angelmondragon/hydrus-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/hydrus-backend/pkg/errors"
	"github.com/angelmondragon/hydrus-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

const envHeader = "X-Hydrus-Env"

// Pinger is a dependency probed by the readiness check.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every named dependency and reports 503 with the combined
// failure when any of them is down.
func HealthReady(cfg *config.Config, deps map[string]Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		var errs error
		for name, dep := range deps {
			if dep == nil {
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				errs = multierr.Append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		if errs != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, errs, "not ready").
				WithDetails(map[string]any{"failures": len(multierr.Errors(errs))}))
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
