package api

import (
	"net/http"

	"github.com/angelmondragon/hydrus-backend/pkg/config"
)

// NewServer builds the HTTP server cmd/api runs. The write timeout bounds
// how long a webhook transaction may hold a connection.
func NewServer(cfg *config.Config, addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.App.ReadTimeout,
		ReadTimeout:       cfg.App.ReadTimeout,
		WriteTimeout:      cfg.App.WriteTimeout,
		IdleTimeout:       2 * cfg.App.WriteTimeout,
	}
}
