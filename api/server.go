package api

import (
	"net"
	"net/http"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

// NewServer wraps handler in an http.Server with the API's timeouts. The
// write timeout leaves room for a full assistant turn.
func NewServer(cfg *config.Config, handler http.Handler) *http.Server {
	writeTimeout := cfg.Assistant.TurnTimeout + 15*time.Second
	if writeTimeout < 30*time.Second {
		writeTimeout = 30 * time.Second
	}
	return &http.Server{
		Addr:              net.JoinHostPort("", cfg.App.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
}
