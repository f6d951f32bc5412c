// Package httpapi exposes the claim workflow over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrijs2005/claimflow/internal/logging"
	"github.com/dmitrijs2005/claimflow/internal/server/services"
)

type Server struct {
	address         string
	shutdownTimeout time.Duration
	claims          *services.ClaimService
	documents       *services.DocumentService
	logger          logging.Logger
}

func NewServer(address string, shutdownTimeout time.Duration, claims *services.ClaimService,
	documents *services.DocumentService, logger logging.Logger) *Server {
	return &Server{
		address:         address,
		shutdownTimeout: shutdownTimeout,
		claims:          claims,
		documents:       documents,
		logger:          logger.With("module", "http_server"),
	}
}

// Router builds the API route tree. Exposed separately so tests can drive
// the handlers through httptest without a listening socket.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Post("/", s.createClaim)
			r.Get("/", s.listClaims)
			r.Get("/verified", s.listVerified)
			r.Get("/{id}", s.getClaim)
			r.Post("/{id}/verify", s.verifyClaim)
			r.Post("/{id}/reject-verification", s.rejectVerification)
			r.Post("/{id}/approve", s.approveClaim)
			r.Post("/{id}/reject", s.rejectClaim)
		})
		r.Get("/documents/{id}/download", s.downloadDocument)
	})

	return r
}

// Run serves the API until the context is cancelled, then shuts down
// gracefully within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "HTTP server shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
