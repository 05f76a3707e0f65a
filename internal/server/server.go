// Package server is the composition root: it wires the store, services,
// handlers and middleware into one router, and runs the HTTP server.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                                         → database ping
//	GET    /metrics                                         → Prometheus exposition
//	POST   /api/authentication/authenticate                 → token (rate limited)
//	GET    /api/files                                       → file download        [auth]
//	GET    /api/cities                                      → paged city list      [auth]
//	GET    /api/cities/{cityId}                             → one city             [auth]
//	*      /api/cities/{cityId}/pointsofinterest[/{id}]     → POI CRUD             [auth, MustLiveInBerlin]
//
// MIDDLEWARE ORDER:
// RequestID runs first so every later log line can carry the id; Recoverer
// sits inside Logger so a panic is still logged as a 500.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/cityinfo/internal/auth"
	"github.com/sakif/cityinfo/internal/config"
	"github.com/sakif/cityinfo/internal/handler"
	"github.com/sakif/cityinfo/internal/middleware"
	"github.com/sakif/cityinfo/internal/model"
	"github.com/sakif/cityinfo/internal/notify"
	sqliteRepo "github.com/sakif/cityinfo/internal/repository/sqlite"
	"github.com/sakif/cityinfo/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router and the database handle. Close releases the database.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires every dependency. The caller hands over db; the server closes it
// when Start returns or Close is called.
func New(cfg *config.Config, db *sqliteRepo.DB, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   cfg.Auth.Secret,
		Issuer:   cfg.Auth.Issuer,
		Audience: cfg.Auth.Audience,
		Lifetime: cfg.Auth.TokenLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	mailer, err := notify.New(cfg.Mail.Mode, notify.Addresses{From: cfg.Mail.From, To: cfg.Mail.To}, logger)
	if err != nil {
		return nil, fmt.Errorf("creating mailer: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}
	s.setupRoutes(tokens, newVerifier(cfg.Auth, logger), mailer)
	return s, nil
}

// newVerifier picks bcrypt checks when users are configured and the demo
// identity otherwise.
func newVerifier(cfg config.AuthConfig, logger *slog.Logger) auth.CredentialVerifier {
	if len(cfg.Users) == 0 {
		logger.Warn("no users configured, every login receives the demo identity",
			slog.String("city", cfg.DemoUser.City))
		return auth.DemoVerifier{User: model.AuthenticatedUser{
			UserID:    cfg.DemoUser.ID,
			FirstName: cfg.DemoUser.FirstName,
			LastName:  cfg.DemoUser.LastName,
			City:      cfg.DemoUser.City,
		}}
	}

	records := make([]auth.UserRecord, 0, len(cfg.Users))
	for _, u := range cfg.Users {
		records = append(records, auth.UserRecord{
			PasswordHash: u.PasswordHash,
			User: model.AuthenticatedUser{
				UserID:    u.ID,
				UserName:  u.UserName,
				FirstName: u.FirstName,
				LastName:  u.LastName,
				City:      u.City,
			},
		})
	}
	return auth.NewPasswordVerifier(records, auth.NewPasswordService(), logger)
}

func (s *Server) setupRoutes(tokens *auth.TokenService, verifier auth.CredentialVerifier, mailer notify.Mailer) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Metrics)
	s.router.Use(middleware.CORS(s.config.Server.CORSAllowedOrigins))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	authHandler := handler.NewAuthHandler(service.NewAuthService(verifier, tokens, s.logger), s.logger)
	cityHandler := handler.NewCityHandler(service.NewCityService(s.db, s.logger), s.logger)
	poiHandler := handler.NewPointOfInterestHandler(
		service.NewPointOfInterestService(s.db, mailer, s.config.Auth.EnforceCityMatch, s.logger),
		s.logger,
	)
	fileHandler := handler.NewFileHandler(s.config.Files.Path, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		r.With(middleware.RateLimitByIP(s.config.Auth.RateLimit)).
			Post("/authentication/authenticate", authHandler.HandleAuthenticate)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/files", fileHandler.HandleGet)

			r.Route("/cities", func(r chi.Router) {
				r.Use(middleware.Negotiate(s.config.Server.StrictNegotiation))

				r.Get("/", cityHandler.HandleList)
				r.Get("/{cityId}", cityHandler.HandleGet)

				r.Route("/{cityId}/pointsofinterest", func(r chi.Router) {
					r.Use(auth.RequirePolicy(auth.MustLiveInBerlin))

					r.Get("/", poiHandler.HandleList)
					r.Post("/", poiHandler.HandleCreate)
					r.Get("/{pointOfInterestId}", poiHandler.HandleGet)
					r.Put("/{pointOfInterestId}", poiHandler.HandleUpdate)
					r.Patch("/{pointOfInterestId}", poiHandler.HandlePatch)
					r.Delete("/{pointOfInterestId}", poiHandler.HandleDelete)
				})
			})
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.logger.ErrorContext(r.Context(), "health check failed", slog.String("error", err.Error()))
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Handler exposes the router, e.g. for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up to
// shutdownTimeout and closes the database.
func (s *Server) Start() error {
	defer s.Close()

	srv := &http.Server{
		Addr:         s.config.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("database", s.config.Database.ConnectionString),
			slog.Bool("strict_negotiation", s.config.Server.StrictNegotiation),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
