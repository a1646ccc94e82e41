package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/portfolio-cms/apiserver/config"
	"github.com/portfolio-cms/apiserver/internal/auth"
	"github.com/portfolio-cms/apiserver/internal/blogger"
	"github.com/portfolio-cms/apiserver/internal/db"
	"github.com/portfolio-cms/apiserver/internal/handlers"
	"github.com/portfolio-cms/apiserver/internal/middleware"
	"github.com/portfolio-cms/apiserver/internal/mq"
	"github.com/portfolio-cms/apiserver/internal/services"
	"github.com/portfolio-cms/apiserver/internal/storage"
	"github.com/portfolio-cms/apiserver/internal/store"
	"github.com/rs/zerolog"
)

const (
	tokenIssuer     = "portfolio"
	maxRequestBytes = 16 << 20
	requestTimeout  = 30 * time.Second
)

// Dependencies are the collaborators the router is built from. Feed,
// Publisher and Images are optional.
type Dependencies struct {
	Users     services.UserRepository
	Projects  services.ProjectRepository
	Posts     services.BlogPostRepository
	Contacts  services.ContactRepository
	Feed      services.FeedSource
	Publisher services.ContactPublisher
	Images    services.ImageStore
}

// Server wraps the HTTP server, router and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	limiter    *middleware.RateLimiter
	db         *sql.DB
	queue      *mq.MQ
	logger     zerolog.Logger
}

// New opens the database and optional integrations described by cfg and
// assembles the HTTP server.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	deps := Dependencies{
		Users:    store.NewUserRepository(dbConn),
		Projects: store.NewProjectRepository(dbConn),
		Posts:    store.NewBlogPostRepository(dbConn),
		Contacts: store.NewContactRepository(dbConn),
	}

	if cfg.Blogger.APIKey != "" && cfg.Blogger.BlogID != "" {
		feed, err := blogger.New(ctx, cfg.Blogger)
		if err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("blogger client: %w", err)
		}
		deps.Feed = feed
		logger.Info().Str("blog_id", cfg.Blogger.BlogID).Msg("serving blog feed from blogger")
	}

	queue, err := mq.NewFromConfig(ctx, cfg.MQ)
	switch {
	case errors.Is(err, mq.ErrDisabled):
		logger.Info().Msg("message queue disabled, contact events will not be published")
	case err != nil:
		logger.Warn().Err(err).Msg("message queue unavailable, contact events will not be published")
	default:
		deps.Publisher = queue
	}

	images, err := storage.NewFromConfig(ctx, cfg.Storage)
	switch {
	case errors.Is(err, storage.ErrDisabled):
		logger.Info().Msg("object storage disabled, image uploads will be rejected")
	case err != nil:
		if queue != nil {
			_ = queue.Close()
		}
		_ = dbConn.Close()
		return nil, fmt.Errorf("object storage: %w", err)
	default:
		logger.Info().Str("bucket", images.Bucket()).Str("backend", cfg.Storage.Backend).Msg("object storage ready")
		deps.Images = images
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit)
	router := NewRouter(cfg, deps, limiter, logger)

	if cfg.Auth.AdminPassword != "" {
		authService := services.NewAuthService(deps.Users, newTokenManager(cfg.Auth), logger)
		if _, created, err := authService.Bootstrap(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword); err != nil {
			logger.Warn().Err(err).Msg("admin bootstrap failed")
		} else if created {
			logger.Info().Str("email", cfg.Auth.AdminEmail).Msg("admin account created")
		}
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      requestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		limiter:    limiter,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

func newTokenManager(cfg config.AuthConfig) *auth.TokenManager {
	return auth.NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTTL, cfg.RefreshTTL, tokenIssuer)
}

// NewRouter builds the /api route tree over deps with the standard
// middleware chain. The caller owns limiter and must Stop it.
func NewRouter(cfg config.Config, deps Dependencies, limiter *middleware.RateLimiter, logger zerolog.Logger) *chi.Mux {
	tokens := newTokenManager(cfg.Auth)
	exposeDetail := cfg.IsDevelopment()

	authService := services.NewAuthService(deps.Users, tokens, logger)
	projectService := services.NewProjectService(deps.Projects, deps.Images, logger)
	blogService := services.NewBlogService(deps.Posts, deps.Feed, logger)
	contactService := services.NewContactService(deps.Contacts, deps.Publisher, logger)

	requireAuth := middleware.RequireAuth(tokens)

	router := chi.NewRouter()
	router.Use(
		chimiddleware.RequestID,
		middleware.RequestLogger(logger),
		chimiddleware.Recoverer,
		limiter.Handler,
		cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		middleware.SecurityHeaders(!cfg.IsDevelopment()),
		chimiddleware.RequestSize(maxRequestBytes),
		chimiddleware.Timeout(requestTimeout),
	)
	router.NotFound(handlers.RouteNotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authService, requireAuth, exposeDetail)
		})
		r.Route("/projects", func(r chi.Router) {
			handlers.ProjectRouter(r, projectService, requireAuth, exposeDetail)
		})
		r.Route("/blog", func(r chi.Router) {
			handlers.BlogRouter(r, blogService, requireAuth, exposeDetail)
		})
		r.Route("/contact", func(r chi.Router) {
			handlers.ContactRouter(r, contactService, requireAuth, exposeDetail)
		})
	})

	return router
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("http server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the queue connection
// and the database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.limiter.Stop()
	if s.queue != nil {
		err = errors.Join(err, s.queue.Close())
	}
	if s.db != nil {
		err = errors.Join(err, s.db.Close())
	}
	return err
}
