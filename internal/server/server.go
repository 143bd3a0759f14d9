// internal/server/server.go

package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nats-io/nats.go"

	"trendrank/internal/config"
	"trendrank/internal/server/handlers"
	"trendrank/internal/service/ranker"
	"trendrank/internal/service/ratelimit"
	"trendrank/internal/service/trendcache"

	"trendrank/internal/domain/trend"
)

// Server represents the HTTP server
type Server struct {
	server *http.Server
	router *chi.Mux
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.ServerConfig,
	natsConn *nats.Conn,
	eventsTopic string,
	aggregator trend.Aggregator,
	productRanker *ranker.Ranker,
	cache *trendcache.Cache,
	limiter *ratelimit.Limiter,
) *Server {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CorsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Create handler dependencies
	trendHandler := handlers.NewTrendHandler(aggregator, cache)
	productHandler := handlers.NewProductHandler(productRanker)
	sourceHandler := handlers.NewSourceHandler(limiter)

	// Routes
	router.Route("/api", func(r chi.Router) {
		// Health check
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		// API version
		r.Route("/v1", func(r chi.Router) {
			// Trends API
			r.Route("/trends", func(r chi.Router) {
				r.Post("/", trendHandler.AggregateTrends)
				r.Get("/{productID}", trendHandler.GetCachedTrends)
				r.Delete("/{productID}", trendHandler.InvalidateTrends)
			})

			// Products API
			r.Route("/products", func(r chi.Router) {
				r.Post("/score", productHandler.ScoreProduct)
			})

			// Sources API
			r.Route("/sources", func(r chi.Router) {
				r.Get("/", sourceHandler.ListSources)
			})
		})
	})

	// WebSocket endpoint for real-time score updates
	router.Get("/ws/trends", handlers.TrendStreamHandler(natsConn, eventsTopic))

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return &Server{
		server: httpServer,
		router: router,
	}
}

// ListenAndServe starts the HTTP server
func (s *Server) ListenAndServe() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
