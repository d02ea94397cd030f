package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavel-fokin/paste-stash/internal/pastes"
)

// Config holds the process configuration, loaded from the environment.
type Config struct {
	Addr             string        `env:"PASTE_STASH_ADDR" envDefault:":8080"`
	DataDir          string        `env:"PASTE_STASH_DATA_DIR,required"`
	DBPath           string        `env:"PASTE_STASH_DB_PATH,required"`
	MaxUploadSize    int64         `env:"PASTE_STASH_MAX_SIZE" envDefault:"10485760"`
	MaxAgeHours      int64         `env:"PASTE_STASH_MAX_AGE_HOURS" envDefault:"0"`
	AllowEverlasting bool          `env:"PASTE_STASH_ALLOW_EVERLASTING" envDefault:"true"`
	ReapInterval     time.Duration `env:"PASTE_STASH_REAP_INTERVAL" envDefault:"5m"`
}

// ExpiryPolicy derives the expiration policy from the configuration.
func (c *Config) ExpiryPolicy() pastes.ExpiryPolicy {
	return pastes.ExpiryPolicy{
		MaxAgeHours:      c.MaxAgeHours,
		AllowEverlasting: c.AllowEverlasting,
	}
}

// New creates the HTTP server with all routes and middleware configured.
func New(cfg *Config, service *pastes.Service) *http.Server {
	h := &handlers{service: service, maxSize: cfg.MaxUploadSize}

	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(loggingMiddleware)
	router.Use(limitBody(cfg.MaxUploadSize))

	router.Get("/", h.index)
	router.Post("/upload", h.formUpload)
	router.Post("/api/upload", h.apiUpload)
	router.Get("/f/{id}", h.viewPaste)
	router.Get("/raw/{id}", h.rawPaste)
	router.Get("/download/{id}", h.downloadPaste)

	router.Get("/healthz", healthz)
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

func healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// limitBody caps the request body. The cap leaves headroom over the payload
// limit so that multipart framing does not eat into it; the per-payload limit
// itself is enforced by the upload service.
func limitBody(maxSize int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
			next.ServeHTTP(w, r)
		})
	}
}

// loggingMiddleware logs HTTP requests with structured logging.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		slog.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
