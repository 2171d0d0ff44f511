package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daylytics/daylytics/internal/api/auth"
	"github.com/daylytics/daylytics/internal/api/handlers"
	apiMiddleware "github.com/daylytics/daylytics/internal/api/middleware"
	"github.com/daylytics/daylytics/internal/logger"
	"github.com/daylytics/daylytics/pkg/blob"
	"github.com/daylytics/daylytics/pkg/storage"
	"github.com/daylytics/daylytics/pkg/store"
)

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//   - Request timeout to prevent hung requests
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /health/blob - Blob store health
//   - GET /metrics - Prometheus metrics
//   - POST /api/v1/auth/register - User registration
//   - POST /api/v1/auth/login - User authentication
//   - POST /api/v1/auth/refresh - Token refresh
//   - GET /api/v1/auth/me - Current user info
//   - /api/v1/tasks/* - Daily tasks and task images
//   - /api/v1/documents/* - Documents, attachments, inline images
//   - /api/v1/folders/* - Document folders
//   - /api/v1/bucket/* - Bucket objects
//   - /api/v1/storage/* - Storage overview, recompute, asset deletion
func NewRouter(config APIConfig, st store.Store, blobs blob.Store, orch *storage.Orchestrator, jwtService *auth.JWTService, registry *prometheus.Registry) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health routes - unauthenticated
	healthHandler := handlers.NewHealthHandler(st, blobs)
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
		r.Get("/blob", healthHandler.Blob)
	})

	// Prometheus metrics - unauthenticated, typically scraped from inside the cluster
	if registry != nil {
		r.Get("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP)
	}

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(st, jwtService, config.DefaultUserStorageLimit.Int64())
	taskHandler := handlers.NewTaskHandler(st, orch)
	documentHandler := handlers.NewDocumentHandler(st, orch)
	folderHandler := handlers.NewFolderHandler(st, orch)
	bucketHandler := handlers.NewBucketHandler(st, orch)
	storageHandler := handlers.NewStorageHandler(orch)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth routes - mostly unauthenticated
		r.Route("/auth", func(r chi.Router) {
			// Public endpoints
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/refresh", authHandler.Refresh)

			// Authenticated endpoint
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Get("/me", authHandler.Me)
			})
		})

		// Protected routes - require authentication
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))

			// Daily tasks
			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", taskHandler.List)
				r.Post("/", taskHandler.Create)
				r.Delete("/", taskHandler.DeleteByDate)
				r.Put("/{id}", taskHandler.Update)
				r.Delete("/{id}", taskHandler.Delete)
				r.Post("/{id}/image", taskHandler.UploadImage)
				r.Delete("/{id}/image", taskHandler.DeleteImage)
			})

			// Documents
			r.Route("/documents", func(r chi.Router) {
				r.Get("/", documentHandler.List)
				r.Post("/", documentHandler.Create)

				// Inline image uploads track on the document named by the
				// document_id field, or land in the user's pending buffer
				// for adoption on the next document save.
				r.Post("/inline-images", documentHandler.UploadInlineImage)

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", documentHandler.Get)
					r.Put("/", documentHandler.Update)
					r.Delete("/", documentHandler.Delete)
					r.Post("/pin", documentHandler.TogglePin)
					r.Post("/attachments", documentHandler.UploadAttachments)
					r.Delete("/attachments/{attachmentID}", documentHandler.DeleteAttachment)
					r.Delete("/inline-images", documentHandler.DeleteInlineImage)
				})
			})

			// Folders
			r.Route("/folders", func(r chi.Router) {
				r.Get("/", folderHandler.List)
				r.Post("/", folderHandler.Create)
				r.Get("/{id}", folderHandler.Get)
				r.Put("/{id}", folderHandler.Update)
				r.Delete("/{id}", folderHandler.Delete)
				r.Post("/{id}/pin", folderHandler.TogglePin)
			})

			// Bucket objects
			r.Route("/bucket", func(r chi.Router) {
				r.Get("/", bucketHandler.List)
				r.Post("/", bucketHandler.Upload)
				r.Get("/{id}", bucketHandler.Get)
				r.Delete("/{id}", bucketHandler.Delete)
			})

			// Storage accounting
			r.Route("/storage", func(r chi.Router) {
				r.Get("/", storageHandler.Overview)
				r.Post("/recompute", storageHandler.Recompute)
				r.Post("/pending/evict", storageHandler.EvictPending)
				r.Delete("/assets/{category}/{id}", storageHandler.DeleteAsset)
			})
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/") || path == "/metrics"
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck and metrics requests are logged at DEBUG level to reduce noise
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("API request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		duration := time.Since(start)

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
