package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/dittodrive/internal/api/auth"
	"github.com/marmos91/dittodrive/internal/logger"
	"github.com/marmos91/dittodrive/pkg/api/handlers"
	apiMiddleware "github.com/marmos91/dittodrive/pkg/api/middleware"
	"github.com/marmos91/dittodrive/pkg/drive"
	"github.com/marmos91/dittodrive/pkg/metrics"
	"github.com/marmos91/dittodrive/pkg/store"
)

// metadataTimeout bounds the non-streaming endpoints. Uploads and downloads
// are exempt; they run under the server's read/write timeouts instead.
const metadataTimeout = 30 * time.Second

// RouterOptions carries the optional collaborators and knobs of the router.
type RouterOptions struct {
	// CORSOrigins lists origins allowed to call the API from a browser.
	// Empty disables CORS handling.
	CORSOrigins []string

	// Metrics enables HTTP instrumentation when non-nil.
	Metrics metrics.HTTPMetrics

	// MaxUploadSize caps upload request bodies in bytes. Zero means no cap.
	MaxUploadSize int64
}

// NewRouter creates and configures the chi router with all middleware and routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction for proper client identification
//   - CORS handling for configured origins
//   - Custom request logging using the internal logger
//   - Optional Prometheus instrumentation
//   - Panic recovery to prevent server crashes
//   - Request timeout on non-streaming endpoints
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/live - Liveness probe (alias)
//   - GET /health/ready - Readiness probe (pings the database)
//   - POST /api/auth/register - Account creation
//   - POST /api/auth/login - User authentication
//   - GET /api/auth/me - Current user info
//   - POST /api/auth/logout - Stateless logout
//   - POST /api/fs/folders - Create folder
//   - GET /api/fs/folders/{folder_id} - Folder metadata
//   - PATCH /api/fs/folders/{folder_id} - Rename/move folder
//   - DELETE /api/fs/folders/{folder_id} - Delete folder subtree
//   - GET /api/fs/folders/{folder_id}/children - List folder contents
//   - GET /api/fs/root/children - List root-level contents
//   - POST /api/fs/files - Upload file (multipart)
//   - GET /api/fs/files/{file_id} - File metadata
//   - PATCH /api/fs/files/{file_id} - Rename/move file
//   - DELETE /api/fs/files/{file_id} - Delete file
//   - GET /api/fs/files/{file_id}/download - Download file content
func NewRouter(engine *drive.Engine, st store.Store, jwtService *auth.JWTService, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.CORS(opts.CORSOrigins))
	r.Use(requestLogger)
	r.Use(apiMiddleware.Metrics(opts.Metrics))
	r.Use(middleware.Recoverer)

	// Health check handlers
	healthHandler := handlers.NewHealthHandler(st)

	// Health routes - unauthenticated
	r.Route("/health", func(r chi.Router) {
		r.Get("/", healthHandler.Liveness)
		r.Get("/live", healthHandler.Liveness)
		r.Get("/ready", healthHandler.Readiness)
	})

	// Root redirect to health for convenience
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	authHandler := handlers.NewAuthHandler(st, jwtService)
	folderHandler := handlers.NewFolderHandler(engine)
	fileHandler := handlers.NewFileHandler(engine, opts.MaxUploadSize)

	r.Route("/api", func(r chi.Router) {
		// Auth routes
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.Timeout(metadataTimeout))

			// Public endpoints
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)

			// Authenticated endpoints
			r.Group(func(r chi.Router) {
				r.Use(apiMiddleware.JWTAuth(jwtService))
				r.Use(apiMiddleware.RequireActiveUser(st))
				r.Get("/me", authHandler.Me)
				r.Post("/logout", authHandler.Logout)
			})
		})

		// Filesystem routes - all authenticated
		r.Route("/fs", func(r chi.Router) {
			r.Use(apiMiddleware.JWTAuth(jwtService))
			r.Use(apiMiddleware.RequireActiveUser(st))

			// Metadata operations complete quickly and get a deadline
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(metadataTimeout))

				r.Post("/folders", folderHandler.Create)
				r.Get("/folders/{folder_id}", folderHandler.Get)
				r.Patch("/folders/{folder_id}", folderHandler.Update)
				r.Delete("/folders/{folder_id}", folderHandler.Delete)
				r.Get("/folders/{folder_id}/children", folderHandler.Children)
				r.Get("/root/children", folderHandler.RootChildren)

				r.Get("/files/{file_id}", fileHandler.Get)
				r.Patch("/files/{file_id}", fileHandler.Update)
				r.Delete("/files/{file_id}", fileHandler.Delete)
			})

			// Streaming operations run without the per-request timeout
			r.Post("/files", fileHandler.Upload)
			r.Get("/files/{file_id}/download", fileHandler.Download)
		})
	})

	return r
}

// isHealthPath returns true if the request path is a healthcheck endpoint.
func isHealthPath(path string) bool {
	return path == "/health" || strings.HasPrefix(path, "/health/")
}

// requestLogger is a custom middleware that logs requests using the internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck requests are logged at DEBUG level to reduce noise
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

		// Log healthcheck requests at DEBUG to avoid polluting logs in k8s
		if isHealthPath(r.URL.Path) {
			logger.Debug("API request completed", logArgs...)
		} else {
			logger.Info("API request completed", logArgs...)
		}
	})
}
