package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/olegrjumin/sitescan/internal/logging"
	"github.com/olegrjumin/sitescan/internal/metrics"
	"github.com/olegrjumin/sitescan/internal/service"
)

// ServiceName is reported by the health endpoint
const ServiceName = "scanner"

// Deps holds everything the HTTP layer calls into.
// Streaming and Metrics are optional.
type Deps struct {
	Service   *service.Service
	Streaming *service.StreamingService
	Metrics   *metrics.Metrics
	Version   string
}

// NewServer creates and configures a new HTTP server
func NewServer(addr string, logger *logging.Logger, deps Deps) *http.Server {
	return &http.Server{
		Addr:    addr,
		Handler: NewHandler(logger, deps),
	}
}

// NewHandler builds the routed handler wrapped in the request middleware.
// A nil logger discards request logs.
func NewHandler(logger *logging.Logger, deps Deps) http.Handler {
	if logger == nil {
		logger = logging.Nop()
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", healthHandler(deps.Version))
	mux.HandleFunc("/scan", scanHandler(deps.Service))
	mux.HandleFunc("/scan/{id}", getScanHandler(deps.Service))

	if deps.Streaming != nil {
		mux.HandleFunc("/scan/stream", streamHandler(deps.Streaming))
	}
	if deps.Metrics != nil {
		mux.Handle("/metrics", deps.Metrics.Handler())
	}

	return loggingMiddleware(logger, deps.Metrics, mux)
}

// healthHandler handles GET requests to /health
func healthHandler(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": ServiceName,
			"version": version,
		})
	}
}

// writeJSON sets the content type and status, then encodes data
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// The status line is already out; an encoding error can only be a broken connection.
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
