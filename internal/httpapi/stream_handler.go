package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/olegrjumin/sitescan/internal/scanner"
	"github.com/olegrjumin/sitescan/internal/service"
)

// streamHandler handles GET /scan/stream?url=...&depth=...&timeout=...
// and relays scan progress as Server-Sent Events
func streamHandler(streamingSvc *service.StreamingService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}

		q := r.URL.Query()
		body := scanRequest{URL: q.Get("url")}
		if body.URL == "" {
			writeError(w, http.StatusUnprocessableEntity, "url is required")
			return
		}
		for name, dst := range map[string]**int{"depth": &body.Depth, "timeout": &body.Timeout} {
			raw := q.Get(name)
			if raw == "" {
				continue
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s must be an integer", name))
				return
			}
			*dst = &n
		}

		req, err := body.toServiceRequest()
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}
		if _, err := scanner.ValidateURL(req.URL); err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "Streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.WriteHeader(http.StatusOK)

		for event := range streamingSvc.ScanStreaming(r.Context(), req) {
			payload, err := json.Marshal(event)
			if err != nil {
				payload, _ = json.Marshal(map[string]string{"stage": service.StageError, "message": err.Error()})
			}
			fmt.Fprintf(w, "event: %s\n", event.Stage)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
