package apihttp

import (
	"log/slog"
	"net/http"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

type formatsResponse struct {
	Formats []domain.FormatDescriptor `json:"formats"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "not_found", "not found")
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	info, err := s.service.Info(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) handleFormats(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	formats, err := s.service.Formats(r.Context(), r.URL.Query().Get("url"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if formats == nil {
		formats = []domain.FormatDescriptor{}
	}
	writeJSON(w, http.StatusOK, formatsResponse{Formats: formats})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	q := r.URL.Query()
	intent, err := s.service.ParseIntent(q.Get("url"), q.Get("quality"), q.Get("type"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	err = s.service.Download(r.Context(), w, intent)
	if err != nil && !domain.HeadersSent(err) {
		s.writeServiceError(w, r, err)
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet {
		return true
	}
	w.Header().Set("Allow", http.MethodGet)
	writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	return false
}

// writeServiceError maps a delivery error to the JSON error envelope. Internal
// details are only exposed for upstream and transcode failures.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := domain.ErrorCode(err)
	message := err.Error()
	if code == "internal_error" {
		message = "internal server error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			slog.String("path", r.URL.Path),
			slog.String("code", code),
			slog.String("requestId", requestIDFrom(r.Context())),
			slog.String("error", err.Error()),
		)
	}
	writeError(w, status, code, message)
}
