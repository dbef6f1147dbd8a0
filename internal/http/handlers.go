package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"amlinks/internal/core"
	"amlinks/internal/i18n"
)

const (
	outcomeLinks   = "links"
	outcomeSearch  = "search"
	outcomeInvalid = "invalid"
)

// writeJSON writes payload as a JSON response.
func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError writes a {"detail": message} error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"detail": message})
}

// requestLanguage picks the response language from Accept-Language.
func requestLanguage(r *http.Request, fallback string) string {
	return i18n.MatchLanguage(r.Header.Get("Accept-Language"), fallback)
}

func (s *Server) tasksHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	lang := requestLanguage(r, s.tasks.Language())
	localizer := i18n.NewLocalizer(lang)

	var req core.TaskRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)).Decode(&req); err != nil {
		s.RecordTask(outcomeInvalid, time.Since(start))

		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, localizer.T("error.body_too_large", tooLarge.Limit))
			return
		}
		writeError(w, http.StatusBadRequest, localizer.T("error.invalid_body"))
		return
	}

	if err := s.validate.Struct(req); err != nil {
		s.RecordTask(outcomeInvalid, time.Since(start))
		writeError(w, http.StatusBadRequest, localizer.T("error.empty_input"))
		return
	}

	// Process only fails on input that is empty once trimmed.
	response, err := s.tasks.Process(req.Input, lang)
	if err != nil {
		s.RecordTask(outcomeInvalid, time.Since(start))
		writeError(w, http.StatusBadRequest, localizer.T("error.empty_input"))
		return
	}

	outcome := outcomeLinks
	if response.NeedsSearch {
		outcome = outcomeSearch
	}
	s.RecordTask(outcome, time.Since(start))
	s.RecordLinks(response.LinkTypes)
	if s.tasks.CacheEnabled() {
		s.RecordCacheLookup(response.Cached)
	}

	s.logger.Debug("Processed task",
		zap.String("outcome", outcome),
		zap.Strings("links", response.AppleMusicLinks),
		zap.Strings("types", response.LinkTypes))

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) homeHandler(w http.ResponseWriter, r *http.Request) {
	localizer := i18n.NewLocalizer(requestLanguage(r, s.tasks.Language()))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":     s.config.API.Title,
		"version":     s.config.API.Version,
		"description": s.config.API.Description,
		"endpoints": map[string]string{
			"POST " + tasksRoute: localizer.T("api.endpoint.tasks"),
			"GET /health":        localizer.T("api.endpoint.health"),
		},
	})
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func healthzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok","service":"` + serviceName + `"}`))
}

func readyzHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ready","service":"` + serviceName + `"}`))
}
