package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/shared"
)

// errorBody mirrors the queue service's error shape.
type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

// StatusHandler serves health and status.
type StatusHandler struct {
	overlay Overlay
}

func NewStatusHandler(ov Overlay) *StatusHandler {
	return &StatusHandler{overlay: ov}
}

func (h *StatusHandler) Routes() []string {
	return []string{"GET /health", "GET /status"}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.overlay.Status()
	switch r.URL.Path {
	case "/health":
		if !status.Mounted {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "stopped"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "session": status.Session})
	default:
		writeJSON(w, http.StatusOK, status)
	}
}

// ResumeHandler retries playback after a blocked autoplay.
type ResumeHandler struct {
	overlay Overlay
	logger  *log.Logger
}

func NewResumeHandler(ov Overlay, logger *log.Logger) *ResumeHandler {
	return &ResumeHandler{overlay: ov, logger: logger}
}

func (h *ResumeHandler) Routes() []string {
	return []string{"POST /resume"}
}

func (h *ResumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	err := h.overlay.Resume()
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, h.overlay.Status())
	case errors.Is(err, shared.ErrNothingPlaying):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, shared.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Warn("manual resume failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
