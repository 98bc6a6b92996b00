package web

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/mkrigman/scnav/internal/config"
	"github.com/mkrigman/scnav/internal/logic/session"
)

// Handlers holds dependencies for HTTP handlers: the session to control,
// the live settings store behind the form, and the log broadcaster.
type Handlers struct {
	Broadcaster *StatusBroadcaster
	Session     *session.Session
	Settings    *config.Store
	staticFS    fs.FS
}

// NewHandlers creates handlers with the given dependencies.
func NewHandlers(broadcaster *StatusBroadcaster, sess *session.Session, settings *config.Store, staticFS fs.FS) *Handlers {
	return &Handlers{
		Broadcaster: broadcaster,
		Session:     sess,
		Settings:    settings,
		staticFS:    staticFS,
	}
}

// ServeIndex serves the main HTML page (root path only).
func (h *Handlers) ServeIndex(w http.ResponseWriter, r *http.Request) {
	data, err := fs.ReadFile(h.staticFS, "index.html")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}

// HandleStatus returns the session readout as JSON.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Session.Status())
}

// HandleToggle flips the enabled flag and returns the new value.
func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request) {
	enabled := h.Session.Toggle()
	if enabled {
		h.Broadcaster.BroadcastMsg("SpaceController enabled")
	} else {
		h.Broadcaster.BroadcastMsg("SpaceController disabled")
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]bool{"enabled": enabled})
}

// HandleSettings returns the current motion settings as JSON.
func (h *Handlers) HandleSettings(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Settings.Motion())
}

// HandleSettingsUpdate replaces the motion settings from the form.
// Sensitivities must already be within their declared bounds; out-of-range
// values are rejected rather than silently clamped so the form can show
// the error.
func (h *Handlers) HandleSettingsUpdate(w http.ResponseWriter, r *http.Request) {
	var m config.MotionConfig
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		http.Error(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	if m.MoveSensitivity < config.MinSensitivity || m.MoveSensitivity > config.MaxSensitivity {
		http.Error(w, fmt.Sprintf("move_sensitivity must be between %g and %g",
			config.MinSensitivity, config.MaxSensitivity), http.StatusBadRequest)
		return
	}
	if m.RotateSensitivity < config.MinSensitivity || m.RotateSensitivity > config.MaxSensitivity {
		http.Error(w, fmt.Sprintf("rotate_sensitivity must be between %g and %g",
			config.MinSensitivity, config.MaxSensitivity), http.StatusBadRequest)
		return
	}

	h.Settings.SetMotion(m)
	h.Broadcaster.BroadcastMsg("settings updated")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Settings.Motion())
}

// HandleStatusStream handles GET /status/stream for SSE.
func (h *Handlers) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // nginx

	ch, unsub := h.Broadcaster.Subscribe()
	defer unsub()

	// Send initial comment to establish connection
	w.Write([]byte(": connected\n\n"))
	flusher.Flush()

	// Heartbeat while idle
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			w.Write([]byte("data: " + msg + "\n\n"))
			flusher.Flush()

		case <-ticker.C:
			w.Write([]byte(": heartbeat\n\n"))
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
