package api

import (
	"encoding/json/v2"
	"fmt"
	"net/http"
	"time"
)

// registerStreamRoutes mounts the SSE endpoint directly on the chi router.
// Long-lived streams don't fit huma's request/response model.
func (s *Server) registerStreamRoutes() {
	s.router.Get("/api/v1/stream", s.handleStream)
}

// handleStream upgrades the request to a Server-Sent Events stream scoped
// to the authenticated user.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserID(r.Context())
	if err != nil {
		// EventSource clients can't set headers; fall back to ?token=.
		if token := bearerToken(r); token != "" {
			userID, err = s.services.Auth.VerifyAccessToken(token)
		}
		if err != nil || userID == "" {
			http.Error(w, "Authentication required", http.StatusUnauthorized)
			return
		}
	}

	if r.Context().Err() != nil {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	rc := http.NewResponseController(w)
	if err := rc.Flush(); err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	client, err := s.eventManager.Connect(userID)
	if err != nil {
		s.logger.Error("failed to register SSE client", "error", err)
		http.Error(w, "Failed to establish connection", http.StatusInternalServerError)
		return
	}
	defer s.eventManager.Disconnect(client.ID)

	clientLogger := s.logger.With("client_id", client.ID, "user_id", userID)

	if err := s.sendEvent(w, rc, "connected", map[string]string{
		"client_id": client.ID,
	}); err != nil {
		clientLogger.Warn("failed to send initial connection message", "error", err)
		return
	}

	ctx := r.Context()
	for {
		select {
		case event := <-client.EventChan:
			if err := s.sendEvent(w, rc, string(event.Type), event); err != nil {
				clientLogger.Info("client disconnected during send")
				return
			}

		case <-client.Done:
			clientLogger.Info("client closed by manager")
			return

		case <-ctx.Done():
			clientLogger.Info("client context canceled")
			return
		}
	}
}

// sendEvent writes one SSE frame and flushes it.
func (s *Server) sendEvent(w http.ResponseWriter, rc *http.ResponseController, eventType string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, jsonData); err != nil {
		return err
	}
	if err := rc.Flush(); err != nil {
		return err
	}

	// Reset the write deadline after each successful frame so idle
	// connections are kept alive by heartbeats, not forever.
	if err := rc.SetWriteDeadline(time.Now().Add(60 * time.Second)); err != nil {
		s.logger.Debug("failed to set write deadline", "error", err)
	}
	return nil
}
