package handlers

import (
	"log/slog"
	"net/http"

	"before-after/internal/utils"
	"before-after/internal/websocket"

	ws "github.com/gorilla/websocket"
)

// HandleWebSocket upgrades an authenticated client and subscribes it to
// post events. Browsers cannot set headers on the upgrade, so the token
// travels in the query string.
func (s *Server) HandleWebSocket() http.HandlerFunc {
	upgrader := ws.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || s.CORS.OriginAllowed(origin)
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.Authenticator.Authenticate(r.Context(), r.URL.Query().Get("token"))
		if err != nil {
			if utils.IsAuthError(err) {
				slog.Debug("websocket auth rejected", "error", err)
			} else {
				slog.Error("websocket auth failed", "error", err)
			}
			s.writeError(w, err)
			return
		}
		userID := id.UserID()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			// Upgrade has already written the HTTP error.
			slog.Warn("websocket upgrade failed", "user", userID.Hex(), "error", err)
			return
		}

		client := websocket.NewClient(s.Hub, userID, conn)
		if !s.Hub.Attach(client) {
			conn.Close()
			return
		}
		slog.Debug("websocket client attached", "user", userID.Hex())

		go client.WritePump()
		go client.ReadPump()
	}
}
