package handlers

import (
	"net/http"
	"time"

	"before-after/internal/api"
	"before-after/internal/engine/actors"
)

// HandleHealth reports liveness along with user and post counts
func (s *Server) HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := expect[int64](s.request(s.Engine.GetUserActor(), &actors.GetCountsMsg{}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		posts, err := expect[int64](s.request(s.Engine.GetPostActor(), &actors.GetCountsMsg{}))
		if err != nil {
			s.writeError(w, err)
			return
		}

		resp := api.HealthResponse{
			Status:     "healthy",
			Users:      users,
			Posts:      posts,
			ServerTime: time.Now().UTC().Format(time.RFC3339),
		}
		if s.Metrics != nil {
			resp.Uptime = s.Metrics.Uptime().Round(time.Second).String()
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}
