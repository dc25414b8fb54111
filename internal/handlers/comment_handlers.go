package handlers

import (
	"net/http"

	"before-after/internal/api"
	"before-after/internal/auth"
	"before-after/internal/engine/actors"
	"before-after/internal/models"
)

// HandleCreateComment adds a comment to the post in the path and returns
// the updated post.
func (s *Server) HandleCreateComment() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		postID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req models.CommentRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetCommentActor(), &actors.CreateCommentMsg{
			PostID: postID,
			Author: id.User,
			Text:   req.Text,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

// HandleDeleteComment removes a comment. Only its author or the post owner
// may do so.
func (s *Server) HandleDeleteComment() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		postID, err := pathID(r, "post_id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		commentID, err := pathID(r, "comment_id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetCommentActor(), &actors.DeleteCommentMsg{
			PostID:    postID,
			CommentID: commentID,
			UserID:    id.UserID(),
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}
