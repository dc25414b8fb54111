package handlers

import (
	"net/http"

	"before-after/internal/api"
	"before-after/internal/auth"
	"before-after/internal/engine/actors"
	"before-after/internal/models"
	"before-after/internal/utils"
)

// HandleCreatePost creates a post owned by the caller
func (s *Server) HandleCreatePost() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		var req models.CreatePostRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetPostActor(), &actors.CreatePostMsg{
			Owner:       id.User,
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
			BeforeImg:   req.BeforeImg,
			AfterImg:    req.AfterImg,
			Private:     req.Private,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

// HandleGetPost returns one post if the caller may see it
func (s *Server) HandleGetPost() http.HandlerFunc {
	return s.Auth.Optional(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		postID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		msg := &actors.GetPostMsg{PostID: postID}
		if id != nil {
			viewer := id.UserID()
			msg.Viewer = &viewer
		}
		post, err := expect[*models.Post](s.request(s.Engine.GetPostActor(), msg))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

// HandlePersonalFeed lists the caller's own posts, private ones included
func (s *Server) HandlePersonalFeed() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		s.serveFeed(w, &actors.GetFeedMsg{
			Kind:   actors.FeedPersonal,
			Viewer: id.User,
			Page:   pageParam(r),
		})
	})
}

// HandleAllFeed is the global feed; ?following=true narrows it to followed
// creators.
func (s *Server) HandleAllFeed() http.HandlerFunc {
	return s.Auth.Optional(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		s.serveFeed(w, &actors.GetFeedMsg{
			Kind:          actors.FeedAll,
			Viewer:        viewerOf(id),
			FollowingOnly: followingParam(r),
			Page:          pageParam(r),
		})
	})
}

func (s *Server) HandleCategoryFeed() http.HandlerFunc {
	return s.Auth.Optional(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		s.serveFeed(w, &actors.GetFeedMsg{
			Kind:          actors.FeedCategory,
			Viewer:        viewerOf(id),
			Category:      models.Category(r.PathValue("category")),
			FollowingOnly: followingParam(r),
			Page:          pageParam(r),
		})
	})
}

// HandleUserFeed lists one creator's posts as the caller may see them
func (s *Server) HandleUserFeed() http.HandlerFunc {
	return s.Auth.Optional(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		creator, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.serveFeed(w, &actors.GetFeedMsg{
			Kind:    actors.FeedUser,
			Viewer:  viewerOf(id),
			Creator: creator,
			Page:    pageParam(r),
		})
	})
}

func (s *Server) serveFeed(w http.ResponseWriter, msg *actors.GetFeedMsg) {
	feed, err := expect[*api.FeedResponse](s.request(s.Engine.GetPostActor(), msg))
	if err != nil {
		s.writeError(w, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, feed)
}

// HandleVote records the caller's vote for the side named in the path
func (s *Server) HandleVote() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		side, ok := models.ParseVoteSide(r.PathValue("side"))
		if !ok {
			s.writeError(w, utils.NewAppError(utils.ErrNotFound, "Unknown vote side: "+r.PathValue("side"), nil))
			return
		}
		postID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetPostActor(), &actors.VotePostMsg{
			PostID: postID,
			UserID: id.UserID(),
			Side:   side,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

// HandleUpdatePost edits a post the caller owns
func (s *Server) HandleUpdatePost() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		postID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}
		var update models.PostUpdate
		if err := s.decode(w, r, &update); err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetPostActor(), &actors.UpdatePostMsg{
			PostID: postID,
			UserID: id.UserID(),
			Update: update,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

// HandleDeletePost removes a post the caller owns and returns it
func (s *Server) HandleDeletePost() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		postID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		post, err := expect[*models.Post](s.request(s.Engine.GetPostActor(), &actors.DeletePostMsg{
			PostID: postID,
			UserID: id.UserID(),
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, post)
	})
}

func viewerOf(id *auth.Identity) *models.User {
	if id == nil {
		return nil
	}
	return id.User
}

func followingParam(r *http.Request) bool {
	return r.URL.Query().Get("following") == "true"
}
