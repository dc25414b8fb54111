package handlers

import (
	"net/http"

	"before-after/internal/api"
	"before-after/internal/auth"
	"before-after/internal/engine/actors"
	"before-after/internal/models"
)

// HandleUserRegistration handles requests to register a new user
func (s *Server) HandleUserRegistration() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.RegisterRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		resp, err := expect[*api.AuthResponse](s.request(s.Engine.GetUserActor(), &actors.RegisterUserMsg{
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleUserLogin issues a fresh token for valid credentials
func (s *Server) HandleUserLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.LoginRequest
		if err := s.decode(w, r, &req); err != nil {
			s.writeError(w, err)
			return
		}

		resp, err := expect[*api.AuthResponse](s.request(s.Engine.GetUserActor(), &actors.LoginMsg{
			Email:    req.Email,
			Password: req.Password,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, resp)
	}
}

// HandleUserLogout revokes the token the request was made with
func (s *Server) HandleUserLogout() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		if _, err := s.request(s.Engine.GetUserActor(), &actors.LogoutMsg{
			UserID: id.UserID(),
			Token:  id.Token,
		}); err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: "logged out"})
	})
}

// HandleVerifyToken returns the caller's own profile
func (s *Server) HandleVerifyToken() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		api.WriteJSON(w, http.StatusOK, id.User)
	})
}

// HandleListUsers is the paged admin listing
func (s *Server) HandleListUsers() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		users, err := expect[[]*models.User](s.request(s.Engine.GetUserActor(), &actors.ListUsersMsg{
			Requester: id.User,
			Page:      pageParam(r),
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, users)
	})
}

// HandleSuggestUsers returns a random sample of profiles, excluding the
// caller when signed in.
func (s *Server) HandleSuggestUsers() http.HandlerFunc {
	return s.Auth.Optional(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		msg := &actors.SuggestUsersMsg{}
		if id != nil {
			self := id.UserID()
			msg.Exclude = &self
		}
		profiles, err := expect[[]models.PublicProfile](s.request(s.Engine.GetUserActor(), msg))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, profiles)
	})
}

// HandleGetUserProfile returns a user by id
func (s *Server) HandleGetUserProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		user, err := expect[*models.User](s.request(s.Engine.GetUserActor(), &actors.GetUserProfileMsg{UserID: userID}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	}
}

// HandleEditProfile updates the caller's own profile
func (s *Server) HandleEditProfile() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		var update models.ProfileUpdate
		if err := s.decode(w, r, &update); err != nil {
			s.writeError(w, err)
			return
		}

		user, err := expect[*models.User](s.request(s.Engine.GetUserActor(), &actors.EditProfileMsg{
			UserID: id.UserID(),
			Update: update,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	})
}

// HandleFollow makes the caller follow the user in the path
func (s *Server) HandleFollow() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		targetID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		user, err := expect[*models.User](s.request(s.Engine.GetUserActor(), &actors.FollowUserMsg{
			UserID:   id.UserID(),
			TargetID: targetID,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	})
}

func (s *Server) HandleUnfollow() http.HandlerFunc {
	return s.Auth.Required(func(w http.ResponseWriter, r *http.Request, id *auth.Identity) {
		targetID, err := pathID(r, "id")
		if err != nil {
			s.writeError(w, err)
			return
		}

		user, err := expect[*models.User](s.request(s.Engine.GetUserActor(), &actors.UnfollowUserMsg{
			UserID:   id.UserID(),
			TargetID: targetID,
		}))
		if err != nil {
			s.writeError(w, err)
			return
		}
		api.WriteJSON(w, http.StatusOK, user)
	})
}
