package handlers

import "net/http"

// Routes builds the request multiplexer. Path wildcards are matched with
// the most specific pattern winning, so /posts/personal never reaches
// /posts/{id}.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /users/register", s.HandleUserRegistration())
	mux.HandleFunc("POST /users/login", s.HandleUserLogin())
	mux.HandleFunc("DELETE /users/logout", s.HandleUserLogout())
	mux.HandleFunc("GET /users/verify", s.HandleVerifyToken())
	mux.HandleFunc("GET /users", s.HandleListUsers())
	mux.HandleFunc("POST /users/all", s.HandleSuggestUsers())
	mux.HandleFunc("GET /users/all", s.HandleSuggestUsers())
	mux.HandleFunc("GET /users/{id}", s.HandleGetUserProfile())
	mux.HandleFunc("PATCH /users/edit", s.HandleEditProfile())
	mux.HandleFunc("PATCH /users/follow/{id}", s.HandleFollow())
	mux.HandleFunc("PATCH /users/unfollow/{id}", s.HandleUnfollow())

	mux.HandleFunc("POST /posts", s.HandleCreatePost())
	mux.HandleFunc("POST /posts/personal", s.HandlePersonalFeed())
	mux.HandleFunc("GET /posts/personal", s.HandlePersonalFeed())
	mux.HandleFunc("POST /posts/all", s.HandleAllFeed())
	mux.HandleFunc("GET /posts/all", s.HandleAllFeed())
	mux.HandleFunc("POST /posts/category/{category}", s.HandleCategoryFeed())
	mux.HandleFunc("GET /posts/category/{category}", s.HandleCategoryFeed())
	mux.HandleFunc("GET /posts/user/{id}", s.HandleUserFeed())
	mux.HandleFunc("GET /posts/{id}", s.HandleGetPost())
	mux.HandleFunc("PATCH /posts/{id}", s.HandleUpdatePost())
	mux.HandleFunc("DELETE /posts/{id}", s.HandleDeletePost())
	mux.HandleFunc("PATCH /posts/vote/{side}/{id}", s.HandleVote())
	mux.HandleFunc("POST /posts/vote/{side}/{id}", s.HandleVote())
	mux.HandleFunc("POST /posts/comment/{id}", s.HandleCreateComment())
	mux.HandleFunc("DELETE /posts/comment/{post_id}/{comment_id}", s.HandleDeleteComment())

	mux.HandleFunc("GET /health", s.HandleHealth())
	mux.HandleFunc("GET /ws", s.HandleWebSocket())
	if s.MetricsEnabled && s.Metrics != nil {
		mux.Handle("GET /metrics", s.Metrics.Handler())
	}
	return mux
}
