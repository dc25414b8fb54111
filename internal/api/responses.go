package api

import "before-after/internal/models"

// AuthResponse is returned by register and login.
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// FeedResponse is one page of a post feed.
type FeedResponse struct {
	Posts []*models.Post `json:"posts"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type HealthResponse struct {
	Status     string `json:"status"`
	Users      int64  `json:"users"`
	Posts      int64  `json:"posts"`
	Uptime     string `json:"uptime"`
	ServerTime string `json:"serverTime"`
}
