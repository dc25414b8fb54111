package models

import "strings"

// Request bodies accepted by the HTTP API. Handlers call Normalize and then
// enforce the validation tags before anything reaches an actor.

// Normalizer is implemented by request bodies that clean their fields
// before validation.
type Normalizer interface {
	Normalize()
}

type RegisterRequest struct {
	Username  string `json:"username" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,max=72"`
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreatePostRequest struct {
	Title       string   `json:"title" validate:"required,max=200"`
	Description string   `json:"description" validate:"required,max=5000"`
	Category    Category `json:"category" validate:"omitempty,category"`
	BeforeImg   string   `json:"before_img" validate:"required,max=2048"`
	AfterImg    string   `json:"after_img" validate:"required,max=2048"`
	Private     bool     `json:"private"`
}

type CommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

func (r *CreatePostRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
	r.BeforeImg = strings.TrimSpace(r.BeforeImg)
	r.AfterImg = strings.TrimSpace(r.AfterImg)
}

func (r *CommentRequest) Normalize() {
	r.Text = strings.TrimSpace(r.Text)
}
