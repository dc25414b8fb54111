package middleware

import (
	"context"
	"net/http"

	"before-after/internal/api"
	"before-after/internal/auth"
)

// AuthHandlerFunc is a handler that receives the resolved caller. For
// Optional routes id is nil when no token was presented.
type AuthHandlerFunc func(w http.ResponseWriter, r *http.Request, id *auth.Identity)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Identity, error)
}

// ErrorWriter renders a rejected request.
type ErrorWriter func(w http.ResponseWriter, err error)

// Auth adapts AuthHandlerFuncs to plain handlers, reading the token from a
// single request header. Rejections go through writeError so they are
// counted with every other failed request.
type Auth struct {
	authenticator Authenticator
	header        string
	writeError    ErrorWriter
}

// NewAuth falls back to api.WriteError when writeError is nil.
func NewAuth(authenticator Authenticator, header string, writeError ErrorWriter) *Auth {
	if writeError == nil {
		writeError = api.WriteError
	}
	return &Auth{authenticator: authenticator, header: header, writeError: writeError}
}

// Required rejects the request unless it carries an active token.
func (a *Auth) Required(next AuthHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := a.authenticator.Authenticate(r.Context(), r.Header.Get(a.header))
		if err != nil {
			a.writeError(w, err)
			return
		}
		next(w, r, id)
	}
}

// Optional serves anonymous requests with a nil identity but still rejects
// a token that is present and invalid.
func (a *Auth) Optional(next AuthHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(a.header)
		if token == "" {
			next(w, r, nil)
			return
		}
		id, err := a.authenticator.Authenticate(r.Context(), token)
		if err != nil {
			a.writeError(w, err)
			return
		}
		next(w, r, id)
	}
}
