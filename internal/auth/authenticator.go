package auth

import (
	"context"
	"log/slog"

	"before-after/internal/models"
	"before-after/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Identity is the resolved caller of an authenticated request.
type Identity struct {
	User  *models.User
	Token string
}

func (id *Identity) UserID() primitive.ObjectID {
	return id.User.ID
}

// TokenStore is the lookup the authenticator needs from storage.
type TokenStore interface {
	GetUserByToken(ctx context.Context, id primitive.ObjectID, token string) (*models.User, error)
}

// Authenticator resolves a presented token to the user holding it.
type Authenticator struct {
	tokens *TokenManager
	store  TokenStore
}

func NewAuthenticator(tokens *TokenManager, store TokenStore) *Authenticator {
	return &Authenticator{tokens: tokens, store: store}
}

// Authenticate returns INVALID_TOKEN for an empty or unverifiable token and
// UNAUTHORIZED when no user currently lists the token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Missing auth token", nil)
	}

	userID, err := a.tokens.Parse(token)
	if err != nil {
		return nil, utils.NewAppError(utils.ErrInvalidToken, "Invalid auth token", err)
	}

	user, err := a.store.GetUserByToken(ctx, userID, token)
	if err != nil {
		if utils.IsNotFound(err) {
			return nil, utils.NewUnauthorizedError("Token is not active")
		}
		slog.Error("token lookup failed", "user", userID.Hex(), "error", err)
		return nil, err
	}
	return &Identity{User: user, Token: token}, nil
}
