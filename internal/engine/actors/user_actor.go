package actors

import (
	stdctx "context"
	"log/slog"
	"math"
	"strings"
	"time"

	"before-after/internal/api"
	"before-after/internal/database"
	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// Message types for User operations
type (
	RegisterUserMsg struct {
		Username  string
		Email     string
		Password  string
		FirstName string
		LastName  string
	}

	LoginMsg struct {
		Email    string
		Password string
	}

	LogoutMsg struct {
		UserID primitive.ObjectID
		Token  string
	}

	GetUserProfileMsg struct {
		UserID primitive.ObjectID
	}

	EditProfileMsg struct {
		UserID primitive.ObjectID
		Update models.ProfileUpdate
	}

	FollowUserMsg struct {
		UserID   primitive.ObjectID
		TargetID primitive.ObjectID
	}

	UnfollowUserMsg struct {
		UserID   primitive.ObjectID
		TargetID primitive.ObjectID
	}

	// ListUsersMsg is the admin listing; Requester must hold the admin role.
	ListUsersMsg struct {
		Requester *models.User
		Page      int
	}

	SuggestUsersMsg struct {
		Exclude *primitive.ObjectID
	}

	GetCountsMsg struct{}
)

// Settings are the tunables shared by the service actors.
type Settings struct {
	DBTimeout      time.Duration
	PageSize       int
	SuggestionSize int
}

// TokenIssuer mints session tokens. *auth.TokenManager implements it.
type TokenIssuer interface {
	Generate(userID primitive.ObjectID) (string, error)
}

// UserActor owns registration, credentials and the follow graph. It keeps
// no state of its own, so any number of them can run behind a router.
type UserActor struct {
	store    database.Store
	tokens   TokenIssuer
	metrics  *utils.MetricsCollector
	settings Settings
}

func NewUserActor(store database.Store, tokens TokenIssuer, metrics *utils.MetricsCollector, settings Settings) actor.Actor {
	return &UserActor{
		store:    store,
		tokens:   tokens,
		metrics:  metrics,
		settings: settings,
	}
}

func (a *UserActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		slog.Debug("UserActor started", "pid", context.Self().Id)
	case *actor.Stopping:
		slog.Debug("UserActor stopping", "pid", context.Self().Id)
	case *RegisterUserMsg:
		a.handleRegister(context, msg)
	case *LoginMsg:
		a.handleLogin(context, msg)
	case *LogoutMsg:
		a.handleLogout(context, msg)
	case *GetUserProfileMsg:
		a.handleGetProfile(context, msg)
	case *EditProfileMsg:
		a.handleEditProfile(context, msg)
	case *FollowUserMsg:
		a.handleFollow(context, msg)
	case *UnfollowUserMsg:
		a.handleUnfollow(context, msg)
	case *ListUsersMsg:
		a.handleListUsers(context, msg)
	case *SuggestUsersMsg:
		a.handleSuggestUsers(context, msg)
	case *GetCountsMsg:
		ctx, cancel := a.dbContext()
		defer cancel()
		n, err := a.store.CountUsers(ctx)
		respond(context, n, err)
	case *actor.Stopped, *actor.Restarting:
	default:
		slog.Warn("UserActor: unknown message type", "type", msgType(msg))
	}
}

func (a *UserActor) dbContext() (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.Background(), a.settings.DBTimeout)
}

func (a *UserActor) handleRegister(context actor.Context, msg *RegisterUserMsg) {
	username := strings.TrimSpace(msg.Username)
	email := normalizeEmail(msg.Email)
	if username == "" || email == "" || msg.Password == "" {
		respond(context, nil, utils.NewInvalidInputError("username, email and password are required"))
		return
	}

	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	hashed, err := bcrypt.GenerateFromPassword([]byte(msg.Password), bcrypt.DefaultCost)
	if err != nil {
		respond(context, nil, utils.NewAppError(utils.ErrInvalidInput, "Unable to hash password", err))
		return
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Password:  string(hashed),
		FirstName: strings.TrimSpace(msg.FirstName),
		LastName:  strings.TrimSpace(msg.LastName),
		Role:      models.RoleUser,
		CreatedAt: time.Now().UTC(),
	}

	token, err := a.tokens.Generate(user.ID)
	if err != nil {
		respond(context, nil, utils.NewAppError(utils.ErrTokenIssue, "Unable to issue token", err))
		return
	}
	user.Tokens = []string{token}

	if err := a.store.CreateUser(ctx, user); err != nil {
		slog.Info("registration rejected", "username", user.Username, "error", err)
		respond(context, nil, err)
		return
	}

	slog.Info("user registered", "user", user.ID.Hex(), "username", user.Username)
	a.metrics.AddOperationLatency("register_user", time.Since(startTime))
	context.Respond(&api.AuthResponse{User: user, Token: token})
}

func (a *UserActor) handleLogin(context actor.Context, msg *LoginMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	badCredentials := utils.NewAppError(utils.ErrInvalidCredentials, "Invalid email or password", nil)

	user, err := a.store.GetUserByEmail(ctx, normalizeEmail(msg.Email))
	if err != nil {
		if utils.IsNotFound(err) {
			respond(context, nil, badCredentials)
			return
		}
		respond(context, nil, err)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(msg.Password)); err != nil {
		slog.Debug("login password mismatch", "user", user.ID.Hex())
		respond(context, nil, badCredentials)
		return
	}

	token, err := a.tokens.Generate(user.ID)
	if err != nil {
		respond(context, nil, utils.NewAppError(utils.ErrTokenIssue, "Unable to issue token", err))
		return
	}
	if err := a.store.AddUserToken(ctx, user.ID, token); err != nil {
		respond(context, nil, err)
		return
	}
	user.Tokens = append(user.Tokens, token)

	a.metrics.AddOperationLatency("login", time.Since(startTime))
	context.Respond(&api.AuthResponse{User: user, Token: token})
}

func (a *UserActor) handleLogout(context actor.Context, msg *LogoutMsg) {
	ctx, cancel := a.dbContext()
	defer cancel()

	if err := a.store.RemoveUserToken(ctx, msg.UserID, msg.Token); err != nil {
		slog.Error("logout failed", "user", msg.UserID.Hex(), "error", err)
		respond(context, nil, utils.NewAppError(utils.ErrDatabase, "Unable to log out", err))
		return
	}
	context.Respond(true)
}

func (a *UserActor) handleGetProfile(context actor.Context, msg *GetUserProfileMsg) {
	ctx, cancel := a.dbContext()
	defer cancel()

	user, err := a.store.GetUser(ctx, msg.UserID)
	respond(context, user, err)
}

func (a *UserActor) handleEditProfile(context actor.Context, msg *EditProfileMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	user, err := a.store.UpdateUserProfile(ctx, msg.UserID, msg.Update)
	if err == nil {
		a.metrics.AddOperationLatency("edit_profile", time.Since(startTime))
	}
	respond(context, user, err)
}

// handleFollow updates the target's followers before the caller's following
// list. The two writes are independent; a failure between them leaves the
// edge recorded on the target only.
func (a *UserActor) handleFollow(context actor.Context, msg *FollowUserMsg) {
	if msg.UserID == msg.TargetID {
		respond(context, nil, utils.NewAppError(utils.ErrSelfFollow, "You cannot follow yourself", nil))
		return
	}
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	if err := a.store.AddFollower(ctx, msg.TargetID, msg.UserID); err != nil {
		respond(context, nil, err)
		return
	}
	user, err := a.store.AddFollowing(ctx, msg.UserID, msg.TargetID)
	if err != nil {
		slog.Error("follow left one-sided", "user", msg.UserID.Hex(), "target", msg.TargetID.Hex(), "error", err)
		respond(context, nil, err)
		return
	}

	a.metrics.AddOperationLatency("follow", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleUnfollow(context actor.Context, msg *UnfollowUserMsg) {
	if msg.UserID == msg.TargetID {
		respond(context, nil, utils.NewAppError(utils.ErrSelfFollow, "You cannot unfollow yourself", nil))
		return
	}
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	if err := a.store.RemoveFollower(ctx, msg.TargetID, msg.UserID); err != nil {
		respond(context, nil, err)
		return
	}
	user, err := a.store.RemoveFollowing(ctx, msg.UserID, msg.TargetID)
	if err != nil {
		slog.Error("unfollow left one-sided", "user", msg.UserID.Hex(), "target", msg.TargetID.Hex(), "error", err)
		respond(context, nil, err)
		return
	}

	a.metrics.AddOperationLatency("unfollow", time.Since(startTime))
	context.Respond(user)
}

func (a *UserActor) handleListUsers(context actor.Context, msg *ListUsersMsg) {
	if msg.Requester == nil || !msg.Requester.IsAdmin() {
		respond(context, nil, utils.NewAppError(utils.ErrForbidden, "Admin access required", nil))
		return
	}
	ctx, cancel := a.dbContext()
	defer cancel()

	_, skip := pageWindow(msg.Page, a.settings.PageSize)
	users, err := a.store.ListUsers(ctx, skip, a.settings.PageSize)
	respond(context, users, err)
}

func (a *UserActor) handleSuggestUsers(context actor.Context, msg *SuggestUsersMsg) {
	ctx, cancel := a.dbContext()
	defer cancel()

	profiles, err := a.store.SampleUsers(ctx, msg.Exclude, a.settings.SuggestionSize)
	respond(context, profiles, err)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// pageWindow returns the 1-based page and the number of records before it.
// Pages past the addressable range are clamped so the skip cannot overflow.
func pageWindow(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		return page, 0
	}
	if last := math.MaxInt32/size + 1; page > last {
		page = last
	}
	return page, (page - 1) * size
}
