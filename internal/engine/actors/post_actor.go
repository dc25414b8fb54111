package actors

import (
	stdctx "context"
	"log/slog"
	"time"

	"before-after/internal/api"
	"before-after/internal/database"
	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type FeedKind int

const (
	// FeedAll is the global feed.
	FeedAll FeedKind = iota
	// FeedPersonal is the viewer's own posts, private ones included.
	FeedPersonal
	// FeedCategory is the global feed restricted to one category.
	FeedCategory
	// FeedUser is one creator's posts as the viewer may see them.
	FeedUser
)

// Message types for Post operations
type (
	CreatePostMsg struct {
		Owner       *models.User
		Title       string
		Description string
		Category    models.Category
		BeforeImg   string
		AfterImg    string
		Private     bool
	}

	GetPostMsg struct {
		PostID primitive.ObjectID
		Viewer *primitive.ObjectID
	}

	// GetFeedMsg selects one feed page. Viewer is nil for anonymous callers.
	// FollowingOnly narrows FeedAll and FeedCategory to the creators the
	// viewer follows.
	GetFeedMsg struct {
		Kind          FeedKind
		Viewer        *models.User
		Creator       primitive.ObjectID
		Category      models.Category
		FollowingOnly bool
		Page          int
	}

	UpdatePostMsg struct {
		PostID primitive.ObjectID
		UserID primitive.ObjectID
		Update models.PostUpdate
	}

	DeletePostMsg struct {
		PostID primitive.ObjectID
		UserID primitive.ObjectID
	}

	VotePostMsg struct {
		PostID primitive.ObjectID
		UserID primitive.ObjectID
		Side   models.VoteSide
	}
)

// EventPublisher receives post changes for live delivery.
type EventPublisher interface {
	PublishPostEvent(event models.PostEvent)
}

// postService is the state shared by the actors that work on posts.
type postService struct {
	store    database.Store
	events   EventPublisher
	metrics  *utils.MetricsCollector
	settings Settings
}

// PostActor owns posts and votes. Like UserActor it is stateless and runs
// behind a router pool.
type PostActor struct {
	postService
}

func NewPostActor(store database.Store, events EventPublisher, metrics *utils.MetricsCollector, settings Settings) actor.Actor {
	return &PostActor{postService{
		store:    store,
		events:   events,
		metrics:  metrics,
		settings: settings,
	}}
}

func (a *PostActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		slog.Debug("PostActor started", "pid", context.Self().Id)
	case *actor.Stopping:
		slog.Debug("PostActor stopping", "pid", context.Self().Id)
	case *CreatePostMsg:
		a.handleCreatePost(context, msg)
	case *GetPostMsg:
		a.handleGetPost(context, msg)
	case *GetFeedMsg:
		a.handleGetFeed(context, msg)
	case *UpdatePostMsg:
		a.handleUpdatePost(context, msg)
	case *DeletePostMsg:
		a.handleDeletePost(context, msg)
	case *VotePostMsg:
		a.handleVote(context, msg)
	case *GetCountsMsg:
		ctx, cancel := a.dbContext()
		defer cancel()
		n, err := a.store.CountPosts(ctx)
		respond(context, n, err)
	case *actor.Stopped, *actor.Restarting:
	default:
		slog.Warn("PostActor: unknown message type", "type", msgType(msg))
	}
}

func (a *postService) dbContext() (stdctx.Context, stdctx.CancelFunc) {
	return stdctx.WithTimeout(stdctx.Background(), a.settings.DBTimeout)
}

func (a *postService) publish(eventType models.PostEventType, post *models.Post) {
	if a.events == nil || post == nil {
		return
	}
	a.events.PublishPostEvent(models.NewPostEvent(eventType, post))
}

func (a *PostActor) handleCreatePost(context actor.Context, msg *CreatePostMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	category := msg.Category
	if category == "" {
		category = models.DefaultCategory
	}
	if !category.Valid() {
		respond(context, nil, utils.NewInvalidInputError("Unknown category: "+string(category)))
		return
	}

	post := &models.Post{
		ID:              primitive.NewObjectID(),
		Title:           msg.Title,
		Description:     msg.Description,
		Category:        category,
		BeforeImg:       msg.BeforeImg,
		AfterImg:        msg.AfterImg,
		CreatedAt:       time.Now().UTC(),
		Creator:         msg.Owner.ID,
		CreatorUsername: msg.Owner.Username,
		Private:         msg.Private,
	}
	if err := a.store.CreatePost(ctx, post); err != nil {
		respond(context, nil, err)
		return
	}

	slog.Debug("post created", "post", post.ID.Hex(), "owner", post.Creator.Hex(), "private", post.Private)
	a.metrics.AddOperationLatency("create_post", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleGetPost(context actor.Context, msg *GetPostMsg) {
	ctx, cancel := a.dbContext()
	defer cancel()

	post, err := a.visiblePost(ctx, msg.PostID, msg.Viewer)
	respond(context, post, err)
}

// visiblePost loads a post and hides private posts from everyone but the
// owner behind a not-found error.
func (a *postService) visiblePost(ctx stdctx.Context, postID primitive.ObjectID, viewer *primitive.ObjectID) (*models.Post, error) {
	post, err := a.store.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.VisibleTo(viewer) {
		return nil, utils.NewPostNotFoundError(postID.Hex())
	}
	return post, nil
}

func (a *PostActor) handleGetFeed(context actor.Context, msg *GetFeedMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	query, err := a.feedQuery(msg)
	if err != nil {
		respond(context, nil, err)
		return
	}
	posts, err := a.store.FindPosts(ctx, query)
	if err != nil {
		respond(context, nil, err)
		return
	}

	page, _ := pageWindow(msg.Page, a.settings.PageSize)
	a.metrics.AddOperationLatency("get_feed", time.Since(startTime))
	context.Respond(&api.FeedResponse{
		Posts: posts,
		Page:  page,
		Limit: a.settings.PageSize,
	})
}

func (a *PostActor) feedQuery(msg *GetFeedMsg) (database.PostQuery, error) {
	_, skip := pageWindow(msg.Page, a.settings.PageSize)
	query := database.PostQuery{
		Skip:  skip,
		Limit: a.settings.PageSize,
	}
	if msg.Viewer != nil {
		viewerID := msg.Viewer.ID
		query.Viewer = &viewerID
	}

	if msg.FollowingOnly && msg.Viewer == nil {
		return query, utils.NewUnauthorizedError("Sign in to see posts from people you follow")
	}

	switch msg.Kind {
	case FeedPersonal:
		if msg.Viewer == nil {
			return query, utils.NewUnauthorizedError("Sign in to see your posts")
		}
		query.Creator = query.Viewer
		query.IncludePrivate = true
	case FeedUser:
		creator := msg.Creator
		query.Creator = &creator
	case FeedCategory:
		if !msg.Category.Valid() {
			return query, utils.NewAppError(utils.ErrNotFound, "Unknown category: "+string(msg.Category), nil)
		}
		query.Category = msg.Category
	}

	if msg.FollowingOnly && (msg.Kind == FeedAll || msg.Kind == FeedCategory) {
		query.ByCreators = true
		query.Creators = msg.Viewer.Following
	}
	return query, nil
}

func (a *PostActor) handleUpdatePost(context actor.Context, msg *UpdatePostMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	post, err := a.store.UpdatePost(ctx, msg.PostID, msg.UserID, msg.Update)
	if err != nil {
		respond(context, nil, err)
		return
	}

	a.publish(models.EventPostUpdated, post)
	a.metrics.AddOperationLatency("update_post", time.Since(startTime))
	context.Respond(post)
}

func (a *PostActor) handleDeletePost(context actor.Context, msg *DeletePostMsg) {
	ctx, cancel := a.dbContext()
	defer cancel()

	post, err := a.store.DeletePost(ctx, msg.PostID, msg.UserID)
	if err != nil {
		respond(context, nil, err)
		return
	}

	slog.Info("post deleted", "post", post.ID.Hex(), "owner", msg.UserID.Hex())
	a.publish(models.EventPostDeleted, post)
	context.Respond(post)
}

func (a *PostActor) handleVote(context actor.Context, msg *VotePostMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	if _, err := a.visiblePost(ctx, msg.PostID, &msg.UserID); err != nil {
		respond(context, nil, err)
		return
	}
	post, err := a.store.CastVote(ctx, msg.PostID, msg.UserID, msg.Side)
	if err != nil {
		respond(context, nil, err)
		return
	}

	a.publish(models.EventPostVoted, post)
	a.metrics.AddOperationLatency("vote_post", time.Since(startTime))
	context.Respond(post)
}
