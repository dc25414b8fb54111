package actors

import (
	"log/slog"
	"time"

	"before-after/internal/database"
	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message types for CommentActor
type (
	CreateCommentMsg struct {
		PostID primitive.ObjectID
		Author *models.User
		Text   string
	}

	// DeleteCommentMsg is honoured for the comment's author and for the
	// owner of the post it sits on.
	DeleteCommentMsg struct {
		PostID    primitive.ObjectID
		CommentID primitive.ObjectID
		UserID    primitive.ObjectID
	}
)

// CommentActor manages the comment list embedded in each post.
type CommentActor struct {
	postService
}

func NewCommentActor(store database.Store, events EventPublisher, metrics *utils.MetricsCollector, settings Settings) actor.Actor {
	return &CommentActor{postService{
		store:    store,
		events:   events,
		metrics:  metrics,
		settings: settings,
	}}
}

func (a *CommentActor) Receive(context actor.Context) {
	switch msg := context.Message().(type) {
	case *actor.Started:
		slog.Debug("CommentActor started", "pid", context.Self().Id)
	case *actor.Stopping:
		slog.Debug("CommentActor stopping", "pid", context.Self().Id)
	case *CreateCommentMsg:
		a.handleCreateComment(context, msg)
	case *DeleteCommentMsg:
		a.handleDeleteComment(context, msg)
	case *actor.Stopped, *actor.Restarting:
	default:
		slog.Warn("CommentActor: unknown message type", "type", msgType(msg))
	}
}

func (a *CommentActor) handleCreateComment(context actor.Context, msg *CreateCommentMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	if _, err := a.visiblePost(ctx, msg.PostID, &msg.Author.ID); err != nil {
		respond(context, nil, err)
		return
	}

	comment := models.Comment{
		ID:             primitive.NewObjectID(),
		AuthorID:       msg.Author.ID,
		AuthorUsername: msg.Author.Username,
		Text:           msg.Text,
		CreatedAt:      time.Now().UTC(),
	}
	post, err := a.store.AddComment(ctx, msg.PostID, comment)
	if err != nil {
		respond(context, nil, err)
		return
	}

	a.publish(models.EventPostCommented, post)
	a.metrics.AddOperationLatency("create_comment", time.Since(startTime))
	context.Respond(post)
}

func (a *CommentActor) handleDeleteComment(context actor.Context, msg *DeleteCommentMsg) {
	startTime := time.Now()
	ctx, cancel := a.dbContext()
	defer cancel()

	post, err := a.store.RemoveComment(ctx, msg.PostID, msg.CommentID, msg.UserID)
	if err != nil {
		slog.Debug("comment delete rejected", "post", msg.PostID.Hex(), "comment", msg.CommentID.Hex(), "error", err)
		respond(context, nil, err)
		return
	}

	a.publish(models.EventCommentDeleted, post)
	a.metrics.AddOperationLatency("delete_comment", time.Since(startTime))
	context.Respond(post)
}
