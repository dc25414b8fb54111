package engine

import (
	"before-after/internal/auth"
	"before-after/internal/database"
	"before-after/internal/engine/actors"
	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/router"
)

// Engine spawns the service actors and hands out their PIDs. Each service is
// a round-robin pool of stateless workers, so requests for different users
// and posts are served in parallel while all consistency comes from the
// store's single-document updates.
type Engine struct {
	system       *actor.ActorSystem
	userActor    *actor.PID
	postActor    *actor.PID
	commentActor *actor.PID
}

type Options struct {
	Store    database.Store
	Tokens   *auth.TokenManager
	Events   actors.EventPublisher
	Metrics  *utils.MetricsCollector
	PoolSize int
	Settings actors.Settings
}

func NewEngine(system *actor.ActorSystem, opts Options) *Engine {
	context := system.Root
	size := opts.PoolSize
	if size < 1 {
		size = 1
	}

	userProps := router.NewRoundRobinPool(size, actor.WithProducer(func() actor.Actor {
		return actors.NewUserActor(opts.Store, opts.Tokens, opts.Metrics, opts.Settings)
	}))
	postProps := router.NewRoundRobinPool(size, actor.WithProducer(func() actor.Actor {
		return actors.NewPostActor(opts.Store, opts.Events, opts.Metrics, opts.Settings)
	}))
	commentProps := router.NewRoundRobinPool(size, actor.WithProducer(func() actor.Actor {
		return actors.NewCommentActor(opts.Store, opts.Events, opts.Metrics, opts.Settings)
	}))

	return &Engine{
		system:       system,
		userActor:    context.Spawn(userProps),
		postActor:    context.Spawn(postProps),
		commentActor: context.Spawn(commentProps),
	}
}

// GetUserActor returns the PID of the user actor pool
func (e *Engine) GetUserActor() *actor.PID {
	return e.userActor
}

// GetPostActor returns the PID of the post actor pool
func (e *Engine) GetPostActor() *actor.PID {
	return e.postActor
}

// GetCommentActor returns the PID of the comment actor pool
func (e *Engine) GetCommentActor() *actor.PID {
	return e.commentActor
}

// Stop stops every pool and waits for the workers to finish their mailboxes.
func (e *Engine) Stop() {
	for _, pid := range []*actor.PID{e.userActor, e.postActor, e.commentActor} {
		_ = e.system.Root.PoisonFuture(pid).Wait()
	}
}
