package engine

import (
	"testing"
	"time"

	"before-after/internal/api"
	"before-after/internal/auth"
	"before-after/internal/database"
	"before-after/internal/engine/actors"
	"before-after/internal/utils"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnginePools(t *testing.T) {
	system := actor.NewActorSystem()
	defer system.Shutdown()

	e := NewEngine(system, Options{
		Store:    database.NewMemoryStore(),
		Tokens:   auth.NewTokenManager("secret"),
		Metrics:  utils.NewMetricsCollector(),
		PoolSize: 3,
		Settings: actors.Settings{DBTimeout: time.Second, PageSize: 20, SuggestionSize: 10},
	})

	// Every worker in the pool sees the same store.
	for _, name := range []string{"a", "b", "c", "d"} {
		result, err := system.Root.RequestFuture(e.GetUserActor(), &actors.RegisterUserMsg{
			Username: name,
			Email:    name + "@example.com",
			Password: "pw",
		}, 5*time.Second).Result()
		require.NoError(t, err)
		_, ok := result.(*api.AuthResponse)
		require.True(t, ok, "unexpected response %T", result)
	}

	users, err := system.Root.RequestFuture(e.GetUserActor(), &actors.GetCountsMsg{}, time.Second).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 4, users)

	posts, err := system.Root.RequestFuture(e.GetPostActor(), &actors.GetCountsMsg{}, time.Second).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 0, posts)

	feed, err := system.Root.RequestFuture(e.GetPostActor(), &actors.GetFeedMsg{Kind: actors.FeedAll}, time.Second).Result()
	require.NoError(t, err)
	assert.Empty(t, feed.(*api.FeedResponse).Posts)

	assert.NotNil(t, e.GetCommentActor())
	e.Stop()
}
