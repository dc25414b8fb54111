package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"before-after/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func attach(t *testing.T, hub *Hub, userID primitive.ObjectID) *Client {
	t.Helper()
	client := &Client{Hub: hub, UserID: userID, Send: make(chan []byte, SendBufferSize)}
	require.True(t, hub.Attach(client))
	return client
}

func receive(t *testing.T, c *Client) models.PostEvent {
	t.Helper()
	select {
	case payload := <-c.Send:
		var event models.PostEvent
		require.NoError(t, json.Unmarshal(payload, &event))
		return event
	case <-time.After(time.Second):
		t.Fatal("no event received")
		return models.PostEvent{}
	}
}

func assertSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.Send:
		t.Fatalf("unexpected event: %s", payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_PublicEventsAreBroadcast(t *testing.T) {
	hub := startHub(t)
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	a := attach(t, hub, owner)
	b := attach(t, hub, other)

	post := &models.Post{ID: primitive.NewObjectID(), Creator: owner, BeforeVotes: []primitive.ObjectID{other}}
	hub.PublishPostEvent(models.NewPostEvent(models.EventPostVoted, post))

	for _, c := range []*Client{a, b} {
		event := receive(t, c)
		assert.Equal(t, models.EventPostVoted, event.Type)
		assert.Equal(t, post.ID, event.PostID)
		assert.Equal(t, []primitive.ObjectID{other}, event.BeforeVotes)
	}
}

func TestHub_PrivateEventsGoToOwner(t *testing.T) {
	hub := startHub(t)
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	a := attach(t, hub, owner)
	b := attach(t, hub, other)

	post := &models.Post{ID: primitive.NewObjectID(), Creator: owner, Private: true}
	hub.PublishPostEvent(models.NewPostEvent(models.EventPostCommented, post))

	assert.Equal(t, post.ID, receive(t, a).PostID)
	assertSilent(t, b)
}

func TestHub_DetachAndShutdown(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	a := attach(t, hub, primitive.NewObjectID())
	b := attach(t, hub, primitive.NewObjectID())
	assert.Eventually(t, func() bool { return hub.ConnectionCount() == 2 }, time.Second, 5*time.Millisecond)

	hub.Detach(a)
	_, open := <-a.Send
	assert.False(t, open)
	assert.Equal(t, 1, hub.ConnectionCount())

	cancel()
	<-stopped
	_, open = <-b.Send
	assert.False(t, open)

	// Nothing blocks once the hub is gone.
	hub.Detach(b)
	assert.False(t, hub.Attach(&Client{Hub: hub, Send: make(chan []byte, 1)}))
	hub.PublishPostEvent(models.NewPostEvent(models.EventPostDeleted, &models.Post{}))
}
