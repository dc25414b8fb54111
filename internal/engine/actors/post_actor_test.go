package actors

import (
	"testing"

	"before-after/internal/api"
	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func (e *testEnv) createPost(t *testing.T, owner *models.User, title string, private bool) *models.Post {
	t.Helper()
	result := e.request(t, e.posts, &CreatePostMsg{
		Owner:       owner,
		Title:       title,
		Description: "three months of work",
		BeforeImg:   "before.jpg",
		AfterImg:    "after.jpg",
		Private:     private,
	})
	post, ok := result.(*models.Post)
	require.True(t, ok, "unexpected response %T: %v", result, result)
	return post
}

func (e *testEnv) feed(t *testing.T, msg *GetFeedMsg) *api.FeedResponse {
	t.Helper()
	result := e.request(t, e.posts, msg)
	feed, ok := result.(*api.FeedResponse)
	require.True(t, ok, "unexpected response %T: %v", result, result)
	return feed
}

func postIDs(posts []*models.Post) []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User

	post := env.createPost(t, alice, "garden", false)
	assert.Equal(t, models.DefaultCategory, post.Category)
	assert.Equal(t, alice.ID, post.Creator)
	assert.Equal(t, "alice", post.CreatorUsername)
	assert.Empty(t, post.BeforeVotes)
	assert.Empty(t, post.AfterVotes)

	bad := env.request(t, env.posts, &CreatePostMsg{Owner: alice, Title: "x", Category: "cars"})
	requireAppError(t, bad, utils.ErrInvalidInput)
}

func TestGetPostVisibility(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User
	bob := env.register(t, "bob").User
	secret := env.createPost(t, alice, "secret", true)

	result := env.request(t, env.posts, &GetPostMsg{PostID: secret.ID, Viewer: &alice.ID})
	_, ok := result.(*models.Post)
	assert.True(t, ok)

	requireAppError(t, env.request(t, env.posts, &GetPostMsg{PostID: secret.ID, Viewer: &bob.ID}), utils.ErrPostNotFound)
	requireAppError(t, env.request(t, env.posts, &GetPostMsg{PostID: secret.ID}), utils.ErrPostNotFound)
	requireAppError(t, env.request(t, env.posts, &GetPostMsg{PostID: primitive.NewObjectID()}), utils.ErrPostNotFound)
}

func TestFeeds(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User
	bob := env.register(t, "bob").User
	carol := env.register(t, "carol").User

	public := env.createPost(t, alice, "public", false)
	private := env.createPost(t, alice, "private", true)
	bobs := env.createPost(t, bob, "bob", false)
	carols := env.createPost(t, carol, "carol", false)

	// Anonymous global feed: public posts only, newest first, paged by 2.
	first := env.feed(t, &GetFeedMsg{Kind: FeedAll, Page: 1})
	assert.Equal(t, []primitive.ObjectID{carols.ID, bobs.ID}, postIDs(first.Posts))
	assert.Equal(t, 1, first.Page)
	assert.Equal(t, testSettings.PageSize, first.Limit)
	second := env.feed(t, &GetFeedMsg{Kind: FeedAll, Page: 2})
	assert.Equal(t, []primitive.ObjectID{public.ID}, postIDs(second.Posts))

	// Personal feed includes private posts.
	personal := env.feed(t, &GetFeedMsg{Kind: FeedPersonal, Viewer: alice})
	assert.Equal(t, []primitive.ObjectID{private.ID, public.ID}, postIDs(personal.Posts))
	requireAppError(t, env.request(t, env.posts, &GetFeedMsg{Kind: FeedPersonal}), utils.ErrUnauthorized)

	// Another user's posts as seen by bob.
	byUser := env.feed(t, &GetFeedMsg{Kind: FeedUser, Viewer: bob, Creator: alice.ID})
	assert.Equal(t, []primitive.ObjectID{public.ID}, postIDs(byUser.Posts))

	// Following feed.
	requireAppError(t, env.request(t, env.posts, &GetFeedMsg{Kind: FeedAll, FollowingOnly: true}), utils.ErrUnauthorized)
	follower := *alice
	follower.Following = []primitive.ObjectID{bob.ID}
	following := env.feed(t, &GetFeedMsg{Kind: FeedAll, Viewer: &follower, FollowingOnly: true})
	assert.Equal(t, []primitive.ObjectID{bobs.ID}, postIDs(following.Posts))
	lonely := env.feed(t, &GetFeedMsg{Kind: FeedAll, Viewer: carol, FollowingOnly: true})
	assert.Empty(t, lonely.Posts)

	// Category feed.
	home := env.feed(t, &GetFeedMsg{Kind: FeedCategory, Category: models.CategoryHome})
	assert.Empty(t, home.Posts)
	ent := env.feed(t, &GetFeedMsg{Kind: FeedCategory, Category: models.CategoryEntertainment, Page: 2})
	assert.Equal(t, []primitive.ObjectID{public.ID}, postIDs(ent.Posts))
	requireAppError(t, env.request(t, env.posts, &GetFeedMsg{Kind: FeedCategory, Category: "cars"}), utils.ErrNotFound)
}

func TestUpdateAndDeletePost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User
	bob := env.register(t, "bob").User
	post := env.createPost(t, alice, "garden", false)

	title := "hijacked"
	requireAppError(t, env.request(t, env.posts, &UpdatePostMsg{
		PostID: post.ID, UserID: bob.ID, Update: models.PostUpdate{Title: &title},
	}), utils.ErrPostNotFound)
	requireAppError(t, env.request(t, env.posts, &DeletePostMsg{PostID: post.ID, UserID: bob.ID}), utils.ErrPostNotFound)

	result := env.request(t, env.posts, &GetPostMsg{PostID: post.ID})
	assert.Equal(t, "garden", result.(*models.Post).Title)

	title = "backyard"
	result = env.request(t, env.posts, &UpdatePostMsg{PostID: post.ID, UserID: alice.ID, Update: models.PostUpdate{Title: &title}})
	assert.Equal(t, "backyard", result.(*models.Post).Title)

	requireAppError(t, env.request(t, env.posts, &UpdatePostMsg{PostID: post.ID, UserID: alice.ID}), utils.ErrInvalidInput)

	result = env.request(t, env.posts, &DeletePostMsg{PostID: post.ID, UserID: alice.ID})
	assert.Equal(t, post.ID, result.(*models.Post).ID)
	requireAppError(t, env.request(t, env.posts, &GetPostMsg{PostID: post.ID}), utils.ErrPostNotFound)

	assert.Equal(t, []models.PostEventType{models.EventPostUpdated, models.EventPostDeleted}, env.events.types())
}

func TestVotePost(t *testing.T) {
	env := newTestEnv(t)
	alice := env.register(t, "alice").User
	bob := env.register(t, "bob").User
	post := env.createPost(t, alice, "garden", false)

	var voted *models.Post
	for i := 0; i < 2; i++ {
		result := env.request(t, env.posts, &VotePostMsg{PostID: post.ID, UserID: bob.ID, Side: models.VoteBefore})
		voted = result.(*models.Post)
	}
	assert.Equal(t, []primitive.ObjectID{bob.ID}, voted.BeforeVotes)
	assert.Empty(t, voted.AfterVotes)

	result := env.request(t, env.posts, &VotePostMsg{PostID: post.ID, UserID: bob.ID, Side: models.VoteAfter})
	voted = result.(*models.Post)
	assert.Empty(t, voted.BeforeVotes)
	assert.Equal(t, []primitive.ObjectID{bob.ID}, voted.AfterVotes)

	secret := env.createPost(t, alice, "secret", true)
	requireAppError(t, env.request(t, env.posts, &VotePostMsg{PostID: secret.ID, UserID: bob.ID, Side: models.VoteAfter}), utils.ErrPostNotFound)

	assert.Equal(t, []models.PostEventType{models.EventPostVoted, models.EventPostVoted, models.EventPostVoted}, env.events.types())
	count := env.request(t, env.posts, &GetCountsMsg{})
	assert.EqualValues(t, 2, count)
}
