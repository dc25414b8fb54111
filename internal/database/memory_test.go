package database

import (
	"context"
	"testing"
	"time"

	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newTestUser(t *testing.T, store Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     username + "@example.com",
		Password:  "hash",
		CreatedAt: time.Now(),
	}
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func newTestPost(t *testing.T, store Store, owner *models.User, private bool, at time.Time) *models.Post {
	t.Helper()
	p := &models.Post{
		ID:              primitive.NewObjectID(),
		Title:           "kitchen",
		Description:     "new tiles",
		Category:        models.CategoryHome,
		BeforeImg:       "b.jpg",
		AfterImg:        "a.jpg",
		CreatedAt:       at,
		Creator:         owner.ID,
		CreatorUsername: owner.Username,
		Private:         private,
	}
	require.NoError(t, store.CreatePost(context.Background(), p))
	return p
}

func TestMemoryStore_CreateUserRejectsDuplicates(t *testing.T) {
	store := NewMemoryStore()
	newTestUser(t, store, "alice")

	err := store.CreateUser(context.Background(), &models.User{
		ID:       primitive.NewObjectID(),
		Username: "alice",
		Email:    "other@example.com",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

	err = store.CreateUser(context.Background(), &models.User{
		ID:       primitive.NewObjectID(),
		Username: "other",
		Email:    "alice@example.com",
	})
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))

	n, _ := store.CountUsers(context.Background())
	assert.EqualValues(t, 1, n)
}

func TestMemoryStore_Tokens(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u := newTestUser(t, store, "alice")

	require.NoError(t, store.AddUserToken(ctx, u.ID, "t1"))
	require.NoError(t, store.AddUserToken(ctx, u.ID, "t2"))
	require.NoError(t, store.AddUserToken(ctx, u.ID, "t2"))

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"t1", "t2"}, got.Tokens)

	require.NoError(t, store.RemoveUserToken(ctx, u.ID, "t1"))
	_, err = store.GetUserByToken(ctx, u.ID, "t1")
	assert.True(t, utils.IsNotFound(err))
	_, err = store.GetUserByToken(ctx, u.ID, "t2")
	assert.NoError(t, err)

	err = store.AddUserToken(ctx, primitive.NewObjectID(), "t3")
	assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u := newTestUser(t, store, "alice")

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	got.Followers = append(got.Followers, primitive.NewObjectID())
	got.Username = "mallory"

	again, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, again.Followers)
	assert.Equal(t, "alice", again.Username)
}

func TestMemoryStore_FollowSets(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")

	for i := 0; i < 2; i++ {
		require.NoError(t, store.AddFollower(ctx, bob.ID, alice.ID))
		updated, err := store.AddFollowing(ctx, alice.ID, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{bob.ID}, updated.Following)
	}

	gotBob, _ := store.GetUser(ctx, bob.ID)
	assert.Equal(t, []primitive.ObjectID{alice.ID}, gotBob.Followers)

	require.NoError(t, store.RemoveFollower(ctx, bob.ID, alice.ID))
	updated, err := store.RemoveFollowing(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.Following)

	gotBob, _ = store.GetUser(ctx, bob.ID)
	assert.Empty(t, gotBob.Followers)
}

func TestMemoryStore_UpdateUserProfile(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	u := newTestUser(t, store, "alice")

	bio := "gardener"
	updated, err := store.UpdateUserProfile(ctx, u.ID, models.ProfileUpdate{Bio: &bio})
	require.NoError(t, err)
	assert.Equal(t, "gardener", updated.Bio)
	assert.Equal(t, "alice", updated.Username)

	_, err = store.UpdateUserProfile(ctx, u.ID, models.ProfileUpdate{})
	assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
}

func TestMemoryStore_SampleUsersExcludesCaller(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := newTestUser(t, store, "alice")
	newTestUser(t, store, "bob")
	newTestUser(t, store, "carol")

	profiles, err := store.SampleUsers(ctx, &alice.ID, 10)
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
	for _, p := range profiles {
		assert.NotEqual(t, alice.ID, p.ID)
	}

	profiles, err = store.SampleUsers(ctx, nil, 1)
	require.NoError(t, err)
	assert.Len(t, profiles, 1)
}

func TestMemoryStore_CastVote(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := newTestUser(t, store, "owner")
	voter := newTestUser(t, store, "voter")
	post := newTestPost(t, store, owner, false, time.Now())

	got, err := store.CastVote(ctx, post.ID, voter.ID, models.VoteBefore)
	require.NoError(t, err)
	got, err = store.CastVote(ctx, post.ID, voter.ID, models.VoteBefore)
	require.NoError(t, err)
	assert.Len(t, got.BeforeVotes, 1)
	assert.Empty(t, got.AfterVotes)

	got, err = store.CastVote(ctx, post.ID, voter.ID, models.VoteAfter)
	require.NoError(t, err)
	assert.Empty(t, got.BeforeVotes)
	assert.Equal(t, []primitive.ObjectID{voter.ID}, got.AfterVotes)

	_, err = store.CastVote(ctx, primitive.NewObjectID(), voter.ID, models.VoteAfter)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
}

func TestMemoryStore_FindPostsVisibilityAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	alice := newTestUser(t, store, "alice")
	bob := newTestUser(t, store, "bob")

	base := time.Now().Add(-time.Hour)
	old := newTestPost(t, store, alice, false, base)
	secret := newTestPost(t, store, alice, true, base.Add(time.Minute))
	recent := newTestPost(t, store, bob, false, base.Add(2*time.Minute))

	anon, err := store.FindPosts(ctx, PostQuery{})
	require.NoError(t, err)
	require.Len(t, anon, 2)
	assert.Equal(t, recent.ID, anon[0].ID)
	assert.Equal(t, old.ID, anon[1].ID)

	own, err := store.FindPosts(ctx, PostQuery{Viewer: &alice.ID})
	require.NoError(t, err)
	require.Len(t, own, 3)
	assert.Equal(t, secret.ID, own[1].ID)

	other, err := store.FindPosts(ctx, PostQuery{Viewer: &bob.ID, Creator: &alice.ID})
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.Equal(t, old.ID, other[0].ID)

	paged, err := store.FindPosts(ctx, PostQuery{Viewer: &alice.ID, Skip: 1, Limit: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, secret.ID, paged[0].ID)

	clamped, err := store.FindPosts(ctx, PostQuery{Viewer: &alice.ID, Skip: -40, Limit: 1})
	require.NoError(t, err)
	require.Len(t, clamped, 1)
	assert.Equal(t, own[0].ID, clamped[0].ID)

	none, err := store.FindPosts(ctx, PostQuery{ByCreators: true})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStore_OwnerOnlyMutations(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := newTestUser(t, store, "owner")
	other := newTestUser(t, store, "other")
	post := newTestPost(t, store, owner, false, time.Now())

	title := "hijacked"
	_, err := store.UpdatePost(ctx, post.ID, other.ID, models.PostUpdate{Title: &title})
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	_, err = store.DeletePost(ctx, post.ID, other.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "kitchen", got.Title)

	title = "bathroom"
	updated, err := store.UpdatePost(ctx, post.ID, owner.ID, models.PostUpdate{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "bathroom", updated.Title)

	deleted, err := store.DeletePost(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, deleted.ID)
	_, err = store.GetPost(ctx, post.ID)
	assert.True(t, utils.IsNotFound(err))
}

func TestMemoryStore_Comments(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	owner := newTestUser(t, store, "owner")
	author := newTestUser(t, store, "author")
	stranger := newTestUser(t, store, "stranger")
	post := newTestPost(t, store, owner, false, time.Now())

	first := models.Comment{ID: primitive.NewObjectID(), AuthorID: author.ID, Text: "nice"}
	second := models.Comment{ID: primitive.NewObjectID(), AuthorID: author.ID, Text: "really"}
	_, err := store.AddComment(ctx, post.ID, first)
	require.NoError(t, err)
	got, err := store.AddComment(ctx, post.ID, second)
	require.NoError(t, err)
	require.Len(t, got.Comments, 2)
	assert.Equal(t, second.ID, got.Comments[0].ID)

	_, err = store.RemoveComment(ctx, post.ID, first.ID, stranger.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))

	_, err = store.RemoveComment(ctx, post.ID, primitive.NewObjectID(), owner.ID)
	assert.True(t, utils.IsErrorCode(err, utils.ErrCommentNotFound))

	got, err = store.RemoveComment(ctx, post.ID, first.ID, author.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 1)

	got, err = store.RemoveComment(ctx, post.ID, second.ID, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)
}
