package database

import (
	"context"
	"testing"
	"time"

	"before-after/internal/models"
	"before-after/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func mockDB(mt *mtest.T) *MongoDB {
	return &MongoDB{Client: mt.Client, Users: mt.Coll, Posts: mt.Coll}
}

func namespace(mt *mtest.T) string {
	return mt.DB.Name() + "." + mt.Coll.Name()
}

func postDoc(id, owner primitive.ObjectID, extra ...bson.E) bson.D {
	doc := bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: "kitchen"},
		{Key: "_creator", Value: owner},
		{Key: "date", Value: time.Now()},
		{Key: "private", Value: false},
	}
	return append(doc, extra...)
}

func TestMongoDB_Users(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{ID: primitive.NewObjectID(), Username: "alice", Email: "alice@example.com"}
		require.NoError(t, mockDB(mt).CreateUser(context.Background(), u))
		assert.Equal(t, models.RoleUser, u.Role)
		assert.NotNil(t, u.Tokens)
	})

	mt.Run("duplicate user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := mockDB(mt).CreateUser(context.Background(), &models.User{ID: primitive.NewObjectID(), Username: "alice"})
		assert.True(t, utils.IsErrorCode(err, utils.ErrUserAlreadyExists))
	})

	mt.Run("user not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch))

		_, err := mockDB(mt).GetUser(context.Background(), primitive.NewObjectID())
		assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))
	})

	mt.Run("get user by token", func(mt *mtest.T) {
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "username", Value: "alice"},
			{Key: "tokens", Value: bson.A{"tok"}},
		}))

		u, err := mockDB(mt).GetUserByToken(context.Background(), id, "tok")
		require.NoError(t, err)
		assert.Equal(t, "alice", u.Username)
		assert.Equal(t, []string{"tok"}, u.Tokens)
		assert.NotNil(t, u.Followers)
	})

	mt.Run("token on missing user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := mockDB(mt).AddUserToken(context.Background(), primitive.NewObjectID(), "tok")
		assert.True(t, utils.IsErrorCode(err, utils.ErrUserNotFound))
	})

	mt.Run("empty profile update", func(mt *mtest.T) {
		_, err := mockDB(mt).UpdateUserProfile(context.Background(), primitive.NewObjectID(), models.ProfileUpdate{})
		assert.True(t, utils.IsErrorCode(err, utils.ErrInvalidInput))
	})

	mt.Run("follow returns updated user", func(mt *mtest.T) {
		id, target := primitive.NewObjectID(), primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "following", Value: bson.A{target}},
		}}))

		u, err := mockDB(mt).AddFollowing(context.Background(), id, target)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{target}, u.Following)
	})
}

func TestMongoDB_CastVote(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	postID, owner, voter := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("first vote", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: postDoc(postID, owner,
			bson.E{Key: "before_votes", Value: bson.A{voter}},
		)}))

		post, err := mockDB(mt).CastVote(context.Background(), postID, voter, models.VoteBefore)
		require.NoError(t, err)
		assert.Equal(t, []primitive.ObjectID{voter}, post.BeforeVotes)
		assert.Empty(t, post.AfterVotes)
	})

	mt.Run("change of mind", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: postDoc(postID, owner,
				bson.E{Key: "after_votes", Value: bson.A{voter}},
			)}),
		)

		post, err := mockDB(mt).CastVote(context.Background(), postID, voter, models.VoteAfter)
		require.NoError(t, err)
		assert.Empty(t, post.BeforeVotes)
		assert.Equal(t, []primitive.ObjectID{voter}, post.AfterVotes)
	})

	mt.Run("repeat vote is a no-op", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, postDoc(postID, owner,
				bson.E{Key: "before_votes", Value: bson.A{voter}},
			)),
		)

		post, err := mockDB(mt).CastVote(context.Background(), postID, voter, models.VoteBefore)
		require.NoError(t, err)
		assert.Len(t, post.BeforeVotes, 1)
	})

	mt.Run("missing post", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch),
		)

		_, err := mockDB(mt).CastVote(context.Background(), postID, voter, models.VoteBefore)
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	})
}

func TestMongoDB_Posts(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	postID, owner := primitive.NewObjectID(), primitive.NewObjectID()

	mt.Run("find posts", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch,
			postDoc(primitive.NewObjectID(), owner),
			postDoc(primitive.NewObjectID(), owner),
		))

		posts, err := mockDB(mt).FindPosts(context.Background(), PostQuery{Limit: 20})
		require.NoError(t, err)
		require.Len(t, posts, 2)
		assert.Equal(t, models.DefaultCategory, posts[0].Category)
		assert.NotNil(t, posts[0].Comments)
	})

	mt.Run("delete by non-owner", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		_, err := mockDB(mt).DeletePost(context.Background(), postID, primitive.NewObjectID())
		assert.True(t, utils.IsErrorCode(err, utils.ErrPostNotFound))
	})

	mt.Run("remove comment forbidden", func(mt *mtest.T) {
		commentID := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, postDoc(postID, owner,
				bson.E{Key: "comments", Value: bson.A{bson.D{
					{Key: "_id", Value: commentID},
					{Key: "_author", Value: primitive.NewObjectID()},
					{Key: "text", Value: "nice"},
				}}},
			)),
		)

		_, err := mockDB(mt).RemoveComment(context.Background(), postID, commentID, primitive.NewObjectID())
		assert.True(t, utils.IsErrorCode(err, utils.ErrForbidden))
	})

	mt.Run("remove missing comment", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateCursorResponse(0, namespace(mt), mtest.FirstBatch, postDoc(postID, owner)),
		)

		_, err := mockDB(mt).RemoveComment(context.Background(), postID, primitive.NewObjectID(), owner)
		assert.True(t, utils.IsErrorCode(err, utils.ErrCommentNotFound))
	})
}

func TestPostQuery_Filter(t *testing.T) {
	viewer := primitive.NewObjectID()

	assert.Equal(t, bson.M{"private": false}, PostQuery{}.Filter())

	f := PostQuery{Viewer: &viewer, Category: models.CategoryFood}.Filter()
	assert.Equal(t, models.CategoryFood, f["category"])
	assert.Equal(t, bson.A{
		bson.M{"private": false},
		bson.M{"_creator": viewer},
	}, f["$or"])

	f = PostQuery{ByCreators: true, IncludePrivate: true}.Filter()
	assert.Equal(t, bson.M{"_creator": bson.M{"$in": []primitive.ObjectID{}}}, f)

	f = PostQuery{Creator: &viewer, IncludePrivate: true}.Filter()
	assert.Equal(t, bson.M{"_creator": viewer}, f)
}

func TestPostQuery_MatchesMirrorsFilter(t *testing.T) {
	alice, bob := primitive.NewObjectID(), primitive.NewObjectID()
	private := &models.Post{Creator: alice, Private: true, Category: models.CategoryArt}

	assert.False(t, PostQuery{}.Matches(private))
	assert.False(t, PostQuery{Viewer: &bob}.Matches(private))
	assert.True(t, PostQuery{Viewer: &alice}.Matches(private))
	assert.True(t, PostQuery{IncludePrivate: true}.Matches(private))
	assert.False(t, PostQuery{Viewer: &alice, Category: models.CategoryFood}.Matches(private))
	assert.False(t, PostQuery{Viewer: &alice, ByCreators: true, Creators: []primitive.ObjectID{bob}}.Matches(private))
	assert.True(t, PostQuery{Viewer: &alice, ByCreators: true, Creators: []primitive.ObjectID{alice}}.Matches(private))
}
