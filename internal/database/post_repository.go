// internal/database/post_repository.go
package database

import (
	"context"
	"errors"
	"fmt"

	"before-after/internal/models"
	"before-after/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CreatePost inserts a new post document.
func (m *MongoDB) CreatePost(ctx context.Context, post *models.Post) error {
	normalizePost(post)
	if _, err := m.Posts.InsertOne(ctx, post); err != nil {
		return utils.NewDatabaseError("Failed to save post", err)
	}
	return nil
}

// GetPost retrieves a post by its ID.
func (m *MongoDB) GetPost(ctx context.Context, id primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := m.Posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewPostNotFoundError(id.Hex())
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load post", err)
	}
	normalizePost(&post)
	return &post, nil
}

// FindPosts runs a feed query.
func (m *MongoDB) FindPosts(ctx context.Context, query PostQuery) ([]*models.Post, error) {
	cursor, err := m.Posts.Find(ctx, query.Filter(), query.FindOptions())
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to query posts", err)
	}
	defer cursor.Close(ctx)

	posts := make([]*models.Post, 0)
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, utils.NewDatabaseError("Failed to decode posts", err)
	}
	for _, p := range posts {
		normalizePost(p)
	}
	return posts, nil
}

// UpdatePost sets the allow-listed fields on a post owned by ownerID.
func (m *MongoDB) UpdatePost(ctx context.Context, id, ownerID primitive.ObjectID, update models.PostUpdate) (*models.Post, error) {
	if update.IsEmpty() {
		return nil, utils.NewInvalidInputError("No post fields to update")
	}
	post, err := m.findOneAndUpdatePost(ctx, bson.M{"_id": id, "_creator": ownerID}, bson.M{"$set": update})
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, utils.NewAppError(utils.ErrPostNotFound, "Unable to update that post", nil)
	}
	return post, nil
}

// DeletePost removes a post owned by ownerID and returns what was removed.
func (m *MongoDB) DeletePost(ctx context.Context, id, ownerID primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := m.Posts.FindOneAndDelete(ctx, bson.M{"_id": id, "_creator": ownerID}).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewAppError(utils.ErrPostNotFound, "Unable to delete that post", err)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to delete post", err)
	}
	normalizePost(&post)
	return &post, nil
}

// CastVote puts voterID into side's voter set while keeping it out of the
// opposite set. Every write is a single guarded document update:
//
//  1. first vote: add to side if absent from both sets
//  2. change of mind: move from the opposite set to side
//
// If neither guard matches the vote already stands and the post is
// returned unchanged.
func (m *MongoDB) CastVote(ctx context.Context, postID, voterID primitive.ObjectID, side models.VoteSide) (*models.Post, error) {
	field, opposite := side.Field(), side.Opposite().Field()

	post, err := m.findOneAndUpdatePost(ctx,
		bson.M{
			"_id":    postID,
			field:    bson.M{"$ne": voterID},
			opposite: bson.M{"$ne": voterID},
		},
		bson.M{"$addToSet": bson.M{field: voterID}},
	)
	if err != nil || post != nil {
		return post, err
	}

	post, err = m.findOneAndUpdatePost(ctx,
		bson.M{"_id": postID, opposite: voterID},
		bson.M{
			"$pull":     bson.M{opposite: voterID},
			"$addToSet": bson.M{field: voterID},
		},
	)
	if err != nil || post != nil {
		return post, err
	}

	return m.GetPost(ctx, postID)
}

func (m *MongoDB) CountPosts(ctx context.Context) (int64, error) {
	n, err := m.Posts.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}
	return n, nil
}

// findOneAndUpdatePost returns (nil, nil) when the filter matched nothing.
func (m *MongoDB) findOneAndUpdatePost(ctx context.Context, filter, update bson.M) (*models.Post, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post models.Post
	err := m.Posts.FindOneAndUpdate(ctx, filter, update, opts).Decode(&post)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to update post", err)
	}
	normalizePost(&post)
	return &post, nil
}

func normalizePost(p *models.Post) {
	if p.Comments == nil {
		p.Comments = []models.Comment{}
	}
	p.BeforeVotes = nonNilIDs(p.BeforeVotes)
	p.AfterVotes = nonNilIDs(p.AfterVotes)
	if p.Category == "" {
		p.Category = models.DefaultCategory
	}
}
