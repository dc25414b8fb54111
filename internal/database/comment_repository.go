package database

import (
	"context"

	"before-after/internal/models"
	"before-after/internal/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Comments live embedded in their post document, newest first, so every
// comment write is a single-document update on the posts collection.

// AddComment prepends comment to the post's comment list.
func (m *MongoDB) AddComment(ctx context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	post, err := m.findOneAndUpdatePost(ctx,
		bson.M{"_id": postID},
		bson.M{"$push": bson.M{"comments": bson.M{
			"$each":     bson.A{comment},
			"$position": 0,
		}}},
	)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, utils.NewPostNotFoundError(postID.Hex())
	}
	return post, nil
}

// RemoveComment pulls a comment when actorID wrote it or owns the post.
func (m *MongoDB) RemoveComment(ctx context.Context, postID, commentID, actorID primitive.ObjectID) (*models.Post, error) {
	post, err := m.findOneAndUpdatePost(ctx,
		bson.M{
			"_id":          postID,
			"comments._id": commentID,
			"$or": bson.A{
				bson.M{"_creator": actorID},
				bson.M{"comments": bson.M{"$elemMatch": bson.M{"_id": commentID, "_author": actorID}}},
			},
		},
		bson.M{"$pull": bson.M{"comments": bson.M{"_id": commentID}}},
	)
	if err != nil || post != nil {
		return post, err
	}

	// Nothing matched: work out why.
	existing, err := m.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	return nil, commentRemovalError(existing, commentID)
}

func commentRemovalError(post *models.Post, commentID primitive.ObjectID) error {
	if post.CommentByID(commentID) == nil {
		return utils.NewAppError(utils.ErrCommentNotFound, "Comment not found: "+commentID.Hex(), nil)
	}
	return utils.NewAppError(utils.ErrForbidden, "Only the comment author or the post owner can delete this comment", nil)
}
