// internal/database/user_repository.go
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

// CreateUser inserts a new user document; unique index violations on
// username or email surface as ErrUserAlreadyExists.
func (m *MongoDB) CreateUser(ctx context.Context, user *models.User) error {
	normalizeUser(user)
	_, err := m.Users.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "Username or email already registered", err)
	}
	if err != nil {
		return utils.NewDatabaseError("Failed to save user", err)
	}
	return nil
}

// GetUser retrieves a user by id
func (m *MongoDB) GetUser(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id}, id.Hex())
}

// GetUserByEmail retrieves a user by email address
func (m *MongoDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"email": email}, email)
}

// GetUserByToken returns the user only if token is in its active token list.
func (m *MongoDB) GetUserByToken(ctx context.Context, id primitive.ObjectID, token string) (*models.User, error) {
	return m.findUser(ctx, bson.M{"_id": id, "tokens": token}, id.Hex())
}

func (m *MongoDB) findUser(ctx context.Context, filter bson.M, label string) (*models.User, error) {
	var user models.User
	err := m.Users.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewUserNotFoundError(label)
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to load user", err)
	}
	normalizeUser(&user)
	return &user, nil
}

func (m *MongoDB) AddUserToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return m.updateUserSet(ctx, id, bson.M{"$addToSet": bson.M{"tokens": token}})
}

func (m *MongoDB) RemoveUserToken(ctx context.Context, id primitive.ObjectID, token string) error {
	return m.updateUserSet(ctx, id, bson.M{"$pull": bson.M{"tokens": token}})
}

// AddFollower adds followerID to target's followers. Repeating it is a no-op.
func (m *MongoDB) AddFollower(ctx context.Context, targetID, followerID primitive.ObjectID) error {
	return m.updateUserSet(ctx, targetID, bson.M{"$addToSet": bson.M{"followers": followerID}})
}

func (m *MongoDB) RemoveFollower(ctx context.Context, targetID, followerID primitive.ObjectID) error {
	return m.updateUserSet(ctx, targetID, bson.M{"$pull": bson.M{"followers": followerID}})
}

// AddFollowing adds targetID to the user's following list and returns the
// updated user.
func (m *MongoDB) AddFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return m.findOneAndUpdateUser(ctx, userID, bson.M{"$addToSet": bson.M{"following": targetID}})
}

func (m *MongoDB) RemoveFollowing(ctx context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	return m.findOneAndUpdateUser(ctx, userID, bson.M{"$pull": bson.M{"following": targetID}})
}

// UpdateUserProfile sets only the allow-listed profile fields.
func (m *MongoDB) UpdateUserProfile(ctx context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, utils.NewInvalidInputError("No profile fields to update")
	}
	return m.findOneAndUpdateUser(ctx, id, bson.M{"$set": update})
}

func (m *MongoDB) updateUserSet(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := m.Users.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return utils.NewDatabaseError("Failed to update user", err)
	}
	if result.MatchedCount == 0 {
		return utils.NewUserNotFoundError(id.Hex())
	}
	return nil
}

func (m *MongoDB) findOneAndUpdateUser(ctx context.Context, id primitive.ObjectID, update bson.M) (*models.User, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user models.User
	err := m.Users.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.NewUserNotFoundError(id.Hex())
	}
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to update user", err)
	}
	normalizeUser(&user)
	return &user, nil
}

// ListUsers pages through all users ordered by username.
func (m *MongoDB) ListUsers(ctx context.Context, skip, limit int) ([]*models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "username", Value: 1}}).
		SetLimit(int64(limit))
	if skip > 0 {
		opts.SetSkip(int64(skip))
	}

	cursor, err := m.Users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to list users", err)
	}
	defer cursor.Close(ctx)

	users := make([]*models.User, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, utils.NewDatabaseError("Failed to decode users", err)
	}
	for _, u := range users {
		normalizeUser(u)
	}
	return users, nil
}

// SampleUsers returns up to size random public profiles, skipping exclude.
func (m *MongoDB) SampleUsers(ctx context.Context, exclude *primitive.ObjectID, size int) ([]models.PublicProfile, error) {
	match := bson.M{}
	if exclude != nil {
		match["_id"] = bson.M{"$ne": *exclude}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sample", Value: bson.M{"size": size}}},
		{{Key: "$project", Value: bson.M{
			"username":   1,
			"firstName":  1,
			"lastName":   1,
			"avatar":     1,
			"isVerified": 1,
			"followers":  1,
			"following":  1,
		}}},
	}

	cursor, err := m.Users.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, utils.NewDatabaseError("Failed to sample users", err)
	}
	defer cursor.Close(ctx)

	profiles := make([]models.PublicProfile, 0, size)
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, utils.NewDatabaseError("Failed to decode users", err)
	}
	for i := range profiles {
		profiles[i].Followers = nonNilIDs(profiles[i].Followers)
		profiles[i].Following = nonNilIDs(profiles[i].Following)
	}
	return profiles, nil
}

func (m *MongoDB) CountUsers(ctx context.Context) (int64, error) {
	n, err := m.Users.EstimatedDocumentCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("counting users: %w", err)
	}
	return n, nil
}

// normalizeUser replaces nil slices so documents always carry empty arrays
// and JSON renders [] instead of null.
func normalizeUser(u *models.User) {
	if u.Tokens == nil {
		u.Tokens = []string{}
	}
	u.Followers = nonNilIDs(u.Followers)
	u.Following = nonNilIDs(u.Following)
	if u.Role == "" {
		u.Role = models.RoleUser
	}
}

func nonNilIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	if ids == nil {
		return []primitive.ObjectID{}
	}
	return ids
}
