package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestVoteSide(t *testing.T) {
	side, ok := ParseVoteSide("before")
	require.True(t, ok)
	assert.Equal(t, VoteBefore, side)
	assert.Equal(t, VoteAfter, side.Opposite())
	assert.Equal(t, "before_votes", side.Field())
	assert.Equal(t, "after_votes", side.Opposite().Field())

	_, ok = ParseVoteSide("sideways")
	assert.False(t, ok)
}

func TestIDSetHelpers(t *testing.T) {
	a, b := primitive.NewObjectID(), primitive.NewObjectID()

	ids := AddID(nil, a)
	ids = AddID(ids, a)
	ids = AddID(ids, b)
	assert.Equal(t, []primitive.ObjectID{a, b}, ids)
	assert.True(t, ContainsID(ids, b))

	ids = RemoveID(ids, a)
	assert.Equal(t, []primitive.ObjectID{b}, ids)
	assert.False(t, ContainsID(ids, a))
}

func TestPostVisibility(t *testing.T) {
	owner, other := primitive.NewObjectID(), primitive.NewObjectID()
	post := &Post{Creator: owner, Private: true}

	assert.False(t, post.VisibleTo(nil))
	assert.False(t, post.VisibleTo(&other))
	assert.True(t, post.VisibleTo(&owner))

	post.Private = false
	assert.True(t, post.VisibleTo(nil))
}

func TestUserJSONHidesSecrets(t *testing.T) {
	u := &User{
		ID:       primitive.NewObjectID(),
		Username: "a",
		Password: "$2a$10$hash",
		Tokens:   []string{"tok"},
	}
	raw, err := json.Marshal(u)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "hash")
	assert.NotContains(t, string(raw), "tok\"")
	assert.Contains(t, string(raw), `"username":"a"`)
}

func TestUpdatesApplyOnlySetFields(t *testing.T) {
	bio := "new bio"
	u := &User{FirstName: "Ann", Bio: "old"}
	ProfileUpdate{Bio: &bio}.Apply(u)
	assert.Equal(t, "Ann", u.FirstName)
	assert.Equal(t, "new bio", u.Bio)
	assert.True(t, ProfileUpdate{}.IsEmpty())

	title := "after six months"
	p := &Post{Title: "t", Description: "d"}
	PostUpdate{Title: &title}.Apply(p)
	assert.Equal(t, "after six months", p.Title)
	assert.Equal(t, "d", p.Description)
	assert.True(t, PostUpdate{}.IsEmpty())
}

func TestCategoryValid(t *testing.T) {
	assert.True(t, DefaultCategory.Valid())
	assert.True(t, Category("fitness").Valid())
	assert.False(t, Category("politics").Valid())
}
