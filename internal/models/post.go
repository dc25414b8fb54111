package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryFashion       Category = "fashion"
	CategoryFitness       Category = "fitness"
	CategoryBeauty        Category = "beauty"
	CategoryFood          Category = "food"
	CategoryHome          Category = "home"
	CategoryTravel        Category = "travel"
	CategoryArt           Category = "art"
	CategoryOther         Category = "other"

	DefaultCategory = CategoryEntertainment
)

// Categories lists every accepted category, in display order.
var Categories = []Category{
	CategoryEntertainment,
	CategoryFashion,
	CategoryFitness,
	CategoryBeauty,
	CategoryFood,
	CategoryHome,
	CategoryTravel,
	CategoryArt,
	CategoryOther,
}

func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Post struct {
	ID              primitive.ObjectID   `json:"_id" bson:"_id"`
	Title           string               `json:"title" bson:"title"`
	Description     string               `json:"description" bson:"description"`
	Category        Category             `json:"category" bson:"category"`
	BeforeImg       string               `json:"before_img" bson:"before_img"`
	AfterImg        string               `json:"after_img" bson:"after_img"`
	CreatedAt       time.Time            `json:"date" bson:"date"`
	Creator         primitive.ObjectID   `json:"_creator" bson:"_creator"`
	CreatorUsername string               `json:"username" bson:"username"`
	Private         bool                 `json:"private" bson:"private"`
	Comments        []Comment            `json:"comments" bson:"comments"`
	BeforeVotes     []primitive.ObjectID `json:"before_votes" bson:"before_votes"`
	AfterVotes      []primitive.ObjectID `json:"after_votes" bson:"after_votes"`
}

func (p *Post) OwnedBy(id primitive.ObjectID) bool {
	return p.Creator == id
}

// VisibleTo reports whether viewer may see the post. A nil viewer is anonymous.
func (p *Post) VisibleTo(viewer *primitive.ObjectID) bool {
	if !p.Private {
		return true
	}
	return viewer != nil && p.OwnedBy(*viewer)
}

// Votes returns the voter set for one side.
func (p *Post) Votes(side VoteSide) []primitive.ObjectID {
	if side == VoteAfter {
		return p.AfterVotes
	}
	return p.BeforeVotes
}

func (p *Post) SetVotes(side VoteSide, ids []primitive.ObjectID) {
	if side == VoteAfter {
		p.AfterVotes = ids
		return
	}
	p.BeforeVotes = ids
}

// CommentByID returns the comment with the given id, or nil.
func (p *Post) CommentByID(id primitive.ObjectID) *Comment {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i]
		}
	}
	return nil
}

// PostUpdate carries the only fields an owner may edit. Nil fields are left
// untouched.
type PostUpdate struct {
	Title       *string `json:"title" bson:"title,omitempty" validate:"omitempty,max=200"`
	Description *string `json:"description" bson:"description,omitempty" validate:"omitempty,max=5000"`
	BeforeImg   *string `json:"before_img" bson:"before_img,omitempty" validate:"omitempty,max=2048"`
	AfterImg    *string `json:"after_img" bson:"after_img,omitempty" validate:"omitempty,max=2048"`
}

func (u PostUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.BeforeImg == nil && u.AfterImg == nil
}

func (u PostUpdate) Apply(p *Post) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.BeforeImg != nil {
		p.BeforeImg = *u.BeforeImg
	}
	if u.AfterImg != nil {
		p.AfterImg = *u.AfterImg
	}
}
