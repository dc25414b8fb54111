package database

import (
	"before-after/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostQuery describes one feed view. Results are always newest first.
type PostQuery struct {
	// Creator restricts to a single owner.
	Creator *primitive.ObjectID
	// Creators restricts to any of the given owners when ByCreators is set;
	// an empty list then matches nothing. Takes precedence over Creator.
	Creators   []primitive.ObjectID
	ByCreators bool

	Category models.Category

	// Viewer sees public posts plus their own private ones. A nil viewer
	// only sees public posts. IncludePrivate disables the check entirely.
	Viewer         *primitive.ObjectID
	IncludePrivate bool

	Skip  int
	Limit int
}

// Filter renders the query as a MongoDB filter document.
func (q PostQuery) Filter() bson.M {
	filter := bson.M{}
	if q.ByCreators {
		creators := q.Creators
		if creators == nil {
			creators = []primitive.ObjectID{}
		}
		filter["_creator"] = bson.M{"$in": creators}
	} else if q.Creator != nil {
		filter["_creator"] = *q.Creator
	}
	if q.Category != "" {
		filter["category"] = q.Category
	}
	if !q.IncludePrivate {
		if q.Viewer != nil {
			filter["$or"] = bson.A{
				bson.M{"private": false},
				bson.M{"_creator": *q.Viewer},
			}
		} else {
			filter["private"] = false
		}
	}
	return filter
}

// FindOptions returns sort and paging options for the query.
func (q PostQuery) FindOptions() *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if q.Skip > 0 {
		opts.SetSkip(int64(q.Skip))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

// Matches applies the same predicate as Filter to an in-memory post.
func (q PostQuery) Matches(p *models.Post) bool {
	if q.ByCreators {
		if !models.ContainsID(q.Creators, p.Creator) {
			return false
		}
	} else if q.Creator != nil && p.Creator != *q.Creator {
		return false
	}
	if q.Category != "" && p.Category != q.Category {
		return false
	}
	if !q.IncludePrivate && !p.VisibleTo(q.Viewer) {
		return false
	}
	return true
}
