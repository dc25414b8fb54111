package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type PostEventType string

const (
	EventPostVoted      PostEventType = "post_voted"
	EventPostCommented  PostEventType = "post_commented"
	EventCommentDeleted PostEventType = "comment_deleted"
	EventPostUpdated    PostEventType = "post_updated"
	EventPostDeleted    PostEventType = "post_deleted"
)

// PostEvent is pushed to websocket clients after a post changes. Owner and
// Private decide who receives it and are not sent.
type PostEvent struct {
	Type        PostEventType        `json:"type"`
	PostID      primitive.ObjectID   `json:"postId"`
	BeforeVotes []primitive.ObjectID `json:"beforeVotes"`
	AfterVotes  []primitive.ObjectID `json:"afterVotes"`
	Comments    []Comment            `json:"comments"`
	Owner       primitive.ObjectID   `json:"-"`
	Private     bool                 `json:"-"`
}

// NewPostEvent snapshots the parts of post that clients render live.
func NewPostEvent(eventType PostEventType, post *Post) PostEvent {
	return PostEvent{
		Type:        eventType,
		PostID:      post.ID,
		BeforeVotes: post.BeforeVotes,
		AfterVotes:  post.AfterVotes,
		Comments:    post.Comments,
		Owner:       post.Creator,
		Private:     post.Private,
	}
}
