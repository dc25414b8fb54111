package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// VoteSide names one of the two mutually exclusive voter sets on a post.
type VoteSide string

const (
	VoteBefore VoteSide = "before"
	VoteAfter  VoteSide = "after"
)

func ParseVoteSide(s string) (VoteSide, bool) {
	switch VoteSide(s) {
	case VoteBefore:
		return VoteBefore, true
	case VoteAfter:
		return VoteAfter, true
	}
	return "", false
}

func (s VoteSide) Opposite() VoteSide {
	if s == VoteBefore {
		return VoteAfter
	}
	return VoteBefore
}

// Field is the document field holding this side's voter ids.
func (s VoteSide) Field() string {
	return string(s) + "_votes"
}

// ContainsID reports whether id is in ids.
func ContainsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// RemoveID returns ids without any occurrence of id.
func RemoveID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, existing := range ids {
		if existing != id {
			out = append(out, existing)
		}
	}
	return out
}

// AddID appends id unless it is already present.
func AddID(ids []primitive.ObjectID, id primitive.ObjectID) []primitive.ObjectID {
	if ContainsID(ids, id) {
		return ids
	}
	return append(ids, id)
}
