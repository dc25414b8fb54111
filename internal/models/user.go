package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// User is stored as a single document. Tokens and the password hash never
// leave the server.
type User struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id"`
	Username  string               `json:"username" bson:"username"`
	Email     string               `json:"email" bson:"email"`
	Password  string               `json:"-" bson:"password"`
	FirstName string               `json:"firstName" bson:"firstName"`
	LastName  string               `json:"lastName" bson:"lastName"`
	Bio       string               `json:"bio" bson:"bio"`
	Avatar    string               `json:"avatar" bson:"avatar"`
	Role      Role                 `json:"role" bson:"role"`
	Verified  bool                 `json:"isVerified" bson:"isVerified"`
	Tokens    []string             `json:"-" bson:"tokens"`
	Followers []primitive.ObjectID `json:"followers" bson:"followers"`
	Following []primitive.ObjectID `json:"following" bson:"following"`
	CreatedAt time.Time            `json:"createdAt" bson:"createdAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) HasToken(token string) bool {
	for _, t := range u.Tokens {
		if t == token {
			return true
		}
	}
	return false
}

func (u *User) IsFollowing(id primitive.ObjectID) bool {
	return ContainsID(u.Following, id)
}

// PublicProfile is the subset of a user shown in suggestion listings.
type PublicProfile struct {
	ID        primitive.ObjectID   `json:"_id" bson:"_id"`
	Username  string               `json:"username" bson:"username"`
	FirstName string               `json:"firstName" bson:"firstName"`
	LastName  string               `json:"lastName" bson:"lastName"`
	Avatar    string               `json:"avatar" bson:"avatar"`
	Verified  bool                 `json:"isVerified" bson:"isVerified"`
	Followers []primitive.ObjectID `json:"followers" bson:"followers"`
	Following []primitive.ObjectID `json:"following" bson:"following"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{
		ID:        u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Avatar:    u.Avatar,
		Verified:  u.Verified,
		Followers: u.Followers,
		Following: u.Following,
	}
}

// ProfileUpdate carries the only profile fields a user may change. Nil
// fields are left untouched.
type ProfileUpdate struct {
	FirstName *string `json:"firstName" bson:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName  *string `json:"lastName" bson:"lastName,omitempty" validate:"omitempty,max=100"`
	Avatar    *string `json:"avatar" bson:"avatar,omitempty" validate:"omitempty,max=2048"`
	Bio       *string `json:"bio" bson:"bio,omitempty" validate:"omitempty,max=500"`
}

func (p ProfileUpdate) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Avatar == nil && p.Bio == nil
}

// Apply copies the set fields onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
}
