package database

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"before-after/internal/models"
	"before-after/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryStore is a process-local Store used with DB_TYPE=memory and in
// tests. Each method is atomic under a single mutex, which gives the same
// per-document guarantees the Mongo updates rely on.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]*models.User
	posts map[primitive.ObjectID]*models.Post
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[primitive.ObjectID]*models.User),
		posts: make(map[primitive.ObjectID]*models.Post),
	}
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return utils.NewAppError(utils.ErrUserAlreadyExists, "Username or email already registered", nil)
		}
	}
	if _, exists := s.users[user.ID]; exists {
		return utils.NewAppError(utils.ErrUserAlreadyExists, "User id already registered", nil)
	}
	normalizeUser(user)
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *MemoryStore) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, utils.NewUserNotFoundError(id.Hex())
	}
	return copyUser(u), nil
}

func (s *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, utils.NewUserNotFoundError(email)
}

func (s *MemoryStore) GetUserByToken(_ context.Context, id primitive.ObjectID, token string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || !u.HasToken(token) {
		return nil, utils.NewUserNotFoundError(id.Hex())
	}
	return copyUser(u), nil
}

func (s *MemoryStore) AddUserToken(_ context.Context, id primitive.ObjectID, token string) error {
	return s.mutateUser(id, func(u *models.User) {
		if !u.HasToken(token) {
			u.Tokens = append(u.Tokens, token)
		}
	})
}

func (s *MemoryStore) RemoveUserToken(_ context.Context, id primitive.ObjectID, token string) error {
	return s.mutateUser(id, func(u *models.User) {
		kept := u.Tokens[:0]
		for _, t := range u.Tokens {
			if t != token {
				kept = append(kept, t)
			}
		}
		u.Tokens = kept
	})
}

func (s *MemoryStore) UpdateUserProfile(_ context.Context, id primitive.ObjectID, update models.ProfileUpdate) (*models.User, error) {
	if update.IsEmpty() {
		return nil, utils.NewInvalidInputError("No profile fields to update")
	}
	var out *models.User
	err := s.mutateUser(id, func(u *models.User) {
		update.Apply(u)
		out = copyUser(u)
	})
	return out, err
}

func (s *MemoryStore) AddFollower(_ context.Context, targetID, followerID primitive.ObjectID) error {
	return s.mutateUser(targetID, func(u *models.User) {
		u.Followers = models.AddID(u.Followers, followerID)
	})
}

func (s *MemoryStore) RemoveFollower(_ context.Context, targetID, followerID primitive.ObjectID) error {
	return s.mutateUser(targetID, func(u *models.User) {
		u.Followers = models.RemoveID(u.Followers, followerID)
	})
}

func (s *MemoryStore) AddFollowing(_ context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	var out *models.User
	err := s.mutateUser(userID, func(u *models.User) {
		u.Following = models.AddID(u.Following, targetID)
		out = copyUser(u)
	})
	return out, err
}

func (s *MemoryStore) RemoveFollowing(_ context.Context, userID, targetID primitive.ObjectID) (*models.User, error) {
	var out *models.User
	err := s.mutateUser(userID, func(u *models.User) {
		u.Following = models.RemoveID(u.Following, targetID)
		out = copyUser(u)
	})
	return out, err
}

func (s *MemoryStore) ListUsers(_ context.Context, skip, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		all = append(all, copyUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Username < all[j].Username })
	return page(all, skip, limit), nil
}

func (s *MemoryStore) SampleUsers(_ context.Context, exclude *primitive.ObjectID, size int) ([]models.PublicProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]models.PublicProfile, 0, len(s.users))
	for _, u := range s.users {
		if exclude != nil && u.ID == *exclude {
			continue
		}
		profiles = append(profiles, copyUser(u).Public())
	}
	rand.Shuffle(len(profiles), func(i, j int) { profiles[i], profiles[j] = profiles[j], profiles[i] })
	if len(profiles) > size {
		profiles = profiles[:size]
	}
	return profiles, nil
}

func (s *MemoryStore) CountUsers(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.users)), nil
}

func (s *MemoryStore) CreatePost(_ context.Context, post *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	normalizePost(post)
	s.posts[post.ID] = copyPost(post)
	return nil
}

func (s *MemoryStore) GetPost(_ context.Context, id primitive.ObjectID) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.posts[id]
	if !ok {
		return nil, utils.NewPostNotFoundError(id.Hex())
	}
	return copyPost(p), nil
}

func (s *MemoryStore) FindPosts(_ context.Context, query PostQuery) ([]*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.Post, 0)
	for _, p := range s.posts {
		if query.Matches(p) {
			matched = append(matched, copyPost(p))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.Hex() > matched[j].ID.Hex()
	})
	return page(matched, query.Skip, query.Limit), nil
}

func (s *MemoryStore) UpdatePost(_ context.Context, id, ownerID primitive.ObjectID, update models.PostUpdate) (*models.Post, error) {
	if update.IsEmpty() {
		return nil, utils.NewInvalidInputError("No post fields to update")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || !p.OwnedBy(ownerID) {
		return nil, utils.NewAppError(utils.ErrPostNotFound, "Unable to update that post", nil)
	}
	update.Apply(p)
	return copyPost(p), nil
}

func (s *MemoryStore) DeletePost(_ context.Context, id, ownerID primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || !p.OwnedBy(ownerID) {
		return nil, utils.NewAppError(utils.ErrPostNotFound, "Unable to delete that post", nil)
	}
	delete(s.posts, id)
	return p, nil
}

func (s *MemoryStore) CastVote(_ context.Context, postID, voterID primitive.ObjectID, side models.VoteSide) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID.Hex())
	}
	opposite := side.Opposite()
	p.SetVotes(opposite, models.RemoveID(p.Votes(opposite), voterID))
	p.SetVotes(side, models.AddID(p.Votes(side), voterID))
	return copyPost(p), nil
}

func (s *MemoryStore) AddComment(_ context.Context, postID primitive.ObjectID, comment models.Comment) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID.Hex())
	}
	p.Comments = append([]models.Comment{comment}, p.Comments...)
	return copyPost(p), nil
}

func (s *MemoryStore) RemoveComment(_ context.Context, postID, commentID, actorID primitive.ObjectID) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[postID]
	if !ok {
		return nil, utils.NewPostNotFoundError(postID.Hex())
	}
	c := p.CommentByID(commentID)
	if c == nil || (c.AuthorID != actorID && !p.OwnedBy(actorID)) {
		return nil, commentRemovalError(p, commentID)
	}
	kept := make([]models.Comment, 0, len(p.Comments))
	for _, existing := range p.Comments {
		if existing.ID != commentID {
			kept = append(kept, existing)
		}
	}
	p.Comments = kept
	return copyPost(p), nil
}

func (s *MemoryStore) CountPosts(context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.posts)), nil
}

func (s *MemoryStore) mutateUser(id primitive.ObjectID, fn func(u *models.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return utils.NewUserNotFoundError(id.Hex())
	}
	fn(u)
	return nil
}

func page[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return items[:0]
	}
	items = items[skip:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Tokens = append([]string{}, u.Tokens...)
	c.Followers = append([]primitive.ObjectID{}, u.Followers...)
	c.Following = append([]primitive.ObjectID{}, u.Following...)
	return &c
}

func copyPost(p *models.Post) *models.Post {
	c := *p
	c.Comments = append([]models.Comment{}, p.Comments...)
	c.BeforeVotes = append([]primitive.ObjectID{}, p.BeforeVotes...)
	c.AfterVotes = append([]primitive.ObjectID{}, p.AfterVotes...)
	return &c
}
