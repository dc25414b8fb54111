package simulator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type SimConfig struct {
	NumUsers       int
	Workers        int
	SimulationTime time.Duration
	// Relative weights of the activities each worker picks from.
	PostWeight    int
	VoteWeight    int
	CommentWeight int
	FollowWeight  int
	BrowseWeight  int
	PrivateRatio  float64
	ZipfS         float64
	EngineURL     string
	AuthHeader    string
}

// DefaultConfig is a short, light run against a local server.
func DefaultConfig() SimConfig {
	return SimConfig{
		NumUsers:       10,
		Workers:        5,
		SimulationTime: time.Minute,
		PostWeight:     2,
		VoteWeight:     5,
		CommentWeight:  2,
		FollowWeight:   1,
		BrowseWeight:   3,
		PrivateRatio:   0.1,
		ZipfS:          1.07,
		EngineURL:      "http://localhost:8080",
		AuthHeader:     "x-auth",
	}
}

// SimulationStats is a snapshot of the counters at the end of a run.
type SimulationStats struct {
	TotalRequests   int64
	SuccessRequests int64
	FailedRequests  int64
	AverageLatency  time.Duration
	Users           int
	Posts           int64
	Votes           int64
	Comments        int64
	Follows         int64
	FeedReads       int64
	Elapsed         time.Duration
}

// SimulatedUser is a registered account the workers act as.
type SimulatedUser struct {
	ID       string
	Username string
	Token    string
}

type activity int

const (
	activityPost activity = iota
	activityVote
	activityComment
	activityFollow
	activityBrowse
)

// Simulator drives the public HTTP API with concurrent simulated users.
type Simulator struct {
	config SimConfig
	client *http.Client

	users []*SimulatedUser

	postsMu sync.RWMutex
	posts   []string // public post ids, oldest first

	requests     atomic.Int64
	failures     atomic.Int64
	latencyNanos atomic.Int64
	postCount    atomic.Int64
	voteCount    atomic.Int64
	commentCount atomic.Int64
	follows      atomic.Int64
	feedReads    atomic.Int64
}

func NewSimulator(config SimConfig) *Simulator {
	if config.Workers < 1 {
		config.Workers = 1
	}
	if config.ZipfS <= 1 {
		config.ZipfS = 1.07
	}
	return &Simulator{
		config: config,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Run registers the users and then keeps every worker busy until
// SimulationTime elapses or ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) (SimulationStats, error) {
	start := time.Now()
	if err := s.registerUsers(ctx); err != nil {
		return s.stats(start), fmt.Errorf("registering users: %w", err)
	}
	slog.Info("users registered", "count", len(s.users))

	runCtx, cancel := context.WithTimeout(ctx, s.config.SimulationTime)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)
	for i := 0; i < s.config.Workers; i++ {
		seed := time.Now().UnixNano() + int64(i)
		g.Go(func() error {
			return s.worker(gctx, rand.New(rand.NewSource(seed)))
		})
	}
	if err := g.Wait(); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return s.stats(start), err
	}
	return s.stats(start), nil
}

func (s *Simulator) registerUsers(ctx context.Context) error {
	runID := uuid.NewString()[:8]
	users := make([]*SimulatedUser, s.config.NumUsers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Workers)
	for i := range users {
		g.Go(func() error {
			name := fmt.Sprintf("sim_%s_%d", runID, i)
			var resp struct {
				User struct {
					ID string `json:"_id"`
				} `json:"user"`
				Token string `json:"token"`
			}
			err := s.makeRequest(gctx, http.MethodPost, "/users/register", "", map[string]string{
				"username":  name,
				"email":     name + "@sim.test",
				"password":  "simulated",
				"firstName": "Sim",
				"lastName":  fmt.Sprint(i),
			}, &resp)
			if err != nil {
				return fmt.Errorf("user %s: %w", name, err)
			}
			users[i] = &SimulatedUser{ID: resp.User.ID, Username: name, Token: resp.Token}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	s.users = users
	return nil
}

func (s *Simulator) worker(ctx context.Context, rng *rand.Rand) error {
	zipf := rand.NewZipf(rng, s.config.ZipfS, 1, uint64(max(len(s.users)-1, 1)))
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if len(s.users) == 0 {
			return nil
		}
		user := s.users[rng.Intn(len(s.users))]

		var err error
		switch s.pickActivity(rng) {
		case activityPost:
			err = s.createPost(ctx, rng, user)
		case activityVote:
			err = s.vote(ctx, rng, user)
		case activityComment:
			err = s.comment(ctx, rng, user)
		case activityFollow:
			err = s.follow(ctx, zipf, user)
		case activityBrowse:
			err = s.browse(ctx, rng, user)
		}
		if err != nil && ctx.Err() == nil {
			slog.Debug("simulated request failed", "user", user.Username, "error", err)
		}
	}
}

func (s *Simulator) pickActivity(rng *rand.Rand) activity {
	weights := []int{
		s.config.PostWeight,
		s.config.VoteWeight,
		s.config.CommentWeight,
		s.config.FollowWeight,
		s.config.BrowseWeight,
	}
	total := 0
	for _, w := range weights {
		total += max(w, 0)
	}
	if total == 0 {
		return activityBrowse
	}
	n := rng.Intn(total)
	for i, w := range weights {
		n -= max(w, 0)
		if n < 0 {
			return activity(i)
		}
	}
	return activityBrowse
}

var categories = []string{"entertainment", "fashion", "fitness", "beauty", "food", "home", "travel", "art", "other"}

func (s *Simulator) createPost(ctx context.Context, rng *rand.Rand, user *SimulatedUser) error {
	private := rng.Float64() < s.config.PrivateRatio
	n := rng.Intn(1_000_000)
	var post struct {
		ID string `json:"_id"`
	}
	err := s.makeRequest(ctx, http.MethodPost, "/posts", user.Token, map[string]interface{}{
		"title":       fmt.Sprintf("Makeover #%d", n),
		"description": "before and after by " + user.Username,
		"category":    categories[rng.Intn(len(categories))],
		"before_img":  fmt.Sprintf("https://img.sim.test/%d/before.jpg", n),
		"after_img":   fmt.Sprintf("https://img.sim.test/%d/after.jpg", n),
		"private":     private,
	}, &post)
	if err != nil {
		return err
	}
	s.postCount.Add(1)
	if !private {
		s.postsMu.Lock()
		s.posts = append(s.posts, post.ID)
		s.postsMu.Unlock()
	}
	return nil
}

// popularPost favours the most recent posts, the way a feed does.
func (s *Simulator) popularPost(rng *rand.Rand) (string, bool) {
	s.postsMu.RLock()
	defer s.postsMu.RUnlock()
	switch len(s.posts) {
	case 0:
		return "", false
	case 1:
		return s.posts[0], true
	}
	zipf := rand.NewZipf(rng, s.config.ZipfS, 1, uint64(len(s.posts)-1))
	return s.posts[len(s.posts)-1-int(zipf.Uint64())], true
}

func (s *Simulator) vote(ctx context.Context, rng *rand.Rand, user *SimulatedUser) error {
	postID, ok := s.popularPost(rng)
	if !ok {
		return s.createPost(ctx, rng, user)
	}
	side := "before"
	if rng.Intn(2) == 1 {
		side = "after"
	}
	if err := s.makeRequest(ctx, http.MethodPatch, "/posts/vote/"+side+"/"+postID, user.Token, nil, nil); err != nil {
		return err
	}
	s.voteCount.Add(1)
	return nil
}

func (s *Simulator) comment(ctx context.Context, rng *rand.Rand, user *SimulatedUser) error {
	postID, ok := s.popularPost(rng)
	if !ok {
		return s.createPost(ctx, rng, user)
	}
	if err := s.makeRequest(ctx, http.MethodPost, "/posts/comment/"+postID, user.Token,
		map[string]string{"text": "looks great, " + user.Username}, nil); err != nil {
		return err
	}
	s.commentCount.Add(1)
	return nil
}

// follow picks a target by Zipf rank so a few users gather most followers.
func (s *Simulator) follow(ctx context.Context, zipf *rand.Zipf, user *SimulatedUser) error {
	if len(s.users) < 2 {
		return nil
	}
	target := s.users[int(zipf.Uint64())%len(s.users)]
	if target == user {
		return nil
	}
	if err := s.makeRequest(ctx, http.MethodPatch, "/users/follow/"+target.ID, user.Token, nil, nil); err != nil {
		return err
	}
	s.follows.Add(1)
	return nil
}

func (s *Simulator) browse(ctx context.Context, rng *rand.Rand, user *SimulatedUser) error {
	path := "/posts/all"
	switch rng.Intn(3) {
	case 1:
		path += "?following=true"
	case 2:
		path = "/posts/category/" + categories[rng.Intn(len(categories))]
	}
	if err := s.makeRequest(ctx, http.MethodGet, path, user.Token, nil, nil); err != nil {
		return err
	}
	s.feedReads.Add(1)
	return nil
}

// makeRequest sends a JSON request and decodes the response into out when
// it is non-nil. Requests cut short by ctx are not counted.
func (s *Simulator) makeRequest(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(s.config.EngineURL, "/")+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(s.config.AuthHeader, token)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.recordRequestMetrics(start, err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		err = fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, bytes.TrimSpace(msg))
		s.recordRequestMetrics(start, err)
		return err
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			s.recordRequestMetrics(start, err)
			return fmt.Errorf("%s %s: decoding response: %w", method, path, err)
		}
	}
	s.recordRequestMetrics(start, nil)
	return nil
}

func (s *Simulator) recordRequestMetrics(start time.Time, err error) {
	s.requests.Add(1)
	s.latencyNanos.Add(int64(time.Since(start)))
	if err != nil {
		s.failures.Add(1)
	}
}

func (s *Simulator) stats(start time.Time) SimulationStats {
	total := s.requests.Load()
	failed := s.failures.Load()
	stats := SimulationStats{
		TotalRequests:   total,
		SuccessRequests: total - failed,
		FailedRequests:  failed,
		Users:           len(s.users),
		Posts:           s.postCount.Load(),
		Votes:           s.voteCount.Load(),
		Comments:        s.commentCount.Load(),
		Follows:         s.follows.Load(),
		FeedReads:       s.feedReads.Load(),
		Elapsed:         time.Since(start),
	}
	if total > 0 {
		stats.AverageLatency = time.Duration(s.latencyNanos.Load() / total)
	}
	return stats
}
