package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/blockfile/ffs/internal/core/domain"
)

// Fakes en mémoire reproduisant le contrat des repositories Postgres : même
// sémantique de section critique (un mutex tient lieu de row lock), mêmes
// sentinelles, deep copy à la lecture et à l'écriture pour qu'aucun appelant
// ne partage d'état avec le "stockage".

func cloneUser(u *domain.User) *domain.User {
	c := *u
	c.Followers = u.Followers.Clone()
	c.Following = u.Following.Clone()
	return &c
}

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.LikedBy = p.LikedBy.Clone()
	c.Media = append([]string(nil), p.Media...)
	return &c
}

// --- USER REPO ---

type memUserRepo struct {
	mu       sync.Mutex
	users    map[string]*domain.User // par id
	byWallet map[string]string       // wallet canonique -> id
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:    make(map[string]*domain.User),
		byWallet: make(map[string]string),
	}
}

func (r *memUserRepo) EnsureSchema(context.Context) error { return nil }

func (r *memUserRepo) Save(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byWallet[user.WalletAddress]; ok {
		return domain.ErrWalletExists
	}
	r.users[user.ID] = cloneUser(user)
	r.byWallet[user.WalletAddress] = user.ID
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByWallet(_ context.Context, walletAddress string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byWallet[domain.NormalizeWallet(walletAddress)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.users[id]), nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[user.ID]
	if !ok {
		return domain.ErrUserNotFound
	}
	// Comme l'implémentation SQL : les edge sets ne passent pas par Update
	stored.Username = user.Username
	stored.Age = user.Age
	stored.Location = user.Location
	stored.Gender = user.Gender
	stored.Bio = user.Bio
	stored.Avatar = user.Avatar
	stored.UpdatedAt = user.UpdatedAt
	return nil
}

func (r *memUserRepo) MutateFollowPair(_ context.Context, followerID, followeeID string,
	mutate func(follower, followee *domain.User) error) (*domain.User, *domain.User, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	storedFollower, ok := r.users[followerID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}
	storedFollowee, ok := r.users[followeeID]
	if !ok {
		return nil, nil, domain.ErrUserNotFound
	}

	follower := cloneUser(storedFollower)
	followee := cloneUser(storedFollowee)

	if err := mutate(follower, followee); err != nil {
		return nil, nil, err
	}
	if !domain.FollowEdgeConsistent(follower, followee) {
		return nil, nil, domain.ErrConsistency
	}

	// "Commit" : les deux faces ensemble ou pas du tout
	r.users[followerID] = cloneUser(follower)
	r.users[followeeID] = cloneUser(followee)
	return follower, followee, nil
}

func (r *memUserRepo) ListFollowerIDs(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u.Followers.Clone(), nil
}

// --- POST REPO ---

type memPostRepo struct {
	mu    sync.Mutex
	posts map[string]*domain.Post
}

func newMemPostRepo() *memPostRepo {
	return &memPostRepo{posts: make(map[string]*domain.Post)}
}

func (r *memPostRepo) EnsureSchema(context.Context) error { return nil }

func (r *memPostRepo) Save(_ context.Context, post *domain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *memPostRepo) FindByID(_ context.Context, postID string) (*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.posts[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

func (r *memPostRepo) List(_ context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*domain.Post
	for _, p := range r.posts {
		if authorID != "" && p.AuthorID != authorID {
			continue
		}
		if !cursorTime.IsZero() && !p.CreatedAt.Before(cursorTime) {
			continue
		}
		out = append(out, clonePost(p))
	}

	// Tri created_at décroissant, comme l'ORDER BY
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.After(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memPostRepo) MutatePost(_ context.Context, postID string,
	mutate func(post *domain.Post) error) (*domain.Post, error) {

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.posts[postID]
	if !ok {
		return nil, domain.ErrPostNotFound
	}

	post := clonePost(stored)
	if err := mutate(post); err != nil {
		return nil, err
	}
	if !post.LikesConsistent() {
		return nil, domain.ErrConsistency
	}

	r.posts[postID] = clonePost(post)
	return post, nil
}

// --- PUBLISHER / STORAGE / TOKENS ---

type publishedEvent struct {
	Subject string
	Payload any
}

type stubPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error // forcé pour les chemins best-effort
}

func (p *stubPublisher) record(subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Subject: subject, Payload: payload})
	return p.err
}

func (p *stubPublisher) PublishPostCreated(_ context.Context, post *domain.Post) error {
	return p.record("post.created", post.ID)
}

func (p *stubPublisher) PublishPostLiked(_ context.Context, post *domain.Post, userID string, liked bool) error {
	return p.record("post.liked", fmt.Sprintf("%s:%s:%t", post.ID, userID, liked))
}

func (p *stubPublisher) PublishUserFollowed(_ context.Context, followerID, followeeID string, following bool) error {
	return p.record("user.followed", fmt.Sprintf("%s:%s:%t", followerID, followeeID, following))
}

func (p *stubPublisher) PublishWalletConnected(_ context.Context, user *domain.User) error {
	return p.record("user.connected", user.WalletAddress)
}

func (p *stubPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Subject
	}
	return out
}

type stubStorage struct {
	mu    sync.Mutex
	paths []string
}

func (s *stubStorage) Upload(_ context.Context, path, _ string, data io.Reader, _ int64) (string, error) {
	_, _ = io.Copy(io.Discard, data)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
	return "https://cdn.test/" + path, nil
}

type stubTokens struct{}

func (stubTokens) Generate(user *domain.User) (string, error) { return "token-" + user.ID, nil }
func (stubTokens) Validate(token string) (string, error) {
	if len(token) > 6 && token[:6] == "token-" {
		return token[6:], nil
	}
	return "", domain.ErrInvalidToken
}
