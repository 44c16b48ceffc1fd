package services

import (
	"context"
	"log/slog"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

// EngagementSvc orchestre les deux toggles du système. Il ne possède aucun
// stockage : la logique de flip vit dans le domaine, la section critique
// (lock + persistance atomique) dans les repositories. Chaque toggle est une
// machine à deux états Absent/Present dont il est l'unique transition.
type EngagementSvc struct {
	users     ports.UserRepository
	posts     ports.PostRepository
	publisher ports.EventPublisher
}

func NewEngagementService(
	users ports.UserRepository,
	posts ports.PostRepository,
	pub ports.EventPublisher,
) *EngagementSvc {
	return &EngagementSvc{users: users, posts: posts, publisher: pub}
}

// ToggleFollow bascule l'arête follower->followee. Les deux faces miroir
// sont mutées dans le même MutateFollowPair : jamais d'état intermédiaire
// observable où une seule face reflète le changement.
func (s *EngagementSvc) ToggleFollow(ctx context.Context, followerID, followeeID string) (*ports.FollowResult, error) {
	if followerID == "" || followeeID == "" {
		return nil, domain.ErrUserNotFound
	}
	// L'implémentation historique ne gardait pas contre le self-follow ;
	// ici on rejette explicitement, sans toucher à l'état.
	if followerID == followeeID {
		return nil, domain.ErrSelfFollow
	}

	var isFollowing bool
	_, followee, err := s.users.MutateFollowPair(ctx, followerID, followeeID,
		func(follower, followee *domain.User) error {
			isFollowing = domain.ToggleFollowEdge(follower, followee)
			return nil
		})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishUserFollowed(ctx, followerID, followeeID, isFollowing); err != nil {
		slog.Error("❌ Failed to publish user.followed", "error", err)
	}

	// Compteurs recalculés depuis les sets persistés, pas de compteur
	// incrémenté à part qui pourrait dériver.
	return &ports.FollowResult{
		IsFollowing:    isFollowing,
		FollowerCount:  followee.Followers.Len(),
		FollowingCount: followee.Following.Len(),
	}, nil
}

// ToggleLike bascule l'appartenance de userID au set LikedBy du post et
// recalcule Likes depuis le set, le tout sous le verrou de la ligne post.
func (s *EngagementSvc) ToggleLike(ctx context.Context, userID, postID string) (*domain.Post, error) {
	// 1. Le liker doit exister
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	// 2. Flip sous verrou
	var liked bool
	post, err := s.posts.MutatePost(ctx, postID, func(p *domain.Post) error {
		liked = p.ToggleLike(user.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.publisher.PublishPostLiked(ctx, post, user.ID, liked); err != nil {
		slog.Error("❌ Failed to publish post.liked", "error", err)
	}

	return post, nil
}
