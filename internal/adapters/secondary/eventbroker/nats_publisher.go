package eventbroker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/blockfile/ffs/internal/core/domain"
)

type NatsPublisher struct {
	nc *nats.Conn
}

func NewNatsPublisher(nc *nats.Conn) *NatsPublisher {
	return &NatsPublisher{nc: nc}
}

// --- CONTRACTS (implicites avec les consumers) ---

type PostCreatedEvent struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

type PostLikedEvent struct {
	PostID   string `json:"post_id"`
	AuthorID string `json:"author_id"`
	UserID   string `json:"user_id"`
	Liked    bool   `json:"liked"` // false = unlike
	Likes    int    `json:"likes"`
}

type UserFollowedEvent struct {
	FollowerID string `json:"follower_id"`
	FolloweeID string `json:"followee_id"`
	Following  bool   `json:"following"` // false = unfollow
}

type WalletConnectedEvent struct {
	UserID        string `json:"user_id"`
	WalletAddress string `json:"wallet_address"`
}

func (p *NatsPublisher) PublishPostCreated(ctx context.Context, post *domain.Post) error {
	return p.publish(ctx, "post.created", PostCreatedEvent{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Type:      string(post.Type),
		CreatedAt: post.CreatedAt,
	})
}

func (p *NatsPublisher) PublishPostLiked(ctx context.Context, post *domain.Post, userID string, liked bool) error {
	return p.publish(ctx, "post.liked", PostLikedEvent{
		PostID:   post.ID,
		AuthorID: post.AuthorID,
		UserID:   userID,
		Liked:    liked,
		Likes:    post.Likes,
	})
}

func (p *NatsPublisher) PublishUserFollowed(ctx context.Context, followerID, followeeID string, following bool) error {
	return p.publish(ctx, "user.followed", UserFollowedEvent{
		FollowerID: followerID,
		FolloweeID: followeeID,
		Following:  following,
	})
}

func (p *NatsPublisher) PublishWalletConnected(ctx context.Context, user *domain.User) error {
	return p.publish(ctx, "user.connected", WalletConnectedEvent{
		UserID:        user.ID,
		WalletAddress: user.WalletAddress,
	})
}

func (p *NatsPublisher) publish(ctx context.Context, subject string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling error: %w", err)
	}

	msg := &nats.Msg{
		Subject: subject,
		Data:    data,
		Header:  nats.Header{},
	}
	// Injection du trace context dans les headers NATS : le consumer
	// rattache son span à la requête d'origine.
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(msg.Header))

	slog.Debug("📢 Publishing event", "subject", subject)
	return p.nc.PublishMsg(msg)
}
