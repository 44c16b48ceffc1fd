package services

import (
	"context"
	"log/slog"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

const fanoutBatchSize = 1000 // taille des paquets poussés vers Redis

// FeedSvc matérialise les timelines : à chaque post.created, l'item est
// poussé dans la timeline Redis de chaque follower de l'auteur. Lecture par
// simple ZREVRANGE, le client re-fetch (pas de push temps réel).
type FeedSvc struct {
	repo  ports.FeedRepository
	users ports.UserRepository
}

func NewFeedService(repo ports.FeedRepository, users ports.UserRepository) *FeedSvc {
	return &FeedSvc{repo: repo, users: users}
}

func (s *FeedSvc) DistributePost(ctx context.Context, item *domain.FeedItem) error {
	slog.Info("📢 Fan-out starting", "post_id", item.PostID, "author_id", item.AuthorID)

	// 1. Followers de l'auteur (lus depuis l'edge set persisté)
	followers, err := s.users.ListFollowerIDs(ctx, item.AuthorID)
	if err != nil {
		return err
	}
	if len(followers) == 0 {
		return nil
	}

	// 2. Chunking pour ne pas saturer Redis ni la RAM
	for i := 0; i < len(followers); i += fanoutBatchSize {
		end := i + fanoutBatchSize
		if end > len(followers) {
			end = len(followers)
		}

		if err := s.repo.AddToTimelines(ctx, followers[i:end], item); err != nil {
			slog.Error("❌ Failed to push batch to redis", "error", err, "batch_start", i)
			continue
		}
	}

	slog.Info("✅ Fan-out complete", "count", len(followers))
	return nil
}

func (s *FeedSvc) GetTimeline(ctx context.Context, req domain.FeedRequest) ([]*domain.FeedItem, error) {
	if req.Limit <= 0 {
		req.Limit = defaultPageSize
	}
	return s.repo.GetTimeline(ctx, req)
}
