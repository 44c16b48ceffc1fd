package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/blockfile/ffs/internal/core/domain"
)

// RedisFeedRepo stocke chaque timeline dans un Sorted Set
// "timeline:<userID>", membre "TYPE:authorID:postID", score = unix du
// created_at. TTL glissant : on ne garde pas l'infini en RAM.
type RedisFeedRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisFeedRepo(client *redis.Client) *RedisFeedRepo {
	return &RedisFeedRepo{
		client: client,
		ttl:    24 * 30 * time.Hour,
	}
}

func timelineKey(userID string) string {
	return fmt.Sprintf("timeline:%s", userID)
}

// AddToTimelines pousse l'item vers un batch de followers en un seul
// pipeline.
func (r *RedisFeedRepo) AddToTimelines(ctx context.Context, userIDs []string, item *domain.FeedItem) error {
	pipe := r.client.Pipeline()

	member := fmt.Sprintf("%s:%s:%s", item.Type, item.AuthorID, item.PostID)
	score := float64(item.CreatedAt.Unix())

	for _, uid := range userIDs {
		key := timelineKey(uid)
		pipe.ZAdd(ctx, key, redis.Z{Score: score, Member: member})
		pipe.Expire(ctx, key, r.ttl)
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisFeedRepo) GetTimeline(ctx context.Context, req domain.FeedRequest) ([]*domain.FeedItem, error) {
	key := timelineKey(req.UserID)

	// ZREVRANGE inclusif
	start := req.Offset
	stop := req.Offset + req.Limit - 1

	results, err := r.client.ZRevRangeWithScores(ctx, key, start, stop).Result()
	if err != nil {
		return nil, err
	}

	filter := make(map[domain.PostType]bool, len(req.Types))
	for _, t := range req.Types {
		filter[t] = true
	}
	hasFilter := len(filter) > 0

	items := make([]*domain.FeedItem, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}

		// NB: PostType peut contenir un '/' mais jamais ':', le split reste sûr
		parts := strings.SplitN(member, ":", 3)
		if len(parts) != 3 {
			continue // membre corrompu, on l'ignore
		}

		contentType := domain.PostType(parts[0])
		if hasFilter && !filter[contentType] {
			continue
		}

		items = append(items, &domain.FeedItem{
			Type:      contentType,
			AuthorID:  parts[1],
			PostID:    parts[2],
			CreatedAt: time.Unix(int64(z.Score), 0),
		})
	}

	return items, nil
}
