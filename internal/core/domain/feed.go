package domain

import "time"

// FeedItem est la projection légère d'un post poussée dans les timelines
// Redis lors du fan-out. L'hydratation complète (description, likes, auteur)
// reste à la charge du lecteur via PostStore.
type FeedItem struct {
	PostID    string
	AuthorID  string
	Type      PostType
	CreatedAt time.Time
}

type FeedRequest struct {
	UserID string
	Limit  int64
	Offset int64
	Types  []PostType // filtre optionnel
}
