package rest

import (
	"time"

	"github.com/blockfile/ffs/internal/core/domain"
)

type userResponse struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"walletAddress"`
	Username      string    `json:"username"`
	Age           int       `json:"age,omitempty"`
	Location      string    `json:"location,omitempty"`
	Gender        string    `json:"gender"`
	Bio           string    `json:"bio,omitempty"`
	Avatar        string    `json:"avatar,omitempty"`
	Followers     []string  `json:"followers"`
	Following     []string  `json:"following"`
	CreatedAt     time.Time `json:"createdAt"`
}

func mapUser(u *domain.User) *userResponse {
	if u == nil {
		return nil
	}
	return &userResponse{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Username:      u.Username,
		Age:           u.Age,
		Location:      u.Location,
		Gender:        string(u.Gender),
		Bio:           u.Bio,
		Avatar:        u.Avatar,
		Followers:     u.Followers.Clone(),
		Following:     u.Following.Clone(),
		CreatedAt:     u.CreatedAt,
	}
}

type postResponse struct {
	ID          string    `json:"id"`
	AuthorID    string    `json:"authorId"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Media       []string  `json:"media"`
	LikedBy     []string  `json:"likedBy"`
	Likes       int       `json:"likes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func mapPost(p *domain.Post) *postResponse {
	if p == nil {
		return nil
	}
	return &postResponse{
		ID:          p.ID,
		AuthorID:    p.AuthorID,
		Type:        string(p.Type),
		Description: p.Description,
		Media:       p.Media,
		LikedBy:     p.LikedBy.Clone(),
		Likes:       p.Likes,
		CreatedAt:   p.CreatedAt,
	}
}

func mapPosts(posts []*domain.Post) []*postResponse {
	out := make([]*postResponse, len(posts))
	for i, p := range posts {
		out[i] = mapPost(p)
	}
	return out
}

type feedItemResponse struct {
	PostID    string    `json:"postId"`
	AuthorID  string    `json:"authorId"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

func mapFeedItems(items []*domain.FeedItem) []*feedItemResponse {
	out := make([]*feedItemResponse, len(items))
	for i, it := range items {
		out[i] = &feedItemResponse{
			PostID:    it.PostID,
			AuthorID:  it.AuthorID,
			Type:      string(it.Type),
			CreatedAt: it.CreatedAt,
		}
	}
	return out
}
