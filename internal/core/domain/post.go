package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PostType reprend l'enum historique telle quelle (valeurs stockées en base
// et affichées par le front, ne pas renommer).
type PostType string

const (
	PostTypePhotoVideo PostType = "Photo/Video"
	PostTypeAirdrop    PostType = "Airdrop"
	PostTypeToken      PostType = "Token"
	PostTypeNFT        PostType = "NFT"
	PostTypeTokenSwap  PostType = "Token Swap"
)

func (t PostType) Valid() bool {
	switch t {
	case PostTypePhotoVideo, PostTypeAirdrop, PostTypeToken, PostTypeNFT, PostTypeTokenSwap:
		return true
	}
	return false
}

// Post est immuable après création, à l'exception du couple LikedBy/Likes.
// Likes est une cardinalité cachée, pas un compteur indépendant : il n'a pas
// de setter et se recalcule depuis le set à chaque mutation.
type Post struct {
	ID          string
	AuthorID    string
	Type        PostType
	Description string
	Media       []string // URLs ordonnées, les octets vivent derrière MediaStorage
	LikedBy     IDSet
	Likes       int
	CreatedAt   time.Time
}

func NewPost(authorID string, postType PostType, description string, media []string) (*Post, error) {
	if strings.TrimSpace(description) == "" {
		return nil, ErrDescriptionRequired
	}
	if !postType.Valid() {
		return nil, ErrInvalidPostType
	}
	if media == nil {
		media = []string{}
	}

	return &Post{
		ID:          uuid.NewString(),
		AuthorID:    authorID,
		Type:        postType,
		Description: strings.TrimSpace(description),
		Media:       media,
		LikedBy:     IDSet{},
		Likes:       0,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// ToggleLike bascule l'appartenance de userID au set LikedBy puis recalcule
// Likes depuis le set. Jamais d'incrément/décrément : un double submit
// incrémenterait deux fois, re-basculer un set deux fois revient à l'état
// initial. Renvoie le nouvel état (true = like posé).
func (p *Post) ToggleLike(userID string) bool {
	liked := !p.LikedBy.Contains(userID)
	if liked {
		p.LikedBy.Add(userID)
	} else {
		p.LikedBy.Remove(userID)
	}
	p.Likes = p.LikedBy.Len()
	return liked
}

// LikesConsistent est le pendant de FollowEdgeConsistent pour le couple
// set/compteur d'un post.
func (p *Post) LikesConsistent() bool {
	return p.Likes == p.LikedBy.Len()
}
