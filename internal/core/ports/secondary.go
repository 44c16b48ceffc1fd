package ports

import (
	"context"
	"io"
	"time"

	"github.com/blockfile/ffs/internal/core/domain"
)

// --- PERSISTANCE (DB) ---

// UserRepository est le port Driven vers le stockage des utilisateurs.
// Les edge sets appartiennent exclusivement à ce repository : personne
// d'autre n'écrit followers/following.
type UserRepository interface {
	EnsureSchema(ctx context.Context) error

	Save(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// GetByWallet compare sur la forme canonique de l'adresse
	// (insensible à la casse).
	GetByWallet(ctx context.Context, walletAddress string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error

	// MutateFollowPair est la section critique du follow : les deux lignes
	// sont verrouillées (ordre canonique, pour éviter le deadlock croisé),
	// mutate est appelé sur les entités fraîchement lues, puis les DEUX
	// lignes sont persistées dans la même transaction. Si mutate ou la
	// vérification de symétrie échoue, rien n'est commité.
	MutateFollowPair(ctx context.Context, followerID, followeeID string,
		mutate func(follower, followee *domain.User) error) (*domain.User, *domain.User, error)

	// ListFollowerIDs alimente le fan-out du feed.
	ListFollowerIDs(ctx context.Context, userID string) ([]string, error)
}

type PostRepository interface {
	EnsureSchema(ctx context.Context) error

	Save(ctx context.Context, post *domain.Post) error
	FindByID(ctx context.Context, postID string) (*domain.Post, error)

	// Pagination keyset (cursor = created_at du dernier post vu),
	// tri created_at décroissant. authorID vide = tous les posts.
	List(ctx context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error)

	// MutatePost est la section critique du like : ligne verrouillée,
	// mutate appelé, couple liked_by/likes persisté atomiquement.
	MutatePost(ctx context.Context, postID string,
		mutate func(post *domain.Post) error) (*domain.Post, error)
}

// --- FEED (Redis) ---

type FeedRepository interface {
	AddToTimelines(ctx context.Context, userIDs []string, item *domain.FeedItem) error
	GetTimeline(ctx context.Context, req domain.FeedRequest) ([]*domain.FeedItem, error)
}

// --- MESSAGERIE (BROKER) ---

// EventPublisher notifie le reste du monde (feed, notifs). Best effort :
// un échec de publication ne fait jamais échouer l'opération du caller.
type EventPublisher interface {
	PublishPostCreated(ctx context.Context, post *domain.Post) error
	PublishPostLiked(ctx context.Context, post *domain.Post, userID string, liked bool) error
	PublishUserFollowed(ctx context.Context, followerID, followeeID string, following bool) error
	PublishWalletConnected(ctx context.Context, user *domain.User) error
}

// --- MÉDIA ---

// MediaStorage abstrait le stockage d'assets (disque local, S3). Le store ne
// garde que l'URL stable renvoyée, jamais les octets.
type MediaStorage interface {
	Upload(ctx context.Context, path, contentType string, data io.Reader, size int64) (string, error)
}

// --- SÉCURITÉ ---

// TokenProvider abstrait l'émission du token de session renvoyé au
// connect-wallet.
type TokenProvider interface {
	Generate(user *domain.User) (string, error)
	Validate(token string) (userID string, err error)
}
