package ports

import (
	"context"
	"io"

	"github.com/blockfile/ffs/internal/core/domain"
)

// --- INPUTS (Command Pattern) ---
// Des structs plutôt que des listes d'arguments : on peut ajouter des champs
// optionnels plus tard sans casser les signatures.

type ConnectWalletCmd struct {
	WalletAddress string
	Age           int
	Location      string
	Gender        domain.Gender
}

type UpdateProfileCmd struct {
	WalletAddress string
	Username      *string // nil = pas de changement
	Age           *int
	Location      *string
	Gender        *domain.Gender
}

// MediaUpload transporte un fichier reçu par l'adapter vers MediaStorage.
// Le core ne voit jamais les octets autrement que comme un Reader.
type MediaUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

type UpdateAvatarCmd struct {
	WalletAddress string
	Upload        MediaUpload
}

type CreatePostCmd struct {
	AuthorID    string
	Type        domain.PostType
	Description string
	MediaURLs   []string     // URLs déjà émises (ex: média externe)
	Upload      *MediaUpload // fichier joint, optionnel
}

type ListPostsCmd struct {
	AuthorID     string // filtre optionnel
	AuthorWallet string // alternative : résolu vers AuthorID
	Limit        int
	PageToken    string
}

// --- OUTPUTS ---

type AuthResponse struct {
	User        *domain.User
	AccessToken string
}

// FollowResult renvoie l'état post-toggle. Les compteurs sont recalculés
// depuis les sets persistés du followee, jamais incrémentés à part.
type FollowResult struct {
	IsFollowing    bool
	FollowerCount  int
	FollowingCount int
}

// --- PORTS PRIMAIRES (Driving) ---

// DirectoryService expose l'annuaire utilisateurs (wallet + profil).
type DirectoryService interface {
	// ConnectWallet est un upsert idempotent : présent => renvoyé inchangé.
	ConnectWallet(ctx context.Context, cmd ConnectWalletCmd) (*AuthResponse, error)
	ResolveByWallet(ctx context.Context, walletAddress string) (*domain.User, error)
	GetUser(ctx context.Context, userID string) (*domain.User, error)
	UpdateProfile(ctx context.Context, cmd UpdateProfileCmd) (*domain.User, error)
	UpdateBio(ctx context.Context, walletAddress, bio string) (*domain.User, error)
	UpdateAvatar(ctx context.Context, cmd UpdateAvatarCmd) (*domain.User, error)
}

type PostService interface {
	CreatePost(ctx context.Context, cmd CreatePostCmd) (*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*domain.Post, error)
	ListPosts(ctx context.Context, cmd ListPostsCmd) ([]*domain.Post, string, error)
}

// EngagementService porte la logique de toggle : c'est lui qui garantit que
// les deux représentations d'un même fait (set + compteur, ou les deux faces
// d'une arête) ne divergent jamais.
type EngagementService interface {
	ToggleFollow(ctx context.Context, followerID, followeeID string) (*FollowResult, error)
	ToggleLike(ctx context.Context, userID, postID string) (*domain.Post, error)
}

type FeedService interface {
	DistributePost(ctx context.Context, item *domain.FeedItem) error
	GetTimeline(ctx context.Context, req domain.FeedRequest) ([]*domain.FeedItem, error)
}
