package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type PostSvc struct {
	repo      ports.PostRepository
	users     ports.UserRepository
	storage   ports.MediaStorage
	publisher ports.EventPublisher
}

func NewPostService(
	repo ports.PostRepository,
	users ports.UserRepository,
	storage ports.MediaStorage,
	pub ports.EventPublisher,
) *PostSvc {
	return &PostSvc{repo: repo, users: users, storage: storage, publisher: pub}
}

func (s *PostSvc) CreatePost(ctx context.Context, cmd ports.CreatePostCmd) (*domain.Post, error) {
	// 1. L'auteur doit exister (NotFound sinon, jamais un post orphelin)
	author, err := s.users.GetByID(ctx, cmd.AuthorID)
	if err != nil {
		return nil, err
	}

	// 2. Média joint : upload AVANT la création, on ne stocke que l'URL
	media := cmd.MediaURLs
	if cmd.Upload != nil {
		key := path.Join("posts", uuid.NewString()+path.Ext(cmd.Upload.Filename))
		url, err := s.storage.Upload(ctx, key, cmd.Upload.ContentType, cmd.Upload.Data, cmd.Upload.Size)
		if err != nil {
			return nil, fmt.Errorf("media upload: %w", err)
		}
		media = append(media, url)
	}

	// 3. Validation des invariants dans la factory du domaine
	post, err := domain.NewPost(author.ID, cmd.Type, cmd.Description, media)
	if err != nil {
		return nil, err
	}

	// 4. Sauvegarde DB (Source of Truth)
	if err := s.repo.Save(ctx, post); err != nil {
		return nil, fmt.Errorf("post save: %w", err)
	}

	// 5. Publication événement (trigger du fan-out). Best effort : la donnée
	// est sauvée, on ne fait pas échouer la requête utilisateur.
	if err := s.publisher.PublishPostCreated(ctx, post); err != nil {
		slog.Error("❌ Failed to publish post.created", "error", err, "post_id", post.ID)
	}

	return post, nil
}

func (s *PostSvc) GetPost(ctx context.Context, postID string) (*domain.Post, error) {
	return s.repo.FindByID(ctx, postID)
}

// ListPosts : pagination keyset, le token est la date de création du dernier
// post formatée RFC3339Nano (précision nanoseconde, la requête suivante fait
// "created_at < cursor").
func (s *PostSvc) ListPosts(ctx context.Context, cmd ports.ListPostsCmd) ([]*domain.Post, string, error) {
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	// 1. Filtre auteur, par id ou par wallet
	authorID := cmd.AuthorID
	if authorID == "" && cmd.AuthorWallet != "" {
		author, err := s.users.GetByWallet(ctx, domain.NormalizeWallet(cmd.AuthorWallet))
		if err != nil {
			return nil, "", err
		}
		authorID = author.ID
	}

	// 2. Décodage du token
	var cursorTime time.Time
	if cmd.PageToken != "" {
		var err error
		cursorTime, err = time.Parse(time.RFC3339Nano, cmd.PageToken)
		if err != nil {
			return nil, "", errors.New("invalid page token")
		}
	}

	// 3. Lecture
	posts, err := s.repo.List(ctx, authorID, limit, cursorTime)
	if err != nil {
		return nil, "", err
	}

	// 4. Prochain token = created_at du DERNIER post récupéré
	nextCursor := ""
	if len(posts) > 0 {
		nextCursor = posts[len(posts)-1].CreatedAt.Format(time.RFC3339Nano)
	}

	return posts, nextCursor, nil
}
