package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockfile/ffs/internal/core/domain"
)

type PostgresPostRepo struct {
	db *pgxpool.Pool
}

func NewPostgresPostRepo(pool *pgxpool.Pool) *PostgresPostRepo {
	return &PostgresPostRepo{db: pool}
}

func (r *PostgresPostRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS posts (
			id          uuid PRIMARY KEY,
			author_id   uuid NOT NULL,
			type        text NOT NULL,
			description text NOT NULL,
			media       jsonb NOT NULL DEFAULT '[]',
			liked_by    jsonb NOT NULL DEFAULT '[]',
			likes       int NOT NULL DEFAULT 0,
			created_at  timestamptz NOT NULL
		);
		CREATE INDEX IF NOT EXISTS posts_author_created_idx ON posts (author_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at DESC);
	`)
	return err
}

const postColumns = `id, author_id, type, description, media, liked_by, likes, created_at`

func (r *PostgresPostRepo) Save(ctx context.Context, post *domain.Post) error {
	q := `
		INSERT INTO posts (` + postColumns + `)
		VALUES (@id, @author_id, @type, @description, @media, @liked_by, @likes, @created_at)
	`
	mediaJSON, err := json.Marshal(post.Media)
	if err != nil {
		return fmt.Errorf("db: marshal media: %w", err)
	}
	likedByJSON, err := json.Marshal(post.LikedBy)
	if err != nil {
		return fmt.Errorf("db: marshal liked_by: %w", err)
	}

	_, err = r.db.Exec(ctx, q, pgx.NamedArgs{
		"id":          post.ID,
		"author_id":   post.AuthorID,
		"type":        string(post.Type),
		"description": post.Description,
		"media":       mediaJSON,
		"liked_by":    likedByJSON,
		"likes":       post.Likes,
		"created_at":  post.CreatedAt,
	})
	return err
}

func (r *PostgresPostRepo) FindByID(ctx context.Context, postID string) (*domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1`
	return r.scanPost(r.db.QueryRow(ctx, q, postID))
}

// List : pagination keyset (cursorTime zéro = première page), tri
// created_at décroissant. authorID vide = feed global.
func (r *PostgresPostRepo) List(ctx context.Context, authorID string, limit int, cursorTime time.Time) ([]*domain.Post, error) {
	q := `SELECT ` + postColumns + ` FROM posts WHERE 1=1`
	args := pgx.NamedArgs{"limit": limit}

	if authorID != "" {
		q += ` AND author_id = @author_id`
		args["author_id"] = authorID
	}
	if !cursorTime.IsZero() {
		q += ` AND created_at < @cursor`
		args["cursor"] = cursorTime
	}
	q += ` ORDER BY created_at DESC LIMIT @limit`

	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []*domain.Post
	for rows.Next() {
		p, err := r.scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// MutatePost : la section critique du like. Ligne lue FOR UPDATE, flip en
// mémoire, garde-fou likes == |liked_by|, écriture du couple set+compteur
// dans la même transaction. C'est l'UNIQUE chemin d'écriture de liked_by.
func (r *PostgresPostRepo) MutatePost(ctx context.Context, postID string,
	mutate func(post *domain.Post) error) (*domain.Post, error) {

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, fmt.Errorf("db: begin like tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	q := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 FOR UPDATE`
	post, err := r.scanPost(tx.QueryRow(ctx, q, postID))
	if err != nil {
		return nil, err
	}

	if err := mutate(post); err != nil {
		return nil, err
	}

	if !post.LikesConsistent() {
		return nil, domain.ErrConsistency
	}

	likedByJSON, err := json.Marshal(post.LikedBy)
	if err != nil {
		return nil, fmt.Errorf("db: marshal liked_by: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE posts SET liked_by = $1, likes = $2 WHERE id = $3`,
		likedByJSON, post.Likes, post.ID)
	if err != nil {
		return nil, fmt.Errorf("db: persist likes: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrPostNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("db: commit like tx: %w", err)
	}
	return post, nil
}

// --- HELPERS ---

func (r *PostgresPostRepo) scanPost(row pgx.Row) (*domain.Post, error) {
	var p domain.Post
	var typ string
	var mediaJSON, likedByJSON []byte

	err := row.Scan(&p.ID, &p.AuthorID, &typ, &p.Description, &mediaJSON, &likedByJSON, &p.Likes, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("db: scan post: %w", err)
	}
	p.Type = domain.PostType(typ)

	if err := json.Unmarshal(mediaJSON, &p.Media); err != nil {
		return nil, fmt.Errorf("db: decode media: %w", err)
	}
	if err := json.Unmarshal(likedByJSON, &p.LikedBy); err != nil {
		return nil, fmt.Errorf("db: decode liked_by: %w", err)
	}
	if p.Media == nil {
		p.Media = []string{}
	}
	if p.LikedBy == nil {
		p.LikedBy = domain.IDSet{}
	}
	return &p, nil
}
