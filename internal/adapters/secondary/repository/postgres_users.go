package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/blockfile/ffs/internal/core/domain"
)

// DTO interne : tampon entre la base et le domaine, les edge sets vivent en
// JSONB sur la ligne (comme les arrays embarqués du schéma d'origine).
type sqlUser struct {
	ID            string
	WalletAddress string
	Username      string
	Age           int
	Location      string
	Gender        string
	Bio           string
	Avatar        string
	Followers     []byte // JSONB
	Following     []byte // JSONB
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

// EnsureSchema crée la table et l'index wallet (idempotent).
func (r *PostgresUserRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id             uuid PRIMARY KEY,
			wallet_address text NOT NULL UNIQUE,
			username       text NOT NULL,
			age            int NOT NULL DEFAULT 0,
			location       text NOT NULL DEFAULT '',
			gender         text NOT NULL DEFAULT 'other',
			bio            text NOT NULL DEFAULT '',
			avatar         text NOT NULL DEFAULT '',
			followers      jsonb NOT NULL DEFAULT '[]',
			following      jsonb NOT NULL DEFAULT '[]',
			created_at     timestamptz NOT NULL,
			updated_at     timestamptz NOT NULL
		)
	`)
	return err
}

const userColumns = `id, wallet_address, username, age, location, gender, bio, avatar, followers, following, created_at, updated_at`

func (r *PostgresUserRepo) Save(ctx context.Context, user *domain.User) error {
	q := `
		INSERT INTO users (` + userColumns + `)
		VALUES (@id, @wallet_address, @username, @age, @location, @gender, @bio, @avatar, @followers, @following, @created_at, @updated_at)
	`
	args, err := userArgs(user)
	if err != nil {
		return err
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return r.handleError(err)
	}
	return nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.db.QueryRow(ctx, q, id))
}

// GetByWallet : l'adresse est stockée canonique, on normalise aussi l'entrée.
// Comparaison exacte, pas de regex insensible à la casse.
func (r *PostgresUserRepo) GetByWallet(ctx context.Context, walletAddress string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE wallet_address = $1`
	return r.scanUser(r.db.QueryRow(ctx, q, domain.NormalizeWallet(walletAddress)))
}

// Update persiste les champs profil. Les edge sets ne passent JAMAIS par ici,
// ils appartiennent à MutateFollowPair.
func (r *PostgresUserRepo) Update(ctx context.Context, user *domain.User) error {
	q := `
		UPDATE users
		SET username = @username, age = @age, location = @location, gender = @gender,
		    bio = @bio, avatar = @avatar, updated_at = @updated_at
		WHERE id = @id
	`
	args := pgx.NamedArgs{
		"id":         user.ID,
		"username":   user.Username,
		"age":        user.Age,
		"location":   user.Location,
		"gender":     string(user.Gender),
		"bio":        user.Bio,
		"avatar":     user.Avatar,
		"updated_at": user.UpdatedAt,
	}

	tag, err := r.db.Exec(ctx, q, args)
	if err != nil {
		return r.handleError(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// MutateFollowPair : la section critique du follow.
// Les deux lignes sont lues FOR UPDATE dans l'ordre canonique des ids (deux
// toggles croisés A->B / B->A prennent les verrous dans le même ordre, pas de
// deadlock), mutées en mémoire, vérifiées, puis écrites dans la MÊME
// transaction. Un échec quelconque annule tout : pas de demi-arête commitée.
func (r *PostgresUserRepo) MutateFollowPair(ctx context.Context, followerID, followeeID string,
	mutate func(follower, followee *domain.User) error) (*domain.User, *domain.User, error) {

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("db: begin follow tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// 1. Lock des deux lignes, ordre canonique
	first, second := followerID, followeeID
	if second < first {
		first, second = second, first
	}

	users := make(map[string]*domain.User, 2)
	for _, id := range []string{first, second} {
		q := `SELECT ` + userColumns + ` FROM users WHERE id = $1 FOR UPDATE`
		u, err := r.scanUser(tx.QueryRow(ctx, q, id))
		if err != nil {
			return nil, nil, err
		}
		users[id] = u
	}
	follower, followee := users[followerID], users[followeeID]

	// 2. Flip en mémoire (logique du domaine)
	if err := mutate(follower, followee); err != nil {
		return nil, nil, err
	}

	// 3. Garde-fou avant commit : une asymétrie est fatale, on annule
	if !domain.FollowEdgeConsistent(follower, followee) {
		return nil, nil, domain.ErrConsistency
	}

	// 4. Persistance des DEUX faces
	for _, u := range []*domain.User{follower, followee} {
		followersJSON, err := json.Marshal(u.Followers)
		if err != nil {
			return nil, nil, fmt.Errorf("db: marshal followers: %w", err)
		}
		followingJSON, err := json.Marshal(u.Following)
		if err != nil {
			return nil, nil, fmt.Errorf("db: marshal following: %w", err)
		}

		tag, err := tx.Exec(ctx,
			`UPDATE users SET followers = $1, following = $2, updated_at = $3 WHERE id = $4`,
			followersJSON, followingJSON, u.UpdatedAt, u.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("db: persist edges: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, nil, domain.ErrConsistency
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("db: commit follow tx: %w", err)
	}
	return follower, followee, nil
}

// ListFollowerIDs lit l'edge set côté followee pour le fan-out.
func (r *PostgresUserRepo) ListFollowerIDs(ctx context.Context, userID string) ([]string, error) {
	var raw []byte
	err := r.db.QueryRow(ctx, `SELECT followers FROM users WHERE id = $1`, userID).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db: list followers: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("db: decode followers: %w", err)
	}
	return ids, nil
}

// --- HELPERS ---

func userArgs(user *domain.User) (pgx.NamedArgs, error) {
	followersJSON, err := json.Marshal(user.Followers)
	if err != nil {
		return nil, fmt.Errorf("db: marshal followers: %w", err)
	}
	followingJSON, err := json.Marshal(user.Following)
	if err != nil {
		return nil, fmt.Errorf("db: marshal following: %w", err)
	}

	return pgx.NamedArgs{
		"id":             user.ID,
		"wallet_address": user.WalletAddress,
		"username":       user.Username,
		"age":            user.Age,
		"location":       user.Location,
		"gender":         string(user.Gender),
		"bio":            user.Bio,
		"avatar":         user.Avatar,
		"followers":      followersJSON,
		"following":      followingJSON,
		"created_at":     user.CreatedAt,
		"updated_at":     user.UpdatedAt,
	}, nil
}

func (r *PostgresUserRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u sqlUser
	err := row.Scan(&u.ID, &u.WalletAddress, &u.Username, &u.Age, &u.Location, &u.Gender,
		&u.Bio, &u.Avatar, &u.Followers, &u.Following, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound // traduction technique -> domaine
		}
		return nil, fmt.Errorf("db: scan user: %w", err)
	}
	return toDomainUser(&u)
}

func toDomainUser(u *sqlUser) (*domain.User, error) {
	var followers, following domain.IDSet
	if err := json.Unmarshal(u.Followers, &followers); err != nil {
		return nil, fmt.Errorf("db: decode followers: %w", err)
	}
	if err := json.Unmarshal(u.Following, &following); err != nil {
		return nil, fmt.Errorf("db: decode following: %w", err)
	}
	if followers == nil {
		followers = domain.IDSet{}
	}
	if following == nil {
		following = domain.IDSet{}
	}

	return &domain.User{
		ID:            u.ID,
		WalletAddress: u.WalletAddress,
		Username:      u.Username,
		Age:           u.Age,
		Location:      u.Location,
		Gender:        domain.Gender(u.Gender),
		Bio:           u.Bio,
		Avatar:        u.Avatar,
		Followers:     followers,
		Following:     following,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}, nil
}

// handleError traduit les codes PostgreSQL en erreurs du domaine.
func (r *PostgresUserRepo) handleError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 = Unique Violation (wallet_address)
		if pgErr.Code == "23505" {
			return domain.ErrWalletExists
		}
	}
	return err
}
