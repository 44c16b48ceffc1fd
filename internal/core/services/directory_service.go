package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"github.com/google/uuid"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

// DirectoryService implémente ports.DirectoryService : l'annuaire keyé par
// wallet et le CRUD profil. Aucun invariant croisé ici, la seule règle
// transverse est la canonicalisation de l'adresse.
type DirectoryService struct {
	repo    ports.UserRepository
	storage ports.MediaStorage
	tokens  ports.TokenProvider
	broker  ports.EventPublisher
}

func NewDirectoryService(
	repo ports.UserRepository,
	storage ports.MediaStorage,
	tokens ports.TokenProvider,
	broker ports.EventPublisher,
) *DirectoryService {
	return &DirectoryService{repo: repo, storage: storage, tokens: tokens, broker: broker}
}

// ConnectWallet : upsert idempotent keyé par l'adresse canonique.
// Présent => renvoyé inchangé (ce n'est PAS un update de profil) ;
// absent => créé avec username = adresse et les defaults fournis.
func (s *DirectoryService) ConnectWallet(ctx context.Context, cmd ports.ConnectWalletCmd) (*ports.AuthResponse, error) {
	wallet := domain.NormalizeWallet(cmd.WalletAddress)
	if wallet == "" {
		return nil, domain.ErrWalletRequired
	}

	// 1. Lookup canonique
	user, err := s.repo.GetByWallet(ctx, wallet)
	if err != nil && !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("connect wallet lookup: %w", err)
	}

	// 2. Création si absent
	if user == nil {
		user, err = domain.NewUserFromWallet(wallet, domain.ProfileDefaults{
			Age:      cmd.Age,
			Location: cmd.Location,
			Gender:   cmd.Gender,
		})
		if err != nil {
			return nil, err
		}

		if err := s.repo.Save(ctx, user); err != nil {
			// Deux connect-wallet simultanés pour la même adresse : la
			// contrainte UNIQUE de la DB tranche, le perdant relit le
			// gagnant. L'opération reste idempotente vue du client.
			if errors.Is(err, domain.ErrWalletExists) {
				user, err = s.repo.GetByWallet(ctx, wallet)
				if err != nil {
					return nil, fmt.Errorf("connect wallet refetch: %w", err)
				}
			} else {
				return nil, fmt.Errorf("connect wallet save: %w", err)
			}
		} else {
			_ = s.broker.PublishWalletConnected(ctx, user)
		}
	}

	// 3. Token de session
	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("token generation failed: %w", err)
	}

	return &ports.AuthResponse{User: user, AccessToken: token}, nil
}

func (s *DirectoryService) ResolveByWallet(ctx context.Context, walletAddress string) (*domain.User, error) {
	wallet := domain.NormalizeWallet(walletAddress)
	if wallet == "" {
		return nil, domain.ErrWalletRequired
	}
	return s.repo.GetByWallet(ctx, wallet)
}

func (s *DirectoryService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.GetByID(ctx, userID)
}

func (s *DirectoryService) UpdateProfile(ctx context.Context, cmd ports.UpdateProfileCmd) (*domain.User, error) {
	user, err := s.ResolveByWallet(ctx, cmd.WalletAddress)
	if err != nil {
		return nil, err
	}

	if err := user.UpdateProfile(cmd.Username, cmd.Age, cmd.Location, cmd.Gender); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

func (s *DirectoryService) UpdateBio(ctx context.Context, walletAddress, bio string) (*domain.User, error) {
	user, err := s.ResolveByWallet(ctx, walletAddress)
	if err != nil {
		return nil, err
	}

	user.SetBio(bio)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update bio: %w", err)
	}
	return user, nil
}

// UpdateAvatar pousse l'asset vers MediaStorage puis ne garde que l'URL
// renvoyée sur l'utilisateur.
func (s *DirectoryService) UpdateAvatar(ctx context.Context, cmd ports.UpdateAvatarCmd) (*domain.User, error) {
	user, err := s.ResolveByWallet(ctx, cmd.WalletAddress)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", uuid.NewString()+path.Ext(cmd.Upload.Filename))
	url, err := s.storage.Upload(ctx, key, cmd.Upload.ContentType, cmd.Upload.Data, cmd.Upload.Size)
	if err != nil {
		return nil, fmt.Errorf("avatar upload: %w", err)
	}

	user.SetAvatar(url)

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("update avatar: %w", err)
	}

	slog.Info("🖼️ Avatar updated", "user_id", user.ID)
	return user, nil
}
