package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockfile/ffs/internal/core/domain"
	"github.com/blockfile/ffs/internal/core/ports"
)

type directoryFixture struct {
	repo    *memUserRepo
	storage *stubStorage
	pub     *stubPublisher
	svc     *DirectoryService
}

func newDirectoryFixture() *directoryFixture {
	f := &directoryFixture{
		repo:    newMemUserRepo(),
		storage: &stubStorage{},
		pub:     &stubPublisher{},
	}
	f.svc = NewDirectoryService(f.repo, f.storage, stubTokens{}, f.pub)
	return f
}

func TestConnectWalletCreatesUser(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	resp, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{
		WalletAddress: "0xDeAdBeEf",
		Age:           42,
		Location:      "Lisbonne",
	})
	require.NoError(t, err)

	assert.Equal(t, "0xdeadbeef", resp.User.WalletAddress)
	assert.Equal(t, "0xdeadbeef", resp.User.Username)
	assert.Equal(t, 42, resp.User.Age)
	assert.Equal(t, domain.GenderOther, resp.User.Gender)
	assert.Equal(t, "token-"+resp.User.ID, resp.AccessToken)
	assert.Equal(t, []string{"user.connected"}, f.pub.subjects())
}

// Connect-wallet est idempotent : présent => renvoyé inchangé, les defaults
// de la seconde requête sont ignorés.
func TestConnectWalletIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	first, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAA", Age: 20})
	require.NoError(t, err)

	second, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xaa", Age: 99, Location: "Mars"})
	require.NoError(t, err)

	assert.Equal(t, first.User.ID, second.User.ID)
	assert.Equal(t, 20, second.User.Age, "existing profile untouched")
	assert.Equal(t, "", second.User.Location)
	assert.Equal(t, []string{"user.connected"}, f.pub.subjects(), "published once only")
}

func TestConnectWalletRequiresAddress(t *testing.T) {
	f := newDirectoryFixture()
	_, err := f.svc.ConnectWallet(context.Background(), ports.ConnectWalletCmd{WalletAddress: "  "})
	assert.ErrorIs(t, err, domain.ErrWalletRequired)
}

// Deux connect-wallet simultanés : le perdant de la contrainte UNIQUE relit
// le gagnant au lieu d'échouer.
func TestConnectWalletLostRace(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()
	racy := &racyUserRepo{memUserRepo: f.repo}
	svc := NewDirectoryService(racy, f.storage, stubTokens{}, f.pub)

	// L'autre requête a déjà créé l'utilisateur
	winner, err := domain.NewUserFromWallet("0xAA", domain.ProfileDefaults{})
	require.NoError(t, err)
	require.NoError(t, f.repo.Save(ctx, winner))

	resp, err := svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAA"})
	require.NoError(t, err)
	assert.Equal(t, winner.ID, resp.User.ID)
}

// racyUserRepo simule la fenêtre de course : le premier GetByWallet rate
// alors que la ligne existe déjà, Save tombe ensuite sur la contrainte.
type racyUserRepo struct {
	*memUserRepo
	missed bool
}

func (r *racyUserRepo) GetByWallet(ctx context.Context, wallet string) (*domain.User, error) {
	if !r.missed {
		r.missed = true
		return nil, domain.ErrUserNotFound
	}
	return r.memUserRepo.GetByWallet(ctx, wallet)
}

func TestResolveByWalletIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	_, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAbCd"})
	require.NoError(t, err)

	for _, probe := range []string{"0xabcd", "0XABCD", " 0xAbCd "} {
		user, err := f.svc.ResolveByWallet(ctx, probe)
		require.NoError(t, err, probe)
		assert.Equal(t, "0xabcd", user.WalletAddress)
	}

	_, err = f.svc.ResolveByWallet(ctx, "0xother")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateProfilePartialFields(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	_, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAA", Location: "Paris"})
	require.NoError(t, err)

	name := "vitalik"
	user, err := f.svc.UpdateProfile(ctx, ports.UpdateProfileCmd{
		WalletAddress: "0xAA",
		Username:      &name,
	})
	require.NoError(t, err)
	assert.Equal(t, "vitalik", user.Username)
	assert.Equal(t, "Paris", user.Location, "untouched field survives")

	stored, err := f.svc.ResolveByWallet(ctx, "0xAA")
	require.NoError(t, err)
	assert.Equal(t, "vitalik", stored.Username)
}

func TestUpdateBio(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	_, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAA"})
	require.NoError(t, err)

	user, err := f.svc.UpdateBio(ctx, "0xAA", "gm, wagmi")
	require.NoError(t, err)
	assert.Equal(t, "gm, wagmi", user.Bio)

	_, err = f.svc.UpdateBio(ctx, "0xmissing", "hi")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestUpdateAvatarStoresURLOnly(t *testing.T) {
	ctx := context.Background()
	f := newDirectoryFixture()

	_, err := f.svc.ConnectWallet(ctx, ports.ConnectWalletCmd{WalletAddress: "0xAA"})
	require.NoError(t, err)

	user, err := f.svc.UpdateAvatar(ctx, ports.UpdateAvatarCmd{
		WalletAddress: "0xAA",
		Upload: ports.MediaUpload{
			Filename:    "me.png",
			ContentType: "image/png",
			Size:        4,
			Data:        strings.NewReader("\x89PNG"),
		},
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(user.Avatar, "https://cdn.test/avatars/"))
	assert.True(t, strings.HasSuffix(user.Avatar, ".png"))
	require.Len(t, f.storage.paths, 1)
}
