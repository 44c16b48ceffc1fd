package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeWallet(t *testing.T) {
	assert.Equal(t, "0xabcdef", NormalizeWallet("  0xAbCdEf "))
	assert.Equal(t, "", NormalizeWallet("   "))
}

func TestNewUserFromWallet(t *testing.T) {
	user, err := NewUserFromWallet("0xAA11", ProfileDefaults{Age: 30, Location: "Paris"})
	require.NoError(t, err)

	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "0xaa11", user.WalletAddress, "address is stored canonical")
	assert.Equal(t, "0xaa11", user.Username, "username defaults to the address")
	assert.Equal(t, GenderOther, user.Gender, "gender defaults to other")
	assert.Equal(t, 30, user.Age)
	assert.NotNil(t, user.Followers)
	assert.NotNil(t, user.Following)
}

func TestNewUserFromWalletRejectsEmptyAddress(t *testing.T) {
	_, err := NewUserFromWallet("   ", ProfileDefaults{})
	assert.ErrorIs(t, err, ErrWalletRequired)
}

func TestNewUserFromWalletRejectsBadGender(t *testing.T) {
	_, err := NewUserFromWallet("0xaa", ProfileDefaults{Gender: "robot"})
	assert.ErrorIs(t, err, ErrInvalidGender)
}

func newTestUser(t *testing.T, wallet string) *User {
	t.Helper()
	u, err := NewUserFromWallet(wallet, ProfileDefaults{})
	require.NoError(t, err)
	return u
}

func TestToggleFollowEdgeMutatesBothSides(t *testing.T) {
	a := newTestUser(t, "0xAA")
	b := newTestUser(t, "0xBB")

	following := ToggleFollowEdge(a, b)
	assert.True(t, following)
	assert.True(t, a.Following.Contains(b.ID))
	assert.True(t, b.Followers.Contains(a.ID))
	assert.True(t, FollowEdgeConsistent(a, b))

	// Le toggle inverse ramène à l'état initial
	following = ToggleFollowEdge(a, b)
	assert.False(t, following)
	assert.Equal(t, 0, a.Following.Len())
	assert.Equal(t, 0, b.Followers.Len())
	assert.True(t, FollowEdgeConsistent(a, b))
}

func TestFollowEdgeConsistentDetectsDrift(t *testing.T) {
	a := newTestUser(t, "0xAA")
	b := newTestUser(t, "0xBB")

	// Mutation illégale d'une seule face
	a.Following.Add(b.ID)
	assert.False(t, FollowEdgeConsistent(a, b))
}

func TestUpdateProfilePartial(t *testing.T) {
	u := newTestUser(t, "0xAA")
	name := "satoshi"
	age := 21

	require.NoError(t, u.UpdateProfile(&name, &age, nil, nil))
	assert.Equal(t, "satoshi", u.Username)
	assert.Equal(t, 21, u.Age)
	assert.Equal(t, "0xaa", u.WalletAddress, "wallet never changes")
}

func TestUpdateProfileRejectsBadGender(t *testing.T) {
	u := newTestUser(t, "0xAA")
	g := Gender("alien")
	assert.ErrorIs(t, u.UpdateProfile(nil, nil, nil, &g), ErrInvalidGender)
}

func TestUpdateProfileIgnoresBlankUsername(t *testing.T) {
	u := newTestUser(t, "0xAA")
	blank := "   "
	require.NoError(t, u.UpdateProfile(&blank, nil, nil, nil))
	assert.Equal(t, "0xaa", u.Username)
}
