package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPostValidation(t *testing.T) {
	_, err := NewPost("author", PostTypeNFT, "   ", nil)
	assert.ErrorIs(t, err, ErrDescriptionRequired)

	_, err = NewPost("author", PostType("Meme"), "hello", nil)
	assert.ErrorIs(t, err, ErrInvalidPostType)
}

func TestNewPostDefaults(t *testing.T) {
	post, err := NewPost("author", PostTypePhotoVideo, "  gm  ", nil)
	require.NoError(t, err)

	assert.NotEmpty(t, post.ID)
	assert.Equal(t, "gm", post.Description)
	assert.NotNil(t, post.Media)
	assert.Equal(t, 0, post.Likes)
	assert.Equal(t, 0, post.LikedBy.Len())
}

func TestToggleLikeScenario(t *testing.T) {
	post, err := NewPost("author", PostTypeToken, "to the moon", nil)
	require.NoError(t, err)

	liked := post.ToggleLike("user-1")
	assert.True(t, liked)
	assert.True(t, post.LikedBy.Contains("user-1"))
	assert.Equal(t, 1, post.Likes)

	liked = post.ToggleLike("user-1")
	assert.False(t, liked)
	assert.False(t, post.LikedBy.Contains("user-1"))
	assert.Equal(t, 0, post.Likes)
}

// La cardinalité doit suivre le set quelle que soit la séquence de toggles.
func TestToggleLikeCardinalityNeverDrifts(t *testing.T) {
	post, err := NewPost("author", PostTypeAirdrop, "free stuff", nil)
	require.NoError(t, err)

	users := []string{"u1", "u2", "u3", "u1", "u2", "u4", "u1", "u4"}
	for _, u := range users {
		post.ToggleLike(u)
		assert.True(t, post.LikesConsistent())
	}

	// u1 togglé 3x (present), u2 2x (absent), u3 1x (present), u4 2x (absent)
	assert.True(t, post.LikedBy.Contains("u1"))
	assert.False(t, post.LikedBy.Contains("u2"))
	assert.True(t, post.LikedBy.Contains("u3"))
	assert.False(t, post.LikedBy.Contains("u4"))
	assert.Equal(t, 2, post.Likes)
}

func TestPostTypeEnum(t *testing.T) {
	for _, valid := range []PostType{PostTypePhotoVideo, PostTypeAirdrop, PostTypeToken, PostTypeNFT, PostTypeTokenSwap} {
		assert.True(t, valid.Valid(), string(valid))
	}
	assert.False(t, PostType("").Valid())
	assert.False(t, PostType("photo/video").Valid(), "enum values are case sensitive")
}
