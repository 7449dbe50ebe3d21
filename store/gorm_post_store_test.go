package store

import (
	"context"
	"os"
	"testing"

	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/utils"
	"github.com/hakobgh/socialmedia/utils/dotenv"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	dotenv.LoadDotEnvsInTests()
	os.Exit(m.Run())
}

// newTempPostStore runs against a throwaway Postgres database, the test is
// skipped when no server is reachable.
func newTempPostStore(t *testing.T) *GormPostStore {
	t.Helper()
	return NewGormPostStore(utils.CreateTempDB(t), NewGoChannelChangeBus())
}

func createDBPost(t *testing.T, s *GormPostStore, text string, authorUID string) *model.Post {
	t.Helper()
	post := &model.Post{Text: text, UserName: "author", UserUID: authorUID}
	require.Nil(t, s.CreatePost(context.Background(), post))
	return post
}

func TestGormToggleStateMachine(t *testing.T) {
	s := newTempPostStore(t)
	ctx := context.Background()
	post := createDBPost(t, s, "hello", "author")

	// neutral -> liked
	updated, err := s.ToggleLike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	assert.Equal(t, pq.StringArray{"user_a"}, updated.LikedIDs)
	assert.Empty(t, updated.DislikedIDs)

	// liked -> disliked, the like is cleared in the same statement
	updated, err = s.ToggleDislike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	assert.Empty(t, updated.LikedIDs)
	assert.Equal(t, pq.StringArray{"user_a"}, updated.DislikedIDs)

	// disliked -> neutral
	updated, err = s.ToggleDislike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	assert.Empty(t, updated.LikedIDs)
	assert.Empty(t, updated.DislikedIDs)

	// liked -> neutral
	_, err = s.ToggleLike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	updated, err = s.ToggleLike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	assert.Empty(t, updated.LikedIDs)
	assert.Empty(t, updated.DislikedIDs)
}

func TestGormToggleKeepsOtherUsersReactions(t *testing.T) {
	s := newTempPostStore(t)
	ctx := context.Background()
	post := createDBPost(t, s, "hello", "author")

	_, err := s.ToggleLike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	updated, err := s.ToggleLike(ctx, post.Id, "user_b")
	require.Nil(t, err)
	assert.Equal(t, pq.StringArray{"user_a", "user_b"}, updated.LikedIDs)

	// Moving one user to dislike leaves the other's like alone.
	updated, err = s.ToggleDislike(ctx, post.Id, "user_a")
	require.Nil(t, err)
	assert.Equal(t, pq.StringArray{"user_b"}, updated.LikedIDs)
	assert.Equal(t, pq.StringArray{"user_a"}, updated.DislikedIDs)

	stored, err := s.GetPost(ctx, post.Id)
	require.Nil(t, err)
	assert.Equal(t, pq.StringArray{"user_b"}, stored.LikedIDs)
	assert.Equal(t, pq.StringArray{"user_a"}, stored.DislikedIDs)
}

func TestGormToggleMissingOrDeletedPost(t *testing.T) {
	s := newTempPostStore(t)
	ctx := context.Background()

	_, err := s.ToggleLike(ctx, "no-such-post", "user_a")
	assert.True(t, errors.Is(err, ErrPostNotFound))

	post := createDBPost(t, s, "hello", "author")
	require.Nil(t, s.DeletePost(ctx, post.Id))

	// Soft deleted rows must not take reactions anymore.
	_, err = s.ToggleLike(ctx, post.Id, "user_a")
	assert.True(t, errors.Is(err, ErrPostNotFound))
}

func TestGormListPostsBounds(t *testing.T) {
	s := newTempPostStore(t)
	ctx := context.Background()
	for _, text := range []string{"p1", "p2", "p3", "p4", "p5"} {
		createDBPost(t, s, text, "author")
	}

	page, err := s.ListPosts(ctx, PostQuery{Limit: 2})
	require.Nil(t, err)
	require.Equal(t, 2, len(page))
	assert.Equal(t, "p5", page[0].Text)
	assert.Equal(t, "p4", page[1].Text)

	page, err = s.ListPosts(ctx, PostQuery{Limit: 2, After: page[1]})
	require.Nil(t, err)
	require.Equal(t, 2, len(page))
	assert.Equal(t, "p3", page[0].Text)
	assert.Equal(t, "p2", page[1].Text)

	// Short page signals the end of the feed.
	page, err = s.ListPosts(ctx, PostQuery{Limit: 2, After: page[1]})
	require.Nil(t, err)
	require.Equal(t, 1, len(page))
	assert.Equal(t, "p1", page[0].Text)

	page, err = s.ListPosts(ctx, PostQuery{Limit: 2, After: page[0]})
	require.Nil(t, err)
	assert.Equal(t, 0, len(page))
}

func TestGormListPostsAuthorFilterAndSoftDelete(t *testing.T) {
	s := newTempPostStore(t)
	ctx := context.Background()
	createDBPost(t, s, "a1", "alice")
	bob := createDBPost(t, s, "b1", "bob")
	createDBPost(t, s, "a2", "alice")

	page, err := s.ListPosts(ctx, PostQuery{Limit: 10, AuthorUID: "alice"})
	require.Nil(t, err)
	require.Equal(t, 2, len(page))
	assert.Equal(t, "a2", page[0].Text)
	assert.Equal(t, "a1", page[1].Text)

	require.Nil(t, s.DeletePost(ctx, bob.Id))
	page, err = s.ListPosts(ctx, PostQuery{Limit: 10})
	require.Nil(t, err)
	require.Equal(t, 2, len(page))
	assert.Equal(t, "a2", page[0].Text)
	assert.Equal(t, "a1", page[1].Text)
}
