package feed

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedPosts creates n posts, oldest first, so the newest post has the highest
// cursor and text "post_n".
func seedPosts(t *testing.T, s *store.FakePostStore, n int, authorUID string) {
	t.Helper()
	for i := 1; i <= n; i++ {
		err := s.CreatePost(context.Background(), &model.Post{
			Text:    fmt.Sprintf("post_%d", i),
			UserUID: authorUID,
		})
		require.Nil(t, err)
	}
}

func postTexts(posts []*model.Post) []string {
	texts := []string{}
	for _, post := range posts {
		texts = append(texts, post.Text)
	}
	return texts
}

func TestFeedPaginationScenario(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 5, "u1")

	repo := &Repository{store: fakeStore, pageSize: 2}
	ctx := context.Background()

	require.Nil(t, repo.LoadInitial(ctx))
	assert.Equal(t, []string{"post_5", "post_4"}, postTexts(repo.Posts()))
	assert.True(t, repo.HasMore())

	require.Nil(t, repo.LoadMore(ctx))
	assert.Equal(t, []string{"post_5", "post_4", "post_3", "post_2"}, postTexts(repo.Posts()))
	assert.True(t, repo.HasMore())

	// Final partial page, shorter than the page size, exhausts the feed.
	require.Nil(t, repo.LoadMore(ctx))
	assert.Equal(t, []string{"post_5", "post_4", "post_3", "post_2", "post_1"}, postTexts(repo.Posts()))
	assert.False(t, repo.HasMore())

	// Exhausted feed, LoadMore is a no-op.
	require.Nil(t, repo.LoadMore(ctx))
	assert.Equal(t, 5, len(repo.Posts()))
}

func TestFeedNoDuplicates(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 7, "u1")

	repo := &Repository{store: fakeStore, pageSize: 3}
	ctx := context.Background()

	require.Nil(t, repo.LoadInitial(ctx))
	for repo.HasMore() {
		require.Nil(t, repo.LoadMore(ctx))
	}

	posts := repo.Posts()
	assert.Equal(t, 7, len(posts))
	seen := map[string]bool{}
	for i, post := range posts {
		assert.False(t, seen[post.Id])
		seen[post.Id] = true
		if i > 0 {
			// Newest first.
			assert.True(t, posts[i-1].Cursor > post.Cursor)
		}
	}
}

func TestLoadMoreBeforeInitialIsNoop(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 3, "u1")

	repo := &Repository{store: fakeStore, pageSize: 2}
	require.Nil(t, repo.LoadMore(context.Background()))
	assert.Equal(t, 0, len(repo.Posts()))
}

func TestLoadInitialIsFetchOnce(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 3, "u1")

	repo := &Repository{store: fakeStore, pageSize: 2}
	ctx := context.Background()
	require.Nil(t, repo.LoadInitial(ctx))
	require.Nil(t, repo.LoadInitial(ctx))
	assert.Equal(t, 2, len(repo.Posts()))
}

// blockingStore delays ListPosts until released so overlapping fetches can be
// provoked deterministically.
type blockingStore struct {
	*store.FakePostStore
	release chan struct{}
	calls   int32
}

func (b *blockingStore) ListPosts(ctx context.Context, query store.PostQuery) ([]*model.Post, error) {
	atomic.AddInt32(&b.calls, 1)
	<-b.release
	return b.FakePostStore.ListPosts(ctx, query)
}

func TestLoadMoreInFlightGuard(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 4, "u1")

	blocking := &blockingStore{FakePostStore: fakeStore, release: make(chan struct{}, 4)}
	repo := &Repository{store: blocking, pageSize: 2}
	ctx := context.Background()

	blocking.release <- struct{}{}
	require.Nil(t, repo.LoadInitial(ctx))

	// Two "last item visible" signals before the first fetch completes must
	// result in a single page fetch, not the same page appended twice.
	blocking.release <- struct{}{}
	blocking.release <- struct{}{}
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Nil(t, repo.LoadMore(ctx))
		}()
	}
	wg.Wait()

	assert.Equal(t, 4, len(repo.Posts()))
	assert.True(t, atomic.LoadInt32(&blocking.calls) <= 3)
	seen := map[string]bool{}
	for _, post := range repo.Posts() {
		assert.False(t, seen[post.Id])
		seen[post.Id] = true
	}
}

func TestFetchFailureLeavesStateUntouched(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 3, "u1")
	fakeStore.ListErr = fmt.Errorf("document read failed")

	repo := &Repository{store: fakeStore, pageSize: 2}
	ctx := context.Background()

	require.NotNil(t, repo.LoadInitial(ctx))
	assert.Equal(t, 0, len(repo.Posts()))
	assert.True(t, repo.HasMore())

	// A later retry succeeds from a clean slate.
	fakeStore.ListErr = nil
	require.Nil(t, repo.LoadInitial(ctx))
	assert.Equal(t, 2, len(repo.Posts()))
}

func TestSingleAuthorMode(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 3, "u1")
	seedPosts(t, fakeStore, 3, "u2")

	repo := &Repository{store: fakeStore, pageSize: 2, authorUID: "u1"}
	ctx := context.Background()

	require.Nil(t, repo.LoadInitial(ctx))
	for repo.HasMore() {
		require.Nil(t, repo.LoadMore(ctx))
	}
	posts := repo.Posts()
	assert.Equal(t, 3, len(posts))
	for _, post := range posts {
		assert.Equal(t, "u1", post.UserUID)
	}

	assert.Equal(t, ErrRefreshNotAllowed, repo.Refresh(ctx))
	assert.Equal(t, 3, len(repo.Posts()))
}

func TestRefresh(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 2, "u1")

	repo := &Repository{store: fakeStore, pageSize: 10}
	ctx := context.Background()
	require.Nil(t, repo.LoadInitial(ctx))
	assert.Equal(t, 2, len(repo.Posts()))

	// A post published after the initial load shows up at the top.
	seedPosts(t, fakeStore, 1, "u1")
	require.Nil(t, repo.Refresh(ctx))
	assert.Equal(t, []string{"post_1", "post_2", "post_1"}, postTexts(repo.Posts()))
}

func TestApplyRemoteUpdate(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 2, "u1")

	repo := &Repository{store: fakeStore, pageSize: 10}
	require.Nil(t, repo.LoadInitial(context.Background()))
	target := repo.Posts()[0]

	repo.ApplyRemoteUpdate(target.Id, []string{"a", "b"}, []string{"c"})
	updated := repo.Posts()[0]
	assert.Equal(t, []string{"a", "b"}, []string(updated.LikedIDs))
	assert.Equal(t, []string{"c"}, []string(updated.DislikedIDs))
	// Other fields untouched.
	assert.Equal(t, target.Text, updated.Text)

	// Unknown id is ignored.
	repo.ApplyRemoteUpdate("missing", []string{"x"}, nil)
	assert.Equal(t, 2, len(repo.Posts()))
}

func TestApplyRemoteDelete(t *testing.T) {
	fakeStore := store.NewFakePostStore(nil)
	seedPosts(t, fakeStore, 3, "u1")

	repo := &Repository{store: fakeStore, pageSize: 10}
	require.Nil(t, repo.LoadInitial(context.Background()))
	target := repo.Posts()[1]

	repo.ApplyRemoteDelete(target.Id)
	assert.Equal(t, 2, len(repo.Posts()))
	for _, post := range repo.Posts() {
		assert.NotEqual(t, target.Id, post.Id)
	}

	repo.ApplyRemoteDelete("missing")
	assert.Equal(t, 2, len(repo.Posts()))
}
