package feed

import (
	"context"
	"sync"

	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/store"
	"github.com/pkg/errors"
)

const (
	// DefaultPageSize is used by the shared timeline.
	DefaultPageSize = 10
	// AuthorPageSize is used by single author (profile) feeds.
	AuthorPageSize = 20
)

var ErrRefreshNotAllowed = errors.New("refresh is not allowed for a single author feed")

// Repository maintains an ordered, paginated view over posts, newest first.
// It owns the fetched page list and the pagination cursor, which is the last
// post returned by the previous page fetch. A nil cursor means either "never
// fetched" or "no more pages", disambiguated by the fetchedOnce flag.
//
// All state is guarded by mu. A fetch releases the lock for the duration of
// the store call and reapplies results under the lock, with the inFlight flag
// suppressing overlapping fetches so a page can never be appended twice.
type Repository struct {
	store    store.PostStore
	pageSize int

	// authorUID, when non-empty, restricts the feed to one author's posts.
	authorUID string

	mu            sync.Mutex
	posts         []*model.Post
	paginationDoc *model.Post
	fetchedOnce   bool
	inFlight      bool
}

// NewRepository creates the shared timeline repository.
func NewRepository(s store.PostStore) *Repository {
	return &Repository{store: s, pageSize: DefaultPageSize}
}

// NewAuthorRepository creates a single author feed for profile screens.
func NewAuthorRepository(s store.PostStore, authorUID string) *Repository {
	return &Repository{store: s, pageSize: AuthorPageSize, authorUID: authorUID}
}

// LoadInitial fetches the first page. It is a no-op once the feed has been
// fetched, so rendering the same feed twice does not duplicate the list.
func (r *Repository) LoadInitial(ctx context.Context) error {
	r.mu.Lock()
	if r.fetchedOnce || r.inFlight {
		r.mu.Unlock()
		return nil
	}
	return r.fetch(ctx, nil)
}

// LoadMore fetches the next page after the current cursor and appends it. It
// is a no-op before the initial load, after the feed is exhausted, and while
// another fetch is still in flight.
func (r *Repository) LoadMore(ctx context.Context) error {
	r.mu.Lock()
	if !r.fetchedOnce || r.inFlight || r.paginationDoc == nil {
		r.mu.Unlock()
		return nil
	}
	return r.fetch(ctx, r.paginationDoc)
}

// fetch issues one page query bounded by after. Called with mu held, returns
// with mu released.
func (r *Repository) fetch(ctx context.Context, after *model.Post) error {
	r.inFlight = true
	r.mu.Unlock()

	page, err := r.store.ListPosts(ctx, store.PostQuery{
		AuthorUID: r.authorUID,
		Limit:     r.pageSize,
		After:     after,
	})

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inFlight = false
	if err != nil {
		// Leave list and cursor untouched, the caller decides what to do.
		return errors.Wrap(err, "fail to fetch feed page")
	}

	r.posts = append(r.posts, page...)
	if len(page) < r.pageSize {
		r.paginationDoc = nil
	} else {
		r.paginationDoc = page[len(page)-1]
	}
	r.fetchedOnce = true
	return nil
}

// Refresh clears the feed and reloads the first page. Single author feeds
// reject it, matching the profile screen behavior.
func (r *Repository) Refresh(ctx context.Context) error {
	if r.authorUID != "" {
		return ErrRefreshNotAllowed
	}
	r.mu.Lock()
	if r.inFlight {
		r.mu.Unlock()
		return nil
	}
	r.posts = nil
	r.paginationDoc = nil
	r.fetchedOnce = false
	return r.fetch(ctx, nil)
}

// ApplyRemoteUpdate replaces the reaction sets of the identified post. All
// other fields are immutable after publish and left untouched. Unknown ids
// are ignored, the post may have been removed or never fetched.
func (r *Repository) ApplyRemoteUpdate(postId string, likedIDs []string, dislikedIDs []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, post := range r.posts {
		if post.Id == postId {
			post.LikedIDs = likedIDs
			post.DislikedIDs = dislikedIDs
			return
		}
	}
}

// ApplyRemoteDelete removes the identified post, no-op when absent.
func (r *Repository) ApplyRemoteDelete(postId string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, post := range r.posts {
		if post.Id == postId {
			r.posts = append(r.posts[:i], r.posts[i+1:]...)
			return
		}
	}
}

// Posts returns a snapshot of the current list, newest first.
func (r *Repository) Posts() []*model.Post {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Post, len(r.posts))
	copy(out, r.posts)
	return out
}

// HasMore reports whether another page may exist.
func (r *Repository) HasMore() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.fetchedOnce || r.paginationDoc != nil
}
