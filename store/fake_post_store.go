package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hakobgh/socialmedia/model"
	"github.com/hakobgh/socialmedia/utils"
	"github.com/jinzhu/copier"
)

// FakePostStore is the in-memory PostStore used in tests. It keeps posts
// newest first and mirrors the Postgres toggle semantics, including the
// likers/dislikers disjointness.
type FakePostStore struct {
	mu         sync.Mutex
	posts      []*model.Post
	nextCursor int32
	bus        ChangeBus

	// ListErr, when set, is returned by every ListPosts call.
	ListErr error
}

func NewFakePostStore(bus ChangeBus) *FakePostStore {
	return &FakePostStore{bus: bus}
}

func (s *FakePostStore) CreatePost(ctx context.Context, post *model.Post) error {
	if post.Text == "" {
		return ErrEmptyPost
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextCursor++
	post.Id = uuid.New().String()
	post.PublishedAt = time.Now().UTC()
	post.Cursor = s.nextCursor

	stored := &model.Post{}
	copier.Copy(stored, post)
	s.posts = append([]*model.Post{stored}, s.posts...)
	return nil
}

func (s *FakePostStore) GetPost(ctx context.Context, id string) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.find(id)
	if post == nil {
		return nil, ErrPostNotFound
	}
	out := &model.Post{}
	copier.Copy(out, post)
	return out, nil
}

func (s *FakePostStore) ListPosts(ctx context.Context, query PostQuery) ([]*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ListErr != nil {
		return nil, s.ListErr
	}

	page := []*model.Post{}
	for _, post := range s.posts {
		if query.AuthorUID != "" && post.UserUID != query.AuthorUID {
			continue
		}
		if query.After != nil && post.Cursor >= query.After.Cursor {
			continue
		}
		out := &model.Post{}
		copier.Copy(out, post)
		page = append(page, out)
		if len(page) == query.Limit {
			break
		}
	}
	return page, nil
}

func (s *FakePostStore) DeletePost(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, post := range s.posts {
		if post.Id == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			s.publish(&model.PostChange{PostId: id, Type: model.PostChangeTypeDeleted})
			return nil
		}
	}
	return ErrPostNotFound
}

func (s *FakePostStore) ToggleLike(ctx context.Context, postId string, userUID string) (*model.Post, error) {
	return s.toggle(postId, userUID, false)
}

func (s *FakePostStore) ToggleDislike(ctx context.Context, postId string, userUID string) (*model.Post, error) {
	return s.toggle(postId, userUID, true)
}

func (s *FakePostStore) toggle(postId string, userUID string, dislike bool) (*model.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	post := s.find(postId)
	if post == nil {
		return nil, ErrPostNotFound
	}

	target, mirror := &post.LikedIDs, &post.DislikedIDs
	if dislike {
		target, mirror = mirror, target
	}
	if utils.ContainsString(*target, userUID) {
		*target = utils.RemoveString(*target, userUID)
	} else {
		*target = append(*target, userUID)
		*mirror = utils.RemoveString(*mirror, userUID)
	}

	out := &model.Post{}
	copier.Copy(out, post)
	s.publish(&model.PostChange{
		PostId:      postId,
		Type:        model.PostChangeTypeUpdated,
		LikedIDs:    post.LikedIDs,
		DislikedIDs: post.DislikedIDs,
	})
	return out, nil
}

func (s *FakePostStore) find(id string) *model.Post {
	for _, post := range s.posts {
		if post.Id == id {
			return post
		}
	}
	return nil
}

func (s *FakePostStore) publish(change *model.PostChange) {
	if s.bus != nil {
		s.bus.Publish(change)
	}
}
