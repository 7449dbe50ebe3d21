package store

import (
	"context"

	"github.com/hakobgh/socialmedia/model"
)

// PostQuery bounds a single feed page fetch. After is the last post of the
// previously fetched page, nil means fetch from the newest post. AuthorUID
// restricts results to a single author when non-empty.
type PostQuery struct {
	AuthorUID string
	Limit     int
	After     *model.Post
}

// PostStore persists posts and performs the reaction toggle protocol. Every
// write that changes a post visible to other clients must be reflected on the
// change bus by the implementation.
type PostStore interface {
	// CreatePost persists the post, assigning Id and PublishedAt.
	CreatePost(ctx context.Context, post *model.Post) error

	// GetPost returns the post by id, ErrPostNotFound when absent.
	GetPost(ctx context.Context, id string) (*model.Post, error)

	// ListPosts returns one feed page ordered by publish time descending.
	ListPosts(ctx context.Context, query PostQuery) ([]*model.Post, error)

	// DeletePost removes the post by id. Deleting an absent post is an error.
	DeletePost(ctx context.Context, id string) error

	// ToggleLike runs one like transition for (post, user) as a single atomic
	// field level update and returns the resulting reaction sets.
	ToggleLike(ctx context.Context, postId string, userUID string) (*model.Post, error)

	// ToggleDislike is the mirror of ToggleLike.
	ToggleDislike(ctx context.Context, postId string, userUID string) (*model.Post, error)
}
