package store

import (
	"context"

	"github.com/hakobgh/socialmedia/model"
	"github.com/pkg/errors"
)

var ErrUserNotFound = errors.New("user not found")

// UserStore persists public profiles. Profiles are create-once/read-many,
// removed only on account deletion.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, uid string) (*model.User, error)

	// SearchUsers returns users whose username starts with prefix.
	SearchUsers(ctx context.Context, prefix string) ([]*model.User, error)

	DeleteUser(ctx context.Context, uid string) error
}
