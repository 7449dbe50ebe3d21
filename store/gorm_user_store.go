package store

import (
	"context"

	"github.com/hakobgh/socialmedia/model"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// usernameSearchCeiling closes the prefix range on the username index. The
// character sorts after every printable rune, so BETWEEN prefix AND
// prefix+ceiling covers exactly the usernames starting with prefix.
const usernameSearchCeiling = "\uf8ff"

type GormUserStore struct {
	db *gorm.DB
}

func NewGormUserStore(db *gorm.DB) *GormUserStore {
	return &GormUserStore{db: db}
}

func (s *GormUserStore) CreateUser(ctx context.Context, user *model.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.Wrap(err, "fail to create user")
	}
	return nil
}

func (s *GormUserStore) GetUser(ctx context.Context, uid string) (*model.User, error) {
	var user model.User
	queryResult := s.db.WithContext(ctx).Where("id = ?", uid).First(&user)
	if queryResult.RowsAffected != 1 {
		return nil, ErrUserNotFound
	}
	return &user, nil
}

func (s *GormUserStore) SearchUsers(ctx context.Context, prefix string) ([]*model.User, error) {
	var users []*model.User
	queryResult := s.db.WithContext(ctx).
		Where("username >= ? AND username <= ?", prefix, prefix+usernameSearchCeiling).
		Order("username asc").
		Find(&users)
	if queryResult.Error != nil {
		return nil, errors.Wrap(queryResult.Error, "fail to search users")
	}
	return users, nil
}

func (s *GormUserStore) DeleteUser(ctx context.Context, uid string) error {
	queryResult := s.db.WithContext(ctx).Where("id = ?", uid).Delete(&model.User{})
	if queryResult.Error != nil {
		return errors.Wrap(queryResult.Error, "fail to delete user")
	}
	if queryResult.RowsAffected != 1 {
		return ErrUserNotFound
	}
	return nil
}
