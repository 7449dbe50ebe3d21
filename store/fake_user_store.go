package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/hakobgh/socialmedia/model"
)

// FakeUserStore is the in-memory UserStore used in tests.
type FakeUserStore struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func NewFakeUserStore() *FakeUserStore {
	return &FakeUserStore{users: make(map[string]*model.User)}
}

func (s *FakeUserStore) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *user
	s.users[user.Id] = &stored
	return nil
}

func (s *FakeUserStore) GetUser(ctx context.Context, uid string) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[uid]
	if !ok {
		return nil, ErrUserNotFound
	}
	out := *user
	return &out, nil
}

func (s *FakeUserStore) SearchUsers(ctx context.Context, prefix string) ([]*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []*model.User{}
	for _, user := range s.users {
		if strings.HasPrefix(user.Username, prefix) {
			out := *user
			matched = append(matched, &out)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].Username < matched[j].Username })
	return matched, nil
}

func (s *FakeUserStore) DeleteUser(ctx context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[uid]; !ok {
		return ErrUserNotFound
	}
	delete(s.users, uid)
	return nil
}
