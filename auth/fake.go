package auth

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type fakeAccount struct {
	uid      string
	password string
}

// FakeProvider is the in-memory Provider used in tests.
type FakeProvider struct {
	mu       sync.Mutex
	accounts map[string]*fakeAccount
	tokens   map[string]string
}

func NewFakeProvider() *FakeProvider {
	return &FakeProvider{
		accounts: make(map[string]*fakeAccount),
		tokens:   make(map[string]string),
	}
}

func (p *FakeProvider) SignUp(ctx context.Context, email string, password string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid := uuid.New().String()
	p.accounts[email] = &fakeAccount{uid: uid, password: password}
	return uid, nil
}

func (p *FakeProvider) SignIn(ctx context.Context, email string, password string) (string, string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	account, ok := p.accounts[email]
	if !ok || account.password != password {
		return "", "", ErrInvalidCredentials
	}
	token := uuid.New().String()
	p.tokens[token] = account.uid
	return token, account.uid, nil
}

func (p *FakeProvider) SignOut(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.tokens, token)
	return nil
}

func (p *FakeProvider) ResetPassword(ctx context.Context, email string) error {
	return nil
}

func (p *FakeProvider) UserFromToken(ctx context.Context, token string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[token]
	if !ok {
		return "", ErrInvalidToken
	}
	return uid, nil
}

func (p *FakeProvider) DeleteAccount(ctx context.Context, token string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	uid, ok := p.tokens[token]
	if !ok {
		return ErrInvalidToken
	}
	for email, account := range p.accounts {
		if account.uid == uid {
			delete(p.accounts, email)
		}
	}
	delete(p.tokens, token)
	return nil
}
