package auth

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already registered")
	ErrMissingFields      = errors.New("name, email and password are required")
)

type UserStore interface {
	CreateUser(ctx context.Context, u *User) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type Service struct {
	Store  UserStore
	Secret []byte
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}
	taken, err := s.Store.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return s.Store.CreateUser(ctx, &User{Name: name, Email: email, Password: hash, Role: RoleUser})
}

// Login returns a signed session token. The same error covers an unknown email
// and a wrong password so the response does not reveal which one failed.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.Store.GetUserByEmail(ctx, strings.TrimSpace(strings.ToLower(email)))
	if errors.Is(err, ErrUserNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", err
	}
	if !CheckPassword(u.Password, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := SignToken(s.Secret, u)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
