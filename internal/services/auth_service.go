package services

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"mebellar/internal/domain"
	"mebellar/internal/repos"
)

var (
	ErrBadCreds  = errors.New("invalid email or password")
	ErrNotAdmin  = errors.New("admin role required")
	ErrNoSession = repos.ErrNoSession
)

// AuthService signs admins in. The session id doubles as the API token.
type AuthService struct {
	Sessions *repos.SessionRepo
}

func NewAuthService(sessions *repos.SessionRepo) *AuthService {
	return &AuthService{Sessions: sessions}
}

// Login checks the password and binds sid to the user. Only admins may
// sign in to this dashboard.
func (s *AuthService) Login(ctx context.Context, sid, email, password string) (*domain.User, error) {
	u, err := s.Sessions.UserByEmail(ctx, email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if u.Role != domain.RoleAdmin {
		return nil, ErrNotAdmin
	}
	if err := s.Sessions.Bind(ctx, sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	return s.Sessions.Unbind(ctx, sid)
}

func (s *AuthService) CurrentUser(ctx context.Context, sid string) (*domain.User, error) {
	if sid == "" {
		return nil, ErrNoSession
	}
	return s.Sessions.User(ctx, sid)
}
