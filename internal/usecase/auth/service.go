package auth

import (
	"context"
	"errors"
)

const RoleAdmin = "admin"

var ErrInvalidCredential = errors.New("invalid email or password")

type Claims struct {
	Email string
	Role  string
}

type TokenService interface {
	GenerateToken(email, role string) (string, error)
	ParseToken(token string) (*Claims, error)
}

type PasswordComparer interface {
	Compare(hash string, password string) error
}

// Service authenticates the single configured admin account. There is no
// user store; the credential comes from deployment configuration.
type Service struct {
	adminEmail string
	adminHash  string
	passwords  PasswordComparer
	tokens     TokenService
}

func NewService(adminEmail, adminPasswordHash string, passwords PasswordComparer, tokens TokenService) *Service {
	return &Service{
		adminEmail: adminEmail,
		adminHash:  adminPasswordHash,
		passwords:  passwords,
		tokens:     tokens,
	}
}

func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if s.adminHash == "" || email != s.adminEmail {
		return "", ErrInvalidCredential
	}
	if err := s.passwords.Compare(s.adminHash, password); err != nil {
		return "", ErrInvalidCredential
	}
	return s.tokens.GenerateToken(email, RoleAdmin)
}
