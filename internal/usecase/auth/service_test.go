package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type mockTokenService struct {
	token     string
	lastEmail string
	lastRole  string
}

func (m *mockTokenService) GenerateToken(email, role string) (string, error) {
	m.lastEmail = email
	m.lastRole = role
	return m.token, nil
}

func (m *mockTokenService) ParseToken(token string) (*Claims, error) {
	return nil, errors.New("not used")
}

type mockPasswordComparer struct {
	err error
}

func (m *mockPasswordComparer) Compare(hash, password string) error {
	return m.err
}

func TestLogin_Succeeds(t *testing.T) {
	tokens := &mockTokenService{token: "signed-token"}
	svc := NewService("admin@example.com", "$2a$10$hash", &mockPasswordComparer{}, tokens)

	token, err := svc.Login(context.Background(), "admin@example.com", "s3cret")

	require.NoError(t, err)
	require.Equal(t, "signed-token", token)
	require.Equal(t, "admin@example.com", tokens.lastEmail)
	require.Equal(t, RoleAdmin, tokens.lastRole)
}

func TestLogin_WrongEmail(t *testing.T) {
	svc := NewService("admin@example.com", "$2a$10$hash", &mockPasswordComparer{}, &mockTokenService{})

	_, err := svc.Login(context.Background(), "intruder@example.com", "s3cret")

	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_WrongPassword(t *testing.T) {
	compare := &mockPasswordComparer{err: errors.New("mismatch")}
	svc := NewService("admin@example.com", "$2a$10$hash", compare, &mockTokenService{})

	_, err := svc.Login(context.Background(), "admin@example.com", "wrong")

	require.ErrorIs(t, err, ErrInvalidCredential)
}

func TestLogin_NoConfiguredHash(t *testing.T) {
	svc := NewService("admin@example.com", "", &mockPasswordComparer{}, &mockTokenService{})

	_, err := svc.Login(context.Background(), "admin@example.com", "s3cret")

	require.ErrorIs(t, err, ErrInvalidCredential)
}
