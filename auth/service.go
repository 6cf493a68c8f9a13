package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/user/taskman-go/apperror"
	"github.com/user/taskman-go/config"
)

// AuthService orchestrates registration, login and logout over the user and
// token repositories. The service owns the repositories; entities carry no
// storage behavior of their own.
type AuthService struct {
	users      UserRepository
	tokens     TokenRepository
	bcryptCost int
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserRepository, tokens TokenRepository, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: cfg.BcryptCost,
	}
}

// Register validates the request, persists a new user with a bcrypt-hashed
// password and issues a fresh token. A duplicate email fails validation and
// never creates a second user.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	if err := checkStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &User{
		Name:           req.Name,
		Email:          strings.ToLower(req.Email),
		HashedPassword: string(hashedPassword),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return s.issueToken(ctx, user.ID)
}

// Login verifies credentials and issues a new token. Earlier tokens for the
// user stay valid. An unknown email and a wrong password produce the same
// error value so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewCredentialsError()
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(req.Password)); err != nil {
		return nil, apperror.NewCredentialsError()
	}

	return s.issueToken(ctx, user.ID)
}

// Logout revokes ALL tokens belonging to the user, including ones issued to
// other sessions. Once deleted, a token can never authenticate again.
func (s *AuthService) Logout(ctx context.Context, userID int64) error {
	return s.tokens.DeleteForUser(ctx, userID)
}

// issueToken mints an opaque token, stores its hash and returns the plaintext.
func (s *AuthService) issueToken(ctx context.Context, userID int64) (*TokenResponse, error) {
	plain, hash, err := NewToken()
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}
	if err := s.tokens.Create(ctx, userID, hash); err != nil {
		return nil, err
	}
	return &TokenResponse{Token: plain}, nil
}
