package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Service wraps account business rules.
type Service struct {
	repo     Repository
	tokens   *TokenIssuer
	denylist *Denylist
}

// NewService constructs a Service.
func NewService(repo Repository, tokens *TokenIssuer, denylist *Denylist) *Service {
	return &Service{repo: repo, tokens: tokens, denylist: denylist}
}

// LoginResult carries the issued credential back to the caller.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      User
}

// Register creates a new account. Every registration starts UNASSIGNED;
// an effective role is only granted through an approved role request.
func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.FullName) == "" {
		return User{}, fmt.Errorf("identity: email and full name required: %w", shared.ErrInvalidInput)
	}
	if len(in.Password) < 8 {
		return User{}, fmt.Errorf("identity: password must be at least 8 characters: %w", shared.ErrInvalidInput)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("identity: hash password: %w", err)
	}
	return s.repo.Create(ctx, User{
		Email:        email,
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: string(hash),
		Role:         shared.RoleUnassigned,
		IsActive:     true,
	})
}

// Login validates credentials and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return LoginResult{}, fmt.Errorf("identity: invalid credentials: %w", shared.ErrUnauthenticated)
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, fmt.Errorf("identity: invalid credentials: %w", shared.ErrUnauthenticated)
	}
	if !user.IsActive {
		return LoginResult{}, fmt.Errorf("identity: user %d: %w", user.ID, shared.ErrAccountInactive)
	}
	token, claims, err := s.tokens.Issue(user.ID, user.Role)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout revokes the presented token for the remainder of its lifetime.
// Revoking an already invalid token is reported as unauthenticated, not a 500.
func (s *Service) Logout(ctx context.Context, bearer string) error {
	claims, err := s.tokens.Parse(bearer)
	if err != nil {
		return err
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Describe returns the account behind an actor, for the /auth/me endpoint.
func (s *Service) Describe(ctx context.Context, actor shared.Actor) (User, error) {
	return s.repo.FindByID(ctx, actor.UserID)
}
