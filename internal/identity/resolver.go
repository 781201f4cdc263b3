package identity

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Resolver turns an inbound bearer credential into the acting identity.
//
// The account row is loaded on every call so a role granted (or an account
// deactivated) after the token was issued is reflected immediately.
type Resolver struct {
	tokens   *TokenIssuer
	denylist *Denylist
	repo     Repository
}

// NewResolver constructs a Resolver.
func NewResolver(tokens *TokenIssuer, denylist *Denylist, repo Repository) *Resolver {
	return &Resolver{tokens: tokens, denylist: denylist, repo: repo}
}

// Resolve validates the bearer token and returns the actor it represents.
func (r *Resolver) Resolve(ctx context.Context, bearer string) (shared.Actor, error) {
	claims, err := r.tokens.Parse(bearer)
	if err != nil {
		return shared.Actor{}, err
	}
	revoked, err := r.denylist.Contains(ctx, claims.ID)
	if err != nil {
		return shared.Actor{}, fmt.Errorf("identity: denylist lookup: %w", err)
	}
	if revoked {
		return shared.Actor{}, fmt.Errorf("identity: token revoked: %w", shared.ErrUnauthenticated)
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return shared.Actor{}, fmt.Errorf("identity: malformed subject: %w", shared.ErrUnauthenticated)
	}
	user, err := r.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Actor{}, fmt.Errorf("identity: unknown subject: %w", shared.ErrUnauthenticated)
		}
		return shared.Actor{}, err
	}
	if !user.IsActive {
		return shared.Actor{}, fmt.Errorf("identity: user %d: %w", user.ID, shared.ErrAccountInactive)
	}
	return user.Actor(), nil
}
