package partners

import (
	"context"
	"fmt"
	"strings"

	"github.com/compass-mel/compass-mel/internal/shared"
)

// Service wraps partner reference-data rules.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all partners.
func (s *Service) List(ctx context.Context) ([]Partner, error) {
	return s.repo.List(ctx)
}

// Get fetches a partner.
func (s *Service) Get(ctx context.Context, id int64) (Partner, error) {
	return s.repo.Get(ctx, id)
}

// Create registers a new partner. Admin only; the handler gates the role.
func (s *Service) Create(ctx context.Context, partner Partner) (Partner, error) {
	partner.Code = strings.ToUpper(strings.TrimSpace(partner.Code))
	partner.Name = strings.TrimSpace(partner.Name)
	if partner.Code == "" || partner.Name == "" {
		return Partner{}, fmt.Errorf("partners: code and name required: %w", shared.ErrInvalidInput)
	}
	partner.IsActive = true
	return s.repo.Create(ctx, partner)
}

// ListCenters returns the centers of a partner.
func (s *Service) ListCenters(ctx context.Context, partnerID int64) ([]Center, error) {
	if _, err := s.repo.Get(ctx, partnerID); err != nil {
		return nil, err
	}
	return s.repo.ListCenters(ctx, partnerID)
}

// CreateCenter registers a new center under a partner.
func (s *Service) CreateCenter(ctx context.Context, center Center) (Center, error) {
	center.Name = strings.TrimSpace(center.Name)
	if center.Name == "" {
		return Center{}, fmt.Errorf("partners: center name required: %w", shared.ErrInvalidInput)
	}
	if _, err := s.repo.Get(ctx, center.PartnerID); err != nil {
		return Center{}, err
	}
	center.IsActive = true
	return s.repo.CreateCenter(ctx, center)
}

// ValidateScope confirms the partner (and optional center) exist, are active,
// and belong together. The workflow calls this before accepting a request.
func (s *Service) ValidateScope(ctx context.Context, partnerID int64, centerID *int64) error {
	partner, err := s.repo.Get(ctx, partnerID)
	if err != nil {
		return err
	}
	if !partner.IsActive {
		return fmt.Errorf("partners: partner %s is inactive: %w", partner.Code, shared.ErrInvalidInput)
	}
	if centerID == nil {
		return nil
	}
	center, err := s.repo.GetCenter(ctx, *centerID)
	if err != nil {
		return err
	}
	if center.PartnerID != partnerID {
		return fmt.Errorf("partners: center %d does not belong to partner %d: %w", *centerID, partnerID, shared.ErrInvalidInput)
	}
	if !center.IsActive {
		return fmt.Errorf("partners: center %d is inactive: %w", *centerID, shared.ErrInvalidInput)
	}
	return nil
}
