package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type ClaimantRepository interface {
	FindByContact(ctx context.Context, contact string) (*domain.Claimant, error)
	CreateClaimant(ctx context.Context, c domain.Claimant) error
}

// ClaimantService maps a display name and optional contact to a stable
// claimant id. The mapping is decided once per reservation and never
// revisited for its lifetime.
type ClaimantService struct {
	repo  ClaimantRepository
	clock clock.Clock
}

func NewClaimantService(repo ClaimantRepository, clk clock.Clock) *ClaimantService {
	return &ClaimantService{repo: repo, clock: clk}
}

// Resolve returns a durable claimant when the contact looks reachable,
// deduplicated by contact; otherwise it mints an ephemeral identity so
// anonymous and in-person sales still get valid ownership.
func (s *ClaimantService) Resolve(ctx context.Context, name, contact string) (domain.Claimant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Claimant{}, domain.ErrClaimantNameRequired
	}
	contact = strings.TrimSpace(contact)

	if !durableContact(contact) {
		c := domain.Claimant{
			ID:        uuid.NewString(),
			Name:      name,
			Kind:      domain.ClaimantKindEphemeral,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.CreateClaimant(ctx, c); err != nil {
			return domain.Claimant{}, err
		}
		return c, nil
	}

	existing, err := s.repo.FindByContact(ctx, contact)
	if err != nil {
		return domain.Claimant{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	c := domain.Claimant{
		ID:        uuid.NewString(),
		Name:      name,
		Contact:   contact,
		Kind:      domain.ClaimantKindDurable,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.CreateClaimant(ctx, c); err != nil {
		// A concurrent resolve for the same contact won; use its row.
		if errors.Is(err, domain.ErrContactTaken) {
			existing, rerr := s.repo.FindByContact(ctx, contact)
			if rerr != nil {
				return domain.Claimant{}, rerr
			}
			if existing != nil {
				return *existing, nil
			}
			return domain.Claimant{}, fmt.Errorf("claimant contact %q taken but not found", contact)
		}
		return domain.Claimant{}, err
	}
	return c, nil
}

// durableContact is the policy line between registered-looking buyers and
// guests: anything with an "@" is treated as a reachable address.
func durableContact(contact string) bool {
	return strings.Contains(contact, "@")
}
