package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
	"github.com/jhleal91/rifas-app-sub000/internal/testutil"
)

func TestClaimantRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	ctx := context.Background()
	testutil.ApplyMigrations(t, ctx, pool)
	testutil.TruncateAll(t, ctx, pool)

	repo := NewClaimantRepository(pool)
	now := time.Now().UTC().Truncate(time.Microsecond)

	t.Run("durable contact is unique", func(t *testing.T) {
		first := domain.Claimant{
			ID: uuid.NewString(), Name: "Ana", Contact: "ana@example.com",
			Kind: domain.ClaimantKindDurable, CreatedAt: now,
		}
		if err := repo.CreateClaimant(ctx, first); err != nil {
			t.Fatalf("first create: %v", err)
		}

		second := first
		second.ID = uuid.NewString()
		if err := repo.CreateClaimant(ctx, second); !errors.Is(err, domain.ErrContactTaken) {
			t.Fatalf("expected ErrContactTaken, got %v", err)
		}

		found, err := repo.FindByContact(ctx, "ana@example.com")
		if err != nil {
			t.Fatalf("find by contact: %v", err)
		}
		if found == nil || found.ID != first.ID {
			t.Fatalf("expected the first claimant, got %+v", found)
		}
	})

	t.Run("ephemeral claimants never collide", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			c := domain.Claimant{
				ID: uuid.NewString(), Name: "Walk-in",
				Kind: domain.ClaimantKindEphemeral, CreatedAt: now,
			}
			if err := repo.CreateClaimant(ctx, c); err != nil {
				t.Fatalf("create %d: %v", i, err)
			}
		}
	})

	t.Run("unknown contact finds nothing", func(t *testing.T) {
		found, err := repo.FindByContact(ctx, "nobody@example.com")
		if err != nil {
			t.Fatalf("find by contact: %v", err)
		}
		if found != nil {
			t.Fatalf("expected nil, got %+v", found)
		}
	})
}
