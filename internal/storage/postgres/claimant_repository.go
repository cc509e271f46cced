package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type ClaimantRepository struct {
	db
}

func NewClaimantRepository(pool *pgxpool.Pool) *ClaimantRepository {
	return &ClaimantRepository{db{pool: pool}}
}

func (r *ClaimantRepository) FindByContact(ctx context.Context, contact string) (*domain.Claimant, error) {
	const query = `
SELECT id, name, COALESCE(contact, ''), kind, created_at
FROM claimants
WHERE contact = $1`

	var c domain.Claimant
	err := r.queryRow(ctx, query, contact).
		Scan(&c.ID, &c.Name, &c.Contact, &c.Kind, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find claimant by contact: %w", err)
	}
	return &c, nil
}

func (r *ClaimantRepository) CreateClaimant(ctx context.Context, c domain.Claimant) error {
	const stmt = `
INSERT INTO claimants (id, name, contact, kind, created_at)
VALUES ($1, $2, NULLIF($3, ''), $4, $5)`

	_, err := r.exec(ctx, stmt, c.ID, c.Name, c.Contact, c.Kind, c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrContactTaken
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create claimant: %w", err)
	}
	return nil
}
