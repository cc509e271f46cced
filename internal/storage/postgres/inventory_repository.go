package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type InventoryRepository struct {
	db
}

func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{db{pool: pool}}
}

// Snapshot buckets the drawing's catalog into available/reserved/sold at
// the given instant. Expired-but-unswept holds land in the available
// bucket.
func (r *InventoryRepository) Snapshot(ctx context.Context, drawingID string, now time.Time) (domain.Snapshot, error) {
	const catalogQuery = `
SELECT element_id FROM drawing_elements WHERE drawing_id = $1 ORDER BY position`

	rows, err := r.query(ctx, catalogQuery, drawingID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load catalog: %w", err)
	}
	catalog, err := collectIDs(rows)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load catalog: %w", err)
	}
	if len(catalog) == 0 {
		if err := r.drawingExists(ctx, drawingID); err != nil {
			return domain.Snapshot{}, err
		}
	}

	const soldQuery = `
SELECT element_id FROM sale_elements WHERE drawing_id = $1`

	rows, err = r.query(ctx, soldQuery, drawingID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load sold elements: %w", err)
	}
	soldIDs, err := collectIDs(rows)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load sold elements: %w", err)
	}

	const reservedQuery = `
SELECT re.element_id
FROM reservation_elements re
JOIN reservations r ON r.id = re.reservation_id
WHERE re.drawing_id = $1 AND re.active AND r.status = 'active' AND r.expires_at > $2`

	rows, err = r.query(ctx, reservedQuery, drawingID, now)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load reserved elements: %w", err)
	}
	reservedIDs, err := collectIDs(rows)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("load reserved elements: %w", err)
	}

	sold := toSet(soldIDs)
	reserved := toSet(reservedIDs)

	snap := domain.Snapshot{
		Available: []string{},
		Reserved:  []string{},
		Sold:      []string{},
	}
	for _, e := range catalog {
		switch {
		case sold[e]:
			snap.Sold = append(snap.Sold, e)
		case reserved[e]:
			snap.Reserved = append(snap.Reserved, e)
		default:
			snap.Available = append(snap.Available, e)
		}
	}
	return snap, nil
}

// Disposition resolves a single element's state at the given instant.
func (r *InventoryRepository) Disposition(ctx context.Context, drawingID, elementID string, now time.Time) (domain.Disposition, error) {
	const catalogQuery = `
SELECT EXISTS (SELECT 1 FROM drawing_elements WHERE drawing_id = $1 AND element_id = $2)`

	var inCatalog bool
	if err := r.queryRow(ctx, catalogQuery, drawingID, elementID).Scan(&inCatalog); err != nil {
		if isInvalidUUID(err) {
			return domain.Disposition{}, domain.ErrInvalidID
		}
		return domain.Disposition{}, fmt.Errorf("check catalog: %w", err)
	}
	if !inCatalog {
		if err := r.drawingExists(ctx, drawingID); err != nil {
			return domain.Disposition{}, err
		}
		return domain.Disposition{}, domain.ErrElementNotInCatalog
	}

	const soldQuery = `
SELECT s.claimant_id
FROM sale_elements se
JOIN sales s ON s.id = se.sale_id
WHERE se.drawing_id = $1 AND se.element_id = $2`

	var owner string
	err := r.queryRow(ctx, soldQuery, drawingID, elementID).Scan(&owner)
	if err == nil {
		return domain.Disposition{ElementID: elementID, Kind: domain.DispositionSold, HolderID: owner}, nil
	}
	if err != pgx.ErrNoRows {
		return domain.Disposition{}, fmt.Errorf("check sold: %w", err)
	}

	const reservedQuery = `
SELECT r.claimant_id, r.expires_at
FROM reservation_elements re
JOIN reservations r ON r.id = re.reservation_id
WHERE re.drawing_id = $1 AND re.element_id = $2 AND re.active
  AND r.status = 'active' AND r.expires_at > $3`

	var holder string
	var expiresAt time.Time
	err = r.queryRow(ctx, reservedQuery, drawingID, elementID, now).Scan(&holder, &expiresAt)
	if err == nil {
		return domain.Disposition{
			ElementID: elementID,
			Kind:      domain.DispositionReserved,
			HolderID:  holder,
			ExpiresAt: expiresAt,
		}, nil
	}
	if err != pgx.ErrNoRows {
		return domain.Disposition{}, fmt.Errorf("check reserved: %w", err)
	}

	return domain.Disposition{ElementID: elementID, Kind: domain.DispositionAvailable}, nil
}

func (r *InventoryRepository) drawingExists(ctx context.Context, drawingID string) error {
	var exists bool
	err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM drawings WHERE id = $1)`, drawingID).Scan(&exists)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("check drawing: %w", err)
	}
	if !exists {
		return domain.ErrDrawingNotFound
	}
	return nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
