package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type SaleRepository struct {
	db
}

func NewSaleRepository(pool *pgxpool.Pool) *SaleRepository {
	return &SaleRepository{db{pool: pool}}
}

func (r *SaleRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *SaleRepository) CreateSale(ctx context.Context, sale domain.Sale) error {
	const stmt = `
INSERT INTO sales (id, drawing_id, reservation_id, claimant_id, settled_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.exec(ctx, stmt, sale.ID, sale.DrawingID, sale.ReservationID, sale.ClaimantID, sale.SettledAt)
	if err != nil {
		if isUniqueViolation(err) {
			// One sale per reservation: a concurrent settle committed first.
			return domain.ErrReservationAlreadySettled
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create sale: %w", err)
	}

	const elemStmt = `
INSERT INTO sale_elements (sale_id, drawing_id, element_id)
VALUES ($1, $2, $3)`

	for _, elem := range sale.Elements {
		if _, err := r.exec(ctx, elemStmt, sale.ID, sale.DrawingID, elem); err != nil {
			// Sold ownership is permanent; a violation here means the
			// element already belongs to another sale.
			if isUniqueViolation(err) {
				return domain.ErrElementConflict
			}
			return fmt.Errorf("create sale element %q: %w", elem, err)
		}
	}
	return nil
}

func (r *SaleRepository) GetSaleByReservationID(ctx context.Context, reservationID string) (*domain.Sale, error) {
	const query = `
SELECT id, drawing_id, reservation_id, claimant_id, settled_at
FROM sales
WHERE reservation_id = $1`

	var s domain.Sale
	err := r.queryRow(ctx, query, reservationID).
		Scan(&s.ID, &s.DrawingID, &s.ReservationID, &s.ClaimantID, &s.SettledAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get sale: %w", err)
	}

	const elemQuery = `
SELECT se.element_id
FROM sale_elements se
JOIN drawing_elements de ON de.drawing_id = se.drawing_id AND de.element_id = se.element_id
WHERE se.sale_id = $1
ORDER BY de.position`

	rows, err := r.query(ctx, elemQuery, s.ID)
	if err != nil {
		return nil, fmt.Errorf("load sale elements: %w", err)
	}
	elements, err := collectIDs(rows)
	if err != nil {
		return nil, fmt.Errorf("load sale elements: %w", err)
	}
	s.Elements = elements
	return &s, nil
}

// FindConflictingSale reports which of the given elements already belong to
// a sale, along with one conflicting sale id for reconciliation logs.
func (r *SaleRepository) FindConflictingSale(ctx context.Context, drawingID string, elementIDs []string) (string, []string, error) {
	const query = `
SELECT sale_id, element_id
FROM sale_elements
WHERE drawing_id = $1 AND element_id = ANY($2)`

	rows, err := r.query(ctx, query, drawingID, elementIDs)
	if err != nil {
		return "", nil, fmt.Errorf("find conflicting sale: %w", err)
	}
	defer rows.Close()

	var saleID string
	var elements []string
	for rows.Next() {
		var sid, eid string
		if err := rows.Scan(&sid, &eid); err != nil {
			return "", nil, fmt.Errorf("scan conflicting sale: %w", err)
		}
		if saleID == "" {
			saleID = sid
		}
		elements = append(elements, eid)
	}
	if err := rows.Err(); err != nil {
		return "", nil, fmt.Errorf("find conflicting sale: %w", err)
	}
	return saleID, elements, nil
}
