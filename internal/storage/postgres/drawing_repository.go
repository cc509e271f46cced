package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type DrawingRepository struct {
	db
}

func NewDrawingRepository(pool *pgxpool.Pool) *DrawingRepository {
	return &DrawingRepository{db{pool: pool}}
}

func (r *DrawingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *DrawingRepository) CreateDrawing(ctx context.Context, d domain.Drawing) error {
	const stmt = `
INSERT INTO drawings (id, organizer_id, name, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	if _, err := r.exec(ctx, stmt, d.ID, d.OrganizerID, d.Name, d.Status, d.CreatedAt); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create drawing: %w", err)
	}

	const elemStmt = `
INSERT INTO drawing_elements (drawing_id, element_id, position)
VALUES ($1, $2, $3)`

	for i, elem := range d.Elements {
		if _, err := r.exec(ctx, elemStmt, d.ID, elem, i); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateElements
			}
			return fmt.Errorf("create drawing element %q: %w", elem, err)
		}
	}
	return nil
}

func (r *DrawingRepository) GetDrawing(ctx context.Context, id string) (domain.Drawing, error) {
	const query = `
SELECT id, organizer_id, name, status, created_at
FROM drawings
WHERE id = $1`

	var d domain.Drawing
	err := r.queryRow(ctx, query, id).
		Scan(&d.ID, &d.OrganizerID, &d.Name, &d.Status, &d.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Drawing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Drawing{}, domain.ErrDrawingNotFound
		}
		return domain.Drawing{}, fmt.Errorf("get drawing: %w", err)
	}

	elements, err := r.catalog(ctx, id)
	if err != nil {
		return domain.Drawing{}, err
	}
	d.Elements = elements
	return d, nil
}

func (r *DrawingRepository) ListDrawingsByOrganizer(ctx context.Context, organizerID string) ([]domain.Drawing, error) {
	const query = `
SELECT id, organizer_id, name, status, created_at
FROM drawings
WHERE organizer_id = $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}
	defer rows.Close()

	var out []domain.Drawing
	for rows.Next() {
		var d domain.Drawing
		if err := rows.Scan(&d.ID, &d.OrganizerID, &d.Name, &d.Status, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan drawing: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list drawings: %w", err)
	}

	for i := range out {
		elements, err := r.catalog(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Elements = elements
	}
	return out, nil
}

// CloseDrawing moves an active drawing to closed. Closing a closed drawing
// is a no-op; an unknown id is an error.
func (r *DrawingRepository) CloseDrawing(ctx context.Context, id string) error {
	const stmt = `UPDATE drawings SET status = 'closed' WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("close drawing: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDrawingNotFound
	}
	return nil
}

func (r *DrawingRepository) catalog(ctx context.Context, drawingID string) ([]string, error) {
	const query = `
SELECT element_id FROM drawing_elements WHERE drawing_id = $1 ORDER BY position`

	rows, err := r.query(ctx, query, drawingID)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()

	var elements []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan catalog element: %w", err)
		}
		elements = append(elements, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return elements, nil
}
