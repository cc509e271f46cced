package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type ReservationRepository struct {
	db
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db{pool: pool}}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// GetDrawingForUpdate locks the drawing row for the duration of the
// transaction. Reservation creation, direct sales and the settle-after-sweep
// path all take this lock so their check-then-insert sequences serialize per
// drawing.
func (r *ReservationRepository) GetDrawingForUpdate(ctx context.Context, drawingID string) (domain.Drawing, error) {
	const query = `
SELECT id, organizer_id, name, status, created_at
FROM drawings
WHERE id = $1
FOR UPDATE`

	var d domain.Drawing
	err := r.queryRow(ctx, query, drawingID).
		Scan(&d.ID, &d.OrganizerID, &d.Name, &d.Status, &d.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Drawing{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Drawing{}, domain.ErrDrawingNotFound
		}
		return domain.Drawing{}, fmt.Errorf("get drawing for update: %w", err)
	}

	const catalogQuery = `
SELECT element_id FROM drawing_elements WHERE drawing_id = $1 ORDER BY position`

	rows, err := r.query(ctx, catalogQuery, drawingID)
	if err != nil {
		return domain.Drawing{}, fmt.Errorf("load catalog: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return domain.Drawing{}, fmt.Errorf("scan catalog element: %w", err)
		}
		d.Elements = append(d.Elements, e)
	}
	if err := rows.Err(); err != nil {
		return domain.Drawing{}, fmt.Errorf("load catalog: %w", err)
	}
	return d, nil
}

// ReleaseExpiredHolds releases active reservations whose window has passed
// and that hold any of the given elements. Called inside the reserving
// transaction so expired-but-unswept holds never block a new claim.
func (r *ReservationRepository) ReleaseExpiredHolds(ctx context.Context, drawingID string, elementIDs []string, now time.Time) (int, error) {
	const stmt = `
UPDATE reservations SET status = 'released', release_reason = 'expired'
WHERE id IN (
	SELECT DISTINCT re.reservation_id
	FROM reservation_elements re
	JOIN reservations r ON r.id = re.reservation_id
	WHERE re.drawing_id = $1 AND re.element_id = ANY($2) AND re.active
	  AND r.status = 'active' AND r.expires_at <= $3
)
RETURNING id`

	rows, err := r.query(ctx, stmt, drawingID, elementIDs, now)
	if err != nil {
		return 0, fmt.Errorf("release expired holds: %w", err)
	}
	ids, err := collectIDs(rows)
	if err != nil {
		return 0, fmt.Errorf("release expired holds: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := r.deactivateElements(ctx, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// ReleaseExpiredBefore is the sweeper's bulk form of ReleaseExpiredHolds.
func (r *ReservationRepository) ReleaseExpiredBefore(ctx context.Context, now time.Time) (int, error) {
	var released int
	err := r.WithTx(ctx, func(txCtx context.Context) error {
		const stmt = `
UPDATE reservations SET status = 'released', release_reason = 'expired'
WHERE status = 'active' AND expires_at <= $1
RETURNING id`

		rows, err := r.query(txCtx, stmt, now)
		if err != nil {
			return fmt.Errorf("release expired: %w", err)
		}
		ids, err := collectIDs(rows)
		if err != nil {
			return fmt.Errorf("release expired: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := r.deactivateElements(txCtx, ids); err != nil {
			return err
		}
		released = len(ids)
		return nil
	})
	return released, err
}

// FindUnavailable returns the subset of elementIDs already owned: sold, or
// held by an active unexpired reservation.
func (r *ReservationRepository) FindUnavailable(ctx context.Context, drawingID string, elementIDs []string, now time.Time) ([]string, error) {
	const query = `
SELECT element_id FROM sale_elements
WHERE drawing_id = $1 AND element_id = ANY($2)
UNION
SELECT re.element_id
FROM reservation_elements re
JOIN reservations r ON r.id = re.reservation_id
WHERE re.drawing_id = $1 AND re.element_id = ANY($2) AND re.active
  AND r.status = 'active' AND r.expires_at > $3`

	rows, err := r.query(ctx, query, drawingID, elementIDs, now)
	if err != nil {
		return nil, fmt.Errorf("find unavailable: %w", err)
	}
	return collectIDs(rows)
}

// FindActiveConflicts returns elements among elementIDs held by an active
// unexpired reservation other than excludeID. Used when settling a
// reservation the sweeper already released.
func (r *ReservationRepository) FindActiveConflicts(ctx context.Context, drawingID string, elementIDs []string, excludeID string, now time.Time) ([]string, error) {
	const query = `
SELECT re.element_id
FROM reservation_elements re
JOIN reservations r ON r.id = re.reservation_id
WHERE re.drawing_id = $1 AND re.element_id = ANY($2) AND re.active
  AND r.status = 'active' AND r.expires_at > $3 AND r.id <> $4`

	rows, err := r.query(ctx, query, drawingID, elementIDs, now, excludeID)
	if err != nil {
		return nil, fmt.Errorf("find active conflicts: %w", err)
	}
	return collectIDs(rows)
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, drawing_id, claimant_id, status, created_at, expires_at, release_reason)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.DrawingID,
		res.ClaimantID,
		res.Status,
		res.CreatedAt,
		res.ExpiresAt,
		res.ReleaseReason,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}

	const elemStmt = `
INSERT INTO reservation_elements (reservation_id, drawing_id, element_id, active)
VALUES ($1, $2, $3, TRUE)`

	for _, elem := range res.Elements {
		if _, err := r.exec(ctx, elemStmt, res.ID, res.DrawingID, elem); err != nil {
			// The partial unique index is the final arbiter; a violation
			// means another active hold won and the whole reservation
			// rolls back.
			if isUniqueViolation(err) {
				return domain.ErrElementConflict
			}
			return fmt.Errorf("create reservation element %q: %w", elem, err)
		}
	}
	return nil
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, drawing_id, claimant_id, status, created_at, expires_at, release_reason
FROM reservations
WHERE id = $1
FOR UPDATE`

	return r.getReservation(ctx, query, id)
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	const query = `
SELECT id, drawing_id, claimant_id, status, created_at, expires_at, release_reason
FROM reservations
WHERE id = $1`

	return r.getReservation(ctx, query, id)
}

// Release moves an active reservation to released and frees its elements.
// Already released or settled reservations are left untouched; the returned
// bool reports whether this call did the release.
func (r *ReservationRepository) Release(ctx context.Context, id, reason string) (bool, error) {
	const stmt = `
UPDATE reservations SET status = 'released', release_reason = $2
WHERE id = $1 AND status = 'active'`

	tag, err := r.exec(ctx, stmt, id, reason)
	if err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("release reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}
	if err := r.deactivateElements(ctx, []string{id}); err != nil {
		return false, err
	}
	return true, nil
}

// MarkSettled records the terminal settled state and retires the element
// rows; ownership continues in sale_elements.
func (r *ReservationRepository) MarkSettled(ctx context.Context, id string) error {
	const stmt = `UPDATE reservations SET status = 'settled' WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("mark settled: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return r.deactivateElements(ctx, []string{id})
}

func (r *ReservationRepository) getReservation(ctx context.Context, query, id string) (domain.Reservation, error) {
	var res domain.Reservation
	err := r.queryRow(ctx, query, id).
		Scan(&res.ID, &res.DrawingID, &res.ClaimantID, &res.Status, &res.CreatedAt, &res.ExpiresAt, &res.ReleaseReason)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}

	const elemQuery = `
SELECT re.element_id
FROM reservation_elements re
JOIN drawing_elements de ON de.drawing_id = re.drawing_id AND de.element_id = re.element_id
WHERE re.reservation_id = $1
ORDER BY de.position`

	rows, err := r.query(ctx, elemQuery, id)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("load reservation elements: %w", err)
	}
	elements, err := collectIDs(rows)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("load reservation elements: %w", err)
	}
	res.Elements = elements
	return res, nil
}

func (r *ReservationRepository) deactivateElements(ctx context.Context, reservationIDs []string) error {
	const stmt = `
UPDATE reservation_elements SET active = FALSE
WHERE reservation_id = ANY($1) AND active`

	if _, err := r.exec(ctx, stmt, reservationIDs); err != nil {
		return fmt.Errorf("deactivate reservation elements: %w", err)
	}
	return nil
}

func collectIDs(rows pgx.Rows) ([]string, error) {
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
