package app

import (
	"context"
	"sync"
	"time"

	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

// fakeStore is an in-memory stand-in for the Postgres repositories. WithTx
// holds the store lock for the whole callback so service transactions are
// serialized the way the database serializes them; the context carries the
// tx marker so nested calls skip re-locking.
type fakeStore struct {
	mu           sync.Mutex
	drawings     map[string]domain.Drawing
	reservations map[string]*domain.Reservation
	sales        []*domain.Sale
}

type fakeTxKey struct{}

func newFakeStore(drawings []domain.Drawing, reservations []domain.Reservation) *fakeStore {
	f := &fakeStore{
		drawings:     make(map[string]domain.Drawing),
		reservations: make(map[string]*domain.Reservation),
	}
	for _, d := range drawings {
		f.drawings[d.ID] = d
	}
	for i := range reservations {
		r := reservations[i]
		f.reservations[r.ID] = &r
	}
	return f
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(context.WithValue(ctx, fakeTxKey{}, true))
}

func (f *fakeStore) lock(ctx context.Context) func() {
	if ctx.Value(fakeTxKey{}) != nil {
		return func() {}
	}
	f.mu.Lock()
	return f.mu.Unlock
}

func (f *fakeStore) GetDrawingForUpdate(ctx context.Context, drawingID string) (domain.Drawing, error) {
	defer f.lock(ctx)()
	d, ok := f.drawings[drawingID]
	if !ok {
		return domain.Drawing{}, domain.ErrDrawingNotFound
	}
	return d, nil
}

func (f *fakeStore) GetDrawing(ctx context.Context, drawingID string) (domain.Drawing, error) {
	return f.GetDrawingForUpdate(ctx, drawingID)
}

func (f *fakeStore) ReleaseExpiredHolds(ctx context.Context, drawingID string, elementIDs []string, now time.Time) (int, error) {
	defer f.lock(ctx)()
	released := 0
	for _, r := range f.reservations {
		if r.DrawingID != drawingID || r.Status != domain.ReservationStatusActive || !r.Expired(now) {
			continue
		}
		if !intersects(r.Elements, elementIDs) {
			continue
		}
		r.Status = domain.ReservationStatusReleased
		r.ReleaseReason = "expired"
		released++
	}
	return released, nil
}

func (f *fakeStore) ReleaseExpiredBefore(ctx context.Context, now time.Time) (int, error) {
	defer f.lock(ctx)()
	released := 0
	for _, r := range f.reservations {
		if r.Status != domain.ReservationStatusActive || !r.Expired(now) {
			continue
		}
		r.Status = domain.ReservationStatusReleased
		r.ReleaseReason = "expired"
		released++
	}
	return released, nil
}

func (f *fakeStore) FindUnavailable(ctx context.Context, drawingID string, elementIDs []string, now time.Time) ([]string, error) {
	defer f.lock(ctx)()
	var out []string
	for _, e := range elementIDs {
		if f.soldLocked(drawingID, e) || f.heldLocked(drawingID, e, "", now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) FindActiveConflicts(ctx context.Context, drawingID string, elementIDs []string, excludeID string, now time.Time) ([]string, error) {
	defer f.lock(ctx)()
	var out []string
	for _, e := range elementIDs {
		if f.heldLocked(drawingID, e, excludeID, now) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateReservation(ctx context.Context, res domain.Reservation) error {
	defer f.lock(ctx)()
	// Mimic the partial unique index: one active hold per element.
	for _, e := range res.Elements {
		for _, other := range f.reservations {
			if other.DrawingID == res.DrawingID && other.Status == domain.ReservationStatusActive && contains(other.Elements, e) {
				return domain.ErrElementConflict
			}
		}
	}
	stored := res
	f.reservations[res.ID] = &stored
	return nil
}

func (f *fakeStore) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	defer f.lock(ctx)()
	r, ok := f.reservations[id]
	if !ok {
		return domain.Reservation{}, domain.ErrReservationNotFound
	}
	return *r, nil
}

func (f *fakeStore) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return f.GetReservationForUpdate(ctx, id)
}

func (f *fakeStore) Release(ctx context.Context, id, reason string) (bool, error) {
	defer f.lock(ctx)()
	r, ok := f.reservations[id]
	if !ok {
		return false, nil
	}
	if r.Status != domain.ReservationStatusActive {
		return false, nil
	}
	r.Status = domain.ReservationStatusReleased
	r.ReleaseReason = reason
	return true, nil
}

func (f *fakeStore) MarkSettled(ctx context.Context, id string) error {
	defer f.lock(ctx)()
	r, ok := f.reservations[id]
	if !ok {
		return domain.ErrReservationNotFound
	}
	r.Status = domain.ReservationStatusSettled
	return nil
}

func (f *fakeStore) CreateSale(ctx context.Context, sale domain.Sale) error {
	defer f.lock(ctx)()
	for _, s := range f.sales {
		if s.ReservationID == sale.ReservationID {
			return domain.ErrReservationAlreadySettled
		}
		if s.DrawingID == sale.DrawingID && intersects(s.Elements, sale.Elements) {
			return domain.ErrElementConflict
		}
	}
	stored := sale
	f.sales = append(f.sales, &stored)
	return nil
}

func (f *fakeStore) GetSaleByReservationID(ctx context.Context, reservationID string) (*domain.Sale, error) {
	defer f.lock(ctx)()
	for _, s := range f.sales {
		if s.ReservationID == reservationID {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindConflictingSale(ctx context.Context, drawingID string, elementIDs []string) (string, []string, error) {
	defer f.lock(ctx)()
	var saleID string
	var elements []string
	for _, s := range f.sales {
		if s.DrawingID != drawingID {
			continue
		}
		for _, e := range s.Elements {
			if contains(elementIDs, e) {
				if saleID == "" {
					saleID = s.ID
				}
				elements = append(elements, e)
			}
		}
	}
	return saleID, elements, nil
}

func (f *fakeStore) soldLocked(drawingID, elementID string) bool {
	for _, s := range f.sales {
		if s.DrawingID == drawingID && contains(s.Elements, elementID) {
			return true
		}
	}
	return false
}

func (f *fakeStore) heldLocked(drawingID, elementID, excludeID string, now time.Time) bool {
	for _, r := range f.reservations {
		if r.DrawingID != drawingID || r.ID == excludeID {
			continue
		}
		if r.Status != domain.ReservationStatusActive || r.Expired(now) {
			continue
		}
		if contains(r.Elements, elementID) {
			return true
		}
	}
	return false
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func intersects(a, b []string) bool {
	for _, v := range a {
		if contains(b, v) {
			return true
		}
	}
	return false
}
