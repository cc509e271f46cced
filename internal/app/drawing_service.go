package app

import (
	"context"
	"strconv"

	"github.com/google/uuid"
	"github.com/jhleal91/rifas-app-sub000/internal/clock"
	"github.com/jhleal91/rifas-app-sub000/internal/domain"
)

type DrawingRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	CreateDrawing(ctx context.Context, d domain.Drawing) error
	GetDrawing(ctx context.Context, id string) (domain.Drawing, error)
	ListDrawingsByOrganizer(ctx context.Context, organizerID string) ([]domain.Drawing, error)
	CloseDrawing(ctx context.Context, id string) error
}

type DrawingService struct {
	repo  DrawingRepository
	clock clock.Clock
}

func NewDrawingService(repo DrawingRepository, clk clock.Clock) *DrawingService {
	return &DrawingService{repo: repo, clock: clk}
}

type CreateDrawingInput struct {
	OrganizerID string
	Name        string
	// Elements is the explicit catalog; when empty, ElementCount expands
	// to "1".."N".
	Elements     []string
	ElementCount int
}

func (s *DrawingService) CreateDrawing(ctx context.Context, in CreateDrawingInput) (domain.Drawing, error) {
	if in.Name == "" {
		return domain.Drawing{}, domain.ErrDrawingNameRequired
	}

	elements := in.Elements
	if len(elements) == 0 && in.ElementCount > 0 {
		elements = make([]string, in.ElementCount)
		for i := range elements {
			elements[i] = strconv.Itoa(i + 1)
		}
	}
	if len(elements) == 0 {
		return domain.Drawing{}, domain.ErrElementsRequired
	}
	for _, e := range elements {
		if e == "" {
			return domain.Drawing{}, domain.ErrElementsRequired
		}
	}
	if hasDuplicates(elements) {
		return domain.Drawing{}, domain.ErrDuplicateElements
	}

	drawing := domain.Drawing{
		ID:          uuid.NewString(),
		OrganizerID: in.OrganizerID,
		Name:        in.Name,
		Status:      domain.DrawingStatusActive,
		Elements:    elements,
		CreatedAt:   s.clock.Now(),
	}

	// Drawing and catalog rows land together or not at all.
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		return s.repo.CreateDrawing(txCtx, drawing)
	})
	if err != nil {
		return domain.Drawing{}, err
	}
	return drawing, nil
}

func (s *DrawingService) GetDrawing(ctx context.Context, id string) (domain.Drawing, error) {
	return s.repo.GetDrawing(ctx, id)
}

func (s *DrawingService) ListDrawings(ctx context.Context, organizerID string) ([]domain.Drawing, error) {
	return s.repo.ListDrawingsByOrganizer(ctx, organizerID)
}

// CloseDrawing stops new reservations and direct sales. Settlement of
// existing holds keeps working. Closing twice is a no-op.
func (s *DrawingService) CloseDrawing(ctx context.Context, organizerID, id string) error {
	drawing, err := s.repo.GetDrawing(ctx, id)
	if err != nil {
		return err
	}
	if drawing.OrganizerID != organizerID {
		return domain.ErrUnauthorized
	}
	if drawing.Status == domain.DrawingStatusClosed {
		return nil
	}
	return s.repo.CloseDrawing(ctx, id)
}
