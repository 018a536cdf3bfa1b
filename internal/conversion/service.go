package conversion

import (
	"context"
	"log/slog"
)

// Service manages the lifecycle of conversion records on top of a Repository.
// It does not run conversions itself; the pipeline drives state changes and
// calls Record to publish them.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new Service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

// Create creates a conversion for source and persists it in IDLE state.
func (s *Service) Create(ctx context.Context, source string) (*Conversion, error) {
	c := New(source)

	s.logger.Info("creating new conversion",
		slog.String("conversion_id", c.ID),
		slog.String("source", source),
	)

	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.Error("failed to save conversion",
			slog.String("conversion_id", c.ID),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	return c, nil
}

// Get retrieves a conversion by ID.
func (s *Service) Get(ctx context.Context, id string) (*Conversion, error) {
	return s.repo.FindByID(ctx, id)
}

// List returns all known conversions.
func (s *Service) List(ctx context.Context) ([]*Conversion, error) {
	return s.repo.List(ctx)
}

// Record persists the current state of c. Failures are logged and returned.
func (s *Service) Record(ctx context.Context, c *Conversion) error {
	if err := s.repo.Save(ctx, c); err != nil {
		s.logger.Error("failed to record conversion",
			slog.String("conversion_id", c.ID),
			slog.String("state", string(c.GetState())),
			slog.String("error", err.Error()),
		)
		return err
	}
	return nil
}

// ActiveCount returns the number of conversions that have not finished.
func (s *Service) ActiveCount(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}
