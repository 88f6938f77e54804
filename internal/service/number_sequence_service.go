package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/woodline/crm-api/internal/domain"
	"github.com/woodline/crm-api/internal/repository"
)

// NumberSequenceService handles generation of unique, formatted order numbers.
// Ready-made and custom-made orders run separate counters, keyed by
// prefix/year.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: RM-2026-001, CM-2026-042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

// NewNumberSequenceService creates a new NumberSequenceService
func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateOrderNumber generates a unique order number for the given type.
// Called when a new order is created.
func (s *NumberSequenceService) GenerateOrderNumber(ctx context.Context, orderType domain.OrderType) (string, error) {
	if !orderType.IsValid() {
		return "", fmt.Errorf("%w: %s", domain.ErrUnknownOrderType, orderType)
	}

	year := time.Now().Year()
	prefix := orderType.NumberPrefix()

	nextSeq, err := s.repo.GetNextNumber(ctx, prefix, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("prefix", prefix),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}

	// Format: PREFIX-YYYY-NNN (zero-padded to 3 digits)
	number := fmt.Sprintf("%s-%d-%03d", prefix, year, nextSeq)

	s.logger.Info("generated order number",
		zap.String("number", number),
		zap.String("orderType", string(orderType)),
		zap.Int("year", year),
		zap.Int("sequence", nextSeq))

	return number, nil
}

// GetCurrentSequence returns the current sequence value for a type/year
// without incrementing it. Returns 0 if no sequence exists.
func (s *NumberSequenceService) GetCurrentSequence(ctx context.Context, orderType domain.OrderType, year int) (int, error) {
	return s.repo.GetCurrentSequence(ctx, orderType.NumberPrefix(), year)
}

// InitializeSequence sets the sequence to a specific value. Useful for data
// migrations so the counter accounts for existing numbered orders. The value
// should be the LAST USED sequence number.
func (s *NumberSequenceService) InitializeSequence(ctx context.Context, orderType domain.OrderType, year int, value int) error {
	return s.repo.SetSequence(ctx, orderType.NumberPrefix(), year, value)
}
