package usecase

import (
	"context"
	"fmt"

	"table-booking/internal/data/entity"
	"table-booking/pkg/metrics"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

// DefaultMintAttempts bounds the candidate loop.
const DefaultMintAttempts = 50

// Lookup reports whether candidate is already taken. Passing an atomic
// insert-if-absent as the lookup claims the id in the same step.
type Lookup func(ctx context.Context, candidate string) (taken bool, err error)

// Minter hands out short numeric codes by random sampling.
type Minter struct {
	attempts int
	generate func() string
	log      *zap.Logger
}

func NewMinter(attempts int, log *zap.Logger) *Minter {
	if attempts <= 0 {
		attempts = DefaultMintAttempts
	}
	return &Minter{
		attempts: attempts,
		generate: func() string { return utils.GenerateNumericCode(utils.CodeWidth) },
		log:      log.With(zap.String("component", "minter")),
	}
}

// Mint tries candidates up to the configured bound and returns the first free code.
// A lookup error aborts immediately; running out of attempts yields
// ErrExhaustedRetries.
func (m *Minter) Mint(ctx context.Context, lookup Lookup) (string, error) {
	for attempt := 1; attempt <= m.attempts; attempt++ {
		candidate := m.generate()

		taken, err := lookup(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", candidate, err)
		}
		if !taken {
			metrics.IncMintAttempt("free")
			return candidate, nil
		}

		metrics.IncMintAttempt("collision")
		m.log.Debug("Code collision", zap.String("candidate", candidate), zap.Int("attempt", attempt))
	}

	metrics.IncMintAttempt("exhausted")
	m.log.Error("Code minting exhausted", zap.Int("attempts", m.attempts))
	return "", fmt.Errorf("after %d attempts: %w", m.attempts, entity.ErrExhaustedRetries)
}
