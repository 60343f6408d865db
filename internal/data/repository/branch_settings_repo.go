package repository

import (
	"context"
	"errors"
	"fmt"

	"table-booking/internal/data/entity"
	"table-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type BranchSettingsRepository interface {
	// Find returns nil when the branch was never written.
	Find(ctx context.Context, branch entity.Branch) (*entity.BranchSettings, error)
	// Save overwrites every field of the row. When expectedVersion is set the
	// write only lands if the stored version still matches; otherwise
	// ErrConflict is returned.
	Save(ctx context.Context, settings *entity.BranchSettings, expectedVersion *int64) (*entity.BranchSettings, error)
}

type branchSettingsRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewBranchSettingsRepository(db database.PgxIface, log *zap.Logger) BranchSettingsRepository {
	return &branchSettingsRepository{
		db:  db,
		log: log.With(zap.String("repository", "branch_settings")),
	}
}

func (r *branchSettingsRepository) Find(ctx context.Context, branch entity.Branch) (*entity.BranchSettings, error) {
	query := `
		SELECT branch, pause_bookings, pause_reason, pause_until, version, updated_at
		FROM branch_settings
		WHERE branch = $1
	`

	var s entity.BranchSettings
	err := r.db.QueryRow(ctx, query, int16(branch)).Scan(
		&s.Branch,
		&s.PauseBookings,
		&s.PauseReason,
		&s.PauseUntil,
		&s.Version,
		&s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to find branch settings", zap.Error(err), zap.Int("branch", int(branch)))
		return nil, storeErr(fmt.Sprintf("find settings of branch %d", branch), err)
	}

	return &s, nil
}

func (r *branchSettingsRepository) Save(ctx context.Context, settings *entity.BranchSettings, expectedVersion *int64) (*entity.BranchSettings, error) {
	// The first write creates the row at version 1 whatever the caller expected;
	// the version guard only applies once a row exists.
	query := `
		INSERT INTO branch_settings (branch, pause_bookings, pause_reason, pause_until, version, updated_at)
		VALUES ($1, $2, $3, $4, 1, $5)
		ON CONFLICT (branch) DO UPDATE
		SET pause_bookings = EXCLUDED.pause_bookings,
		    pause_reason   = EXCLUDED.pause_reason,
		    pause_until    = EXCLUDED.pause_until,
		    version        = branch_settings.version + 1,
		    updated_at     = EXCLUDED.updated_at
		WHERE $6::bigint IS NULL OR branch_settings.version = $6::bigint
		RETURNING version
	`

	saved := *settings
	err := r.db.QueryRow(ctx, query,
		int16(settings.Branch),
		settings.PauseBookings,
		settings.PauseReason,
		settings.PauseUntil,
		settings.UpdatedAt,
		expectedVersion,
	).Scan(&saved.Version)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("save settings of branch %d: %w", settings.Branch, entity.ErrConflict)
	}
	if err != nil {
		r.log.Error("Failed to save branch settings",
			zap.Error(err),
			zap.Int("branch", int(settings.Branch)),
			zap.Bool("pause_bookings", settings.PauseBookings),
		)
		return nil, storeErr(fmt.Sprintf("save settings of branch %d", settings.Branch), err)
	}

	return &saved, nil
}
