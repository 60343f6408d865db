package repository

import (
	"table-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	User           UserRepository
	Reservation    ReservationRepository
	BranchSettings BranchSettingsRepository
}

func NewRepository(db database.PgxIface, feed ChangeFeed, log *zap.Logger) *Repository {
	return &Repository{
		User:           NewUserRepository(db, log),
		Reservation:    NewReservationRepository(db, feed, log),
		BranchSettings: NewBranchSettingsRepository(db, log),
	}
}
