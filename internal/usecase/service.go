package usecase

import (
	"table-booking/internal/data/repository"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

type Service struct {
	User        UserService
	Reservation ReservationService
	Branch      BranchService
}

func NewService(repo *repository.Repository, notifier *NotificationTrigger, config *utils.Config, log *zap.Logger) *Service {
	minter := NewMinter(config.Engine.MintAttempts, log)

	return &Service{
		User:        NewUserService(repo.User, minter, config.JWT.Secret, log),
		Reservation: NewReservationService(repo, minter, notifier, log),
		Branch:      NewBranchService(repo, notifier, config.Engine.BulkBatchSize, log),
	}
}
