package repository

import (
	"context"
	"errors"

	"table-booking/internal/data/entity"
	"table-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type UserRepository interface {
	// Insert stores the user unless the id is taken; false means collision.
	Insert(ctx context.Context, user *entity.User) (bool, error)
	FindByID(ctx context.Context, id string) (*entity.User, error)
}

type userRepository struct {
	db  database.PgxIface
	log *zap.Logger
}

func NewUserRepository(db database.PgxIface, log *zap.Logger) UserRepository {
	return &userRepository{
		db:  db,
		log: log.With(zap.String("repository", "user")),
	}
}

func (ur *userRepository) Insert(ctx context.Context, user *entity.User) (bool, error) {
	query := `
		INSERT INTO users (id, name, role, branch, restaurant, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`

	tag, err := ur.db.Exec(ctx, query,
		user.ID,
		user.Name,
		int16(user.Role),
		nullableCode(user.Branch),
		nullableCode(user.Restaurant),
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		ur.log.Error("Failed to insert user",
			zap.Error(err),
			zap.String("user_id", user.ID),
		)
		return false, storeErr("insert user "+user.ID, err)
	}

	return tag.RowsAffected() == 1, nil
}

func (ur *userRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	query := `
		SELECT id, name, role, branch, restaurant, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	var user entity.User
	err := ur.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Role,
		&user.Branch,
		&user.Restaurant,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		ur.log.Error("Failed to find user by ID",
			zap.Error(err),
			zap.String("user_id", id),
		)
		return nil, storeErr("find user "+id, err)
	}

	return &user, nil
}
