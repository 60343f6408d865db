package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"table-booking/internal/data/entity"
	"table-booking/internal/data/repository"
	"table-booking/internal/dto/request"
	"table-booking/internal/dto/response"
	"table-booking/pkg/utils"

	"go.uber.org/zap"
)

type UserService interface {
	// Register is the public sign-up and always creates a customer.
	Register(ctx context.Context, req *request.RegisterUserRequest) (*response.RegisterResponse, error)
	// CreateMember enrolls staff-level users inside the actor's scope.
	CreateMember(ctx context.Context, actor entity.Actor, req *request.CreateMemberRequest) (*response.RegisterResponse, error)
	// SeedSuperAdmin creates the bootstrap super admin under a fixed code. It
	// returns nil when the code is already present.
	SeedSuperAdmin(ctx context.Context, seed SuperAdminSeed) (*response.RegisterResponse, error)
	GetProfile(ctx context.Context, actor entity.Actor) (*response.UserResponse, error)
	// Resolve maps a token subject onto the actor stored in the directory.
	Resolve(ctx context.Context, userID string) (entity.Actor, error)
}

// SuperAdminSeed is read from configuration at startup.
type SuperAdminSeed struct {
	ID         string
	Name       string
	Restaurant entity.Restaurant
}

type userService struct {
	userRepo repository.UserRepository
	minter   *Minter
	secret   string
	now      func() time.Time
	log      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, minter *Minter, secret string, log *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		minter:   minter,
		secret:   secret,
		now:      time.Now,
		log:      log.With(zap.String("service", "user")),
	}
}

func (us *userService) Register(ctx context.Context, req *request.RegisterUserRequest) (*response.RegisterResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if req.Role != nil && entity.UserRole(*req.Role) != entity.RoleCustomer {
		us.log.Warn("Self-registration with elevated role refused", zap.Int("role", *req.Role))
		return nil, fmt.Errorf("%w: self-registration is for customers only", entity.ErrForbidden)
	}

	return us.enroll(ctx, &entity.User{
		Name: strings.TrimSpace(req.Name),
		Role: entity.RoleCustomer,
	}, nil)
}

func (us *userService) CreateMember(ctx context.Context, actor entity.Actor, req *request.CreateMemberRequest) (*response.RegisterResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		us.log.Warn("Create member validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", entity.ErrValidation, utils.FormatValidationErrors(errs))
	}
	if actor.Role != entity.RoleAdmin && actor.Role != entity.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: %s cannot enroll members", entity.ErrForbidden, actor.Role)
	}

	role := entity.UserRole(req.Role)
	user := &entity.User{
		Name: strings.TrimSpace(req.Name),
		Role: role,
	}

	switch role {
	case entity.RoleStaff, entity.RoleAdmin:
		if req.Branch == nil {
			return nil, fmt.Errorf("%w: %s must be assigned a branch", entity.ErrValidation, role)
		}
		branch := entity.Branch(*req.Branch)
		info, ok := entity.LookupBranch(branch)
		if !ok {
			return nil, fmt.Errorf("%w: unknown branch %d", entity.ErrValidation, *req.Branch)
		}
		// admins enroll staff of their own branch; admin grants need a super admin
		if role == entity.RoleAdmin && actor.Role != entity.RoleSuperAdmin {
			return nil, fmt.Errorf("%w: only a super admin can enroll admins", entity.ErrForbidden)
		}
		if !inScope(actor, branch) {
			return nil, fmt.Errorf("%w: branch %d is outside the actor's scope", entity.ErrForbidden, branch)
		}
		user.Branch = &branch
		user.Restaurant = &info.Restaurant

	case entity.RoleSuperAdmin:
		if req.Restaurant == nil {
			return nil, fmt.Errorf("%w: super admin must be assigned a restaurant", entity.ErrValidation)
		}
		restaurant := entity.Restaurant(*req.Restaurant)
		if actor.Role != entity.RoleSuperAdmin || actor.Restaurant == nil || *actor.Restaurant != restaurant {
			return nil, fmt.Errorf("%w: restaurant %d is outside the actor's scope", entity.ErrForbidden, restaurant)
		}
		user.Restaurant = &restaurant
	}

	resp, err := us.enroll(ctx, user, nil)
	if err != nil {
		return nil, err
	}

	us.log.Info("Member enrolled",
		zap.String("user_id", resp.User.ID),
		zap.String("role", role.String()),
		zap.String("actor_id", actor.ID),
	)
	return resp, nil
}

func (us *userService) SeedSuperAdmin(ctx context.Context, seed SuperAdminSeed) (*response.RegisterResponse, error) {
	if len(seed.ID) != utils.CodeWidth {
		return nil, fmt.Errorf("%w: seed id must have %d digits", entity.ErrValidation, utils.CodeWidth)
	}
	if _, err := strconv.Atoi(seed.ID); err != nil || strings.HasPrefix(seed.ID, "-") {
		return nil, fmt.Errorf("%w: seed id must be numeric", entity.ErrValidation)
	}
	if len(entity.BranchesOf(seed.Restaurant)) == 0 {
		return nil, fmt.Errorf("%w: unknown restaurant %d", entity.ErrValidation, seed.Restaurant)
	}

	name := strings.TrimSpace(seed.Name)
	if name == "" {
		name = "Owner"
	}
	restaurant := seed.Restaurant
	user := &entity.User{
		Base:       entity.Base{ID: seed.ID},
		Name:       name,
		Role:       entity.RoleSuperAdmin,
		Restaurant: &restaurant,
	}

	return us.enroll(ctx, user, &seed.ID)
}

// enroll stores user under a minted code, or under fixed when set, and issues
// its access token. A taken fixed code yields (nil, nil).
func (us *userService) enroll(ctx context.Context, user *entity.User, fixed *string) (*response.RegisterResponse, error) {
	now := us.now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if fixed != nil {
		inserted, err := us.userRepo.Insert(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", *fixed, err)
		}
		if !inserted {
			return nil, nil
		}
	} else {
		id, err := us.minter.Mint(ctx, func(ctx context.Context, candidate string) (bool, error) {
			user.ID = candidate
			inserted, err := us.userRepo.Insert(ctx, user)
			return !inserted, err
		})
		if err != nil {
			us.log.Error("Failed to register user", zap.Error(err), zap.String("role", user.Role.String()))
			return nil, fmt.Errorf("register user: %w", err)
		}
		user.ID = id
	}

	token, err := utils.NewAccessToken(us.secret, user.ID, utils.AccessTokenTTL)
	if err != nil {
		us.log.Error("Failed to issue access token", zap.Error(err), zap.String("user_id", user.ID))
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	us.log.Info("User registered",
		zap.String("user_id", user.ID),
		zap.String("role", user.Role.String()),
	)

	return &response.RegisterResponse{
		User:        response.UserToResponse(user),
		AccessToken: token.Token,
		ExpiresAt:   token.Exp,
	}, nil
}

func (us *userService) GetProfile(ctx context.Context, actor entity.Actor) (*response.UserResponse, error) {
	user, err := us.userRepo.FindByID(ctx, actor.ID)
	if err != nil {
		us.log.Error("Failed to find user", zap.Error(err), zap.String("user_id", actor.ID))
		return nil, fmt.Errorf("get profile: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("user %s: %w", actor.ID, entity.ErrNotFound)
	}

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (us *userService) Resolve(ctx context.Context, userID string) (entity.Actor, error) {
	user, err := us.userRepo.FindByID(ctx, userID)
	if err != nil {
		return entity.Actor{}, fmt.Errorf("resolve actor: %w", err)
	}
	if user == nil {
		return entity.Actor{}, fmt.Errorf("user %s: %w", userID, entity.ErrNotFound)
	}
	return entity.ActorFromUser(user), nil
}
