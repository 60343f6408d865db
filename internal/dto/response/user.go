package response

import (
	"time"

	"table-booking/internal/data/entity"
)

type UserResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Role       int       `json:"role"`
	RoleName   string    `json:"role_name"`
	Branch     *int      `json:"branch,omitempty"`
	Restaurant *int      `json:"restaurant,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type RegisterResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

func UserToResponse(u *entity.User) UserResponse {
	resp := UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Role:      int(u.Role),
		RoleName:  u.Role.String(),
		CreatedAt: u.CreatedAt,
	}
	if u.Branch != nil {
		b := int(*u.Branch)
		resp.Branch = &b
	}
	if u.Restaurant != nil {
		r := int(*u.Restaurant)
		resp.Restaurant = &r
	}
	return resp
}
