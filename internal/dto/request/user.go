package request

// RegisterUserRequest is the public sign-up. Only customers register here;
// a role other than customer is refused.
type RegisterUserRequest struct {
	Name string `json:"name" validate:"required,max=120"`
	Role *int   `json:"role,omitempty" validate:"omitempty,min=0,max=3"`
}

// CreateMemberRequest enrolls staff, admins and super admins. It is only
// accepted from an admin or super admin whose scope covers the target.
type CreateMemberRequest struct {
	Name       string `json:"name" validate:"required,max=120"`
	Role       int    `json:"role" validate:"min=1,max=3"`
	Branch     *int   `json:"branch,omitempty" validate:"omitempty,min=0,max=2"`
	Restaurant *int   `json:"restaurant,omitempty" validate:"omitempty,min=0,max=1"`
}
