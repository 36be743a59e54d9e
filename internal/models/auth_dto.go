package models

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,bcrypt"`
	Name     string `json:"name" validate:"required,min=2"`
	Phone    string `json:"phone" validate:"required,kr_mobile"`
}

type LoginResponse struct {
	Success     bool        `json:"success"`
	Message     string      `json:"message"`
	AccessToken string      `json:"accessToken"`
	User        AccountView `json:"user"`
}

type SignupResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	User    AccountView `json:"user"`
}

type RefreshResponse struct {
	Success     bool   `json:"success"`
	AccessToken string `json:"accessToken"`
}

type IdentityResponse struct {
	Success bool     `json:"success"`
	User    Identity `json:"user"`
}

type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}
