package auth

import "github.com/hongfa/admin-api/internal/types"

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  *types.User `json:"user"`
}
