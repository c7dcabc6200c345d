package auth

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type LoginRequest struct {
	Passphrase string `json:"passphrase" validate:"required,min=8,max=128"`
}

func ValidateLogin(req LoginRequest) error {
	return validate.Struct(req)
}
