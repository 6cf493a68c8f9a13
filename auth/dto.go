package auth

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/user/taskman-go/apperror"
)

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=255" example:"Jane Doe"`
	Email    string `json:"email" validate:"required,email,max=255" example:"jane@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"secret123"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required" example:"jane@example.com"`
	Password string `json:"password" validate:"required" example:"secret123"`
}

// TokenResponse carries a freshly issued bearer token.
type TokenResponse struct {
	Token string `json:"token" example:"9f86d081884c7d659a2feaa0c55ad015..."`
}

// MessageResponse is a plain acknowledgement body.
type MessageResponse struct {
	Message string `json:"message" example:"Logged out"`
}

// validate is the shared validator instance for auth DTOs.
var validate = validator.New(validator.WithRequiredStructEnabled())

// checkStruct runs struct validation and converts failures into a field-keyed
// ValidationError.
func checkStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperror.NewInternalError("validation failed", err)
	}

	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		fields[name] = append(fields[name], fieldMessage(name, fe))
	}
	return apperror.NewValidationError("The given data was invalid", nil).WithFields(fields)
}

// fieldMessage renders a human-readable message per validation tag.
func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", name)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", name)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", name, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", name, fe.Param())
	default:
		return fmt.Sprintf("The %s field is invalid.", name)
	}
}
