package handler

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/sampleapi/users-service/internal/service"
)

// bindingError turns a ShouldBindJSON failure into the service's invalid-input error so
// binding and business validation share one response envelope. Field names are the Go
// struct field names (Name, Email, Password, RoleID).
func bindingError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return service.NewInvalidInput([]service.FieldError{{Field: "body", Message: "The request body is not valid JSON."}})
	}
	fe := make([]service.FieldError, 0, len(verrs))
	for _, v := range verrs {
		fe = append(fe, service.FieldError{Field: v.Field(), Message: tagMessage(v)})
	}
	return service.NewInvalidInput(fe)
}

func tagMessage(v validator.FieldError) string {
	switch v.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", v.Field())
	case "email":
		return fmt.Sprintf("The %s field is not a valid e-mail address.", v.Field())
	case "gt":
		return fmt.Sprintf("The %s field must be greater than %s.", v.Field(), v.Param())
	default:
		return fmt.Sprintf("The %s field is invalid (%s).", v.Field(), v.Tag())
	}
}
