package handlers

import (
	"errors"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/kleinod-atelier/storefront/pkg/errors"
)

// bindingError turns a gin binding failure into a validation error with one
// entry per rejected field
func bindingError(message string, err error) *apperrors.ErrValidation {
	v := &apperrors.ErrValidation{Message: message, Fields: map[string]string{}}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			v.Fields[fe.Field()] = fe.Tag()
		}
		return v
	}
	// malformed body or a value of the wrong type
	v.Fields["body"] = err.Error()
	return v
}
