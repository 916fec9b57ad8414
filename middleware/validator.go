package middleware

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateStruct runs the validate tags of a request body.
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
