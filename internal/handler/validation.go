package handler

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var otpRegex = regexp.MustCompile(`^[0-9]{6}$`)

// RegisterValidators installs the custom tags on gin's validator engine
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}

	// Use JSON tag names in error messages instead of Go struct names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	return v.RegisterValidation("otp", otpValidation)
}

// otpValidation accepts exactly six digits
func otpValidation(fl validator.FieldLevel) bool {
	return otpRegex.MatchString(fl.Field().String())
}
