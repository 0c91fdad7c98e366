package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/HelloTanvir/devcamper-api/internal/common"
	"github.com/HelloTanvir/devcamper-api/internal/domain/model"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	must(v.RegisterValidation("career", func(fl validator.FieldLevel) bool {
		for _, c := range model.Careers {
			if fl.Field().String() == c {
				return true
			}
		}
		return false
	}))
	return v
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// validateStruct runs the struct tags of req and folds every failure into
// one validation error.
func validateStruct(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, message(fe))
	}
	return common.Validation("%s", strings.Join(messages, ", "))
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Please add " + article(field) + " " + field
	case "email":
		return "Please add a valid " + field
	case "url":
		return "Please use a valid URL with HTTP or HTTPS"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Please add at least %s %s", fe.Param(), field)
		}
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s can not be more than %s characters", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s can not be more than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "career":
		return fmt.Sprintf("%s must only contain: %s", strings.SplitN(field, "[", 2)[0], strings.Join(model.Careers, ", "))
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

func article(word string) string {
	if word != "" && strings.ContainsRune("aeiou", rune(word[0])) {
		return "an"
	}
	return "a"
}
