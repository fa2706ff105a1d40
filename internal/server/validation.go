package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/stanley00316/election-system-demo-sub004/internal/errors"
	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

var registerOnce sync.Once

// enumTags maps a binding tag to the canonical parser for that enum
var enumTags = map[string]func(string) error{
	"stance": func(s string) error {
		_, err := types.ParseStance(s)
		return err
	},
	"relation_type": func(s string) error {
		_, err := types.ParseRelationType(s)
		return err
	},
	"contact_type": func(s string) error {
		_, err := types.ParseContactType(s)
		return err
	},
	"contact_outcome": func(s string) error {
		_, err := types.ParseContactOutcome(s)
		return err
	},
	"district_level": func(s string) error {
		_, err := types.ParseDistrictLevel(s)
		return err
	},
}

// RegisterValidators installs the enum tags on gin's validator. Safe to call
// more than once.
func RegisterValidators() error {
	var regErr error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			regErr = fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		for tag, parse := range enumTags {
			if err := v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return parse(fl.Field().String()) == nil
			}); err != nil {
				regErr = fmt.Errorf("register %s: %w", tag, err)
				return
			}
		}
	})
	return regErr
}

// bindError turns a gin binding failure into a 400 with one message per field
func bindError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr):
			return apperrors.NewValidationError("Malformed JSON body")
		case errors.As(err, &typeErr):
			return apperrors.NewValidationError(fmt.Sprintf("%s has the wrong type", typeErr.Field))
		}
		return apperrors.NewValidationError("Invalid request body")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		param := fe.Param()

		switch fe.Tag() {
		case "required":
			fields[field] = field + " is required"
		case "min":
			fields[field] = field + " must be at least " + param
		case "max":
			fields[field] = field + " must be at most " + param
		case "gte":
			fields[field] = field + " must be >= " + param
		case "lte":
			fields[field] = field + " must be <= " + param
		case "stance", "relation_type", "contact_type", "contact_outcome", "district_level":
			fields[field] = fmt.Sprintf("%s is not a valid %s", field, strings.ReplaceAll(fe.Tag(), "_", " "))
		default:
			fields[field] = field + " is invalid"
		}
	}
	return apperrors.NewValidationErrorWithMap(fields)
}
