package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/restoreview/core/internal/domain/entities"
)

// NewValidator returns the validator shared by services and the HTTP layer.
// Field names in errors come from json tags.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("rating", validateRating, true)
	return v
}

// validateRating accepts any JSON scalar except null and the empty string.
func validateRating(fl validator.FieldLevel) bool {
	raw, ok := fl.Field().Interface().(json.RawMessage)
	if !ok {
		return false
	}
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`:
		return false
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		return false
	}
	return json.Valid(trimmed)
}

// ValidateStruct runs struct validation and converts failures into *entities.ValidationError.
func ValidateStruct(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fe.Field())
		}
		return &entities.ValidationError{Fields: fields}
	}
	return err
}
