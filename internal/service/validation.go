package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/RubachokBoss/prepai/internal/models"
	"github.com/go-playground/validator/v10"
)

const minExperienceYear = 2000

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// в сообщениях используем имена из JSON
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateSubmission проверяет анкету до любого обращения к хранилищу.
func ValidateSubmission(req *models.SubmitExperienceRequest, now time.Time) error {
	if req == nil {
		return &ValidationError{Fields: map[string]string{"body": "request body is required"}}
	}

	fields := collectFieldErrors(validate.Struct(req))

	if req.Year != nil && *req.Year > now.Year()+1 {
		if fields == nil {
			fields = map[string]string{}
		}
		fields["year"] = fmt.Sprintf("must be between %d and %d", minExperienceYear, now.Year()+1)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func ValidateProfile(profile *models.CandidateProfile) error {
	if profile == nil {
		return &ValidationError{Fields: map[string]string{"body": "request body is required"}}
	}

	if fields := collectFieldErrors(validate.Struct(profile)); len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func collectFieldErrors(err error) map[string]string {
	if err == nil {
		return nil
	}

	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return map[string]string{"body": err.Error()}
	}

	fields := make(map[string]string, len(vErrs))
	for _, fe := range vErrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
