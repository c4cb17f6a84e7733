package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInvalidData        = errors.New("invalid data rejected by store")
	ErrCompanyNotFound    = errors.New("company not found")
	ErrRoadmapUnavailable = errors.New("roadmap generation failed")
	ErrInvalidLogo        = errors.New("invalid logo")
	ErrStorageDisabled    = errors.New("logo storage is not configured")
)

// ValidationError несет сообщения по каждому невалидному полю.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// FieldErrors извлекает сообщения по полям, если err является ошибкой валидации.
func FieldErrors(err error) map[string]string {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Fields
	}
	return nil
}
