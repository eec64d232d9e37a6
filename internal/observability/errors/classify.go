// Package errors derives low-cardinality error class names for log attributes.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
)

// Classify returns a normalized error class name suitable for tagging logs.
// Application and provider errors report their code; anything else reports the innermost
// concrete type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var appErr *apperrors.AppError
	if goerrors.As(err, &appErr) {
		return "app_" + string(appErr.Code)
	}
	var pe *domainauth.ProviderError
	if goerrors.As(err, &pe) && pe.Code != "" {
		return "provider_" + strings.ReplaceAll(strings.TrimPrefix(pe.Code, "auth/"), "-", "_")
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}
	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
