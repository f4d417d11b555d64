// Package errors classifies failures into short labels for metrics and logs.
package errors

import (
	"context"
	goerrors "errors"
	"reflect"
	"strings"

	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/ports"
)

var known = []struct {
	err   error
	class string
}{
	{context.DeadlineExceeded, "timeout"},
	{context.Canceled, "canceled"},
	{ports.ErrMissingPermissions, "missing_permissions"},
	{ports.ErrMemberNotFound, "member_not_found"},
	{ports.ErrNotFound, "not_found"},
	{ports.ErrSessionNotFound, "session_not_found"},
}

// Classify returns a normalized label for err. Known sentinels and AppError
// codes win; otherwise the innermost concrete type name is used in snake form.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range known {
		if goerrors.Is(err, k.err) {
			return k.class
		}
	}
	if code := apperrors.GetCode(err); code != "" {
		return string(code)
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
	name := strings.ToLower(strings.ReplaceAll(t.String(), ".", "_"))
	if name == "" {
		return "unknown"
	}
	return name
}
