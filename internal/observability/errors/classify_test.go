package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/trizly/lumi-link/internal/errors"
	"github.com/trizly/lumi-link/internal/ports"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "timeout", err: fmt.Errorf("call: %w", context.DeadlineExceeded), want: "timeout"},
		{name: "permissions", err: errors.Join(errors.New("discord 403"), ports.ErrMissingPermissions), want: "missing_permissions"},
		{name: "app error", err: apperrors.Validation("bad"), want: "validation"},
		{name: "plain", err: errors.New("boom"), want: "errors_errorstring"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
