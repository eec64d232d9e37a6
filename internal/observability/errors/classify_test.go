package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
)

type customErr struct{}

func (*customErr) Error() string { return "custom" }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"app error", fmt.Errorf("disable: %w", apperrors.WrapCall(context.DeadlineExceeded, apperrors.ErrCodeUnavailable, "x")), "app_timeout"},
		{"provider error", fmt.Errorf("get user: %w", domainauth.NewProviderError("auth/user-not-found", "gone")), "provider_user_not_found"},
		{"innermost type", fmt.Errorf("outer: %w", &customErr{}), "errors_customerr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}
