package auth

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_WrongPasswordConverges(t *testing.T) {
	structured := Classify(ProviderError{Code: "auth/wrong-password"})
	bundled := Classify(ProviderError{Message: "Firebase: Error (auth/wrong-password)."})

	assert.Equal(t, CodeInvalidCredentials, structured)
	assert.Equal(t, CodeInvalidCredentials, bundled)
}

func TestClassify_Precedence(t *testing.T) {
	tests := []struct {
		name string
		in   ProviderError
		want Code
	}{
		{name: "bare reason", in: ProviderError{Code: "user-disabled"}, want: CodeUserDisabled},
		{name: "prefixed reason", in: ProviderError{Code: "auth/too-many-requests"}, want: CodeTooManyAttempts},
		{name: "mixed case reason", in: ProviderError{Code: " Auth/Invalid-Email "}, want: CodeInvalidEmail},
		{
			name: "structured code beats message",
			in:   ProviderError{Code: "auth/email-already-in-use", Message: "token expired"},
			want: CodeEmailExists,
		},
		{
			name: "unknown structured code falls through to bundled message",
			in:   ProviderError{Code: "auth/something-new", Message: "Firebase: Error (auth/weak-password)."},
			want: CodeWeakPassword,
		},
		{
			name: "bundled reason beats fallback pattern",
			in:   ProviderError{Message: "Firebase: Error (auth/user-token-expired). invalid password"},
			want: CodeExpiredToken,
		},
		{name: "fallback pattern", in: ProviderError{Message: "The user account is DISABLED by an administrator"}, want: CodeUserDisabled},
		{name: "fallback order", in: ProviderError{Message: "invalid password, token expired"}, want: CodeInvalidCredentials},
		{name: "session pattern", in: ProviderError{Message: "session has expired"}, want: CodeSessionExpired},
		{name: "popup", in: ProviderError{Message: "popup was blocked by the browser"}, want: CodePopupBlocked},
		{name: "unknown", in: ProviderError{Message: "boom"}, want: CodeInternal},
		{name: "empty", in: ProviderError{}, want: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.in))
		})
	}
}

func TestClassify_DirectTable(t *testing.T) {
	cases := map[string]Code{
		"invalid-credential":        CodeInvalidCredentials,
		"invalid-login-credentials": CodeInvalidCredentials,
		"user-not-found":            CodeInvalidCredentials,
		"invalid-password":          CodeInvalidCredentials,
		"network-request-failed":    CodeNetworkError,
		"operation-not-allowed":     CodeOperationNotAllowed,
		"popup-blocked":             CodePopupBlocked,
		"expired-action-code":       CodeExpiredToken,
		"invalid-id-token":          CodeInvalidToken,
		"session-cookie-revoked":    CodeSessionRevoked,
	}
	for reason, want := range cases {
		assert.Equal(t, want, Classify(ProviderError{Code: "auth/" + reason}), reason)
	}
}

func TestClassifyError(t *testing.T) {
	assert.Equal(t, Code(""), ClassifyError(nil))

	wrapped := fmt.Errorf("sign in: %w", NewProviderError("auth/user-disabled", ""))
	assert.Equal(t, CodeUserDisabled, ClassifyError(wrapped))

	assert.Equal(t, CodeNetworkError, ClassifyError(errors.New("network request failed")))
}

func TestCode_Message(t *testing.T) {
	assert.Equal(t, "Invalid email or password", CodeInvalidCredentials.Message())
	assert.Equal(t, "No session found", CodeNoSession.Message())
	assert.Equal(t, CodeInternal.Message(), Code("NOPE").Message())
	assert.Equal(t, CodeEmailNotVerified.Message(), CodeRequiresVerification.Message())
}

func TestResult_Helpers(t *testing.T) {
	ok := OK("u1")
	assert.True(t, ok.Success)
	assert.Equal(t, "u1", ok.UID)

	fail := Fail(CodeSessionExpired)
	assert.False(t, fail.Success)
	assert.Equal(t, CodeSessionExpired, fail.Code)
	assert.Equal(t, "Your session has expired", fail.Message)

	custom := Fail(CodeExpiredToken).WithMessage("Token has expired")
	assert.Equal(t, "Token has expired", custom.Message)
	assert.Equal(t, CodeExpiredToken, custom.Code)
}
