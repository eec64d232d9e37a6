package auth

// Code is a machine-readable outcome identifier shared by session and sign-in flows.
type Code string

// Result codes. The string values are part of the JSON API.
const (
	CodeInvalidEmail         Code = "INVALID_EMAIL"
	CodeInvalidCredentials   Code = "INVALID_CREDENTIALS"
	CodeUserDisabled         Code = "USER_DISABLED"
	CodeTooManyAttempts      Code = "TOO_MANY_ATTEMPTS"
	CodeNetworkError         Code = "NETWORK_ERROR"
	CodeOperationNotAllowed  Code = "OPERATION_NOT_ALLOWED"
	CodePopupBlocked         Code = "POPUP_BLOCKED"
	CodeEmailExists          Code = "EMAIL_EXISTS"
	CodeExpiredToken         Code = "EXPIRED_TOKEN"
	CodeInvalidToken         Code = "INVALID_TOKEN"
	CodeSessionExpired       Code = "SESSION_EXPIRED"
	CodeSessionRevoked       Code = "SESSION_REVOKED"
	CodeWeakPassword         Code = "WEAK_PASSWORD"
	CodeEmailNotVerified     Code = "EMAIL_NOT_VERIFIED"
	CodeRequiresVerification Code = "REQUIRES_VERIFICATION"
	CodeNoSession            Code = "NO_SESSION"
	CodeForbidden            Code = "FORBIDDEN"
	CodeInternal             Code = "INTERNAL_ERROR"
)

var defaultMessages = map[Code]string{
	CodeInvalidEmail:         "Invalid email format",
	CodeInvalidCredentials:   "Invalid email or password",
	CodeUserDisabled:         "This account has been disabled",
	CodeTooManyAttempts:      "Too many attempts. Please try again later",
	CodeNetworkError:         "Network error. Please check your connection",
	CodeOperationNotAllowed:  "This login method is not enabled",
	CodePopupBlocked:         "Login popup was blocked. Please enable popups",
	CodeEmailExists:          "This email is already in use",
	CodeExpiredToken:         "Your session has expired. Please login again",
	CodeInvalidToken:         "Invalid authentication token",
	CodeSessionExpired:       "Your session has expired",
	CodeSessionRevoked:       "Your session has been revoked. Please login again",
	CodeWeakPassword:         "Password is too weak",
	CodeEmailNotVerified:     "Email verification required",
	CodeRequiresVerification: "Email verification required",
	CodeNoSession:            "No session found",
	CodeForbidden:            "You do not have permission to access this resource",
	CodeInternal:             "An unexpected error occurred",
}

// Message returns the fixed user-facing message for c.
func (c Code) Message() string {
	if m, ok := defaultMessages[c]; ok {
		return m
	}
	return defaultMessages[CodeInternal]
}

// Unauthenticated reports whether c means the caller has no usable session.
func (c Code) Unauthenticated() bool {
	switch c {
	case CodeNoSession, CodeSessionExpired, CodeSessionRevoked, CodeExpiredToken, CodeInvalidToken, CodeUserDisabled:
		return true
	default:
		return false
	}
}
