package auth

import (
	"regexp"
	"strings"
)

// ProviderError is the raw shape of an identity provider failure.
// Either field may be empty; the provider sometimes returns only a bundled message.
type ProviderError struct {
	Code    string
	Message string
}

// Error implements error so adapters can return ProviderError directly.
func (e *ProviderError) Error() string {
	switch {
	case e.Code != "" && e.Message != "":
		return e.Code + ": " + e.Message
	case e.Code != "":
		return e.Code
	default:
		return e.Message
	}
}

// directCodes maps provider reason codes (without the "auth/" prefix) to result codes.
var directCodes = map[string]Code{
	"invalid-email":             CodeInvalidEmail,
	"invalid-credential":        CodeInvalidCredentials,
	"invalid-login-credentials": CodeInvalidCredentials,
	"wrong-password":            CodeInvalidCredentials,
	"user-not-found":            CodeInvalidCredentials,
	"invalid-password":          CodeInvalidCredentials,
	"user-disabled":             CodeUserDisabled,
	"too-many-requests":         CodeTooManyAttempts,
	"network-request-failed":    CodeNetworkError,
	"operation-not-allowed":     CodeOperationNotAllowed,
	"popup-blocked":             CodePopupBlocked,
	"email-already-in-use":      CodeEmailExists,
	"email-already-exists":      CodeEmailExists,
	"weak-password":             CodeWeakPassword,
	"expired-action-code":       CodeExpiredToken,
	"user-token-expired":        CodeExpiredToken,
	"id-token-expired":          CodeExpiredToken,
	"invalid-id-token":          CodeInvalidToken,
	"id-token-revoked":          CodeSessionRevoked,
	"session-cookie-expired":    CodeSessionExpired,
	"session-cookie-revoked":    CodeSessionRevoked,
	"invalid-session-cookie":    CodeInvalidToken,
	"unverified-email":          CodeEmailNotVerified,
}

var bundledCode = regexp.MustCompile(`Firebase:\s*Error\s*\(auth/([^)]+)\)`)

type messagePattern struct {
	code Code
	re   *regexp.Regexp
}

// fallbackPatterns are tried in order when no reason code can be extracted.
var fallbackPatterns = []messagePattern{
	{CodeInvalidEmail, regexp.MustCompile(`(?i)auth.*invalid.*email|invalid.*email.*auth`)},
	{CodeInvalidCredentials, regexp.MustCompile(`(?i)auth.*invalid.*credential|invalid.*password|wrong.*password`)},
	{CodeUserDisabled, regexp.MustCompile(`(?i)user.*disabled|disabled.*user`)},
	{CodeTooManyAttempts, regexp.MustCompile(`(?i)too.*many.*attempts|too.*many.*requests`)},
	{CodeNetworkError, regexp.MustCompile(`(?i)network.*request.*failed|failed.*network`)},
	{CodeOperationNotAllowed, regexp.MustCompile(`(?i)operation.*not.*allowed|method.*not.*allowed`)},
	{CodePopupBlocked, regexp.MustCompile(`(?i)popup.*blocked|blocked.*popup`)},
	{CodeEmailExists, regexp.MustCompile(`(?i)email.*exists|email.*already.*use`)},
	{CodeExpiredToken, regexp.MustCompile(`(?i)token.*expired|expired.*token`)},
	{CodeInvalidToken, regexp.MustCompile(`(?i)invalid.*token|token.*invalid`)},
	{CodeSessionExpired, regexp.MustCompile(`(?i)session.*expired|expired.*session`)},
	{CodeWeakPassword, regexp.MustCompile(`(?i)weak.*password|password.*weak`)},
}

// Classify maps a provider failure onto the finite result code set.
//
// Precedence: structured reason code, then a reason code embedded in a bundled
// "Firebase: Error (auth/<reason>)" message, then the fallback message patterns,
// then CodeInternal.
func Classify(pe ProviderError) Code {
	if c, ok := lookupReason(pe.Code); ok {
		return c
	}
	if m := bundledCode.FindStringSubmatch(pe.Message); len(m) == 2 {
		if c, ok := lookupReason(m[1]); ok {
			return c
		}
	}
	for _, p := range fallbackPatterns {
		if p.re.MatchString(pe.Message) {
			return p.code
		}
	}
	return CodeInternal
}

// ClassifyError classifies an arbitrary error, unwrapping a *ProviderError when present.
func ClassifyError(err error) Code {
	if err == nil {
		return ""
	}
	var pe *ProviderError
	if asProviderError(err, &pe) {
		return Classify(*pe)
	}
	return Classify(ProviderError{Message: err.Error()})
}

func lookupReason(reason string) (Code, bool) {
	reason = strings.TrimSpace(strings.ToLower(reason))
	reason = strings.TrimPrefix(reason, "auth/")
	if reason == "" {
		return "", false
	}
	c, ok := directCodes[reason]
	return c, ok
}
