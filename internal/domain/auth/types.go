// Package auth contains domain-level types for sessions and sign-in outcomes.
// It is pure and free of framework/adapter concerns.
package auth

import "github.com/ternsecure/tern-admin/internal/domain/account"

// Claims is the verified content of a session cookie or ID token.
type Claims struct {
	UID      string
	Email    string
	Role     account.Role
	AuthTime int64
	Expires  int64
	Raw      map[string]any
}

// Result is the tagged outcome of a session or sign-in operation.
// Callers branch on Success and Code; Message is safe to show to users.
type Result struct {
	Success bool   `json:"success"`
	Code    Code   `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	UID     string `json:"uid,omitempty"`
}

// OK returns a successful Result.
func OK(uid string) Result { return Result{Success: true, UID: uid} }

// Fail returns a failed Result carrying the default message for code.
func Fail(code Code) Result {
	return Result{Success: false, Code: code, Message: code.Message()}
}

// WithMessage overrides the user-facing message.
func (r Result) WithMessage(msg string) Result {
	r.Message = msg
	return r
}

// UserStatus is the outcome of checking the current request's user against live account state.
type UserStatus struct {
	IsValid bool         `json:"isValid"`
	UserID  string       `json:"userId,omitempty"`
	Email   string       `json:"email,omitempty"`
	Role    account.Role `json:"role,omitempty"`
	Code    Code         `json:"error,omitempty"`
}

// SignInOutcome is returned by password and federated sign-in flows.
type SignInOutcome struct {
	Result
	// RequiresVerification is set when the account exists but its email is unverified.
	RequiresVerification bool `json:"requiresVerification,omitempty"`
}
