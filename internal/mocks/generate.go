// Package mocks provides generated mock implementations of the admin service ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the port interfaces.
// The mocks are generated using go:generate directives and checked in.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	idp := mocks.NewMockIdentityProvider(ctrl)
//	idp.EXPECT().SetDisabled(gomock.Any(), "u1", true).Return(nil)
package mocks

// Generate mock for IdentityProvider interface from internal/ports package.
// This creates MockIdentityProvider with methods for all IdentityProvider interface methods:
// GetUser, ListUsers, SetDisabled, DeleteUser, SetCustomUserClaims,
// CreateSessionCookie, VerifySessionCookie, VerifyIDToken, RevokeRefreshTokens
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=identity_provider_mock.go github.com/ternsecure/tern-admin/internal/ports IdentityProvider

// Generate mock for PasswordAuthenticator interface from internal/ports package.
// This creates MockPasswordAuthenticator with methods:
// SignInWithPassword, SignUp, SendEmailVerification, SignInWithIdP
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=password_authenticator_mock.go github.com/ternsecure/tern-admin/internal/ports PasswordAuthenticator

// Generate mock for AuditLog interface from internal/ports package.
// This creates MockAuditLog with methods: Record, List
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=audit_log_mock.go github.com/ternsecure/tern-admin/internal/ports AuditLog
