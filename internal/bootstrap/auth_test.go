package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/adapters/devauth"
	"github.com/ternsecure/tern-admin/internal/adapters/oidc"
	"github.com/ternsecure/tern-admin/internal/ports"
)

type namedProvider struct {
	ports.FederatedProvider
	id string
}

func (p namedProvider) ProviderID() string { return p.id }

func mockAuth() config.AuthConfig {
	return config.AuthConfig{
		Mode: config.AuthModeMock,
		DevAuth: config.DevAuthConfig{
			Users:      []string{"admin@example.com:admin123:admin", "user@example.com:user123:user"},
			SigningKey: "test-signing-key",
		},
		AdminRoles: []string{"admin"},
	}
}

func TestBuildIdentity_MockMode(t *testing.T) {
	id, err := BuildIdentity(context.Background(), IdentityConfig{Auth: mockAuth(), Logger: discardLogger()})
	require.NoError(t, err)

	require.NotNil(t, id.Provider)
	require.NotNil(t, id.Passwords)
	assert.Equal(t, []string{devauth.FederatedProviderID}, federatedIDs(id.Federated))

	acct, err := id.Provider.GetUser(context.Background(), devauth.UIDForEmail("admin@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "admin@example.com", acct.Email)

	_, err = id.Passwords.SignInWithPassword(context.Background(), "user@example.com", "user123")
	assert.NoError(t, err)
}

func TestBuildIdentity_BadSeed(t *testing.T) {
	auth := mockAuth()
	auth.DevAuth.Users = []string{"not-a-triple"}

	_, err := BuildIdentity(context.Background(), IdentityConfig{Auth: auth, Logger: discardLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dev auth users")
}

func TestBuildIdentity_UnsupportedMode(t *testing.T) {
	_, err := BuildIdentity(context.Background(), IdentityConfig{Auth: config.AuthConfig{Mode: "ldap"}})
	assert.ErrorContains(t, err, `unsupported auth mode "ldap"`)
}

func TestBuildIdentity_FirebaseRequiresAPIKey(t *testing.T) {
	_, err := BuildIdentity(context.Background(), IdentityConfig{Auth: config.AuthConfig{Mode: config.AuthModeFirebase}})
	assert.ErrorContains(t, err, "API key is required")
}

func TestBuildIdentity_FederatedProviders(t *testing.T) {
	enabled := config.FederatedProviderConfig{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  "http://localhost:8080/api/auth/federated/callback",
		Scope:        "openid email",
		DiscoveryURL: "https://issuer.example",
	}

	tests := []struct {
		name      string
		google    config.FederatedProviderConfig
		microsoft config.FederatedProviderConfig
		failFor   string
		want      []string
	}{
		{name: "none configured", want: []string{devauth.FederatedProviderID}},
		{name: "google only", google: enabled, want: []string{devauth.FederatedProviderID, GoogleProviderID}},
		{name: "both", google: enabled, microsoft: enabled, want: []string{devauth.FederatedProviderID, GoogleProviderID, MicrosoftProviderID}},
		{name: "partial config is skipped", google: config.FederatedProviderConfig{ClientID: "client"}, want: []string{devauth.FederatedProviderID}},
		{name: "discovery failure is skipped", google: enabled, microsoft: enabled, failFor: GoogleProviderID, want: []string{devauth.FederatedProviderID, MicrosoftProviderID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := mockAuth()
			auth.Google = tt.google
			auth.Microsoft = tt.microsoft

			var seen []oidc.ProviderConfig
			id, err := BuildIdentity(context.Background(), IdentityConfig{
				Auth:   auth,
				Logger: discardLogger(),
				oidcFactory: func(_ context.Context, pc oidc.ProviderConfig) (ports.FederatedProvider, error) {
					seen = append(seen, pc)
					if pc.ProviderID == tt.failFor {
						return nil, errors.New("discovery failed")
					}
					return namedProvider{id: pc.ProviderID}, nil
				},
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, federatedIDs(id.Federated))

			for _, pc := range seen {
				assert.Equal(t, pc.ProviderID == MicrosoftProviderID, pc.SkipIssuerCheck, pc.ProviderID)
				assert.Equal(t, enabled.ClientID, pc.ClientID)
			}
		})
	}
}
