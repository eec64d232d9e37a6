package config

import (
	"fmt"
	"strings"
)

// AuthMode represents the identity provider backend.
type AuthMode string

const (
	// AuthModeFirebase uses the Firebase Admin SDK and identity toolkit.
	AuthModeFirebase AuthMode = "firebase"
	// AuthModeMock uses an in-process identity provider (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "firebase", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: firebase, mock)", v)
	}
}

// FirebaseConfig contains Firebase project configuration.
type FirebaseConfig struct {
	ProjectID string `env:"PROJECT_ID"`
	// CredentialsFile points at a service account JSON; empty uses application default credentials.
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	// APIKey is the web API key used for identity toolkit calls (password sign-in, sign-up).
	APIKey string `env:"API_KEY"`
	// Referer is sent on identity toolkit calls so HTTP-referrer key restrictions apply.
	Referer string `env:"REFERER" envDefault:"http://localhost:8080"`
}

// FederatedProviderConfig contains OIDC client settings for one federated sign-in provider.
type FederatedProviderConfig struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
	Scope        string `env:"SCOPE"         envDefault:"openid profile email"`
	DiscoveryURL string `env:"DISCOVERY_URL"`
}

// Enabled reports whether enough configuration is present to build the provider.
func (f FederatedProviderConfig) Enabled() bool {
	return f.ClientID != "" && f.ClientSecret != "" && f.DiscoveryURL != "" && f.RedirectURL != ""
}

// DevAuthConfig seeds the mock identity provider.
// Used when AUTH_MODE=mock for development and testing.
type DevAuthConfig struct {
	// Users is a list of "email:password:role" triples.
	Users []string `env:"USERS" envDefault:"admin@example.com:admin123:admin;user@example.com:user123:user" envSeparator:";"`
	// SigningKey signs locally issued ID tokens and session cookies.
	SigningKey string `env:"SIGNING_KEY" envDefault:"tern-admin-dev-signing-key"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"firebase"`

	Firebase FirebaseConfig `envPrefix:"FIREBASE_"`

	Google    FederatedProviderConfig `envPrefix:"OAUTH_GOOGLE_"`
	Microsoft FederatedProviderConfig `envPrefix:"OAUTH_MICROSOFT_"`

	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// AdminRoles are the role claims allowed into the admin surface.
	AdminRoles []string `env:"AUTH_ADMIN_ROLES" envDefault:"admin,superuser" envSeparator:","`
}

// Sanitize normalises role names and fills the federated discovery defaults.
func (a *AuthConfig) Sanitize() {
	roles := make([]string, 0, len(a.AdminRoles))
	for _, r := range a.AdminRoles {
		if r = strings.ToLower(strings.TrimSpace(r)); r != "" {
			roles = append(roles, r)
		}
	}
	if len(roles) == 0 {
		roles = []string{"admin"}
	}
	a.AdminRoles = roles

	if a.Google.ClientID != "" && a.Google.DiscoveryURL == "" {
		a.Google.DiscoveryURL = "https://accounts.google.com"
	}
	if a.Microsoft.ClientID != "" && a.Microsoft.DiscoveryURL == "" {
		a.Microsoft.DiscoveryURL = "https://login.microsoftonline.com/common/v2.0"
	}
}
