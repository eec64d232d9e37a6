package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ternsecure/tern-admin/config"
	"github.com/ternsecure/tern-admin/internal/adapters/devauth"
	"github.com/ternsecure/tern-admin/internal/adapters/firebaseauth"
	"github.com/ternsecure/tern-admin/internal/adapters/identitytoolkit"
	"github.com/ternsecure/tern-admin/internal/adapters/oidc"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// Federated provider ids as the identity toolkit names them.
const (
	GoogleProviderID    = "google.com"
	MicrosoftProviderID = "microsoft.com"
)

// Identity bundles the identity provider ports selected by AUTH_MODE.
type Identity struct {
	Provider  ports.IdentityProvider
	Passwords ports.PasswordAuthenticator
	Federated []ports.FederatedProvider
}

// IdentityConfig contains configuration for BuildIdentity.
type IdentityConfig struct {
	Auth   config.AuthConfig
	Logger *slog.Logger

	// oidcFactory replaces OIDC discovery in tests.
	oidcFactory func(context.Context, oidc.ProviderConfig) (ports.FederatedProvider, error)
}

// BuildIdentity constructs the identity provider for the configured auth mode.
// Federated providers that fail discovery are skipped with a warning.
func BuildIdentity(ctx context.Context, cfg IdentityConfig) (Identity, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var (
		id  Identity
		err error
	)
	switch cfg.Auth.Mode {
	case config.AuthModeMock:
		id, err = buildDevIdentity(cfg.Auth.DevAuth)
	case config.AuthModeFirebase:
		id, err = buildFirebaseIdentity(ctx, cfg.Auth.Firebase)
	default:
		err = fmt.Errorf("unsupported auth mode %q", cfg.Auth.Mode)
	}
	if err != nil {
		return Identity{}, err
	}

	id.Federated = append(id.Federated, buildOIDCProviders(ctx, cfg, logger)...)
	logger.InfoContext(ctx, "identity provider ready",
		"mode", cfg.Auth.Mode,
		"federated", federatedIDs(id.Federated),
	)
	return id, nil
}

func buildDevIdentity(cfg config.DevAuthConfig) (Identity, error) {
	seeds, err := devauth.ParseUsers(cfg.Users)
	if err != nil {
		return Identity{}, fmt.Errorf("dev auth users: %w", err)
	}
	prov, err := devauth.NewProvider(devauth.Config{Users: seeds, SigningKey: cfg.SigningKey})
	if err != nil {
		return Identity{}, fmt.Errorf("dev auth provider: %w", err)
	}
	return Identity{
		Provider:  prov,
		Passwords: prov,
		Federated: []ports.FederatedProvider{devauth.NewFederated(prov)},
	}, nil
}

func buildFirebaseIdentity(ctx context.Context, cfg config.FirebaseConfig) (Identity, error) {
	if cfg.APIKey == "" {
		return Identity{}, errors.New("firebase: API key is required")
	}
	prov, err := firebaseauth.New(ctx, firebaseauth.Config{
		ProjectID:       cfg.ProjectID,
		CredentialsFile: cfg.CredentialsFile,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("firebase admin: %w", err)
	}
	toolkit, err := identitytoolkit.New(ctx, identitytoolkit.Config{
		APIKey:  cfg.APIKey,
		Referer: cfg.Referer,
	})
	if err != nil {
		return Identity{}, fmt.Errorf("firebase identity toolkit: %w", err)
	}
	return Identity{Provider: prov, Passwords: toolkit}, nil
}

func newOIDCProvider(ctx context.Context, cfg oidc.ProviderConfig) (ports.FederatedProvider, error) {
	p, err := oidc.NewProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func buildOIDCProviders(ctx context.Context, cfg IdentityConfig, logger *slog.Logger) []ports.FederatedProvider {
	factory := cfg.oidcFactory
	if factory == nil {
		factory = newOIDCProvider
	}

	upstreams := []struct {
		id         string
		conf       config.FederatedProviderConfig
		skipIssuer bool
	}{
		{id: GoogleProviderID, conf: cfg.Auth.Google},
		{id: MicrosoftProviderID, conf: cfg.Auth.Microsoft, skipIssuer: true},
	}

	var out []ports.FederatedProvider
	for _, u := range upstreams {
		if !u.conf.Enabled() {
			continue
		}
		p, err := factory(ctx, oidc.ProviderConfig{
			ProviderID:      u.id,
			ClientID:        u.conf.ClientID,
			ClientSecret:    u.conf.ClientSecret,
			RedirectURL:     u.conf.RedirectURL,
			Scope:           u.conf.Scope,
			DiscoveryURL:    u.conf.DiscoveryURL,
			SkipIssuerCheck: u.skipIssuer,
		})
		if err != nil {
			logger.WarnContext(ctx, "federated provider disabled", "provider", u.id, "error", err)
			continue
		}
		out = append(out, p)
	}
	return out
}

func federatedIDs(ps []ports.FederatedProvider) []string {
	ids := make([]string, 0, len(ps))
	for _, p := range ps {
		ids = append(ids, p.ProviderID())
	}
	return ids
}
