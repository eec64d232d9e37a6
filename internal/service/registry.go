package service

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/ternsecure/tern-admin/internal/domain/account"
	"github.com/ternsecure/tern-admin/internal/domain/audit"
	domainauth "github.com/ternsecure/tern-admin/internal/domain/auth"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	obserrors "github.com/ternsecure/tern-admin/internal/observability/errors"
	"github.com/ternsecure/tern-admin/internal/observability/metrics"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// ViewAccountsKey caches the full account listing behind the admin views.
const ViewAccountsKey = "view:accounts"

const (
	listAllPageSize    = 1000
	defaultCallTimeout = 5 * time.Second
)

// RegistryConfig holds the optional collaborators of RegistryService.
type RegistryConfig struct {
	// CallTimeout bounds each provider and store call; defaults to 5s.
	CallTimeout time.Duration
	Clock       ports.Clock
	Logger      *slog.Logger
	Audit       ports.AuditLog   // Optional
	Views       ports.ViewCache  // Optional
	Metrics     *metrics.Metrics // Optional
}

// RegistryServiceOptions groups dependencies for RegistryService.
type RegistryServiceOptions struct {
	Provider ports.IdentityProvider // Required
	Store    ports.KeyValueStore    // Required
	Config   RegistryConfig
}

// RegistryService keeps the disabled-user index in step with the provider's account state.
//
// A record under disabled_user:{uid} exists iff the latest action on uid through this
// service was a disable. The provider is always updated first, so a provider failure
// never leaves a record behind.
type RegistryService struct {
	provider ports.IdentityProvider
	store    ports.KeyValueStore
	cfg      RegistryConfig
	logger   *slog.Logger
	clock    ports.Clock
}

// NewRegistryService constructs a RegistryService.
func NewRegistryService(opts RegistryServiceOptions) *RegistryService {
	if opts.Provider == nil {
		panic("registry service: Provider is required")
	}
	if opts.Store == nil {
		panic("registry service: Store is required")
	}
	cfg := opts.Config
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = defaultCallTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}
	return &RegistryService{
		provider: opts.Provider,
		store:    opts.Store,
		cfg:      cfg,
		logger:   logger.With("component", "registry"),
		clock:    clock,
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// call runs fn under the per-call timeout.
func (s *RegistryService) call(ctx context.Context, fn func(context.Context) error) error {
	cctx, cancel := context.WithTimeout(ctx, s.cfg.CallTimeout)
	defer cancel()
	return fn(cctx)
}

// Disable marks uid disabled at the provider and then writes its registry record.
func (s *RegistryService) Disable(ctx context.Context, uid string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	const msg = "failed to disable user"

	if err := s.call(ctx, func(ctx context.Context) error { return s.provider.SetDisabled(ctx, uid, true) }); err != nil {
		return s.fail(ctx, audit.ActionDisable, uid, metrics.ResultError, fmt.Errorf("update user: %w", err), msg)
	}

	var acct account.Account
	err := s.call(ctx, func(ctx context.Context) error {
		var gerr error
		acct, gerr = s.provider.GetUser(ctx, uid)
		return gerr
	})
	if err != nil {
		return s.fail(ctx, audit.ActionDisable, uid, metrics.ResultPartial, fmt.Errorf("get user: %w", err), msg)
	}

	rec := account.DisabledUserRecord{UID: uid, Email: acct.Email, DisabledTime: s.clock.Now().UTC()}
	payload, err := json.Marshal(rec)
	if err != nil {
		return s.fail(ctx, audit.ActionDisable, uid, metrics.ResultPartial, fmt.Errorf("encode record: %w", err), msg)
	}
	if err := s.call(ctx, func(ctx context.Context) error {
		return s.store.Set(ctx, account.DisabledKey(uid), payload, 0)
	}); err != nil {
		return s.fail(ctx, audit.ActionDisable, uid, metrics.ResultPartial, fmt.Errorf("store record: %w", err), msg)
	}

	s.succeed(ctx, audit.ActionDisable, uid, map[string]any{"email": acct.Email})
	return nil
}

// Enable re-enables uid at the provider and then removes its registry record.
func (s *RegistryService) Enable(ctx context.Context, uid string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	const msg = "failed to enable user"

	if err := s.call(ctx, func(ctx context.Context) error { return s.provider.SetDisabled(ctx, uid, false) }); err != nil {
		return s.fail(ctx, audit.ActionEnable, uid, metrics.ResultError, fmt.Errorf("update user: %w", err), msg)
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.store.Del(ctx, account.DisabledKey(uid)) }); err != nil {
		return s.fail(ctx, audit.ActionEnable, uid, metrics.ResultPartial, fmt.Errorf("remove record: %w", err), msg)
	}

	s.succeed(ctx, audit.ActionEnable, uid, nil)
	return nil
}

// Delete removes the account at the provider and purges any registry record.
func (s *RegistryService) Delete(ctx context.Context, uid string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.provider.DeleteUser(ctx, uid) }); err != nil {
		return s.fail(ctx, audit.ActionDelete, uid, metrics.ResultError, fmt.Errorf("delete user: %w", err), "failed to delete user")
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.store.Del(ctx, account.DisabledKey(uid)) }); err != nil {
		s.logger.WarnContext(ctx, "failed to purge registry record after delete",
			"uid", uid, "error", err, "error_class", obserrors.Classify(err))
	}

	s.succeed(ctx, audit.ActionDelete, uid, nil)
	return nil
}

// SetRole replaces the account's role claim. The role must be one of account.KnownRoles.
func (s *RegistryService) SetRole(ctx context.Context, uid, role string) error {
	if err := requireUID(uid); err != nil {
		return err
	}
	r, ok := account.ParseRole(role)
	if !ok {
		return apperrors.ValidationField("role", "unknown role: "+role)
	}
	claims := map[string]any{account.RoleClaim: string(r)}
	if err := s.call(ctx, func(ctx context.Context) error { return s.provider.SetCustomUserClaims(ctx, uid, claims) }); err != nil {
		return s.fail(ctx, audit.ActionSetRole, uid, metrics.ResultError, fmt.Errorf("set claims: %w", err), "failed to update role")
	}

	s.succeed(ctx, audit.ActionSetRole, uid, map[string]any{"role": string(r)})
	return nil
}

// ListDisabled returns every registry record, newest first. Store failures yield an empty list.
func (s *RegistryService) ListDisabled(ctx context.Context) []account.DisabledUserRecord {
	out := []account.DisabledUserRecord{}

	var keys []string
	err := s.call(ctx, func(ctx context.Context) error {
		var kerr error
		keys, kerr = s.store.Keys(ctx, account.DisabledKeyPrefix+"*")
		return kerr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to list disabled user keys", "error", err)
		return out
	}
	if len(keys) == 0 {
		return out
	}

	var values [][]byte
	err = s.call(ctx, func(ctx context.Context) error {
		var merr error
		values, merr = s.store.MGet(ctx, keys...)
		return merr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load disabled user records", "error", err, "keys", len(keys))
		return out
	}

	for i, v := range values {
		if v == nil {
			continue
		}
		var rec account.DisabledUserRecord
		if err := json.Unmarshal(v, &rec); err != nil || rec.UID == "" {
			s.logger.WarnContext(ctx, "dropping undecodable registry record", "key", keys[i])
			continue
		}
		out = append(out, rec)
	}
	slices.SortStableFunc(out, func(a, b account.DisabledUserRecord) int {
		if c := b.DisabledTime.Compare(a.DisabledTime); c != 0 {
			return c
		}
		return cmp.Compare(a.UID, b.UID)
	})
	return out
}

// GetDisabledRecord returns the registry record for uid. Store errors read as absent.
func (s *RegistryService) GetDisabledRecord(ctx context.Context, uid string) (account.DisabledUserRecord, bool) {
	if uid == "" {
		return account.DisabledUserRecord{}, false
	}
	var raw []byte
	err := s.call(ctx, func(ctx context.Context) error {
		var gerr error
		raw, gerr = s.store.Get(ctx, account.DisabledKey(uid))
		return gerr
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to read registry record", "uid", uid, "error", err)
		return account.DisabledUserRecord{}, false
	}
	if raw == nil {
		return account.DisabledUserRecord{}, false
	}
	var rec account.DisabledUserRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.logger.WarnContext(ctx, "undecodable registry record", "uid", uid, "error", err)
		return account.DisabledUserRecord{}, false
	}
	return rec, true
}

// ListAllAccounts pages through every provider account, one provider call per page.
func (s *RegistryService) ListAllAccounts(ctx context.Context) ([]account.Account, error) {
	var (
		all   []account.Account
		token string
	)
	for {
		var page account.Page
		err := s.call(ctx, func(ctx context.Context) error {
			var lerr error
			page, lerr = s.provider.ListUsers(ctx, listAllPageSize, token)
			return lerr
		})
		if err != nil {
			return nil, apperrors.WrapCall(fmt.Errorf("list users: %w", err), apperrors.ErrCodeUnavailable, "failed to list users")
		}
		all = append(all, page.Accounts...)
		if page.NextPageToken == "" {
			return all, nil
		}
		token = page.NextPageToken
	}
}

// Audit returns recent audit events, or nil when no audit log is configured.
func (s *RegistryService) Audit(ctx context.Context, f audit.ListFilter) ([]audit.Event, error) {
	if s.cfg.Audit == nil {
		return nil, nil
	}
	var events []audit.Event
	err := s.call(ctx, func(ctx context.Context) error {
		var lerr error
		events, lerr = s.cfg.Audit.List(ctx, f)
		return lerr
	})
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	return events, nil
}

func (s *RegistryService) succeed(ctx context.Context, action audit.Action, uid string, detail map[string]any) {
	s.invalidateViews(ctx)
	s.cfg.Metrics.ObserveAction(string(action), metrics.ResultSuccess)
	s.record(ctx, action, uid, detail, true)
	s.logger.InfoContext(ctx, "admin action", "action", action, "uid", uid, "actor", ActorFrom(ctx))
}

// fail logs the cause and returns a caller-safe error carrying msg.
func (s *RegistryService) fail(ctx context.Context, action audit.Action, uid, result string, cause error, msg string) error {
	if result == metrics.ResultPartial {
		s.invalidateViews(ctx)
	}
	s.cfg.Metrics.ObserveAction(string(action), result)
	s.record(ctx, action, uid, map[string]any{"error": obserrors.Classify(cause)}, false)
	s.logger.ErrorContext(ctx, msg,
		"action", action,
		"uid", uid,
		"result", result,
		"error", cause,
		"error_class", obserrors.Classify(cause),
	)
	return publicError(cause, msg)
}

func (s *RegistryService) record(ctx context.Context, action audit.Action, uid string, detail map[string]any, ok bool) {
	if s.cfg.Audit == nil {
		return
	}
	ev := audit.Event{
		ActorUID:  ActorFrom(ctx),
		Action:    action,
		TargetUID: uid,
		Detail:    detail,
		Succeeded: ok,
	}
	// The action's own deadline may be spent; audit gets a fresh budget.
	if err := s.call(context.WithoutCancel(ctx), func(ctx context.Context) error { return s.cfg.Audit.Record(ctx, ev) }); err != nil {
		s.logger.WarnContext(ctx, "failed to record audit event", "action", action, "uid", uid, "error", err)
	}
}

func (s *RegistryService) invalidateViews(ctx context.Context) {
	if s.cfg.Views == nil {
		return
	}
	if err := s.call(ctx, func(ctx context.Context) error { return s.cfg.Views.Invalidate(ctx, ViewAccountsKey) }); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate admin views", "error", err)
	}
}

func requireUID(uid string) error {
	if strings.TrimSpace(uid) == "" {
		return apperrors.ValidationField("uid", "uid is required")
	}
	return nil
}

// publicError maps a provider or store failure onto an AppError whose message is safe to show.
func publicError(err error, msg string) error {
	var pe *domainauth.ProviderError
	if errors.As(err, &pe) && strings.TrimPrefix(pe.Code, "auth/") == "user-not-found" {
		return apperrors.Wrap(err, apperrors.ErrCodeNotFound, "user not found")
	}
	return apperrors.WrapCall(err, apperrors.ErrCodeInternal, msg)
}
