package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"
	"github.com/ternsecure/tern-admin/internal/domain/account"
	apperrors "github.com/ternsecure/tern-admin/internal/errors"
	"github.com/ternsecure/tern-admin/internal/ports"
)

// Account status filter values.
const (
	StatusAll      = "all"
	StatusEnabled  = "enabled"
	StatusDisabled = "disabled"
)

// DefaultPageSize is used when a query asks for an unsupported page size.
const DefaultPageSize = 50

// PageSizes are the page sizes the directory accepts.
var PageSizes = []int{10, 50, 100, 200, 300}

// AccountLister returns every provider account.
type AccountLister interface {
	ListAllAccounts(ctx context.Context) ([]account.Account, error)
}

// Query selects and paginates accounts.
type Query struct {
	Search   string
	Role     string
	Status   string
	Page     int
	PageSize int
	// Expr is an optional JMESPath expression evaluated against each account's JSON;
	// accounts for which it is truthy are kept.
	Expr string
}

// AccountView is an account as listed: the provider record plus derived fields.
type AccountView struct {
	account.Account
	Role   account.Role `json:"role"`
	Status string       `json:"status"`
}

// NewAccountView derives the listed form of a.
func NewAccountView(a account.Account) AccountView {
	status := StatusEnabled
	if a.Disabled {
		status = StatusDisabled
	}
	return AccountView{Account: a, Role: a.Role(), Status: status}
}

// UserPage is one page of directory results.
type UserPage struct {
	Items      []AccountView `json:"items"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalPages int           `json:"totalPages"`
}

// DirectoryServiceOptions groups dependencies for DirectoryService.
type DirectoryServiceOptions struct {
	Accounts AccountLister   // Required
	Cache    ports.ViewCache // Optional
	Logger   *slog.Logger
}

// DirectoryService lists and filters accounts for the admin views.
type DirectoryService struct {
	accounts AccountLister
	cache    ports.ViewCache
	logger   *slog.Logger
}

// NewDirectoryService constructs a DirectoryService.
func NewDirectoryService(opts DirectoryServiceOptions) *DirectoryService {
	if opts.Accounts == nil {
		panic("directory service: Accounts is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DirectoryService{accounts: opts.Accounts, cache: opts.Cache, logger: logger.With("component", "directory")}
}

// Accounts returns every account, served from the view cache when warm.
func (d *DirectoryService) Accounts(ctx context.Context) ([]account.Account, error) {
	if d.cache != nil {
		raw, err := d.cache.Get(ctx, ViewAccountsKey)
		if err != nil {
			d.logger.WarnContext(ctx, "view cache read failed", "error", err)
		} else if raw != nil {
			var cached []account.Account
			if jerr := json.Unmarshal(raw, &cached); jerr == nil {
				return cached, nil
			}
			d.logger.WarnContext(ctx, "discarding undecodable account view")
		}
	}

	var gen int64
	var genErr error
	if d.cache != nil {
		gen, genErr = d.cache.Generation(ctx, ViewAccountsKey)
	}
	all, err := d.accounts.ListAllAccounts(ctx)
	if err != nil {
		return nil, err
	}
	if d.cache != nil && genErr == nil {
		d.storeView(ctx, gen, all)
	}
	return all, nil
}

// storeView caches all unless the view was invalidated after gen was read.
// The generation is checked again after the write so an invalidation racing
// the write still drops the stale copy.
func (d *DirectoryService) storeView(ctx context.Context, gen int64, all []account.Account) {
	if cur, err := d.cache.Generation(ctx, ViewAccountsKey); err != nil || cur != gen {
		return
	}
	raw, err := json.Marshal(all)
	if err != nil {
		return
	}
	if err := d.cache.Set(ctx, ViewAccountsKey, raw); err != nil {
		d.logger.WarnContext(ctx, "view cache write failed", "error", err)
		return
	}
	if cur, err := d.cache.Generation(ctx, ViewAccountsKey); err != nil || cur != gen {
		if err := d.cache.Invalidate(ctx, ViewAccountsKey); err != nil {
			d.logger.WarnContext(ctx, "dropping stale account view failed", "error", err)
		}
	}
}

// List applies q to the account listing.
func (d *DirectoryService) List(ctx context.Context, q Query) (UserPage, error) {
	f, err := compileFilter(q)
	if err != nil {
		return UserPage{}, err
	}
	all, err := d.Accounts(ctx)
	if err != nil {
		return UserPage{}, fmt.Errorf("load accounts: %w", err)
	}

	matched := make([]AccountView, 0, len(all))
	for _, a := range all {
		v := NewAccountView(a)
		ok, ferr := f.match(v)
		if ferr != nil {
			return UserPage{}, apperrors.Wrap(ferr, apperrors.ErrCodeValidation, "filter expression failed: "+ferr.Error())
		}
		if ok {
			matched = append(matched, v)
		}
	}
	return paginate(matched, q.Page, normalizePageSize(q.PageSize)), nil
}

// normalizePageSize snaps unsupported sizes to DefaultPageSize.
func normalizePageSize(n int) int {
	if slices.Contains(PageSizes, n) {
		return n
	}
	return DefaultPageSize
}

func paginate(items []AccountView, page, size int) UserPage {
	total := len(items)
	totalPages := (total + size - 1) / size
	page = max(min(page, totalPages), 1)
	start := min((page-1)*size, total)
	end := min(start+size, total)
	return UserPage{
		Items:      items[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}

type filter struct {
	search string
	role   account.Role
	status string
	expr   jmespath.JMESPath
}

func compileFilter(q Query) (filter, error) {
	f := filter{search: strings.ToLower(strings.TrimSpace(q.Search))}

	switch s := strings.ToLower(strings.TrimSpace(q.Status)); s {
	case "", StatusAll:
	case StatusEnabled, StatusDisabled:
		f.status = s
	default:
		return filter{}, apperrors.ValidationField("status", "status must be one of all, enabled, disabled")
	}

	if r := strings.TrimSpace(q.Role); r != "" && !strings.EqualFold(r, StatusAll) {
		role, ok := account.ParseRole(r)
		if !ok {
			return filter{}, apperrors.ValidationField("role", "unknown role: "+r)
		}
		f.role = role
	}

	if expr := strings.TrimSpace(q.Expr); expr != "" {
		jp, err := jmespath.Compile(expr)
		if err != nil {
			return filter{}, apperrors.ValidationField("expr", "invalid filter expression: "+err.Error())
		}
		f.expr = jp
	}
	return f, nil
}

func (f filter) match(v AccountView) (bool, error) {
	if f.status != "" && v.Status != f.status {
		return false, nil
	}
	if f.role != "" && v.Role != f.role {
		return false, nil
	}
	if f.search != "" &&
		!strings.Contains(strings.ToLower(v.UID), f.search) &&
		!strings.Contains(strings.ToLower(v.Email), f.search) &&
		!strings.Contains(string(v.Role), f.search) {
		return false, nil
	}
	if f.expr == nil {
		return true, nil
	}

	doc, err := toDocument(v)
	if err != nil {
		return false, err
	}
	out, err := f.expr.Search(doc)
	if err != nil {
		return false, err
	}
	return truthy(out), nil
}

// toDocument converts v to the generic JSON shape JMESPath evaluates.
func toDocument(v AccountView) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// truthy follows JMESPath truthiness: false, null, and empty strings, arrays and objects are false.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
