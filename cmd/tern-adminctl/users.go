package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/ternsecure/tern-admin/internal/service"
)

// UsersCmd groups the account commands.
type UsersCmd struct {
	List    UsersListCmd    `cmd:"" help:"List accounts."`
	Disable UsersDisableCmd `cmd:"" help:"Disable an account and record it in the registry."`
	Enable  UsersEnableCmd  `cmd:"" help:"Re-enable an account and drop its registry record."`
	Delete  UsersDeleteCmd  `cmd:"" help:"Permanently delete an account."`
	SetRole UsersSetRoleCmd `cmd:"" help:"Change an account's role claim."`
}

// UsersListCmd lists accounts through the directory filters.
type UsersListCmd struct {
	Search   string `help:"Case-insensitive match on uid, email or role."`
	Role     string `help:"Filter by role, e.g. admin or user."`
	Status   string `help:"Filter by status (enabled, disabled)."`
	Expr     string `help:"JMESPath expression evaluated against each account."`
	Page     int    `help:"Page number." default:"1"`
	PageSize int    `help:"Accounts per page (10, 50, 100, 200 or 300)." default:"50"`
}

func (c *UsersListCmd) Run(ctx context.Context, globals *Globals) error {
	admin, ctx, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer admin.close(globals.Logger)

	page, err := admin.Directory.List(ctx, service.Query{
		Search:   c.Search,
		Role:     c.Role,
		Status:   c.Status,
		Expr:     c.Expr,
		Page:     c.Page,
		PageSize: c.PageSize,
	})
	if err != nil {
		return err
	}
	return printUsers(globals.Out, page)
}

func printUsers(out io.Writer, page service.UserPage) error {
	if len(page.Items) == 0 {
		_, err := fmt.Fprintln(out, "No accounts match.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "UID\tEMAIL\tROLE\tSTATUS\tVERIFIED\tLAST SIGN-IN (UTC)"); err != nil {
		return fmt.Errorf("write users header row: %w", err)
	}
	for _, u := range page.Items {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			u.UID, u.Email, u.Role, u.Status, u.EmailVerified, formatTime(u.LastSignInAt)); err != nil {
			return fmt.Errorf("write user row: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush users table: %w", err)
	}
	_, err := fmt.Fprintf(out, "\nPage %d of %d (%d accounts)\n", page.Page, page.TotalPages, page.Total)
	return err
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.UTC().Format(time.DateTime)
}

// UsersDisableCmd disables one account.
type UsersDisableCmd struct {
	UID string `arg:"" help:"Account uid."`
}

func (c *UsersDisableCmd) Run(ctx context.Context, globals *Globals) error {
	return runAction(ctx, globals, "disabled", c.UID, func(ctx context.Context, a *Admin) error {
		return a.Registry.Disable(ctx, c.UID)
	})
}

// UsersEnableCmd enables one account.
type UsersEnableCmd struct {
	UID string `arg:"" help:"Account uid."`
}

func (c *UsersEnableCmd) Run(ctx context.Context, globals *Globals) error {
	return runAction(ctx, globals, "enabled", c.UID, func(ctx context.Context, a *Admin) error {
		return a.Registry.Enable(ctx, c.UID)
	})
}

var errNotConfirmed = errors.New("refusing to delete without --yes")

// UsersDeleteCmd deletes one account.
type UsersDeleteCmd struct {
	UID string `arg:"" help:"Account uid."`
	Yes bool   `help:"Confirm the deletion."`
}

func (c *UsersDeleteCmd) Run(ctx context.Context, globals *Globals) error {
	if !c.Yes {
		return errNotConfirmed
	}
	return runAction(ctx, globals, "deleted", c.UID, func(ctx context.Context, a *Admin) error {
		return a.Registry.Delete(ctx, c.UID)
	})
}

// UsersSetRoleCmd changes one account's role.
type UsersSetRoleCmd struct {
	UID  string `arg:"" help:"Account uid."`
	Role string `arg:"" help:"New role: admin, superuser, user, guest, member or staff."`
}

func (c *UsersSetRoleCmd) Run(ctx context.Context, globals *Globals) error {
	return runAction(ctx, globals, "set to "+c.Role, c.UID, func(ctx context.Context, a *Admin) error {
		return a.Registry.SetRole(ctx, c.UID, c.Role)
	})
}

func runAction(ctx context.Context, globals *Globals, verb, uid string, fn func(context.Context, *Admin) error) error {
	admin, ctx, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer admin.close(globals.Logger)

	if err := fn(ctx, admin); err != nil {
		return err
	}
	_, err = fmt.Fprintf(globals.Out, "User %s %s\n", uid, verb)
	return err
}
