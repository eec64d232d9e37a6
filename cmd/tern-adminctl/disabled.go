package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ternsecure/tern-admin/internal/domain/account"
)

// DisabledCmd groups the registry commands.
type DisabledCmd struct {
	List DisabledListCmd `cmd:"" help:"List disabled-user records, newest first."`
}

// DisabledListCmd prints the registry.
type DisabledListCmd struct{}

func (c *DisabledListCmd) Run(ctx context.Context, globals *Globals) error {
	admin, ctx, err := globals.open(ctx)
	if err != nil {
		return err
	}
	defer admin.close(globals.Logger)

	return printDisabled(globals.Out, admin.Registry.ListDisabled(ctx))
}

func printDisabled(out io.Writer, records []account.DisabledUserRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "No disabled accounts.")
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "UID\tEMAIL\tDISABLED (UTC)"); err != nil {
		return fmt.Errorf("write registry header row: %w", err)
	}
	for _, r := range records {
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\n", r.UID, r.Email, formatTime(r.DisabledTime)); err != nil {
			return fmt.Errorf("write registry row: %w", err)
		}
	}
	return tw.Flush()
}

// MigrateCmd applies the audit schema.
type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx context.Context, globals *Globals) error {
	applied, err := globals.Migrate(ctx, globals.Logger)
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		_, err = fmt.Fprintln(globals.Out, "Audit schema is up to date.")
		return err
	}
	for _, v := range applied {
		if _, err := fmt.Fprintf(globals.Out, "applied %s\n", v); err != nil {
			return err
		}
	}
	return nil
}
