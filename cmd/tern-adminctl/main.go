// Command tern-adminctl manages accounts and the disabled-user registry from a shell.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

var version = "dev"

// CLI is the command tree.
type CLI struct {
	Users    UsersCmd    `cmd:"" help:"Inspect and manage accounts."`
	Disabled DisabledCmd `cmd:"" help:"Inspect the disabled-user registry."`
	Migrate  MigrateCmd  `cmd:"" help:"Apply audit database migrations."`

	Actor   string `help:"Actor uid recorded in the audit trail." default:"tern-adminctl" env:"TERN_ADMIN_ACTOR"`
	Debug   bool   `help:"Enable debug logging."`
	Version kong.VersionFlag
}

func main() {
	ctx := context.Background()
	var cli CLI
	cmd := kong.Parse(&cli,
		kong.Name("tern-adminctl"),
		kong.Description("Administer tern accounts outside the web console."),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))

	level := slog.LevelWarn
	if cli.Debug {
		level = slog.LevelDebug
	}
	// Logs go to stderr so tables on stdout stay pipeable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	err := cmd.Run(&Globals{
		Out:     os.Stdout,
		Logger:  logger,
		Actor:   cli.Actor,
		Open:    openAdmin,
		Migrate: migrateAudit,
	})
	cmd.FatalIfErrorf(err)
}
