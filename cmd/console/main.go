// cmd/console/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fieldsales-console/internal/common/config"
	apperrors "fieldsales-console/internal/common/errors"
	"fieldsales-console/internal/common/logger"
	"fieldsales-console/internal/session"

	"go.uber.org/zap"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"serve", "run the local HTTP console", runServe},
	{"login", "log in and persist the session token", runLogin},
	{"logout", "log out and clear the stored token", runLogout},
	{"whoami", "print the current session", runWhoami},
	{"nav", "print the navigation for the current role", runNav},
	{"list", "print one page of an entity list", runList},
	{"visit", "print a visit with its derived status", runVisit},
	{"export-visits", "write visits.csv", runExportVisits},
	{"export-customers", "write customers.xlsx", runExportCustomers},
	{"import-customers", "create stores from an .xlsx or .xls sheet", runImportCustomers},
	{"index-stores", "copy every store into the search index", runIndexStores},
	{"search-stores", "search the store index", runSearchStores},
	{"audit", "print recent audit entries", runAudit},
}

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	name := os.Args[1]
	if name == "help" || name == "-h" || name == "--help" {
		help()
		return
	}

	var cmd *command
	for i := range commands {
		if commands[i].name == name {
			cmd = &commands[i]
			break
		}
	}
	if cmd == nil {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
		help()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"command": name,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		zapLog.Error("startup failed", zap.Error(err))
		os.Exit(1)
	}

	err = cmd.run(ctx, a, os.Args[2:])
	a.close()
	if errors.Is(err, session.ErrNoToken) {
		fmt.Fprintf(os.Stderr, "%s: not logged in, run 'console login' first\n", name)
		os.Exit(1)
	}
	if err != nil {
		stdErr := apperrors.NewErrorHandler(log).Handle(ctx, name, err)
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, stdErr.Message)
		if stdErr.Details != "" {
			fmt.Fprintf(os.Stderr, "  %s\n", stdErr.Details)
		}
		os.Exit(1)
	}
}

func help() {
	fmt.Println("Usage: console <command> [flags]")
	fmt.Println()
	fmt.Println("Commands:")
	for _, c := range commands {
		fmt.Printf("  %-18s %s\n", c.name, c.usage)
	}
	fmt.Println()
	fmt.Println("Run 'console <command> -h' for the flags of a command.")
}
