package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"procurement/internal/adapters/cli"
	"procurement/internal/app"
	"procurement/internal/config"
	"procurement/internal/core"
	"procurement/internal/db"
	"procurement/internal/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code so deferred cleanup always runs.
func run(args []string) int {
	if len(args) == 0 {
		fmt.Fprintf(os.Stderr, "Usage: app <%s> [args]\n", strings.Join(cli.Commands, "|"))
		return 2
	}

	cfg := config.Load()
	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		return 1
	}
	defer func() { _ = zl.Sync() }()

	ctx := context.Background()

	var svc app.ApplicationService
	if cli.NeedsDatabase(args[0]) {
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			zl.Error("unable to connect to database", zap.Error(err))
			return 1
		}
		defer pool.Close()

		rules := core.NewRuleEngine(pool, cfg.Withholding.Overrides())
		svc = app.NewAppService(
			core.NewPurchaseOrderService(pool, rules, zl, core.NewMetrics(nil)),
			core.NewClientService(pool),
			core.NewWithholdingService(pool, rules, zl),
			core.NewReportingService(pool),
			rules,
			zl,
		)
	} else {
		svc = app.NewQuoteService(cfg.Withholding.RateTable(), zl)
	}

	if err := cli.Run(ctx, svc, args, os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, cli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		zl.Error("command failed", zap.String("command", args[0]), zap.Error(err))
		fmt.Fprintf(os.Stderr, "%s: %v\n", args[0], err)
		return 1
	}
	return 0
}
