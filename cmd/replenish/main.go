package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"replenishment-service/internal/app"
	"replenishment-service/internal/model"
	"replenishment-service/internal/report"
	"replenishment-service/pkg/config"
	"replenishment-service/pkg/jwtutil"
	"replenishment-service/pkg/logger"
	"replenishment-service/pkg/runlock"
)

func main() {
	submit := flag.Bool("submit", false, "Send purchase orders to the procurement API (default is a dry run)")
	xlsxPath := flag.String("xlsx", "", "Optional: also write the report to this .xlsx file")
	abcOnly := flag.Bool("abc", false, "Print the ABC classification instead of running replenishment")
	compare := flag.Bool("compare", false, "Print ABC tier changes against the previous period")
	tierFlag := flag.String("tier", "", "Optional: keep only this ABC tier (A/B/C)")
	period := flag.Int("period", 0, "Optional: ABC period in days (defaults to REPLENISHMENT_ABC_WINDOW_DAYS)")
	addOperator := flag.String("add-operator", "", "Create an API operator with this email; the password is read from REPLENISH_OPERATOR_PASSWORD")
	role := flag.String("role", jwtutil.RoleViewer, "Role for -add-operator (admin/buyer/viewer)")
	flag.Parse()

	var tier model.Tier
	if *tierFlag != "" {
		t, ok := model.ParseTier(*tierFlag)
		if !ok {
			fmt.Fprintln(os.Stderr, "--tier must be one of A, B, C")
			os.Exit(2)
		}
		tier = t
	}
	if *addOperator != "" && !jwtutil.ValidRole(*role) {
		fmt.Fprintln(os.Stderr, "--role must be one of admin, buyer, viewer")
		os.Exit(2)
	}
	if *period < 0 {
		fmt.Fprintln(os.Stderr, "--period must be positive")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	deps, err := app.Build(ctx, "replenish")
	if err != nil {
		var cfgErr *config.ConfigError
		if errors.As(err, &cfgErr) {
			fmt.Fprintf(os.Stderr, "configuration: %v\n", err)
			os.Exit(2)
		}
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		os.Exit(1)
	}
	log := logger.GetLogger()

	code := run(ctx, deps, options{
		submit:   *submit,
		xlsxPath: *xlsxPath,
		abc:      *abcOnly,
		compare:  *compare,
		tier:     tier,
		period:   *period,
		operator: *addOperator,
		role:     *role,
	}, log)

	stop()
	deps.Close()
	_ = log.Sync()
	os.Exit(code)
}

type options struct {
	submit   bool
	xlsxPath string
	abc      bool
	compare  bool
	tier     model.Tier
	period   int
	operator string
	role     string
}

func run(ctx context.Context, deps *app.Deps, opts options, log *zap.Logger) int {
	switch {
	case opts.operator != "":
		password := os.Getenv("REPLENISH_OPERATOR_PASSWORD")
		if password == "" {
			fmt.Fprintln(os.Stderr, "REPLENISH_OPERATOR_PASSWORD is not set")
			return 2
		}
		op, err := deps.Operators.Create(ctx, opts.operator, password, opts.role)
		if err != nil {
			log.Error("Failed to create operator", zap.Error(err))
			return 1
		}
		fmt.Printf("operator %s created with role %s\n", op.Email, op.Role)
		return 0

	case opts.compare:
		cmp, err := deps.Engine.CompareABC(ctx, opts.period, opts.tier)
		if err != nil {
			log.Error("ABC comparison failed", zap.Error(err))
			return 1
		}
		if err := report.RenderMigrations(os.Stdout, cmp.Previous, cmp.Current, cmp.Migrations); err != nil {
			log.Error("Failed to render comparison", zap.Error(err))
			return 1
		}
		return 0

	case opts.abc:
		rep, err := deps.Engine.AnalyzeABC(ctx, opts.period, opts.tier)
		if err != nil {
			log.Error("ABC analysis failed", zap.Error(err))
			return 1
		}
		if err := report.RenderTiers(os.Stdout, rep.Window, rep.TotalRevenue, rep.Entries); err != nil {
			log.Error("Failed to render classification", zap.Error(err))
			return 1
		}
		return 0
	}

	if opts.submit {
		release, err := deps.Locker.Acquire(ctx, runlock.LiveRunKey)
		if err != nil {
			log.Error("Could not start live run", zap.Error(err))
			return 1
		}
		defer release()
	}

	rep, err := deps.Engine.SuggestPurchases(ctx, !opts.submit)
	if err != nil {
		log.Error("Replenishment run failed", zap.Error(err))
		return 1
	}

	if err := report.Render(os.Stdout, rep); err != nil {
		log.Error("Failed to render report", zap.Error(err))
		return 1
	}

	if opts.xlsxPath != "" {
		if err := writeXLSX(opts.xlsxPath, rep); err != nil {
			log.Error("Failed to write xlsx report", zap.String("path", opts.xlsxPath), zap.Error(err))
			return 1
		}
		log.Info("Report written", zap.String("path", opts.xlsxPath))
	}

	if !rep.Succeeded() {
		return 3
	}
	return 0
}

func writeXLSX(path string, rep *report.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(f, rep); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
