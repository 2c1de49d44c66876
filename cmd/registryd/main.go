package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/nft-registry/cmd/registryd/cli"
	"github.com/odyssey-erp/nft-registry/internal/app"
	"github.com/odyssey-erp/nft-registry/internal/platform/db"
	"github.com/odyssey-erp/nft-registry/internal/shared"
	"github.com/odyssey-erp/nft-registry/migrations"
)

const usage = `usage: registryd [command] [flags]

commands:
  serve                      run the HTTP API (default)
  migrate                    apply database migrations and exit
  token issue --caller ADDR  print a caller bearer token
  jobs trigger NAME          enqueue integrity or idempotency-cleanup
  jobs inspect               show default queue stats
`

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	command, args := "serve", os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		command, args = args[0], args[1:]
	}

	switch command {
	case "serve":
		if err := serve(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("registryd", slog.Any("error", err))
			os.Exit(1)
		}
	case "migrate":
		os.Exit(runMigrate(ctx, cfg, logger))
	case "token":
		os.Exit(runToken(cfg, args))
	case "jobs":
		os.Exit(runJobs(ctx, cfg, args))
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
}

func runMigrate(ctx context.Context, cfg *app.Config, logger *slog.Logger) int {
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolOptions{MaxConns: cfg.PGMaxConns, MaxConnLifetime: cfg.PGMaxConnLife})
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		return 1
	}
	defer pool.Close()
	applied, err := db.Migrate(ctx, pool, migrations.Files)
	if err != nil {
		logger.Error("migrate", slog.Any("error", err))
		return 1
	}
	logger.Info("migrations applied", slog.Any("files", applied))
	return 0
}

func runToken(cfg *app.Config, args []string) int {
	if len(args) == 0 || args[0] != "issue" {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	fs := flag.NewFlagSet("token issue", flag.ContinueOnError)
	opts := cli.TokenOptions{}
	fs.StringVar(&opts.Caller, "caller", "", "caller address (0x-prefixed)")
	fs.DurationVar(&opts.TTL, "ttl", cfg.TokenTTL, "token lifetime")
	fs.BoolVar(&opts.JSONOutput, "json", false, "print JSON")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	return cli.IssueTokenCommand(shared.NewCallerTokens(cfg.TokenSecret), opts)
}

func runJobs(ctx context.Context, cfg *app.Config, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
	jobsCLI := cli.NewJobsCLI(redisOpt(cfg))
	defer jobsCLI.Close()

	switch args[0] {
	case "trigger":
		if len(args) < 2 {
			fmt.Fprint(os.Stderr, usage)
			return 2
		}
		info, err := jobsCLI.Trigger(ctx, args[1], cfg.IdempotencyTTL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs trigger: %v\n", err)
			return 1
		}
		fmt.Printf("enqueued %s as %s on %s\n", info.Type, info.ID, info.Queue)
		return 0
	case "inspect":
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		stats, err := jobsCLI.InspectQueue(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "jobs inspect: %v\n", err)
			return 1
		}
		cli.RenderStats(os.Stdout, stats)
		return 0
	default:
		fmt.Fprint(os.Stderr, usage)
		return 2
	}
}

func redisOpt(cfg *app.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
}
