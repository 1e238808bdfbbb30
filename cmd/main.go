package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/okian/talentscope/internal/adapters/csvio"
	repository "github.com/okian/talentscope/internal/adapters/repository"
	app "github.com/okian/talentscope/internal/app"
	"github.com/okian/talentscope/internal/config"
	"github.com/okian/talentscope/internal/domain/model"
	"github.com/okian/talentscope/pkg/logger"
)

var cfgFile string

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "talentscope",
		Short:         "Rate youth football players and project their potential",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: $"+config.EnvConfigFile+")")

	root.AddCommand(serveCmd())
	root.AddCommand(importCmd())
	root.AddCommand(recalcCmd())
	root.AddCommand(progressionCmd())
	root.AddCommand(exportCmd())

	return root
}

// loadConfig loads configuration (defaults -> optional file -> env) and
// initialises logging from it.
func loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx, cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.InitWithWriter(os.Stdout, cfg.LogFormat); err != nil {
		return nil, fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	return cfg, nil
}

func newService(cfg *config.Config) *app.Service {
	return app.New(
		app.WithLogger(logger.Named("service")),
		app.WithDB(cfg.DBDriver, cfg.DBDSN),
		app.WithModelPath(cfg.ModelPath),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithPendingSize(cfg.PendingSize),
		app.WithSimilarTopN(cfg.SimilarTopN),
		app.WithProxies(cfg.XGProxyMultiplier, cfg.XAProxyMultiplier),
		app.WithProgressionWorkers(cfg.ProgressionWorkers),
	)
}

// withService runs fn against a started service and stops it afterwards.
func withService(cmd *cobra.Command, fn func(ctx context.Context, svc *app.Service) error) error {
	ctx := cmd.Context()
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	svc := newService(cfg)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	runErr := fn(ctx, svc)
	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := svc.Stop(stopCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("stop service: %w", err)
	}
	return runErr
}

func importCmd() *cobra.Command {
	var (
		opts    csvio.Options
		replace bool
	)

	cmd := &cobra.Command{
		Use:   "import <csv>",
		Short: "Import, score and project seasons from a CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				res, err := svc.ImportCSV(ctx, f, opts, replace)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "imported %d seasons (%d skipped)\n", res.Accepted, res.Skipped)
				for _, e := range res.Errors {
					fmt.Fprintf(out, "  skipped: %s\n", e)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Season, "season", "", "season label for files without a season column (e.g. 2023-2024)")
	cmd.Flags().IntVar(&opts.SeasonOrder, "season-order", 0, "explicit play order of the season")
	cmd.Flags().BoolVar(&replace, "replace", false, "discard previously stored seasons")
	return cmd
}

func recalcCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "recalc",
		Short: "Rescore every stored season and refresh the leaderboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				n, err := svc.RecalculateAll(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "recalculated %d seasons\n", n)
				return nil
			})
		},
	}
}

func progressionCmd() *cobra.Command {
	var player string

	cmd := &cobra.Command{
		Use:   "progression",
		Short: "Recompute current, next-season and peak ratings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				rows, err := svc.RunProgression(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "projected %d seasons\n", len(rows))
				if player == "" {
					return nil
				}
				seasons, err := svc.Progression(ctx, player)
				if err != nil {
					return err
				}
				printProgression(out, seasons)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "print the progression of one player")
	return cmd
}

func printProgression(w io.Writer, seasons []model.RatedPlayer) {
	for _, s := range seasons {
		if s.Trajectory == nil {
			fmt.Fprintf(w, "%-10s %-4s age %2d  not projected\n", s.Season, s.Position, s.Age)
			continue
		}
		fmt.Fprintf(w, "%-10s %-4s age %2d  current %5.1f  next %5.1f  peak %5.1f\n",
			s.Season, s.Position, s.Age, s.Trajectory.Current, s.Trajectory.NextSeason, s.Trajectory.Peak)
	}
}

func exportCmd() *cobra.Command {
	var (
		position string
		season   string
		best     bool
	)

	cmd := &cobra.Command{
		Use:   "export <csv>",
		Short: "Export rated seasons as CSV (use - for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := repository.ListOpts{Season: season, BestOnly: best}
			if position != "" {
				opts.Position = model.ParsePosition(position)
			}

			var w io.Writer = cmd.OutOrStdout()
			if args[0] != "-" {
				f, err := os.Create(args[0])
				if err != nil {
					return fmt.Errorf("create %s: %w", args[0], err)
				}
				defer f.Close()
				w = f
			}
			return withService(cmd, func(ctx context.Context, svc *app.Service) error {
				return svc.Export(ctx, w, opts)
			})
		},
	}

	cmd.Flags().StringVar(&position, "position", "", "only one position (FW, MF, DF, GK)")
	cmd.Flags().StringVar(&season, "season", "", "only one season")
	cmd.Flags().BoolVar(&best, "best", false, "only each player's best season")
	return cmd
}
