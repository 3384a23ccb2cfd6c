package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/username/refuse-schedule/internal/config"
	"github.com/username/refuse-schedule/internal/daemon"
	"github.com/username/refuse-schedule/internal/export"
	"github.com/username/refuse-schedule/internal/holiday"
	"github.com/username/refuse-schedule/internal/resolver"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	configPath string
	logger     *zap.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "refuse-schedule",
		Short: "Refuse collection schedule with holiday adjustments",
		Long:  "Resolve an address's weekly trash and recycling day, apply the city's holiday schedule and publish the result as a calendar",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load config to get log file path
			cfg, err := config.LoadUnvalidated(configPath)
			if err == nil && cfg.Logging.File != "" {
				logger, err = initFileLogger(cfg.Logging.File, cfg.Logging.Level)
				if err != nil {
					initLogger(cfg.Logging.Level) // Fallback to console
				}
			} else if err == nil {
				initLogger(cfg.Logging.Level)
			} else {
				initLogger("info")
			}
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default: ./config.yaml, $HOME/.refuse-schedule, /etc/refuse-schedule)")

	rootCmd.AddCommand(occurrencesCmd())
	rootCmd.AddCommand(holidaysCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(daemonCmd())
	rootCmd.AddCommand(lookupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func occurrencesCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "occurrences",
		Short: "Print upcoming collection dates",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if days > 0 {
				cfg.Schedule.DaysAhead = days
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			state, err := app.coordinator.Update(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("📍 %s: collection day %s\n", state.Address, state.CollectionDay)
			if state.HolidayErr != nil {
				fmt.Printf("⚠️  Holiday schedule unavailable, using %d cached holidays: %v\n", state.Holidays.Len(), state.HolidayErr)
			}
			if next, ok := state.Next(state.LastUpdated); ok {
				fmt.Printf("📅 Next collection: %s\n", next.ActualDate.Format("Monday, January 2"))
			}
			fmt.Println()

			return export.WriteOccurrences(os.Stdout, state.Occurrences)
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "Days ahead to generate (default from config)")

	return cmd
}

func holidaysCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "holidays",
		Short: "Parse the holiday schedule and print the adjustments",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if file != "" {
				cfg.Holidays.URL = ""
				cfg.Holidays.File = file
			}

			source, err := newHolidaySource(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			text, err := source.Fetch(ctx)
			if err != nil {
				return err
			}

			result, err := holiday.NewParser(time.Now, logger).Parse(text)
			if err != nil {
				return fmt.Errorf("failed to parse holiday schedule: %w", err)
			}

			fmt.Printf("🗓  %d holidays from %s\n\n", len(result.Records), source.Name())
			return export.WriteHolidays(os.Stdout, result.Records, result.Diagnostics, holiday.CrossCheck(result.Records))
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Parse a local holiday document (text or PDF) instead of the configured source")

	return cmd
}

func exportCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the collection calendar as an ICS file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			state, err := app.coordinator.Update(ctx)
			if err != nil {
				return err
			}

			if dir := filepath.Dir(out); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("failed to create output directory: %w", err)
				}
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", out, err)
			}
			defer f.Close()

			if err := export.WriteICS(f, state.Occurrences, app.calendarOptions(), time.Now()); err != nil {
				return err
			}

			fmt.Printf("✅ Wrote %d collection events to %s\n", len(state.Occurrences), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "calendar.ics", "Output file")

	return cmd
}

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Refresh the schedule periodically and serve the calendar feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			app, err := newApp(cfg)
			if err != nil {
				return err
			}

			d := daemon.NewDaemon(app.coordinator, cfg.Schedule.GetUpdateInterval(), logger)
			if cfg.Server.Listen != "" {
				srv := daemon.NewServer(app.coordinator, d, app.calendarOptions(), logger)
				d.AttachServer(srv, cfg.Server.Listen)
			}

			logger.Info("Starting daemon",
				zap.String("address", cfg.Address),
				zap.Int("update_interval_days", cfg.Schedule.UpdateIntervalDays),
				zap.String("listen", cfg.Server.Listen))

			return d.Start()
		},
	}
}

func lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <address>",
		Short: "Look up the weekly collection day for an address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadUnvalidated(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			ctx, cancel := signalContext()
			defer cancel()

			lookup, err := newArcGISClient(cfg).LookupCollectionDay(ctx, args[0])
			if err != nil {
				if kind, ok := resolver.KindOf(err); ok {
					return fmt.Errorf("lookup failed (%s): %w", kind, err)
				}
				return err
			}

			fmt.Printf("📍 %s\n", lookup.MatchedAddress)
			fmt.Printf("   Collection day: %s\n", lookup.CollectionDay)
			if lookup.Zone != "" {
				fmt.Printf("   Zone: %s\n", lookup.Zone)
			}
			fmt.Printf("   Location: %.6f, %.6f\n", lookup.Y, lookup.X)
			return nil
		},
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func initLogger(level string) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err == nil {
		config.Level = zap.NewAtomicLevelAt(zapLevel)
	}

	var err error
	logger, err = config.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
}

func initFileLogger(logFile string, level string) (*zap.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	// Setup lumberjack for log rotation
	logWriter := &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    50, // MB
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(logWriter),
		zapLevel,
	)

	return zap.New(core), nil
}
