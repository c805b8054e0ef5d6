package cli

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrwillibald/nuliga-helper/internal/config"
	"github.com/mrwillibald/nuliga-helper/internal/dispatch"
	"github.com/mrwillibald/nuliga-helper/internal/game"
	"github.com/mrwillibald/nuliga-helper/internal/logger"
	"github.com/mrwillibald/nuliga-helper/internal/notifier"
	"github.com/mrwillibald/nuliga-helper/internal/planner"
	"github.com/mrwillibald/nuliga-helper/internal/scraper"
	"github.com/mrwillibald/nuliga-helper/internal/storage"
	"github.com/spf13/cobra"
)

const (
	ExitSuccess = 0
	ExitError   = 1
)

var (
	flagConfig  string
	flagEnvFile string
	flagWorkDir string
	flagDate    string
	flagDryRun  bool
	flagFormat  string
	flagVerbose bool
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nuliga-helper",
		Short: "Keep the home game roster in sync with nuLiga and remind volunteers",
		Long: `nuliga-helper fetches the club's home games from nuLiga, merges them into
the volunteer roster kept in cloud storage, alerts volunteers and referee
coordinators about rescheduled games and sends the reminders due today.`,
		SilenceUsage: true,
		RunE:         runHelper,
	}

	cmd.Flags().StringVar(&flagConfig, "config", "config.yaml", "Path to the club configuration")
	cmd.Flags().StringVar(&flagEnvFile, "env-file", ".env", "Optional file with credentials as environment variables")
	cmd.Flags().StringVar(&flagWorkDir, "work-dir", "~/.local/share/nuliga-helper", "Directory for the local roster copy")
	cmd.Flags().StringVar(&flagDate, "date", "", "Run as if today were this date (DD.MM.YYYY)")
	cmd.Flags().BoolVar(&flagDryRun, "dry-run", false, "Print messages instead of sending them and leave the persisted roster untouched")
	cmd.Flags().StringVar(&flagFormat, "format", "text", "Summary format: text or json")
	cmd.Flags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")

	return cmd
}

// runHelper is the main command logic
func runHelper(cmd *cobra.Command, args []string) error {
	format := OutputFormat(strings.ToLower(flagFormat))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", flagFormat)
	}

	clock, err := clockFor(flagDate)
	if err != nil {
		return err
	}

	level := logger.LevelInfo
	if flagVerbose {
		level = logger.LevelDebug
	}
	base := logger.New(level, os.Stderr)
	logger.SetDefault(base)

	runID := uuid.NewString()
	log := base.With(logger.Fields{"run_id": runID})

	cfg, err := config.Load(flagConfig, flagEnvFile)
	if err != nil {
		return err
	}

	workDir, err := storage.WorkDir(flagWorkDir)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	// dry-run messages go to stderr when stdout carries JSON
	var preview io.Writer = os.Stdout
	if format == FormatJSON {
		preview = os.Stderr
	}

	sc := scraper.New(cfg.League.URL, cfg.Club.ID,
		scraper.WithHTTPClient(&http.Client{Timeout: cfg.LeagueTimeout()}),
		scraper.WithRetry(cfg.League.Retries, time.Second),
	)

	d := newDispatcher(cfg, preview, log)

	opts := []planner.Option{
		planner.WithClock(clock),
		planner.WithRunID(runID),
		planner.WithLogger(base),
	}
	if flagDryRun {
		opts = append(opts, planner.WithDryRun())
	}
	if cfg.Storage.Enabled() {
		objects, err := storage.NewObjectStore(ctx, cfg.Storage)
		if err != nil {
			return fmt.Errorf("initializing storage: %w", err)
		}
		opts = append(opts, planner.WithObjectStore(objects))
	}

	p := planner.New(cfg, sc, storage.NewWorkbook(cfg.Columns), d, workDir, opts...)

	summary, runErr := p.Run(ctx)
	if summary != nil {
		if err := WriteOutput(os.Stdout, summary, format, flagVerbose); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
	}
	return runErr
}

func newDispatcher(cfg *config.Config, preview io.Writer, log *logger.Logger) *dispatch.Dispatcher {
	opts := []dispatch.Option{dispatch.WithLogger(log)}

	if flagDryRun {
		opts = append(opts,
			dispatch.WithServiceMailer(notifier.NewDryRunMailer(preview, cfg.Mail.Service.Address)),
			dispatch.WithSMS(notifier.NewDryRunSMS(preview)),
		)
		return dispatch.New(cfg, notifier.NewDryRunMailer(preview, cfg.Mail.Default.Address), opts...)
	}

	opts = append(opts, dispatch.WithServiceMailer(
		notifier.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Service),
	))
	if cfg.SMS.Enabled() {
		opts = append(opts, dispatch.WithSMS(notifier.NewTwilioSender(cfg.SMS, nil)))
	} else {
		log.Warn("SMS credentials missing, phone contacts will be skipped", nil)
	}
	return dispatch.New(cfg, notifier.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.Default), opts...)
}

// clockFor returns the wall clock, or a clock fixed to date when set
func clockFor(date string) (planner.Clock, error) {
	if date == "" {
		return time.Now, nil
	}
	day, err := time.ParseInLocation(game.DateLayout, date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid --date %q (want DD.MM.YYYY): %w", date, err)
	}
	return func() time.Time { return day }, nil
}

// Execute runs the CLI
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(ExitError)
	}
}
