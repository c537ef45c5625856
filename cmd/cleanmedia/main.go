package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fhuszti/cleanmedia-go/internal/config"
	"github.com/fhuszti/cleanmedia-go/internal/db"
	"github.com/fhuszti/cleanmedia-go/internal/logger"
	"github.com/fhuszti/cleanmedia-go/internal/metrics"
	"github.com/fhuszti/cleanmedia-go/internal/model"
	"github.com/fhuszti/cleanmedia-go/internal/port"
	"github.com/fhuszti/cleanmedia-go/internal/report"
	"github.com/fhuszti/cleanmedia-go/internal/repository/dendrite"
	"github.com/fhuszti/cleanmedia-go/internal/storage"
	"github.com/fhuszti/cleanmedia-go/internal/usecase/retention"
)

const (
	exitOK       = 0
	exitAborted  = 1
	exitFailures = 2

	sinkTimeout = 10 * time.Second
)

type options struct {
	configFile string
	mxid       string
	userID     string
	days       int
	local      bool
	dryRun     bool
	quiet      bool
	debug      bool
	checkFiles bool
}

func (o options) logLevel() string {
	switch {
	case o.debug:
		return "debug"
	case o.quiet:
		return "warn"
	}
	return ""
}

func (o options) params() retention.Params {
	p := retention.Params{
		Mode:         retention.ModeBulkRemote,
		MaxAgeDays:   o.days,
		IncludeLocal: o.local,
		DryRun:       o.dryRun,
		CheckFiles:   o.checkFiles,
		MediaID:      o.mxid,
		UserID:       o.userID,
	}
	switch {
	case o.mxid != "":
		p.Mode = retention.ModeMediaID
	case o.userID != "":
		p.Mode = retention.ModeUserID
	case o.local:
		p.Mode = retention.ModeBulkLocal
	}
	return p
}

func newRootCmd(exitCode *int) *cobra.Command {
	var opts options
	c := &cobra.Command{
		Use:   "cleanmedia",
		Short: "Deletes old remote media files from dendrite servers",
		Long: `Purge media from a Dendrite homeserver's media store and database.

By default every remote media older than --days is removed. Local media is
only touched with --local, and media used as a profile avatar is always kept.

  cleanmedia -c /etc/dendrite/dendrite.yaml -t 14
  cleanmedia -c dendrite.yaml -l -n        # what would a local purge remove?
  cleanmedia -c dendrite.yaml -m mxc://example.org/abcdef
  cleanmedia -c dendrite.yaml -u @spammer:example.org`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			*exitCode = run(cmd.Context(), opts)
			return nil
		},
	}
	f := c.Flags()
	f.StringVarP(&opts.configFile, "config", "c", config.DefaultConfigFile, "location of the dendrite.yaml config file")
	f.StringVarP(&opts.mxid, "mxid", "m", "", "just delete media <MXID> (no cleanup otherwise)")
	f.StringVarP(&opts.userID, "userid", "u", "", "delete all media by local user '@user:domain.com' (no cleanup otherwise)")
	f.IntVarP(&opts.days, "days", "t", retention.DefaultMaxAgeDays, "keep remote media for <DAYS> days")
	f.BoolVarP(&opts.local, "local", "l", false, "also purge local (ie, from *our* users) media")
	f.BoolVarP(&opts.dryRun, "dryrun", "n", false, "dry run (don't actually modify any files)")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "reduce output verbosity")
	f.BoolVarP(&opts.debug, "debug", "d", false, "increase output verbosity")
	f.BoolVar(&opts.checkFiles, "check-files", false, "also report missing files and files without a catalog row")
	c.MarkFlagsMutuallyExclusive("mxid", "userid")
	return c
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exitCode := exitOK
	if err := newRootCmd(&exitCode).ExecuteContext(ctx); err != nil {
		logger.Errorf(ctx, "❌  %v", err)
		exitCode = exitAborted
	}
	stop()
	os.Exit(exitCode)
}

func run(ctx context.Context, opts options) int {
	logger.Init(opts.logLevel())

	cfg, err := config.Load(opts.configFile)
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		return exitAborted
	}

	database, err := initDb(cfg)
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		return exitAborted
	}
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	store, err := storage.NewFSStorage(ctx, cfg.MediaPath)
	if err != nil {
		logger.Errorf(ctx, "❌  Media store error: %v", err)
		return exitAborted
	}

	purger := retention.NewPurger(dendrite.NewCatalog(database.DB), store)
	summary, runErr := purger.Run(ctx, opts.params())
	if summary != nil {
		publish(ctx, cfg, summary)
	}

	switch {
	case runErr != nil:
		logger.Errorf(ctx, "❌  Run aborted: %v", runErr)
		return exitAborted
	case summary.Failed > 0 || len(summary.FileErrors) > 0:
		return exitFailures
	}
	return exitOK
}

func initDb(cfg *config.Settings) (*db.Database, error) {
	logger.Debug(context.Background(), "initialising database...")

	return db.New(db.Config{
		ConnectionString: cfg.ConnectionString,
		MaxOpenConns:     cfg.MaxOpenConns,
		MaxIdleConns:     cfg.MaxIdleConns,
		ConnMaxLifetime:  cfg.ConnMaxLifetime,
	})
}

// publish hands the summary to the optional sinks. Failures only warn.
func publish(ctx context.Context, cfg *config.Settings, s *model.RunSummary) {
	// the run context may already be cancelled by a signal
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkTimeout)
	defer cancel()

	var reporter port.RunReporter = report.NewNoop()
	if cfg.RedisAddr != "" {
		rp := report.NewRedisPublisher(cfg.RedisAddr, cfg.RedisPassword)
		defer func() { _ = rp.Close() }()
		reporter = rp
	}
	if err := reporter.Publish(ctx, s); err != nil {
		logger.Warnf(ctx, "⚠️  Could not publish run report: %v", err)
	}

	if cfg.PushgatewayURL == "" {
		return
	}
	if err := metrics.NewPusher(cfg.PushgatewayURL).Push(ctx, s); err != nil {
		logger.Warnf(ctx, "⚠️  Could not push metrics: %v", err)
	}
}
