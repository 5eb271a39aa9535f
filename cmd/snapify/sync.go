package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"snapify/pkg/config"
	"snapify/pkg/logger"
	"snapify/pkg/media"
	"snapify/pkg/scheduler"
	"snapify/pkg/state"
	"snapify/pkg/story"
	"snapify/pkg/syncer"
	"snapify/pkg/ui"
)

var (
	// Sync flags
	users         string
	baseDir       string
	monitor       bool
	interval      int
	debug         bool
	concurrent    int
	notifications bool
)

func init() {
	rootCmd.Flags().StringVarP(&users, "user", "u", "", "comma-separated username(s)")
	rootCmd.Flags().StringVarP(&baseDir, "directory", "d", "snap_media", "base download directory")
	rootCmd.Flags().BoolVarP(&monitor, "monitor", "m", false, "keep syncing at a fixed interval")
	rootCmd.Flags().IntVar(&interval, "interval", 2, "monitor interval in minutes")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "print every downloaded file and enable debug logs")
	rootCmd.Flags().IntVar(&concurrent, "concurrent", 3, "number of concurrent downloads per user")
	rootCmd.Flags().BoolVar(&notifications, "notifications", false, "send a desktop notification when new media arrives")
}

func syncFlags(cmd *cobra.Command) map[string]interface{} {
	flags := persistentFlags(cmd)
	if cmd.Flags().Changed("directory") {
		flags["base-directory"] = baseDir
	}
	if cmd.Flags().Changed("monitor") {
		flags["monitor"] = monitor
	}
	if cmd.Flags().Changed("interval") {
		flags["interval"] = interval
	}
	if cmd.Flags().Changed("debug") {
		flags["debug"] = debug
	}
	if cmd.Flags().Changed("concurrent") {
		flags["concurrent-downloads"] = concurrent
	}
	if cmd.Flags().Changed("notifications") {
		flags["notifications"] = notifications
	}
	return flags
}

func runSync(cmd *cobra.Command, args []string) error {
	usernames := syncer.ParseUsernames(users)
	if len(usernames) == 0 {
		ui.PrintError("No valid usernames provided.")
		return errUsage
	}

	cfg, err := setup(syncFlags(cmd))
	if err != nil {
		return err
	}

	ui.PrintLogo()
	log := logger.GetLogger()
	log.WithField("version", version).Info("Snapify starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := state.Open(cfg.State.Backend, cfg.State.Path, log)
	if err != nil {
		return err
	}
	defer store.Close()

	engine, err := newEngine(cfg, store, log)
	if err != nil {
		return err
	}

	var notifier *ui.Notifier
	if cfg.Notifications.Enabled {
		notifier = ui.NewNotifier()
	}
	report := func(rows []syncer.UserSyncResult) {
		ui.PrintPassSummary(os.Stdout, rows)
		if table := ui.RenderResults(rows); table != "" {
			fmt.Printf("\n%s\n\n", table)
		}
		if notifier != nil {
			notifier.NotifyPass(rows)
		}
	}

	if cfg.Monitor.Enabled {
		return runMonitor(ctx, cfg, engine, usernames, report, log)
	}

	rows, err := engine.RunPass(ctx, usernames)
	if ctx.Err() != nil {
		ui.PrintWarning("\nSync interrupted, state left unchanged.")
		return nil
	}
	report(rows)
	return err
}

func newEngine(cfg *config.Config, store state.Store, log logger.Logger) (*syncer.Engine, error) {
	client := story.NewClient(cfg.Provider, cfg.Retry, log)

	downloader := media.NewDownloader(cfg.Download, cfg.Provider.UserAgent, log)
	if cfg.Output.Debug {
		downloader.SetNotify(func(path string) {
			ui.PrintDebug("Downloaded: " + path)
		})
	}

	return syncer.New(syncer.Options{
		Fetcher:             client,
		Downloader:          downloader,
		Store:               store,
		BaseDir:             cfg.Output.BaseDirectory,
		ConcurrentFetches:   cfg.Download.ConcurrentFetches,
		ConcurrentDownloads: cfg.Download.ConcurrentDownloads,
		Logger:              log,
	})
}

func runMonitor(ctx context.Context, cfg *config.Config, engine *syncer.Engine, usernames []string, report func([]syncer.UserSyncResult), log logger.Logger) error {
	m := scheduler.NewMonitor(engine, usernames, cfg.Monitor.Interval, log)
	m.OnPass(report)
	m.OnWait(func(next time.Time) {
		ui.PrintWarning(fmt.Sprintf("Waiting %s... [next pass at %s]", formatInterval(cfg.Monitor.Interval), next.Format("15:04:05")))
	})

	err := m.Run(ctx)
	if ctx.Err() != nil {
		ui.PrintError("\nMonitor stopped by user.")
		return nil
	}
	return err
}

func formatInterval(d time.Duration) string {
	minutes := int(d / time.Minute)
	if d%time.Minute != 0 {
		return d.String()
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
