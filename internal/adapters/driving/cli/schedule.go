package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gitseek/gitseek-cli/internal/adapters/driven/storage/sqlite"
	"github.com/gitseek/gitseek-cli/internal/adapters/driven/watch"
	"github.com/gitseek/gitseek-cli/internal/core/domain"
	"github.com/gitseek/gitseek-cli/internal/core/services"
	"github.com/gitseek/gitseek-cli/internal/logger"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run periodic index rebuilds",
	Long: `Starts the scheduler and rebuilds indexes on the configured interval.
When a local checkout is configured, its working tree is watched and a
change triggers an early rebuild. Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	if err := initServices(); err != nil {
		return err
	}
	if buildService == nil {
		return errors.New("build service not configured")
	}

	store, err := sqlite.NewStore("")
	if err != nil {
		return err
	}
	defer store.Close()

	scheduler := services.NewScheduler(settingsService.SchedulerConfig(), store.SchedulerStore(), buildService)

	if checkout := appSettings.LocalCheckout; checkout != "" {
		watcher, err := watch.NewWatcher(checkout, func() {
			logger.Info("Checkout changed, scheduling rebuild")
			scheduler.Kick(domain.TaskIDIndexBuild)
		})
		if err != nil {
			logger.Warn("Checkout watching unavailable: %v", err)
		} else if err := watcher.Start(); err != nil {
			logger.Warn("Checkout watching unavailable: %v", err)
			watcher.Close()
		} else {
			defer watcher.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Println("Scheduler running. Press Ctrl+C to stop.")
	go func() {
		<-ctx.Done()
		scheduler.Stop()
	}()
	return scheduler.Start(ctx)
}
