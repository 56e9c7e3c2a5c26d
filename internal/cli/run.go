package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/fleet-expiry-guardian/internal/scheduler"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run alert generation on the configured schedule",
	Long: `Run the scheduler in the foreground until interrupted. Triggers that fire
while a run is still in progress are skipped.`,
	RunE: runScheduler,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("schedule", "", "Override the cron schedule (e.g. \"@every 1h\")")
}

func runScheduler(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if s, _ := cmd.Flags().GetString("schedule"); s != "" {
		a.cfg.Scheduler.Schedule = s
	}

	runner, err := a.newRunner()
	if err != nil {
		return err
	}
	sched, err := scheduler.New(runner, a.cfg.Scheduler.Schedule, a.cfg.Scheduler.RunOnStart, a.logger)
	if err != nil {
		return err
	}
	return sched.Start(ctx)
}
