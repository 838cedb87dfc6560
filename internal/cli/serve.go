package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/adcounsel/adcounsel/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit scheduler daemon",
	Long:  "Runs recurring audits for the accounts listed in scheduler.accounts on the configured cron expression.",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if len(cfg.Scheduler.Accounts) == 0 {
		return fmt.Errorf("no accounts configured; set scheduler.accounts in config")
	}

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runner, err := newRunner(cfg, s)
	if err != nil {
		return err
	}

	cron, err := scheduler.ParseCron(cfg.Scheduler.Cron)
	if err != nil {
		return fmt.Errorf("scheduler.cron: %w", err)
	}

	sched := scheduler.New(scheduler.Config{
		TickInterval: cfg.Scheduler.TickInterval,
		LockPath:     cfg.Scheduler.LockPath,
	}, runner, s)
	for _, account := range cfg.Scheduler.Accounts {
		sched.Register(&scheduler.Job{AccountID: account, Cron: cron})
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Scheduler running: %d account(s) on %q. Ctrl-C to stop.\n",
		len(cfg.Scheduler.Accounts), cfg.Scheduler.Cron)
	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
