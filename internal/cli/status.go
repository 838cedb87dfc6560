package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show engine state: store, sessions run, pending queue",
	RunE:  runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("store: %s\n", cfg.Paths.StorePath)

	total, err := s.GetSetting("sessions_run_total")
	if err != nil {
		return err
	}
	if total == "" {
		total = "0"
	}
	fmt.Printf("sessions run: %s\n", total)

	if len(cfg.Scheduler.Accounts) == 0 {
		fmt.Println("no scheduled accounts configured")
		return nil
	}
	for _, account := range cfg.Scheduler.Accounts {
		pending, err := s.ListPendingProposals(account)
		if err != nil {
			return err
		}
		line := fmt.Sprintf("account %s: %d pending proposal(s)", account, len(pending))
		if len(pending) > 0 {
			color.Yellow(line)
		} else {
			fmt.Println(line)
		}
		if last, _ := s.GetSetting("last_audit_" + account); last != "" {
			fmt.Printf("  last scheduled audit: %s\n", last)
		}
	}
	return nil
}
