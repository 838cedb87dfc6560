package cli

import (
	"encoding/json"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adcounsel/adcounsel/internal/store"
)

var proposalsAccount string

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List pending proposals awaiting review",
	RunE:  runProposalsList,
}

var proposalsApproveCmd = &cobra.Command{
	Use:   "approve <proposal-id>",
	Short: "Approve a pending proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProposalStatus(args[0], store.ProposalApproved)
	},
}

var proposalsRejectCmd = &cobra.Command{
	Use:   "reject <proposal-id>",
	Short: "Reject a pending proposal",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setProposalStatus(args[0], store.ProposalRejected)
	},
}

func init() {
	proposalsCmd.Flags().StringVarP(&proposalsAccount, "account", "a", "", "Account identifier")
	proposalsCmd.MarkFlagRequired("account")
	proposalsCmd.AddCommand(proposalsApproveCmd)
	proposalsCmd.AddCommand(proposalsRejectCmd)
}

func runProposalsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if n, err := s.ExpireStaleProposals(); err != nil {
		return err
	} else if n > 0 {
		fmt.Printf("(%d stale proposal(s) expired)\n\n", n)
	}

	pending, err := s.ListPendingProposals(proposalsAccount)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Printf("No pending proposals for account %s.\n", proposalsAccount)
		return nil
	}

	fmt.Printf("Pending proposals for account %s:\n\n", proposalsAccount)
	for _, p := range pending {
		fmt.Printf("%s %s  priority %d  %s\n",
			riskTag(p.RiskLevel), color.CyanString(p.ProposalID), p.Priority, p.ActionType)
		fmt.Printf("   %s\n", p.ActionSummary)
		fmt.Printf("   why: %s\n", p.Reason)
		if detail := formatDetail(p.ActionDetail); detail != "" {
			fmt.Printf("   detail: %s\n", detail)
		}
		fmt.Printf("   session %s, %d iteration(s), expires %s\n\n",
			p.SessionID, p.Iterations, p.ExpiresAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func setProposalStatus(proposalID, status string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.UpdateProposalStatus(proposalID, status); err != nil {
		return err
	}
	fmt.Printf("Proposal %s is now %s.\n", proposalID, status)
	if status == store.ProposalApproved {
		fmt.Println("Note: apply the change on the ad platform and record it with the executed-action importer.")
	}
	return nil
}

// formatDetail compacts the action detail JSON for one-line display.
func formatDetail(raw string) string {
	var m map[string]any
	if err := json.Unmarshal([]byte(raw), &m); err != nil || len(m) == 0 {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
