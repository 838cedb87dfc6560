package cli

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/adcounsel/adcounsel/internal/agent"
)

var (
	auditAccount string
	auditFacts   string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Run one investigation session for an account",
	RunE:  runAudit,
}

func init() {
	auditCmd.Flags().StringVarP(&auditAccount, "account", "a", "", "Account identifier to audit")
	auditCmd.Flags().StringVar(&auditFacts, "facts", "", "Observations that triggered this audit (optional)")
	auditCmd.MarkFlagRequired("account")
}

func runAudit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
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

	fmt.Printf("Auditing account %s...\n", auditAccount)
	result, err := runner.Run(cmd.Context(), auditAccount, auditFacts)
	if err != nil {
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *agent.LoopResult) {
	switch {
	case result.Outcome == agent.OutcomeSubmit && len(result.Proposals) > 0:
		color.Green("Submitted %d proposal(s) for review:", len(result.Proposals))
		for _, p := range result.Proposals {
			fmt.Printf("  %s %s\n", riskTag(string(p.RiskLevel)), p.ActionSummary)
			fmt.Printf("     %s\n", p.Reason)
		}
		fmt.Println()
		fmt.Println(result.Narrative)
	case result.Outcome == agent.OutcomeSubmit:
		color.Green("No changes proposed.")
		fmt.Println(result.Narrative)
	case result.Forced:
		color.Yellow("Session force-terminated: %s", result.Reason)
	default:
		color.Green("Skipped: %s", result.Reason)
	}

	if result.InvestigationSummary != "" {
		fmt.Printf("\n%s (%d iteration(s), %d tool call(s))\n",
			result.InvestigationSummary, result.Iterations, len(result.ToolCalls))
	}
}

func riskTag(risk string) string {
	switch risk {
	case "high":
		return color.RedString("[high risk]")
	case "medium":
		return color.YellowString("[medium risk]")
	default:
		return color.GreenString("[low risk]")
	}
}
