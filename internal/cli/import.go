package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adcounsel/adcounsel/internal/ads"
	"github.com/adcounsel/adcounsel/internal/store"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load an account export into the local store",
	Long: "Loads a JSON export from the ad-platform sync (campaign and ad rows,\n" +
		"daily metric series, executed actions) into the local store the\n" +
		"investigation tools read from.",
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the account export JSON")
	importCmd.MarkFlagRequired("file")
}

// AccountExport is the platform-sync exchange format.
type AccountExport struct {
	AccountID       string               `json:"account_id"`
	Campaigns       []CampaignRow        `json:"campaigns"`
	Ads             []ads.AdSnapshot     `json:"ads"`
	DailyMetrics    []MetricSeries       `json:"daily_metrics"`
	ExecutedActions []ads.ExecutedAction `json:"executed_actions"`
}

// CampaignRow is one campaign in an export. Brand is a pointer so a row
// without the flag can fall back to name classification on ingest.
type CampaignRow struct {
	ads.CampaignSnapshot
	Brand *bool `json:"brand"`
}

// MetricSeries is one entity's daily series in an export.
type MetricSeries struct {
	EntityType string            `json:"entity_type"` // campaign or keyword
	EntityID   string            `json:"entity_id"`
	Metrics    []ads.DailyMetric `json:"metrics"`
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	export, err := readExport(importFile)
	if err != nil {
		return err
	}
	counts, err := loadExport(s, export)
	if err != nil {
		return err
	}
	fmt.Printf("Imported account %s: %d campaign(s), %d ad(s), %d metric day(s), %d action(s)\n",
		export.AccountID, counts.campaigns, counts.ads, counts.metrics, counts.actions)
	return nil
}

func readExport(path string) (*AccountExport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	var export AccountExport
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	if export.AccountID == "" {
		return nil, fmt.Errorf("export has no account_id")
	}
	return &export, nil
}

type importCounts struct {
	campaigns, ads, metrics, actions int
}

func loadExport(s *store.Store, export *AccountExport) (importCounts, error) {
	var c importCounts

	for _, row := range export.Campaigns {
		campaign := row.CampaignSnapshot
		if campaign.AccountID == "" {
			campaign.AccountID = export.AccountID
		}
		if row.Brand != nil {
			campaign.Brand = *row.Brand
		} else {
			campaign.Brand = ads.ClassifyBrand(campaign.Name)
		}
		if err := s.UpsertCampaignSnapshot(campaign); err != nil {
			return c, err
		}
		c.campaigns++
	}
	for _, ad := range export.Ads {
		if err := s.UpsertAdSnapshot(export.AccountID, ad); err != nil {
			return c, err
		}
		c.ads++
	}
	for _, series := range export.DailyMetrics {
		if series.EntityType != store.EntityCampaign && series.EntityType != store.EntityKeyword {
			return c, fmt.Errorf("unknown entity_type %q in daily_metrics", series.EntityType)
		}
		for _, m := range series.Metrics {
			if err := s.InsertDailyMetric(series.EntityType, series.EntityID, m); err != nil {
				return c, err
			}
			c.metrics++
		}
	}
	for _, action := range export.ExecutedActions {
		if action.AccountID == "" {
			action.AccountID = export.AccountID
		}
		if err := s.InsertExecutedAction(action); err != nil {
			return c, err
		}
		c.actions++
	}
	return c, nil
}
