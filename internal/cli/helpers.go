package cli

import (
	"fmt"

	"github.com/adcounsel/adcounsel/internal/agent"
	"github.com/adcounsel/adcounsel/internal/config"
	"github.com/adcounsel/adcounsel/internal/notify"
	"github.com/adcounsel/adcounsel/internal/provider"
	"github.com/adcounsel/adcounsel/internal/store"
)

// loadConfig loads the config file, falling back to env and defaults.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func openStore(cfg *config.Config) (*store.Store, error) {
	s, err := store.New(cfg.Paths.StorePath)
	if err != nil {
		return nil, fmt.Errorf("open store at %s: %w", cfg.Paths.StorePath, err)
	}
	return s, nil
}

// newRunner wires a session runner from config: provider, store, notifier.
func newRunner(cfg *config.Config, s *store.Store) (*agent.Runner, error) {
	if cfg.Provider.APIKey == "" {
		return nil, fmt.Errorf("no provider API key configured; set ADCOUNSEL_API_KEY or provider.apiKey in config")
	}
	r := &agent.Runner{
		Store:    s,
		Provider: provider.NewOpenAIProvider(cfg.Provider.APIKey, cfg.Provider.APIBase, cfg.Provider.Model),
		Config:   *cfg,
	}
	if cfg.Slack.Enabled {
		r.Notifier = notify.NewSlackNotifier(cfg.Slack.Token, cfg.Slack.Channel)
	}
	return r, nil
}
