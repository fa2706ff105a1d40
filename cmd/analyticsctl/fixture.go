package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stanley00316/election-system-demo-sub004/internal/analysis"
)

// fixture is a campaign snapshot on disk. JSON files parse as YAML.
type fixture struct {
	analysis.ReportInput `yaml:",inline"`
	Settings             *analysis.CampaignSettings `yaml:"settings,omitempty"`
}

func loadFixture(path string) (*fixture, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if f.CampaignID == "" {
		f.CampaignID = "fixture"
	}
	return &f, nil
}

// config layers the fixture's settings on the package defaults
func (f *fixture) config() (analysis.Config, error) {
	cfg := f.Settings.Apply(analysis.DefaultConfig())
	if err := cfg.Validate(); err != nil {
		return analysis.Config{}, fmt.Errorf("fixture settings: %w", err)
	}
	return cfg, nil
}

func (f *fixture) graph(cfg analysis.Config) (*analysis.Graph, []string) {
	g, warnings := analysis.BuildInfluenceGraph(f.Voters, f.Relationships,
		analysis.GraphOptions{Symmetric: cfg.SymmetricEdges})
	messages := make([]string, 0, len(warnings))
	for _, w := range warnings {
		messages = append(messages, w.Message)
	}
	return g, messages
}
