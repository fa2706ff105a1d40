package analysis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var campaignIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// CampaignSettings holds per-campaign overrides. Nil fields keep the default.
type CampaignSettings struct {
	TurnoutAssumption      *float64 `json:"turnout_assumption,omitempty" yaml:"turnout_assumption,omitempty"`
	VotesNeeded            *int     `json:"votes_needed,omitempty" yaml:"votes_needed,omitempty"`
	MinSampleSize          *int     `json:"min_sample_size,omitempty" yaml:"min_sample_size,omitempty"`
	DecayFactor            *float64 `json:"decay_factor,omitempty" yaml:"decay_factor,omitempty"`
	MaxTraversalDepth      *int     `json:"max_traversal_depth,omitempty" yaml:"max_traversal_depth,omitempty"`
	SymmetricEdges         *bool    `json:"symmetric_edges,omitempty" yaml:"symmetric_edges,omitempty"`
	UnknownStanceAsNeutral *bool    `json:"unknown_stance_as_neutral,omitempty" yaml:"unknown_stance_as_neutral,omitempty"`
}

// Apply layers the overrides on top of cfg
func (s *CampaignSettings) Apply(cfg Config) Config {
	if s == nil {
		return cfg
	}
	if s.TurnoutAssumption != nil {
		cfg.TurnoutAssumption = *s.TurnoutAssumption
	}
	if s.VotesNeeded != nil {
		cfg.VotesNeeded = *s.VotesNeeded
	}
	if s.MinSampleSize != nil {
		cfg.MinSampleSize = *s.MinSampleSize
	}
	if s.DecayFactor != nil {
		cfg.DecayFactor = *s.DecayFactor
	}
	if s.MaxTraversalDepth != nil {
		cfg.MaxTraversalDepth = *s.MaxTraversalDepth
	}
	if s.SymmetricEdges != nil {
		cfg.SymmetricEdges = *s.SymmetricEdges
	}
	if s.UnknownStanceAsNeutral != nil {
		cfg.UnknownStanceAsNeutral = *s.UnknownStanceAsNeutral
	}
	return cfg
}

// SettingsStore keeps campaign overrides as JSON files under dataDir/campaigns
type SettingsStore struct {
	dataDir string
	mu      sync.RWMutex
}

// NewSettingsStore creates a new settings store
func NewSettingsStore(dataDir string) *SettingsStore {
	return &SettingsStore{dataDir: dataDir}
}

func (s *SettingsStore) path(campaignID string) (string, error) {
	if !campaignIDPattern.MatchString(campaignID) {
		return "", fmt.Errorf("invalid campaign id %q", campaignID)
	}
	return filepath.Join(s.dataDir, "campaigns", campaignID+".json"), nil
}

// Load returns the stored overrides, or empty settings if none were saved
func (s *SettingsStore) Load(campaignID string) (*CampaignSettings, error) {
	filePath, err := s.path(campaignID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	file, err := os.Open(filePath)
	if os.IsNotExist(err) {
		return &CampaignSettings{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open settings file: %w", err)
	}
	defer file.Close()

	var settings CampaignSettings
	if err := json.NewDecoder(file).Decode(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode campaign settings: %w", err)
	}

	return &settings, nil
}

// Save validates the overrides against defaults before writing them
func (s *SettingsStore) Save(campaignID string, settings *CampaignSettings, defaults Config) error {
	filePath, err := s.path(campaignID)
	if err != nil {
		return err
	}
	if err := settings.Apply(defaults).Validate(); err != nil {
		return fmt.Errorf("invalid campaign settings: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	tmp := filePath + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(settings); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode campaign settings: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close settings file: %w", err)
	}

	return os.Rename(tmp, filePath)
}
