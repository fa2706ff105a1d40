package analysis

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stanley00316/election-system-demo-sub004/internal/monitoring"
	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// DataSource is the read side of campaign storage
type DataSource interface {
	ListVoters(ctx context.Context, campaignID string) ([]types.Voter, error)
	ListRelationships(ctx context.Context, campaignID string) ([]types.VoterRelationship, error)
	// ListContacts returns contacts in [from, to]; a zero bound is open
	ListContacts(ctx context.Context, campaignID string, from, to time.Time) ([]types.Contact, error)
	ListDistricts(ctx context.Context, campaignID string) ([]types.District, error)
}

// InfluenceWriter persists recomputed influence scores
type InfluenceWriter interface {
	UpdateInfluenceScores(ctx context.Context, campaignID string, scores map[string]float64) error
}

// Analyzer orchestrates data fetch and the analytics pipeline per request
type Analyzer struct {
	source   DataSource
	settings *SettingsStore
	defaults Config
	logger   *monitoring.Logger
	now      func() time.Time
}

// NewAnalyzer creates a new analyzer. settings may be nil.
func NewAnalyzer(source DataSource, settings *SettingsStore, defaults Config, logger *monitoring.Logger) *Analyzer {
	return &Analyzer{
		source:   source,
		settings: settings,
		defaults: defaults,
		logger:   logger,
		now:      time.Now,
	}
}

// WithClock replaces the wall clock, used by tests and the offline CLI
func (a *Analyzer) WithClock(now func() time.Time) *Analyzer {
	a.now = now
	return a
}

// Now returns the analyzer's current time
func (a *Analyzer) Now() time.Time {
	return a.now()
}

// Defaults returns the process-wide defaults before campaign overrides
func (a *Analyzer) Defaults() Config {
	return a.defaults
}

// ConfigFor returns the defaults with the campaign's stored overrides applied
func (a *Analyzer) ConfigFor(campaignID string) (Config, error) {
	if a.settings == nil {
		return a.defaults, nil
	}
	overrides, err := a.settings.Load(campaignID)
	if err != nil {
		return Config{}, err
	}
	cfg := overrides.Apply(a.defaults)
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("campaign %s settings: %w", campaignID, err)
	}
	return cfg, nil
}

// fetch loads every collection for a campaign concurrently. Contacts are
// fetched up to period end so first-contact history is complete.
func (a *Analyzer) fetch(ctx context.Context, campaignID string, period Period) (ReportInput, error) {
	input := ReportInput{CampaignID: campaignID, Period: period}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		voters, err := a.source.ListVoters(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to list voters: %w", err)
		}
		input.Voters = voters
		return nil
	})
	g.Go(func() error {
		rels, err := a.source.ListRelationships(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to list relationships: %w", err)
		}
		input.Relationships = rels
		return nil
	})
	g.Go(func() error {
		contacts, err := a.source.ListContacts(gctx, campaignID, time.Time{}, period.To)
		if err != nil {
			return fmt.Errorf("failed to list contacts: %w", err)
		}
		input.Contacts = contacts
		return nil
	})
	g.Go(func() error {
		districts, err := a.source.ListDistricts(gctx, campaignID)
		if err != nil {
			return fmt.Errorf("failed to list districts: %w", err)
		}
		input.Districts = districts
		return nil
	})

	if err := g.Wait(); err != nil {
		return ReportInput{}, err
	}
	return input, nil
}

// BuildReport fetches campaign data and builds the full analytics snapshot
func (a *Analyzer) BuildReport(ctx context.Context, campaignID string, period Period) (*CampaignAnalytics, error) {
	start := time.Now()

	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return nil, aggregationFailure("config", err)
	}
	now := a.now()
	period = period.resolve(now)
	input, err := a.fetch(ctx, campaignID, period)
	if err != nil {
		return nil, err
	}

	report, err := BuildReport(input, cfg, now)
	if err != nil {
		if a.logger != nil {
			a.logger.AggregationFailureLogger(campaignID, err)
		}
		return nil, err
	}

	if a.logger != nil {
		a.logger.ReportLogger(campaignID, period.Label, report.VoterStats.TotalVoters,
			report.WinProbability.Probability, len(report.Warnings), time.Since(start))
	}
	return report, nil
}

// graph fetches voters and relationships and builds the influence graph
func (a *Analyzer) graph(ctx context.Context, campaignID string, cfg Config) (*Graph, []GraphWarning, error) {
	var (
		voters []types.Voter
		rels   []types.VoterRelationship
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		voters, err = a.source.ListVoters(gctx, campaignID)
		return err
	})
	g.Go(func() (err error) {
		rels, err = a.source.ListRelationships(gctx, campaignID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("failed to load influence graph: %w", err)
	}

	graph, warnings := BuildInfluenceGraph(voters, rels, GraphOptions{Symmetric: cfg.SymmetricEdges})
	if a.logger != nil && len(warnings) > 0 {
		a.logger.GraphWarningLogger(campaignID, warningMessages(warnings))
	}
	return graph, warnings, nil
}

// VoterInfluence computes influence for a single voter
func (a *Analyzer) VoterInfluence(ctx context.Context, campaignID, voterID string) (InfluenceAnalysis, []GraphWarning, error) {
	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return InfluenceAnalysis{}, nil, err
	}
	graph, warnings, err := a.graph(ctx, campaignID, cfg)
	if err != nil {
		return InfluenceAnalysis{}, nil, err
	}
	result, err := ComputeInfluence(graph, voterID, cfg)
	return result, warnings, err
}

// TopInfluencers ranks the campaign's voters by total influence
func (a *Analyzer) TopInfluencers(ctx context.Context, campaignID string, limit int) ([]InfluenceAnalysis, error) {
	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return nil, err
	}
	graph, _, err := a.graph(ctx, campaignID, cfg)
	if err != nil {
		return nil, err
	}
	return TopInfluencers(graph, limit, cfg)
}

// RecomputeInfluenceScores writes fresh total influence back to every voter.
// It is an explicit operation and never runs as part of a report.
func (a *Analyzer) RecomputeInfluenceScores(ctx context.Context, campaignID string, writer InfluenceWriter) (int, error) {
	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return 0, err
	}
	graph, _, err := a.graph(ctx, campaignID, cfg)
	if err != nil {
		return 0, err
	}
	all, err := ComputeAllInfluence(graph, cfg)
	if err != nil {
		return 0, err
	}

	scores := make(map[string]float64, len(all))
	for _, ia := range all {
		scores[ia.VoterID] = ia.TotalInfluence
	}
	if err := writer.UpdateInfluenceScores(ctx, campaignID, scores); err != nil {
		return 0, fmt.Errorf("failed to store influence scores: %w", err)
	}
	return len(scores), nil
}

// DistrictBreakdown aggregates one district using contact history up to period end
func (a *Analyzer) DistrictBreakdown(ctx context.Context, campaignID, districtID string, period Period) (DistrictBreakdown, []string, error) {
	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return DistrictBreakdown{}, nil, err
	}
	input, err := a.fetch(ctx, campaignID, period.resolve(a.now()))
	if err != nil {
		return DistrictBreakdown{}, nil, err
	}

	breakdown, warnings := AggregateDistrict(input.Voters, input.Contacts, districtID, cfg)
	for _, d := range input.Districts {
		if d.ID == districtID {
			breakdown.DistrictName = d.Name
			break
		}
	}
	return breakdown, warnings, nil
}

// WinProbability estimates the campaign outcome without assembling a full
// report. The result matches the report's win probability for the same period.
func (a *Analyzer) WinProbability(ctx context.Context, campaignID string, period Period) (WinProbability, error) {
	cfg, err := a.ConfigFor(campaignID)
	if err != nil {
		return WinProbability{}, err
	}
	period = period.resolve(a.now())
	input, err := a.fetch(ctx, campaignID, period)
	if err != nil {
		return WinProbability{}, err
	}

	voters, history, _, _ := campaignHistory(input, period, cfg)
	_, _, win, err := outlook(voters, history, input.Districts, period, cfg)
	return win, err
}

func warningMessages(warnings []GraphWarning) []string {
	out := make([]string, len(warnings))
	for i, w := range warnings {
		out[i] = w.Message
	}
	return out
}
