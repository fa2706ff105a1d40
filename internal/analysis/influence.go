package analysis

import (
	"math"
	"sort"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// Connection is one voter reached during propagation
type Connection struct {
	VoterID      string             `json:"voter_id"`
	Name         string             `json:"name,omitempty"`
	Depth        int                `json:"depth"`
	ViaVoterID   string             `json:"via_voter_id"`
	RelationType types.RelationType `json:"relation_type"`
	Weight       float64            `json:"weight"`
	Contribution float64            `json:"contribution"`
}

// InfluenceAnalysis is the per-voter propagation result
type InfluenceAnalysis struct {
	VoterID          string       `json:"voter_id"`
	Name             string       `json:"name,omitempty"`
	DirectInfluence  float64      `json:"direct_influence"`
	NetworkInfluence float64      `json:"network_influence"`
	TotalInfluence   float64      `json:"total_influence"`
	ReachableVoters  int          `json:"reachable_voters"`
	Connections      []Connection `json:"connections"`
}

type queued struct {
	id    string
	depth int
}

// ComputeInfluence runs a depth-bounded BFS from voterID. Each voter is visited
// at most once; a voter first reached at depth d through an edge of weight w
// contributes w*decay^(d-1) to the network sum.
func ComputeInfluence(g *Graph, voterID string, cfg Config) (InfluenceAnalysis, error) {
	if g == nil || !g.HasVoter(voterID) {
		return InfluenceAnalysis{}, &VoterNotFoundError{VoterID: voterID}
	}

	result := InfluenceAnalysis{
		VoterID:     voterID,
		Name:        g.Name(voterID),
		Connections: []Connection{},
	}

	directSum := 0.0
	for _, e := range g.Neighbors(voterID) {
		directSum += e.Weight
	}

	visited := map[string]bool{voterID: true}
	queue := []queued{{id: voterID, depth: 0}}
	networkSum := 0.0

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.depth >= cfg.MaxTraversalDepth {
			continue
		}

		depth := cur.depth + 1
		discount := math.Pow(cfg.DecayFactor, float64(depth-1))
		for _, e := range g.Neighbors(cur.id) {
			if visited[e.Target] {
				continue
			}
			visited[e.Target] = true

			contribution := e.Weight * discount
			networkSum += contribution
			result.Connections = append(result.Connections, Connection{
				VoterID:      e.Target,
				Name:         g.Name(e.Target),
				Depth:        depth,
				ViaVoterID:   cur.id,
				RelationType: e.RelationType,
				Weight:       e.Weight,
				Contribution: contribution,
			})
			queue = append(queue, queued{id: e.Target, depth: depth})
		}
	}

	result.DirectInfluence = saturate(directSum, cfg.DirectCap)
	result.NetworkInfluence = saturate(networkSum, cfg.DirectCap)
	result.TotalInfluence = clip(
		result.DirectInfluence*cfg.DirectWeight+result.NetworkInfluence*cfg.NetworkWeight, 0, 100)
	result.ReachableVoters = len(visited) - 1

	return result, nil
}

// ComputeAllInfluence evaluates every voter in graph order
func ComputeAllInfluence(g *Graph, cfg Config) ([]InfluenceAnalysis, error) {
	out := make([]InfluenceAnalysis, 0, g.NodeCount())
	for _, id := range g.Voters() {
		ia, err := ComputeInfluence(g, id, cfg)
		if err != nil {
			return nil, err
		}
		out = append(out, ia)
	}
	return out, nil
}

// TopInfluencers ranks voters by total influence, ties by voter id ascending.
// A non-positive limit returns every voter.
func TopInfluencers(g *Graph, limit int, cfg Config) ([]InfluenceAnalysis, error) {
	all, err := ComputeAllInfluence(g, cfg)
	if err != nil {
		return nil, err
	}
	return rankInfluence(all, limit), nil
}

// rankInfluence sorts a copy of results and truncates it to limit
func rankInfluence(results []InfluenceAnalysis, limit int) []InfluenceAnalysis {
	ranked := make([]InfluenceAnalysis, len(results))
	copy(ranked, results)

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].TotalInfluence != ranked[j].TotalInfluence {
			return ranked[i].TotalInfluence > ranked[j].TotalInfluence
		}
		return ranked[i].VoterID < ranked[j].VoterID
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// saturate maps a raw sum onto [0,100], saturating at limit
func saturate(sum, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Min(math.Max(sum, 0), limit) / limit * 100
}
