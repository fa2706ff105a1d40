package analysis

import (
	"fmt"
	"math"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

// WarningKind classifies a recovered graph-build problem
type WarningKind string

const (
	WarningDanglingReference WarningKind = "dangling_reference"
	WarningDuplicateEdge     WarningKind = "duplicate_edge"
	WarningSelfLoop          WarningKind = "self_loop"
	WarningWeightClamped     WarningKind = "weight_clamped"
	WarningInvalidWeight     WarningKind = "invalid_weight"
)

// GraphWarning is a per-edge problem that was skipped or corrected instead of
// aborting the build.
type GraphWarning struct {
	Kind           WarningKind `json:"kind"`
	RelationshipID string      `json:"relationship_id"`
	Message        string      `json:"message"`
	Err            error       `json:"-"`
}

// Edge is an outgoing adjacency entry
type Edge struct {
	RelationshipID string             `json:"relationship_id"`
	Target         string             `json:"target"`
	RelationType   types.RelationType `json:"relation_type"`
	Weight         float64            `json:"weight"`
}

// GraphOptions controls edge interpretation
type GraphOptions struct {
	// Symmetric adds the reverse of every stored edge. An explicit reverse
	// relationship replaces the synthesized one.
	Symmetric bool
}

// Graph is an immutable weighted influence graph keyed by voter id. Adjacency
// lists keep relationship insertion order so traversal is reproducible.
type Graph struct {
	order     []string
	names     map[string]string
	adjacency map[string][]Edge
	edgeCount int
}

type edgeKey struct {
	source, target string
	relation       types.RelationType
}

// BuildInfluenceGraph builds the graph in O(V+E). Voters that are soft-deleted
// are left out, so edges touching them are reported as dangling.
func BuildInfluenceGraph(voters []types.Voter, relationships []types.VoterRelationship, opts GraphOptions) (*Graph, []GraphWarning) {
	g := &Graph{
		order:     make([]string, 0, len(voters)),
		names:     make(map[string]string, len(voters)),
		adjacency: make(map[string][]Edge, len(voters)),
	}
	for _, v := range voters {
		if !v.Active() {
			continue
		}
		if _, exists := g.names[v.ID]; exists {
			continue
		}
		g.order = append(g.order, v.ID)
		g.names[v.ID] = v.Name
	}

	var warnings []GraphWarning
	seen := make(map[edgeKey]bool, len(relationships))
	// synthesized reverse edges, by position in the source adjacency list
	mirrors := make(map[edgeKey]int)

	for _, rel := range relationships {
		if missing := g.missingEndpoint(rel); missing != "" {
			err := &DanglingReferenceError{
				RelationshipID: rel.ID,
				SourceVoterID:  rel.SourceVoterID,
				TargetVoterID:  rel.TargetVoterID,
				MissingVoterID: missing,
			}
			warnings = append(warnings, GraphWarning{
				Kind:           WarningDanglingReference,
				RelationshipID: rel.ID,
				Message:        err.Error(),
				Err:            err,
			})
			continue
		}

		if rel.SourceVoterID == rel.TargetVoterID {
			warnings = append(warnings, GraphWarning{
				Kind:           WarningSelfLoop,
				RelationshipID: rel.ID,
				Message:        fmt.Sprintf("relationship %s links voter %s to itself", rel.ID, rel.SourceVoterID),
			})
			continue
		}

		if math.IsNaN(rel.InfluenceWeight) || math.IsInf(rel.InfluenceWeight, 0) {
			warnings = append(warnings, GraphWarning{
				Kind:           WarningInvalidWeight,
				RelationshipID: rel.ID,
				Message:        fmt.Sprintf("relationship %s has non-finite weight %v; edge skipped", rel.ID, rel.InfluenceWeight),
			})
			continue
		}

		key := edgeKey{rel.SourceVoterID, rel.TargetVoterID, rel.RelationType}
		if seen[key] {
			warnings = append(warnings, GraphWarning{
				Kind:           WarningDuplicateEdge,
				RelationshipID: rel.ID,
				Message: fmt.Sprintf("relationship %s duplicates %s -> %s (%s); first edge kept",
					rel.ID, rel.SourceVoterID, rel.TargetVoterID, rel.RelationType),
			})
			continue
		}
		seen[key] = true

		weight := rel.InfluenceWeight
		if clamped := clip(weight, 0, 100); clamped != weight {
			warnings = append(warnings, GraphWarning{
				Kind:           WarningWeightClamped,
				RelationshipID: rel.ID,
				Message:        fmt.Sprintf("relationship %s weight %v clamped to %v", rel.ID, weight, clamped),
			})
			weight = clamped
		}

		edge := Edge{
			RelationshipID: rel.ID,
			Target:         rel.TargetVoterID,
			RelationType:   rel.RelationType,
			Weight:         weight,
		}
		if idx, ok := mirrors[key]; ok {
			g.adjacency[rel.SourceVoterID][idx] = edge
			delete(mirrors, key)
			continue
		}
		g.addEdge(rel.SourceVoterID, edge)

		if opts.Symmetric {
			reverse := edgeKey{rel.TargetVoterID, rel.SourceVoterID, rel.RelationType}
			if !seen[reverse] {
				mirrors[reverse] = len(g.adjacency[rel.TargetVoterID])
				g.addEdge(rel.TargetVoterID, Edge{
					RelationshipID: rel.ID,
					Target:         rel.SourceVoterID,
					RelationType:   rel.RelationType,
					Weight:         weight,
				})
			}
		}
	}

	return g, warnings
}

func (g *Graph) missingEndpoint(rel types.VoterRelationship) string {
	if _, ok := g.names[rel.SourceVoterID]; !ok {
		return rel.SourceVoterID
	}
	if _, ok := g.names[rel.TargetVoterID]; !ok {
		return rel.TargetVoterID
	}
	return ""
}

func (g *Graph) addEdge(source string, e Edge) {
	g.adjacency[source] = append(g.adjacency[source], e)
	g.edgeCount++
}

// HasVoter reports whether the voter is a node of the graph
func (g *Graph) HasVoter(id string) bool {
	_, ok := g.names[id]
	return ok
}

// Name returns the display name recorded for a voter
func (g *Graph) Name(id string) string {
	return g.names[id]
}

// Neighbors returns outgoing edges in insertion order. The slice must not be modified.
func (g *Graph) Neighbors(id string) []Edge {
	return g.adjacency[id]
}

// Voters returns node ids in voter input order
func (g *Graph) Voters() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Graph) NodeCount() int { return len(g.order) }

func (g *Graph) EdgeCount() int { return g.edgeCount }
