package analysis

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanley00316/election-system-demo-sub004/internal/types"
)

func voters(ids ...string) []types.Voter {
	out := make([]types.Voter, len(ids))
	for i, id := range ids {
		out[i] = types.Voter{ID: id, Name: "name-" + id, Stance: types.StanceNeutral}
	}
	return out
}

func rel(id, src, dst string, weight float64) types.VoterRelationship {
	return types.VoterRelationship{
		ID:              id,
		SourceVoterID:   src,
		TargetVoterID:   dst,
		RelationType:    types.RelationFriend,
		InfluenceWeight: weight,
	}
}

func TestBuildInfluenceGraph_Basic(t *testing.T) {
	g, warnings := BuildInfluenceGraph(voters("a", "b", "c"), []types.VoterRelationship{
		rel("r1", "a", "b", 50),
		rel("r2", "a", "c", 30),
	}, GraphOptions{})

	assert.Empty(t, warnings)
	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"a", "b", "c"}, g.Voters())

	neighbors := g.Neighbors("a")
	require.Len(t, neighbors, 2)
	assert.Equal(t, "b", neighbors[0].Target, "insertion order is kept")
	assert.Equal(t, "c", neighbors[1].Target)
	assert.Empty(t, g.Neighbors("b"), "edges are directed by default")
}

func TestBuildInfluenceGraph_DanglingReference(t *testing.T) {
	g, warnings := BuildInfluenceGraph(voters("a", "b"), []types.VoterRelationship{
		rel("r1", "a", "b", 50),
		rel("r2", "a", "ghost", 50),
	}, GraphOptions{})

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDanglingReference, warnings[0].Kind)
	assert.Equal(t, "r2", warnings[0].RelationshipID)

	var dangling *DanglingReferenceError
	require.True(t, errors.As(warnings[0].Err, &dangling))
	assert.Equal(t, "ghost", dangling.MissingVoterID)

	assert.Equal(t, 1, g.EdgeCount())
	assert.False(t, g.HasVoter("ghost"))
}

func TestBuildInfluenceGraph_SoftDeletedVoterIsDangling(t *testing.T) {
	deleted := time.Now()
	vs := voters("a", "b")
	vs[1].DeletedAt = &deleted

	g, warnings := BuildInfluenceGraph(vs, []types.VoterRelationship{rel("r1", "a", "b", 50)}, GraphOptions{})

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDanglingReference, warnings[0].Kind)
	assert.Equal(t, 1, g.NodeCount())
}

func TestBuildInfluenceGraph_EdgePolicies(t *testing.T) {
	tests := []struct {
		name      string
		rels      []types.VoterRelationship
		wantKind  WarningKind
		wantEdges int
		check     func(t *testing.T, g *Graph)
	}{
		{
			name:      "duplicate keeps first edge",
			rels:      []types.VoterRelationship{rel("r1", "a", "b", 20), rel("r2", "a", "b", 90)},
			wantKind:  WarningDuplicateEdge,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				assert.Equal(t, 20.0, g.Neighbors("a")[0].Weight)
			},
		},
		{
			name:      "self loop skipped",
			rels:      []types.VoterRelationship{rel("r1", "a", "a", 20)},
			wantKind:  WarningSelfLoop,
			wantEdges: 0,
		},
		{
			name:      "NaN weight skipped",
			rels:      []types.VoterRelationship{rel("r1", "a", "b", math.NaN())},
			wantKind:  WarningInvalidWeight,
			wantEdges: 0,
		},
		{
			name:      "infinite weight skipped",
			rels:      []types.VoterRelationship{rel("r1", "a", "b", math.Inf(1))},
			wantKind:  WarningInvalidWeight,
			wantEdges: 0,
		},
		{
			name:      "invalid weight does not block a later edge",
			rels:      []types.VoterRelationship{rel("r1", "a", "b", math.Inf(-1)), rel("r2", "a", "b", 40)},
			wantKind:  WarningInvalidWeight,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				assert.Equal(t, "r2", g.Neighbors("a")[0].RelationshipID)
			},
		},
		{
			name:      "weight clamped",
			rels:      []types.VoterRelationship{rel("r1", "a", "b", 140)},
			wantKind:  WarningWeightClamped,
			wantEdges: 1,
			check: func(t *testing.T, g *Graph) {
				assert.Equal(t, 100.0, g.Neighbors("a")[0].Weight)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, warnings := BuildInfluenceGraph(voters("a", "b"), tt.rels, GraphOptions{})
			require.Len(t, warnings, 1)
			assert.Equal(t, tt.wantKind, warnings[0].Kind)
			assert.Equal(t, tt.wantEdges, g.EdgeCount())
			if tt.check != nil {
				tt.check(t, g)
			}
		})
	}
}

func TestBuildInfluenceGraph_Symmetric(t *testing.T) {
	g, warnings := BuildInfluenceGraph(voters("a", "b", "c"), []types.VoterRelationship{
		rel("r1", "a", "b", 60),
		rel("r3", "a", "c", 30),
	}, GraphOptions{Symmetric: true})

	assert.Empty(t, warnings)
	assert.Equal(t, 4, g.EdgeCount())
	require.Len(t, g.Neighbors("b"), 1)
	assert.Equal(t, "a", g.Neighbors("b")[0].Target)
	assert.Equal(t, 60.0, g.Neighbors("b")[0].Weight)
	assert.Equal(t, "r1", g.Neighbors("b")[0].RelationshipID)
}

func TestBuildInfluenceGraph_SymmetricExplicitReverse(t *testing.T) {
	g, warnings := BuildInfluenceGraph(voters("a", "b"), []types.VoterRelationship{
		rel("r1", "a", "b", 60),
		rel("r2", "b", "a", 10),
	}, GraphOptions{Symmetric: true})

	assert.Empty(t, warnings, "an explicit reverse edge is not a duplicate of the mirror")
	assert.Equal(t, 2, g.EdgeCount())

	require.Len(t, g.Neighbors("b"), 1)
	assert.Equal(t, "r2", g.Neighbors("b")[0].RelationshipID)
	assert.Equal(t, 10.0, g.Neighbors("b")[0].Weight)
	require.Len(t, g.Neighbors("a"), 1)
	assert.Equal(t, 60.0, g.Neighbors("a")[0].Weight)
}

func TestBuildInfluenceGraph_SymmetricRepeatedExplicitEdge(t *testing.T) {
	_, warnings := BuildInfluenceGraph(voters("a", "b"), []types.VoterRelationship{
		rel("r1", "a", "b", 60),
		rel("r2", "b", "a", 10),
		rel("r3", "b", "a", 20),
	}, GraphOptions{Symmetric: true})

	require.Len(t, warnings, 1)
	assert.Equal(t, WarningDuplicateEdge, warnings[0].Kind)
	assert.Equal(t, "r3", warnings[0].RelationshipID)
}
