package description

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

func testStabilityConfig() StabilityConfig {
	return StabilityConfig{
		EntryPoint: 1.0,
		Directory:  0.8,
		Leaf:       0.3,
		Isolated:   0.1,
	}
}

func mkNode(id domain.NodeId, kind domain.NodeKind, relPath string) domain.GraphNode {
	return domain.GraphNode{
		ID:       id,
		Name:     relPath,
		Kind:     kind,
		Metadata: map[string]string{"relative_path": relPath},
	}
}

// mixedGraph exercises every role: a directory, an entry point, a regular
// handler, a utility, and a widely-imported core file whose in-degree
// dominates the graph (so the handler's and utility's normalized
// in-degree stays below the hub cutoff).
func mixedGraph() domain.SourceCodeGraph {
	nodes := []domain.GraphNode{
		mkNode(0, domain.NodeKindDirectory, "."),
		mkNode(1, domain.NodeKindFile, "main.go"),
		mkNode(2, domain.NodeKindFile, "handlers/server.go"),
		mkNode(3, domain.NodeKindFile, "internal/util/format.go"),
		mkNode(4, domain.NodeKindFile, "core.go"),
	}
	edges := []domain.GraphEdge{
		{ID: 0, From: 0, To: 1, Relationship: domain.RelationContains},
		{ID: 1, From: 1, To: 2, Relationship: domain.RelationImports},
		{ID: 2, From: 2, To: 3, Relationship: domain.RelationImports},
		{ID: 3, From: 1, To: 4, Relationship: domain.RelationImports},
		{ID: 4, From: 2, To: 4, Relationship: domain.RelationImports},
		{ID: 5, From: 3, To: 4, Relationship: domain.RelationImports},
	}
	return domain.SourceCodeGraph{Nodes: nodes, Edges: edges}
}

func TestGenerate_Classification(t *testing.T) {
	g := New(testStabilityConfig())
	desc := g.Generate(mixedGraph(), "demo", time.Unix(0, 0))

	byID := map[domain.NodeId]NodeConfig{}
	for _, n := range desc.Nodes {
		byID[n.ID] = n
	}

	assert.Equal(t, RoleDirectory, RoleOf(byID[0]))
	assert.Equal(t, RoleRegular, RoleOf(byID[2]))
	assert.Equal(t, RoleUtility, RoleOf(byID[3]))
	assert.Equal(t, RoleHub, RoleOf(byID[4]))
	assert.Equal(t, "hub", byID[4].Rule)

	require.NotNil(t, byID[0].Stability)
	assert.Equal(t, 0.8, *byID[0].Stability)
}

func TestGenerate_EntryPointClassification(t *testing.T) {
	// An entry point keeps its role and full stability even with outgoing
	// dependencies, and regardless of language convention.
	for _, name := range []string{"main.go", "main.rs", "lib.rs", "index.ts", "__init__.py", "app.jsx"} {
		graph := domain.SourceCodeGraph{
			Nodes: []domain.GraphNode{
				mkNode(0, domain.NodeKindFile, name),
				mkNode(1, domain.NodeKindFile, "dep.go"),
			},
			Edges: []domain.GraphEdge{
				{ID: 0, From: 0, To: 1, Relationship: domain.RelationImports},
			},
		}
		desc := New(testStabilityConfig()).Generate(graph, "demo", time.Unix(0, 0))

		require.NotEmpty(t, desc.Nodes)
		entry := desc.Nodes[0]
		assert.Equal(t, RoleEntryPoint, RoleOf(entry), "file %s", name)
		assert.Equal(t, "entry_point", entry.Rule, "file %s", name)
		require.NotNil(t, entry.Stability)
		assert.Equal(t, 1.0, *entry.Stability, "file %s", name)
	}
}

func TestGenerate_HubClassification(t *testing.T) {
	nodes := []domain.GraphNode{mkNode(0, domain.NodeKindFile, "hub.go")}
	var edges []domain.GraphEdge
	for i := 1; i <= 5; i++ {
		nodes = append(nodes, mkNode(domain.NodeId(i), domain.NodeKindFile, "importer.go"))
		edges = append(edges, domain.GraphEdge{
			ID: domain.EdgeId(i), From: domain.NodeId(i), To: 0, Relationship: domain.RelationImports,
		})
	}
	graph := domain.SourceCodeGraph{Nodes: nodes, Edges: edges}

	g := New(testStabilityConfig())
	desc := g.Generate(graph, "demo", time.Unix(0, 0))

	byID := map[domain.NodeId]NodeConfig{}
	for _, n := range desc.Nodes {
		byID[n.ID] = n
	}
	assert.Equal(t, RoleHub, RoleOf(byID[0]))
	assert.Equal(t, "hub", byID[0].Rule)
	// Importers have nothing depending on them.
	assert.Equal(t, RoleSink, RoleOf(byID[1]))
	require.NotNil(t, byID[1].Stability)
	assert.Equal(t, 0.3, *byID[1].Stability)
}

func TestGenerate_ZeroEdgeGraphAllSinks(t *testing.T) {
	graph := domain.SourceCodeGraph{
		Nodes: []domain.GraphNode{
			mkNode(0, domain.NodeKindFile, "a.go"),
			mkNode(1, domain.NodeKindFile, "b.go"),
		},
	}
	desc := New(testStabilityConfig()).Generate(graph, "demo", time.Unix(0, 0))

	for _, n := range desc.Nodes {
		assert.Equal(t, RoleSink, RoleOf(n))
		require.NotNil(t, n.Stability)
		assert.Equal(t, 0.1, *n.Stability, "a sink with no edges at all uses the isolated constant")
	}
}

func TestGenerate_DescriptionCompleteness(t *testing.T) {
	g := New(testStabilityConfig())
	desc := g.Generate(mixedGraph(), "demo", time.Unix(0, 0))

	ruleNames := map[string]bool{}
	for _, r := range desc.Rules {
		ruleNames[r.Name] = true
	}

	nodeIDs := map[domain.NodeId]bool{}
	for _, n := range desc.Nodes {
		nodeIDs[n.ID] = true
		assert.True(t, ruleNames[n.Rule], "rule %q referenced by node %d must appear in Rules", n.Rule, n.ID)
		if n.LocalRules != nil {
			for _, name := range []string{
				n.LocalRules.OnFileAdd, n.LocalRules.OnFileDelete,
				n.LocalRules.OnFileUpdate, n.LocalRules.OnChildActivationChange,
			} {
				assert.True(t, ruleNames[name], "local rule %q must appear in Rules", name)
			}
		}
	}

	graph := mixedGraph()
	for _, n := range graph.Nodes {
		assert.True(t, nodeIDs[n.ID], "every graph node must appear in description.Nodes")
	}
}

func TestGenerate_LLMRules(t *testing.T) {
	g := New(testStabilityConfig(), WithLLMRules(true))
	desc := g.Generate(mixedGraph(), "demo", time.Unix(0, 0))

	byName := map[string]RuleConfig{}
	for _, r := range desc.Rules {
		byName[r.Name] = r
	}
	hub := byName["hub"]
	assert.Equal(t, RuleTypeLLM, hub.Type)
	assert.NotEmpty(t, hub.SystemPrompt)
	assert.Equal(t, RuleTypeLLM, byName["entry_point"].Type)
	assert.Equal(t, RuleTypeLLM, byName["utility_propagation"].Type)
	// Sink, directory, and the local-rule hooks stay builtin in LLM mode.
	assert.Equal(t, RuleTypeBuiltin, byName["sink"].Type)
	assert.Equal(t, RuleTypeBuiltin, byName["directory_container"].Type)
	assert.Equal(t, RuleTypeBuiltin, byName["validate_child"].Type)
}

func TestValidate_DescriptionMismatch(t *testing.T) {
	graph := mixedGraph()
	desc := New(testStabilityConfig()).Generate(graph, "demo", time.Unix(0, 0))
	require.NoError(t, Validate(desc, graph))

	desc.Nodes = append(desc.Nodes, NodeConfig{ID: 99, Path: "ghost.go", Kind: domain.NodeKindFile})
	err := Validate(desc, graph)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrDescriptionMismatch)
}

func TestGenerate_Deterministic(t *testing.T) {
	g := New(testStabilityConfig())
	d1 := g.Generate(mixedGraph(), "demo", time.Unix(0, 0))
	d2 := g.Generate(mixedGraph(), "demo", time.Unix(0, 0))

	j1, err := json.Marshal(d1)
	require.NoError(t, err)
	j2, err := json.Marshal(d2)
	require.NoError(t, err)
	assert.JSONEq(t, string(j1), string(j2))
}

func TestIsUtilityPath_MatchesSegmentNotSubstring(t *testing.T) {
	assert.True(t, isUtilityPath("internal/util/format.go"))
	assert.True(t, isUtilityPath("pkg/helpers/strings.go"))
	assert.True(t, isUtilityPath("db_utils.py"))
	assert.False(t, isUtilityPath("internal/libretto/song.go"))
}
