package graphbuild

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/scanner"
)

func content(s string) *string { return &s }

func singleRepoDescriptor(name string, sources []scanner.Source) scanner.ProjectDescriptor {
	return scanner.ProjectDescriptor{
		Name:   name,
		Source: scanner.SingleRepo,
		Repositories: []scanner.Repository{
			{Name: name, LocalPath: "/ws/" + name, Sources: sources},
		},
	}
}

func TestBuild_DirectoryHierarchy(t *testing.T) {
	desc := singleRepoDescriptor("proj", []scanner.Source{
		{AbsolutePath: "/ws/proj/main.go", RelativePath: "main.go", Format: scanner.FormatText},
		{AbsolutePath: "/ws/proj/pkg/util/helper.go", RelativePath: "pkg/util/helper.go", Format: scanner.FormatText},
	})

	graph, err := New().Build(desc)
	require.NoError(t, err)
	require.NoError(t, graph.Validate())

	var dirPaths []string
	for _, n := range graph.Nodes {
		if n.Kind == domain.NodeKindDirectory {
			dirPaths = append(dirPaths, n.Metadata["relative_path"])
		}
	}
	assert.Contains(t, dirPaths, "")
	assert.Contains(t, dirPaths, "pkg")
	assert.Contains(t, dirPaths, "pkg/util")

	containsCount := 0
	for _, e := range graph.Edges {
		if e.Relationship == domain.RelationContains {
			containsCount++
		}
	}
	// root->pkg, pkg->pkg/util, root->main.go, pkg/util->helper.go
	assert.Equal(t, 4, containsCount)
}

func TestBuild_NoDuplicateContainsEdges(t *testing.T) {
	desc := singleRepoDescriptor("proj", []scanner.Source{
		{AbsolutePath: "/ws/proj/a/x.go", RelativePath: "a/x.go", Format: scanner.FormatText},
		{AbsolutePath: "/ws/proj/a/y.go", RelativePath: "a/y.go", Format: scanner.FormatText},
	})

	graph, err := New().Build(desc)
	require.NoError(t, err)
	assert.NoError(t, graph.Validate())
}

func TestBuild_ReferenceResolution_LongestSuffix(t *testing.T) {
	desc := singleRepoDescriptor("proj", []scanner.Source{
		{
			AbsolutePath: "/ws/proj/main.go", RelativePath: "main.go", Format: scanner.FormatText,
			Content: content("package main\n\nimport \"proj/pkg/util/util\"\n"),
		},
		{AbsolutePath: "/ws/proj/pkg/util/util.go", RelativePath: "pkg/util/util.go", Format: scanner.FormatText, Content: content("package util")},
		{AbsolutePath: "/ws/proj/other/util/util.go", RelativePath: "other/util/util.go", Format: scanner.FormatText, Content: content("package util")},
	})

	graph, err := New().Build(desc)
	require.NoError(t, err)

	var mainID, pkgUtilID domain.NodeId
	for _, n := range graph.Nodes {
		switch n.Metadata["relative_path"] {
		case "main.go":
			mainID = n.ID
		case "pkg/util/util.go":
			pkgUtilID = n.ID
		}
	}

	found := false
	for _, e := range graph.Edges {
		if e.From == mainID && e.Relationship == domain.RelationImports {
			found = true
			assert.Equal(t, pkgUtilID, e.To, "should resolve to longest-suffix match pkg/util/util.go")
		}
	}
	assert.True(t, found, "expected an import edge from main.go")
}

func TestBuild_SkipsSelfLoop(t *testing.T) {
	desc := singleRepoDescriptor("proj", []scanner.Source{
		{
			AbsolutePath: "/ws/proj/main.go", RelativePath: "main.go", Format: scanner.FormatText,
			Content: content("import \"proj/main\"\n"),
		},
	})

	graph, err := New().Build(desc)
	require.NoError(t, err)
	for _, e := range graph.Edges {
		assert.NotEqual(t, e.From, e.To, "self-loops must be skipped")
	}
}

func TestBuild_TestMarkerMetadata(t *testing.T) {
	desc := singleRepoDescriptor("proj", []scanner.Source{
		{AbsolutePath: "/ws/proj/foo_test.go", RelativePath: "foo_test.go", Format: scanner.FormatText, Content: content("func TestFoo(t *testing.T) {}")},
		{AbsolutePath: "/ws/proj/foo.go", RelativePath: "foo.go", Format: scanner.FormatText, Content: content("package proj")},
	})

	graph, err := New().Build(desc)
	require.NoError(t, err)

	for _, n := range graph.Nodes {
		switch n.Metadata["relative_path"] {
		case "foo_test.go":
			assert.Equal(t, "true", n.Metadata["has_tests"])
		case "foo.go":
			assert.NotContains(t, n.Metadata, "has_tests")
		}
	}
}

func TestBuild_MultiRepoIncludesEmptyRepoRoot(t *testing.T) {
	desc := scanner.ProjectDescriptor{
		Name:      "workspace",
		Source:    scanner.MultiRepo,
		RepoCount: 2,
		Repositories: []scanner.Repository{
			{Name: "svc-a", LocalPath: "/ws/workspace/svc-a", Sources: []scanner.Source{
				{AbsolutePath: "/ws/workspace/svc-a/main.go", RelativePath: "svc-a/main.go", Format: scanner.FormatText},
			}},
			{Name: "svc-b", LocalPath: "/ws/workspace/svc-b"}, // no sources
		},
	}

	graph, err := New().Build(desc)
	require.NoError(t, err)

	var dirPaths []string
	for _, n := range graph.Nodes {
		if n.Kind == domain.NodeKindDirectory {
			dirPaths = append(dirPaths, n.Metadata["relative_path"])
		}
	}
	assert.Contains(t, dirPaths, "svc-a")
	assert.Contains(t, dirPaths, "svc-b", "repository roots must be emitted even with zero sources")
}

func TestSuffixMatchLength(t *testing.T) {
	cases := []struct {
		candidate, route string
		want             int
	}{
		{"pkg/util/util.go", "proj/pkg/util", 1},
		{"a/b/c.go", "x/c", 1},
		{"a/b/c.go", "z/y/x", 0},
	}
	for _, tc := range cases {
		got := suffixMatchLength(pathSegments(tc.candidate), pathSegments(tc.route))
		assert.Equal(t, tc.want, got, "candidate=%s route=%s", tc.candidate, tc.route)
	}
}
