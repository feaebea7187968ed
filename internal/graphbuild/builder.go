// Package graphbuild turns a scanned project descriptor into a frozen
// domain.SourceCodeGraph: directory/file nodes, hierarchy edges, and
// regex-detected reference edges resolved by longest path-suffix match.
package graphbuild

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/chronograph-dev/chronograph/internal/domain"
	"github.com/chronograph-dev/chronograph/internal/scanner"
)

// Options configures a Builder.
type Options struct {
	// MaxContentSizeKB bounds which sources are eligible for reference
	// extraction, independent of the scanner's own content-expansion
	// threshold (a source with nil Content is always skipped regardless).
	MaxContentSizeKB int64
}

// Option is a functional option for Options.
type Option func(*Options)

// DefaultOptions returns Options with the default content threshold.
func DefaultOptions() Options {
	return Options{MaxContentSizeKB: 1024}
}

// WithMaxContentSizeKB overrides the reference-extraction size threshold.
func WithMaxContentSizeKB(kb int64) Option {
	return func(o *Options) { o.MaxContentSizeKB = kb }
}

// Builder constructs a SourceCodeGraph from a scanner.ProjectDescriptor.
type Builder struct {
	opts Options
}

// New creates a Builder with the given options applied over the defaults.
func New(opts ...Option) *Builder {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Builder{opts: o}
}

type fileEntry struct {
	relPath  string
	absPath  string
	repoName string
	content  *string
}

// Build constructs a SourceCodeGraph in a fixed emission order:
// directories first, then files, then contains edges, then reference
// edges, then test-marker metadata. NodeIds are dense and assigned in
// that order, so identical descriptors build identical graphs.
func (b *Builder) Build(desc scanner.ProjectDescriptor) (domain.SourceCodeGraph, error) {
	workspaceRoot := workspaceRootOf(desc)

	dirSet := map[string]bool{"": true}
	var files []fileEntry

	for _, repo := range desc.Repositories {
		repoRel := relPath(workspaceRoot, repo.LocalPath)
		markAncestors(dirSet, repoRel)
		dirSet[repoRel] = true

		for _, src := range repo.Sources {
			rel := src.RelativePath
			markAncestors(dirSet, rel)
			files = append(files, fileEntry{
				relPath:  rel,
				absPath:  src.AbsolutePath,
				repoName: repo.Name,
				content:  src.Content,
			})
		}
	}

	sortedDirs := make([]string, 0, len(dirSet))
	for d := range dirSet {
		sortedDirs = append(sortedDirs, d)
	}
	sort.Strings(sortedDirs)

	sort.Slice(files, func(i, j int) bool { return files[i].relPath < files[j].relPath })

	var nodes []domain.GraphNode
	dirNodeID := make(map[string]domain.NodeId, len(sortedDirs))

	for _, d := range sortedDirs {
		id := domain.NodeId(len(nodes))
		dirNodeID[d] = id
		name := desc.Name
		if d != "" {
			name = filepath.Base(d)
		}
		nodes = append(nodes, domain.GraphNode{
			ID:   id,
			Name: name,
			Kind: domain.NodeKindDirectory,
			Metadata: map[string]string{
				"path":          filepath.Join(workspaceRoot, filepath.FromSlash(d)),
				"relative_path": d,
			},
		})
	}

	fileNodeID := make(map[string]domain.NodeId, len(files))
	for _, f := range files {
		id := domain.NodeId(len(nodes))
		fileNodeID[f.relPath] = id
		meta := map[string]string{
			"path":          f.absPath,
			"relative_path": f.relPath,
			"extension":     strings.TrimPrefix(filepath.Ext(f.relPath), "."),
		}
		nodes = append(nodes, domain.GraphNode{
			ID:       id,
			Name:     filepath.Base(f.relPath),
			Kind:     domain.NodeKindFile,
			Metadata: meta,
		})
	}

	var edges []domain.GraphEdge
	nextEdgeID := func() domain.EdgeId { return domain.EdgeId(len(edges)) }

	// Directory -> directory contains edges.
	for _, d := range sortedDirs {
		if d == "" {
			continue
		}
		parent := parentOf(d)
		if parentID, ok := dirNodeID[parent]; ok {
			edges = append(edges, domain.GraphEdge{
				ID: nextEdgeID(), From: parentID, To: dirNodeID[d], Relationship: domain.RelationContains,
			})
		}
	}

	// Directory -> file contains edges.
	for _, f := range files {
		parent := parentOf(f.relPath)
		if parentID, ok := dirNodeID[parent]; ok {
			edges = append(edges, domain.GraphEdge{
				ID: nextEdgeID(), From: parentID, To: fileNodeID[f.relPath], Relationship: domain.RelationContains,
			})
		}
	}

	// Reference edges: regex extraction, then longest-suffix resolution.
	for _, f := range files {
		if f.content == nil {
			continue
		}
		if limit := b.opts.MaxContentSizeKB * 1024; limit > 0 && int64(len(*f.content)) > limit {
			continue
		}
		ext := filepath.Ext(f.relPath)
		extractor, ok := extractorsByExt[ext]
		if !ok {
			continue
		}
		sourceID, ok := fileNodeID[f.relPath]
		if !ok {
			continue
		}

		for _, ref := range extractor(f.relPath, *f.content) {
			targetID, found := resolveReference(ref.targetRoute, fileNodeID)
			if !found || targetID == sourceID {
				continue
			}
			edges = append(edges, domain.GraphEdge{
				ID:           nextEdgeID(),
				From:         sourceID,
				To:           targetID,
				Relationship: relationshipFor(ref.kind),
			})
		}
	}

	// Test-marker metadata.
	for _, f := range files {
		if f.content == nil {
			continue
		}
		if hasTestMarkers(*f.content) {
			id := fileNodeID[f.relPath]
			nodes[id].Metadata["has_tests"] = "true"
		}
	}

	graph := domain.SourceCodeGraph{Nodes: nodes, Edges: edges}
	if err := graph.Validate(); err != nil {
		return domain.SourceCodeGraph{}, fmt.Errorf("graphbuild: %w", err)
	}
	return graph, nil
}

func relationshipFor(kind referenceKind) string {
	switch kind {
	case refUse:
		return domain.RelationUses
	case refImplement:
		return domain.RelationImplements
	default:
		return domain.RelationImports
	}
}

// resolveReference finds the file node whose relative path shares the
// longest trailing run of path segments with route; ties go to the
// smaller NodeId.
func resolveReference(route string, fileNodeID map[string]domain.NodeId) (domain.NodeId, bool) {
	routeSegs := pathSegments(route)
	if len(routeSegs) == 0 {
		return 0, false
	}

	var bestID domain.NodeId
	bestLen := 0
	found := false

	for relPath, id := range fileNodeID {
		n := suffixMatchLength(pathSegments(relPath), routeSegs)
		if n == 0 {
			continue
		}
		switch {
		case !found, n > bestLen:
			bestLen, bestID, found = n, id, true
		case n == bestLen && id < bestID:
			bestID = id
		}
	}
	return bestID, found
}

func workspaceRootOf(desc scanner.ProjectDescriptor) string {
	if len(desc.Repositories) == 0 {
		return ""
	}
	if len(desc.Repositories) == 1 {
		return desc.Repositories[0].LocalPath
	}
	return filepath.Dir(desc.Repositories[0].LocalPath)
}

func relPath(root, target string) string {
	r, err := filepath.Rel(root, target)
	if err != nil || r == "." {
		return ""
	}
	return filepath.ToSlash(r)
}

func parentOf(relSlashPath string) string {
	if relSlashPath == "" {
		return ""
	}
	idx := strings.LastIndexByte(relSlashPath, '/')
	if idx < 0 {
		return ""
	}
	return relSlashPath[:idx]
}

// markAncestors adds every proper ancestor directory of relSlashPath to
// dirSet, stopping at (and including) the workspace root "".
func markAncestors(dirSet map[string]bool, relSlashPath string) {
	p := parentOf(relSlashPath)
	for {
		dirSet[p] = true
		if p == "" {
			return
		}
		p = parentOf(p)
	}
}
