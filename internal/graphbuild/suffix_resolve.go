package graphbuild

import (
	"path/filepath"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// ResolveBySuffix finds the File node in graph whose relative_path shares
// the longest trailing run of path segments with route, tie-breaking on
// smaller NodeId — the same resolution rule the builder applies to
// reference targets, exported here so changed-path resolution in
// internal/impact behaves identically. route may be an absolute path, a
// relative path, or a bare import string.
func ResolveBySuffix(graph domain.SourceCodeGraph, route string) (domain.NodeId, bool) {
	routeSegs := pathSegments(filepath.ToSlash(route))
	if len(routeSegs) == 0 {
		return 0, false
	}

	var bestID domain.NodeId
	bestLen := 0
	found := false

	for _, n := range graph.Nodes {
		if n.Kind != domain.NodeKindFile {
			continue
		}
		candSegs := pathSegments(n.Metadata["relative_path"])
		if candSegs == nil {
			candSegs = pathSegments(n.Metadata["path"])
		}
		l := suffixMatchLength(candSegs, routeSegs)
		if l == 0 {
			continue
		}
		switch {
		case !found, l > bestLen:
			bestLen, bestID, found = l, n.ID, true
		case l == bestLen && n.ID < bestID:
			bestID = n.ID
		}
	}
	return bestID, found
}
