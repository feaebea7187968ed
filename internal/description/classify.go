package description

import (
	"path/filepath"
	"strings"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// entryPointNames is the filename set that marks a language's conventional
// program entry point.
var entryPointNames = map[string]bool{
	"main.rs":     true,
	"lib.rs":      true,
	"mod.rs":      true,
	"index.ts":    true,
	"index.tsx":   true,
	"index.js":    true,
	"index.jsx":   true,
	"__init__.py": true,
	"main.py":     true,
	"main.go":     true,
	"main.c":      true,
	"main.cpp":    true,
	"app.rs":      true,
	"app.ts":      true,
	"app.tsx":     true,
	"app.js":      true,
	"app.jsx":     true,
}

// utilityMarkers are path-segment names that mark a file as a shared
// helper rather than domain logic.
var utilityMarkers = []string{
	"util", "utils", "helper", "helpers", "common", "shared",
}

// utilitySuffixes supplement utilityMarkers for flat layouts that encode
// the role in the filename instead of a directory ("db_utils.py").
var utilitySuffixes = []string{"_utils", "_helpers"}

// hubThreshold is the normalized in-degree at or above which a file
// counts as a Hub.
const hubThreshold = 0.5

// maxDampedStability caps every role-derived stability (hub, utility,
// sink, regular). A node at stability 1.0 would damp incoming activation
// to exactly zero and cut propagation dead at that node. Entry points and
// directories take their configured constants uncapped, so only they can
// reach 1.0 (entry points terminate propagation by definition).
const maxDampedStability = 0.9

// degree is the in/out edge count for one node, computed once over the
// whole graph and looked up per node during classification.
type degree struct {
	in, out int
}

// computeDegrees counts, per node, incoming and outgoing edges with
// Relationship != RelationContains (containment is structural, not a
// dependency relationship, and must not count toward hub/sink
// classification).
func computeDegrees(graph domain.SourceCodeGraph) (map[domain.NodeId]degree, int) {
	degrees := make(map[domain.NodeId]degree, len(graph.Nodes))
	maxIn := 0
	for _, e := range graph.Edges {
		if e.Relationship == domain.RelationContains {
			continue
		}
		d := degrees[e.From]
		d.out++
		degrees[e.From] = d
		d = degrees[e.To]
		d.in++
		degrees[e.To] = d
		if d.in > maxIn {
			maxIn = d.in
		}
	}
	return degrees, maxIn
}

// normalizedIn is d.in scaled against the graph-wide maximum in-degree,
// 0 when the graph has no dependency edges at all.
func normalizedIn(d degree, maxIn int) float64 {
	if maxIn == 0 {
		return 0
	}
	return float64(d.in) / float64(maxIn)
}

// isUtilityPath reports whether path contains a recognized utility-marker
// segment, matched case-insensitively against each path segment (not a
// substring match against the whole path, so "utility.go" doesn't match
// "util"), or a recognized utility suffix on the file's base name.
func isUtilityPath(path string) bool {
	path = filepath.ToSlash(strings.ToLower(path))
	for _, seg := range strings.Split(path, "/") {
		base := strings.TrimSuffix(seg, filepath.Ext(seg))
		for _, marker := range utilityMarkers {
			if base == marker {
				return true
			}
		}
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, suffix := range utilitySuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// classify assigns a Role to node, first match wins: directories and
// modules are Directory; a file at a conventional entry-point name is
// EntryPoint; a file whose normalized in-degree reaches hubThreshold is
// Hub; a file under a utility-marker path is Utility; a file no other
// file depends on is Sink; everything else is Regular.
func classify(node domain.GraphNode, d degree, maxIn int) Role {
	if node.Kind == domain.NodeKindDirectory || node.Kind == domain.NodeKindModule {
		return RoleDirectory
	}

	name := filepath.Base(node.Metadata["relative_path"])
	if name == "" || name == "." {
		name = node.Name
	}
	if entryPointNames[strings.ToLower(name)] {
		return RoleEntryPoint
	}

	if normalizedIn(d, maxIn) >= hubThreshold {
		return RoleHub
	}

	if isUtilityPath(node.Metadata["relative_path"]) {
		return RoleUtility
	}

	if d.in == 0 {
		return RoleSink
	}

	return RoleRegular
}

// stability computes node's stability coefficient from its assigned role.
// EntryPoint and Directory use the configured fixed constants; Hub,
// Utility, and connected Regular nodes scale up from a per-role base as
// normalized in-degree grows (the more of the graph depends on a node,
// the more its interface is assumed settled); a Sink with no edges at
// all is indistinguishable from dead code and gets the isolated
// constant instead of the leaf one.
func stability(role Role, d degree, maxIn int, cfg StabilityConfig) float64 {
	nid := normalizedIn(d, maxIn)

	var s float64
	switch role {
	case RoleDirectory:
		return cfg.Directory
	case RoleEntryPoint:
		return cfg.EntryPoint
	case RoleHub:
		s = 0.7 + 0.3*nid
	case RoleUtility:
		s = 0.4 + 0.2*nid
	case RoleSink:
		if d.in == 0 && d.out == 0 {
			s = cfg.Isolated
		} else {
			s = cfg.Leaf
		}
	default:
		if d.in == 0 && d.out == 0 {
			s = cfg.Isolated
		} else {
			s = 0.3 + 0.4*nid
		}
	}

	if s > maxDampedStability {
		s = maxDampedStability
	}
	return s
}

// StabilityConfig carries the fixed-constant inputs to stability, sourced
// from internal/config.Config's description-generator defaults.
type StabilityConfig struct {
	EntryPoint float64
	Directory  float64
	Leaf       float64
	Isolated   float64
}
