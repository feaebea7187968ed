package graphbuild

import (
	"regexp"
	"strings"
)

// referenceKind is the coarse classification of an extracted reference,
// mapped to a domain.Relation* constant by the caller.
type referenceKind string

const (
	refImport    referenceKind = "import"
	refUse       referenceKind = "use"
	refImplement referenceKind = "implement"
)

// reference is one {source_path, target_route, kind} triple extracted
// from a single source file. targetRoute is the raw string as it appeared
// in source (a relative import path, a module name, whatever the
// language's import syntax spells); it is resolved to a NodeId separately
// by longest path-suffix match.
type reference struct {
	sourcePath  string
	targetRoute string
	kind        referenceKind
}

// extractorFunc scans file content and returns the references it finds.
type extractorFunc func(relPath, content string) []reference

// extractorsByExt dispatches the reference pass by file extension.
// Detection is deliberately regex-level: no parsing, no ASTs, just the
// import syntax each language spells at the top of a file.
var extractorsByExt = map[string]extractorFunc{
	".go":  extractGo,
	".ts":  extractJS,
	".tsx": extractJS,
	".js":  extractJS,
	".jsx": extractJS,
	".py":  extractPython,
	".rs":  extractRust,
}

var (
	reGoImportBlock = regexp.MustCompile(`(?m)^\s*"([^"]+)"\s*$`)
	reGoImportLine  = regexp.MustCompile(`(?m)^import\s+"([^"]+)"`)
	reGoImplements  = regexp.MustCompile(`(?m)^\s*var\s+_\s+(\w+)\s*=`)

	reJSImport  = regexp.MustCompile(`(?m)(?:import\s+(?:[\w*{}\s,]+\s+from\s+)?|require\()\s*['"]([^'"]+)['"]`)
	rePyImport  = regexp.MustCompile(`(?m)^\s*(?:from\s+([.\w]+)\s+import|import\s+([.\w]+))`)
	reRustUse   = regexp.MustCompile(`(?m)^\s*(?:pub\s+)?(?:use|mod)\s+([\w:]+)`)
)

func extractGo(relPath, content string) []reference {
	var refs []reference
	for _, m := range reGoImportBlock.FindAllStringSubmatch(content, -1) {
		refs = append(refs, reference{sourcePath: relPath, targetRoute: m[1], kind: refImport})
	}
	for _, m := range reGoImportLine.FindAllStringSubmatch(content, -1) {
		refs = append(refs, reference{sourcePath: relPath, targetRoute: m[1], kind: refImport})
	}
	for _, m := range reGoImplements.FindAllStringSubmatch(content, -1) {
		refs = append(refs, reference{sourcePath: relPath, targetRoute: m[1], kind: refImplement})
	}
	return refs
}

func extractJS(relPath, content string) []reference {
	var refs []reference
	for _, m := range reJSImport.FindAllStringSubmatch(content, -1) {
		route := m[1]
		if !strings.HasPrefix(route, ".") && !strings.HasPrefix(route, "/") {
			continue // skip bare package specifiers, not local path references
		}
		refs = append(refs, reference{sourcePath: relPath, targetRoute: route, kind: refImport})
	}
	return refs
}

func extractPython(relPath, content string) []reference {
	var refs []reference
	for _, m := range rePyImport.FindAllStringSubmatch(content, -1) {
		route := m[1]
		if route == "" {
			route = m[2]
		}
		if route == "" {
			continue
		}
		refs = append(refs, reference{sourcePath: relPath, targetRoute: strings.ReplaceAll(route, ".", "/"), kind: refImport})
	}
	return refs
}

func extractRust(relPath, content string) []reference {
	var refs []reference
	for _, m := range reRustUse.FindAllStringSubmatch(content, -1) {
		refs = append(refs, reference{
			sourcePath:  relPath,
			targetRoute: strings.ReplaceAll(m[1], "::", "/"),
			kind:        refUse,
		})
	}
	return refs
}

// testMarkers are inline-source signals that a file carries tests,
// checked across languages rather than relying on file-naming convention
// alone.
var testMarkers = []string{
	"func Test", "#[test]", "def test_", "describe(", "it(", "@Test",
}

func hasTestMarkers(content string) bool {
	for _, marker := range testMarkers {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}

// pathSegments splits a slash-normalized relative path into its components,
// dropping a leading "." segment so "./foo/bar" and "foo/bar" compare equal.
func pathSegments(p string) []string {
	p = strings.TrimPrefix(p, "./")
	p = strings.Trim(p, "/")
	if p == "" {
		return nil
	}
	return strings.Split(p, "/")
}

// suffixMatchLength returns how many trailing path segments candidate and
// route share, scanning from the end of each.
func suffixMatchLength(candidate, route []string) int {
	n := 0
	for i, j := len(candidate)-1, len(route)-1; i >= 0 && j >= 0; i, j = i-1, j-1 {
		if stripExt(candidate[i]) != stripExt(route[j]) {
			break
		}
		n++
	}
	return n
}

func stripExt(segment string) string {
	if idx := strings.LastIndexByte(segment, '.'); idx > 0 {
		return segment[:idx]
	}
	return segment
}
