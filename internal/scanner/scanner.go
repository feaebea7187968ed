// Package scanner detects workspace kind and walks a filesystem tree into
// a ProjectDescriptor. Per-file errors are tolerated and skipped;
// root-level errors surface as fatal.
package scanner

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/chronograph-dev/chronograph/internal/domain"
)

// vcsDirs are the directory names that mark a VCS root.
var vcsDirs = []string{".git", ".hg", ".svn"}

// DefaultMaxContentSizeKB is the default content-expansion threshold.
const DefaultMaxContentSizeKB = 1024

// Options configures a Scanner.
type Options struct {
	// ExcludeNames is the hard exclusion set of directory names.
	// Directories with these exact names are never descended into; dotted
	// directories are always skipped regardless.
	ExcludeNames []string

	// ExcludeGlobs supplements ExcludeNames with doublestar glob patterns
	// matched against each directory's path relative to the workspace root
	// (a matching directory is not descended into; file paths are not
	// matched against them).
	ExcludeGlobs []string

	// MaxContentSizeKB bounds which text files get their content read
	// into memory during the expansion pass. Default: 1024 (1MB).
	MaxContentSizeKB int64

	// ProgressCallback, if non-nil, is invoked after each file is scanned.
	ProgressCallback func(scanned, total int)
}

// Option is a functional option for Options.
type Option func(*Options)

// DefaultOptions returns Options with the stock exclusion set and
// content threshold.
func DefaultOptions() Options {
	return Options{
		ExcludeNames:     append([]string(nil), defaultExcludeNames...),
		MaxContentSizeKB: DefaultMaxContentSizeKB,
	}
}

var defaultExcludeNames = []string{
	"node_modules", "target", "dist", "build",
	"__pycache__", "venv", ".venv", "vendor",
}

// WithExcludeNames overrides the hard directory-name exclusion set.
func WithExcludeNames(names []string) Option {
	return func(o *Options) { o.ExcludeNames = names }
}

// WithExcludeGlobs sets supplemental glob exclusion patterns.
func WithExcludeGlobs(globs []string) Option {
	return func(o *Options) { o.ExcludeGlobs = globs }
}

// WithMaxContentSizeKB overrides the content-expansion threshold.
func WithMaxContentSizeKB(kb int64) Option {
	return func(o *Options) { o.MaxContentSizeKB = kb }
}

// WithProgressCallback sets a scan-progress callback.
func WithProgressCallback(fn func(scanned, total int)) Option {
	return func(o *Options) { o.ProgressCallback = fn }
}

// Scanner walks a workspace path into a ProjectDescriptor. Scanner is
// stateless and safe to reuse across scans.
type Scanner struct {
	opts Options
}

// New creates a Scanner with the given options applied over the defaults.
func New(opts ...Option) *Scanner {
	o := DefaultOptions()
	for _, apply := range opts {
		apply(&o)
	}
	return &Scanner{opts: o}
}

// Classify determines the WorkspaceKind for path, checked in order:
// SingleRepo, then MultiRepo, then PlainDirectory.
func Classify(path string) (WorkspaceKind, int, error) {
	if hasVCSDir(path) {
		return SingleRepo, 0, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrWorkspaceNotFound, err)
	}

	repoCount := 0
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if hasVCSDir(filepath.Join(path, e.Name())) {
			repoCount++
		}
	}
	if repoCount > 0 {
		return MultiRepo, repoCount, nil
	}
	return PlainDirectory, 0, nil
}

func hasVCSDir(path string) bool {
	for _, d := range vcsDirs {
		if info, err := os.Stat(filepath.Join(path, d)); err == nil && info.IsDir() {
			return true
		}
	}
	return false
}

// Scan walks path and produces a ProjectDescriptor. Individual file
// stat/read failures are tolerated (skipped); a failure to read a
// directory aborts the walk with ErrIoFailed.
func (s *Scanner) Scan(path string) (ProjectDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return ProjectDescriptor{}, fmt.Errorf("%w: %s", domain.ErrWorkspaceNotFound, path)
	}

	kind, repoCount, err := Classify(path)
	if err != nil {
		return ProjectDescriptor{}, err
	}

	desc := ProjectDescriptor{
		Name:      filepath.Base(filepath.Clean(path)),
		Source:    kind,
		RepoCount: repoCount,
	}

	var repoRoots []string
	switch kind {
	case MultiRepo:
		entries, err := os.ReadDir(path)
		if err != nil {
			return ProjectDescriptor{}, fmt.Errorf("%w: %v", domain.ErrIoFailed, err)
		}
		for _, e := range entries {
			if e.IsDir() && hasVCSDir(filepath.Join(path, e.Name())) {
				repoRoots = append(repoRoots, filepath.Join(path, e.Name()))
			}
		}
	default:
		repoRoots = []string{path}
	}
	sort.Strings(repoRoots)

	for _, root := range repoRoots {
		sources, err := s.walkRepo(path, root)
		if err != nil {
			return ProjectDescriptor{}, err
		}
		desc.Repositories = append(desc.Repositories, Repository{
			Name:      filepath.Base(root),
			LocalPath: root,
			Sources:   sources,
		})
	}

	total := 0
	for _, r := range desc.Repositories {
		total += len(r.Sources)
	}
	scanned := 0
	for ri := range desc.Repositories {
		for si := range desc.Repositories[ri].Sources {
			s.expandContent(&desc.Repositories[ri].Sources[si])
			scanned++
			if s.opts.ProgressCallback != nil {
				s.opts.ProgressCallback(scanned, total)
			}
		}
	}

	return desc, nil
}

func (s *Scanner) walkRepo(workspaceRoot, repoRoot string) ([]Source, error) {
	var sources []Source

	err := filepath.WalkDir(repoRoot, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			// Directory-read failures abort the walk; file stat failures
			// for an individual entry are tolerated.
			if d != nil && d.IsDir() {
				return fmt.Errorf("%w: reading %s: %v", domain.ErrIoFailed, p, err)
			}
			return nil
		}

		if d.IsDir() {
			if p != repoRoot && s.isExcludedDir(workspaceRoot, p, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil // per-file stat failure: skip, don't abort
		}

		rel, err := filepath.Rel(workspaceRoot, p)
		if err != nil {
			rel = p
		}

		format := FormatText
		if looksBinary(p) {
			format = FormatBinary
		}

		sources = append(sources, Source{
			AbsolutePath: p,
			RelativePath: filepath.ToSlash(rel),
			Format:       format,
			Size:         info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sources, nil
}

func (s *Scanner) isExcludedDir(workspaceRoot, fullPath, name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, ex := range s.opts.ExcludeNames {
		if name == ex {
			return true
		}
	}
	if len(s.opts.ExcludeGlobs) > 0 {
		rel, err := filepath.Rel(workspaceRoot, fullPath)
		if err == nil {
			rel = filepath.ToSlash(rel)
			for _, pattern := range s.opts.ExcludeGlobs {
				if ok, _ := doublestar.Match(pattern, rel); ok {
					return true
				}
			}
		}
	}
	return false
}

// looksBinary applies a cheap extension-based + content-sniff heuristic.
func looksBinary(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".png", ".jpg", ".jpeg", ".gif", ".ico", ".pdf", ".zip", ".gz", ".tar",
		".so", ".dylib", ".dll", ".exe", ".bin", ".woff", ".woff2", ".ttf":
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 512)
	n, _ := f.Read(buf)
	return bytes.IndexByte(buf[:n], 0) >= 0
}

func (s *Scanner) expandContent(src *Source) {
	if src.Format != FormatText {
		return
	}
	limit := s.opts.MaxContentSizeKB * 1024
	if limit <= 0 {
		limit = DefaultMaxContentSizeKB * 1024
	}
	if src.Size > limit {
		return
	}

	data, err := os.ReadFile(src.AbsolutePath)
	if err != nil {
		return // per-file read failure: tolerated, content stays nil
	}
	content := string(data)
	src.Content = &content
}
