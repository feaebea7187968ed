package scanner

// WorkspaceKind classifies the shape of a scanned workspace.
type WorkspaceKind string

const (
	// SingleRepo: the workspace root itself contains a VCS directory.
	SingleRepo WorkspaceKind = "single_repo"

	// MultiRepo: one or more immediate subdirectories contain a VCS
	// directory; RepoCount on the ProjectDescriptor records how many.
	MultiRepo WorkspaceKind = "multi_repo"

	// PlainDirectory: neither of the above; treated as one repository
	// rooted at the workspace path.
	PlainDirectory WorkspaceKind = "plain_directory"
)

// SourceFormat is a coarse text/binary classification for a scanned file.
type SourceFormat string

const (
	FormatText   SourceFormat = "text"
	FormatBinary SourceFormat = "binary"
)

// Source describes one file discovered during a scan.
type Source struct {
	AbsolutePath string       `json:"absolute_path"`
	RelativePath string       `json:"relative_path"`
	Format       SourceFormat `json:"format"`
	Size         int64        `json:"size"`

	// Content holds the file's text, populated only for text files under
	// the configured max-content-size threshold. Nil otherwise, including
	// for every entry once the descriptor has been re-persisted with
	// content stripped.
	Content *string `json:"content,omitempty"`
}

// Repository is one VCS-rooted (or workspace-rooted, for PlainDirectory)
// collection of sources.
type Repository struct {
	Name      string   `json:"name"`
	LocalPath string   `json:"local_path"`
	Sources   []Source `json:"sources"`
}

// ProjectDescriptor is the output of a workspace scan.
type ProjectDescriptor struct {
	Name         string        `json:"name"`
	Source       WorkspaceKind `json:"source"`
	RepoCount    int           `json:"repo_count,omitempty"`
	Repositories []Repository  `json:"repositories"`
}

// StripContent returns a copy of the descriptor with every Source.Content
// cleared, the form project.json persists — file contents are re-readable
// from disk, not worth storing twice.
func (p ProjectDescriptor) StripContent() ProjectDescriptor {
	out := ProjectDescriptor{
		Name:      p.Name,
		Source:    p.Source,
		RepoCount: p.RepoCount,
	}
	out.Repositories = make([]Repository, len(p.Repositories))
	for i, repo := range p.Repositories {
		stripped := Repository{Name: repo.Name, LocalPath: repo.LocalPath}
		stripped.Sources = make([]Source, len(repo.Sources))
		for j, src := range repo.Sources {
			s := src
			s.Content = nil
			stripped.Sources[j] = s
		}
		out.Repositories[i] = stripped
	}
	return out
}
