package ops

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
)

// GitChanges shells out to git to list paths changed relative to req.Ref
// (default: the working tree against HEAD), for feeding directly into
// Impact. How the changed-path list is produced is opaque to the
// analyzer; this is one convenience producer, not a diff parser.
func (f *Facade) GitChanges(ctx context.Context, req GitChangesRequest) (GitChangesResponse, error) {
	ref := req.Ref
	if ref == "" {
		ref = "HEAD"
	}

	args := []string{"diff", "--name-only", ref}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = req.WorkspacePath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return GitChangesResponse{}, &gitError{underlying: err, stderr: stderr.String()}
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			paths = append(paths, line)
		}
	}
	return GitChangesResponse{ChangedPaths: paths}, nil
}

// bestEffortRemoteURL reads the origin remote URL for the manifest's
// informational RemoteURL field. Any failure (not a git repo, no origin,
// git not installed) is silently ignored: this is decoration, never a
// reason to fail Sync.
func bestEffortRemoteURL(workspacePath string) string {
	cmd := exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = workspacePath
	out, err := cmd.Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

type gitError struct {
	underlying error
	stderr     string
}

func (e *gitError) Error() string {
	if e.stderr != "" {
		return "git: " + strings.TrimSpace(e.stderr)
	}
	return "git: " + e.underlying.Error()
}

func (e *gitError) Unwrap() error { return e.underlying }
