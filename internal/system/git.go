package system

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 800 * time.Millisecond

// GitInfo is the repository state shown next to the listed directory.
type GitInfo struct {
	InRepo   bool
	Branch   string
	ShortSHA string
	Dirty    bool
}

// String renders the state as "branch@sha" with a trailing "*" when dirty,
// or "" outside a repository.
func (gi GitInfo) String() string {
	if !gi.InRepo {
		return ""
	}
	s := gi.Branch
	if gi.ShortSHA != "" {
		s += "@" + gi.ShortSHA
	}
	if gi.Dirty {
		s += "*"
	}
	return s
}

// git runs one git subcommand in dir with a short timeout.
func git(ctx context.Context, dir string, args ...string) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, gitTimeout)
	defer cancel()
	out, err := exec.CommandContext(cctx, "git", append([]string{"-C", dir}, args...)...).Output()
	return strings.TrimSpace(string(out)), err
}

// GetGitInfo inspects the repository containing dir. A missing git binary
// or a directory outside any repository yields the zero GitInfo.
func GetGitInfo(ctx context.Context, dir string) GitInfo {
	var gi GitInfo
	if _, err := exec.LookPath("git"); err != nil {
		return gi
	}
	if out, err := git(ctx, dir, "rev-parse", "--is-inside-work-tree"); err != nil || out != "true" {
		return gi
	}
	gi.InRepo = true
	if b, err := git(ctx, dir, "symbolic-ref", "--quiet", "--short", "HEAD"); err == nil {
		gi.Branch = b
	} else if b, err := git(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
		// detached
		gi.Branch = b
	}
	if sha, err := git(ctx, dir, "rev-parse", "--short", "HEAD"); err == nil {
		gi.ShortSHA = sha
	}
	if st, err := git(ctx, dir, "status", "--porcelain"); err == nil {
		gi.Dirty = st != ""
	}
	return gi
}

// GitRoot returns the top-level directory of the repository containing dir.
func GitRoot(ctx context.Context, dir string) (string, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return "", err
	}
	return git(ctx, dir, "rev-parse", "--show-toplevel")
}
