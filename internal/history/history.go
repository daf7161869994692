// Package history versions the ledger data directory with git. Each
// ledger change becomes one commit.
package history

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Author is the identity commits are recorded under.
const (
	AuthorName  = "tally"
	AuthorEmail = "tally@localhost"
)

// Repo is a git repository rooted at a ledger data directory.
type Repo struct {
	dir string
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init returns the repository at dir, running git init first when there
// is none.
func Init(ctx context.Context, dir string) (*Repo, error) {
	r := &Repo{dir: dir}
	if IsRepo(dir) {
		return r, nil
	}
	if _, err := r.git(ctx, "init", "--quiet"); err != nil {
		return nil, err
	}
	return r, nil
}

// Dir returns the repository root.
func (r *Repo) Dir() string { return r.dir }

// Commit stages every change and commits it with message. It returns the
// short hash, or "" when there was nothing to commit.
func (r *Repo) Commit(ctx context.Context, message string) (string, error) {
	if _, err := r.git(ctx, "add", "-A"); err != nil {
		return "", err
	}

	status, err := r.git(ctx, "status", "--porcelain")
	if err != nil {
		return "", err
	}
	if status == "" {
		return "", nil
	}

	if _, err := r.git(ctx,
		"-c", "user.name="+AuthorName,
		"-c", "user.email="+AuthorEmail,
		"commit", "--quiet", "-m", message,
	); err != nil {
		return "", err
	}

	return r.git(ctx, "rev-parse", "--short", "HEAD")
}

func (r *Repo) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return strings.TrimSpace(string(out)), nil
}
