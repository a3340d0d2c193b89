// Package gitrepo is the exec-based git adapter backing the timeline
// replay. It shells out to the git binary with a per-command timeout;
// there is no in-process git implementation.
package gitrepo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"trustdebt/internal/errors"
	"trustdebt/internal/logging"
)

// DefaultTimeout bounds a single git invocation.
const DefaultTimeout = 5000 * time.Millisecond

// Commit is one commit as parsed from git log.
type Commit struct {
	Hash      string `json:"hash"`
	Author    string `json:"author"`
	Timestamp string `json:"timestamp"`
	Message   string `json:"message"`
}

// Repo runs git commands against one repository root.
type Repo struct {
	root    string
	timeout time.Duration
	logger  *logging.Logger
}

// IsRepository reports whether root is inside a git work tree.
func IsRepository(root string) bool {
	_, err := os.Stat(filepath.Join(root, ".git"))
	return err == nil
}

// NewRepo verifies git availability and returns a Repo. timeoutMs <= 0
// selects the default.
func NewRepo(root string, timeoutMs int, logger *logging.Logger) (*Repo, error) {
	timeout := DefaultTimeout
	if timeoutMs > 0 {
		timeout = time.Duration(timeoutMs) * time.Millisecond
	}

	r := &Repo{root: root, timeout: timeout, logger: logger}

	if !IsRepository(root) {
		return nil, errors.New(errors.GitUnavailable,
			"not a git repository; timeline analysis needs git history", nil).
			WithFixes(errors.FixAction{
				Type:        errors.RunCommand,
				Command:     "git status",
				Safe:        true,
				Description: "Verify you're in a git repository",
			})
	}

	logger.Debug("Git repository opened", map[string]interface{}{
		"root":    root,
		"timeout": timeout.String(),
	})

	return r, nil
}

// ListCommits returns up to limit of the most recent commits, ordered
// oldest to newest. limit <= 0 means no cap.
func (r *Repo) ListCommits(limit int) ([]Commit, error) {
	args := []string{"log", "--reverse", "--format=%H|%an|%aI|%s"}
	if limit > 0 {
		args = append(args, "-n", strconv.Itoa(limit))
	}

	lines, err := r.runLines(args...)
	if err != nil {
		return nil, err
	}

	commits := make([]Commit, 0, len(lines))
	for _, line := range lines {
		parts := strings.SplitN(line, "|", 4)
		if len(parts) != 4 {
			r.logger.Warn("Skipping malformed git log line", map[string]interface{}{
				"line": line,
			})
			continue
		}
		commits = append(commits, Commit{
			Hash:      parts[0],
			Author:    parts[1],
			Timestamp: parts[2],
			Message:   parts[3],
		})
	}

	return commits, nil
}

// FilesAt lists every tracked path at a commit.
func (r *Repo) FilesAt(hash string) ([]string, error) {
	return r.runLines("ls-tree", "-r", "--name-only", hash)
}

// FileAt reads one file's content at a commit. A path absent from that
// commit is an error; timeline replay treats it as a skippable gap.
func (r *Repo) FileAt(hash, path string) ([]byte, error) {
	out, err := r.run("show", hash+":"+path)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Head returns the current HEAD hash.
func (r *Repo) Head() (string, error) {
	return r.run("rev-parse", "HEAD")
}

func (r *Repo) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = r.root

	output, err := cmd.Output()
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", errors.New(errors.Timeout, "git command timed out", err).
				WithDetails(map[string]interface{}{"args": args, "timeout": r.timeout.String()})
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", errors.New(errors.GitUnavailable, "git command failed", err).
				WithDetails(map[string]interface{}{
					"args":   args,
					"stderr": strings.TrimSpace(string(exitErr.Stderr)),
				})
		}
		return "", errors.New(errors.GitUnavailable, "failed to execute git", err)
	}

	return strings.TrimRight(string(output), "\n"), nil
}

func (r *Repo) runLines(args ...string) ([]string, error) {
	output, err := r.run(args...)
	if err != nil {
		return nil, err
	}
	if output == "" {
		return []string{}, nil
	}

	lines := strings.Split(output, "\n")
	result := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result, nil
}
