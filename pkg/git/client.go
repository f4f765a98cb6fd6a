// Package git wraps the git command line for versioned entry directories.
package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// ErrLockTimeout is returned when the directory lock cannot be acquired in time.
var ErrLockTimeout = errors.New("timed out waiting for git lock")

// DefaultLockTimeout bounds how long Lock waits for a competing process.
const DefaultLockTimeout = 10 * time.Second

// Client wraps git command execution with a file-based lock for process safety.
type Client struct {
	WorkDir     string
	Logger      *slog.Logger
	AuthorName  string
	AuthorEmail string
	LockTimeout time.Duration
	lockPath    string
}

// NewClient creates a new git client for the given working directory.
// lockName is the lock file created inside workDir while a write is in flight.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = ".encyclopedia.lock"
	}
	return &Client{
		WorkDir:     workDir,
		Logger:      logger,
		AuthorName:  "encyclopedia",
		AuthorEmail: "encyclopedia@localhost",
		LockTimeout: DefaultLockTimeout,
		lockPath:    lockName,
	}
}

// LockName returns the lock file name relative to WorkDir.
func (c *Client) LockName() string {
	return c.lockPath
}

// IsInstalled checks if git is available in the system path.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether WorkDir is the root of a git repository.
func (c *Client) IsRepo() bool {
	info, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil && info.IsDir()
}

// Lock acquires the file-based lock, waiting up to LockTimeout.
// The returned function releases it.
func (c *Client) Lock() (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockPath)
	deadline := time.Now().Add(c.LockTimeout)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if c.LockTimeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, fullLockPath)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

// Run executes a raw git command in the working directory.
// It does NOT acquire the lock; callers manage that via Lock.
func (c *Client) Run(args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.Command("git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)

	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// Init initializes a new git repository. Re-running it is harmless.
func (c *Client) Init() error {
	_, err := c.Run("init")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	_, err := c.Run(args...)
	return err
}

// Rm removes files from the working tree and from the index.
func (c *Client) Rm(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"rm", "-f", "--ignore-unmatch", "--"}, files...)
	_, err := c.Run(args...)
	return err
}

// HasStagedChanges reports whether the index differs from HEAD.
func (c *Client) HasStagedChanges() bool {
	cmd := exec.Command("git", "diff", "--cached", "--quiet")
	cmd.Dir = c.WorkDir
	return cmd.Run() != nil
}

// Commit records staged changes. It is a no-op when nothing is staged, so
// saving identical content does not fail.
func (c *Client) Commit(msg string) error {
	if !c.HasStagedChanges() {
		if c.Logger != nil {
			c.Logger.Debug("nothing to commit", "dir", c.WorkDir)
		}
		return nil
	}
	_, err := c.Run(
		"-c", "user.name="+c.AuthorName,
		"-c", "user.email="+c.AuthorEmail,
		"commit", "-m", msg,
	)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status() (string, error) {
	return c.Run("status", "--porcelain")
}

// HasTrackedChanges reports modified or staged tracked files. Untracked
// files are ignored: they never block a rebase.
func (c *Client) HasTrackedChanges() (bool, error) {
	out, err := c.Status()
	if err != nil {
		return false, err
	}
	for _, line := range strings.Split(out, "\n") {
		if line != "" && !strings.HasPrefix(line, "??") {
			return true, nil
		}
	}
	return false, nil
}

// Commit is one line of Log.
type Commit struct {
	Hash    string
	Time    time.Time
	Subject string
}

const logSep = "\x1f"

// Log returns the last n commits touching path, newest first. Renames are
// followed, so an entry's history survives a title change.
func (c *Client) Log(path string, n int) ([]Commit, error) {
	out, err := c.Run("log", fmt.Sprintf("-n%d", n), "--follow", "--format=%h%x1f%cI%x1f%s", "--", path)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}

	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		parts := strings.SplitN(line, logSep, 3)
		if len(parts) != 3 {
			continue
		}
		when, err := time.Parse(time.RFC3339, parts[1])
		if err != nil {
			return nil, fmt.Errorf("parse commit time %q: %w", parts[1], err)
		}
		commits = append(commits, Commit{Hash: parts[0], Time: when, Subject: parts[2]})
	}
	return commits, nil
}

// Sync pulls with rebase from the upstream and pushes local commits.
func (c *Client) Sync() error {
	if _, err := c.Run("remote", "get-url", "origin"); err != nil {
		return fmt.Errorf("no remote configured: %w", err)
	}
	if _, err := c.Run("pull", "--rebase"); err != nil {
		return err
	}
	_, err := c.Run("push")
	return err
}
