package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".test.lock", nil)

	unlock, err := client.Lock()
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, ".test.lock")
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	// A second acquisition must give up once the timeout elapses.
	client.LockTimeout = 30 * time.Millisecond
	if _, err := client.Lock(); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout while lock is held, got %v", err)
	}

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_DefaultLockName(t *testing.T) {
	client := NewClient(t.TempDir(), "", nil)
	if client.LockName() != ".encyclopedia.lock" {
		t.Errorf("unexpected default lock name %q", client.LockName())
	}
}

func TestClient_InitCommit(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	if err := client.Init(); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !client.IsRepo() {
		t.Fatal(".git directory not created")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "python.md"), []byte("# Python\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := client.Add("python.md"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := client.Commit("docs: create Python"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	// Nothing staged: must be a no-op.
	if err := client.Commit("docs: nothing"); err != nil {
		t.Fatalf("empty Commit should not fail: %v", err)
	}

	commits, err := client.Log("python.md", 5)
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(commits) != 1 || commits[0].Subject != "docs: create Python" {
		t.Fatalf("unexpected log %v", commits)
	}
	if commits[0].Hash == "" || commits[0].Time.IsZero() {
		t.Errorf("commit missing hash or time: %+v", commits[0])
	}

	dirty, err := client.HasTrackedChanges()
	if err != nil {
		t.Fatalf("HasTrackedChanges failed: %v", err)
	}
	if dirty {
		t.Error("clean tree reported as dirty")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "untracked.md"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if dirty, _ := client.HasTrackedChanges(); dirty {
		t.Error("untracked files must not count as changes")
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "python.md"), []byte("edited"), 0644); err != nil {
		t.Fatal(err)
	}
	if dirty, _ := client.HasTrackedChanges(); !dirty {
		t.Error("modified tracked file not reported")
	}

	if err := client.Sync(); err == nil {
		t.Error("expected Sync to fail without a remote")
	}
}
