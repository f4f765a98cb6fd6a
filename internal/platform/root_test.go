package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindRoot(t *testing.T) {
	// baseDir/
	//   entries/ (.encyclopedia)
	//     subdir/
	//       nested/
	//   empty/
	baseDir := t.TempDir()
	entriesDir := filepath.Join(baseDir, "entries")
	subDir := filepath.Join(entriesDir, "subdir")
	nestedDir := filepath.Join(subDir, "nested")
	emptyDir := filepath.Join(baseDir, "empty")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(entriesDir, ".encyclopedia"), 0755); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{name: "Start at Root", startPath: entriesDir, wantRoot: entriesDir},
		{name: "Start in Subdir", startPath: subDir, wantRoot: entriesDir},
		{name: "Start Nested Deeply", startPath: nestedDir, wantRoot: entriesDir},
		{name: "No Root Found", startPath: emptyDir, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindRoot(tt.startPath, "")
			if (err != nil) != tt.wantErr {
				t.Fatalf("FindRoot() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
				t.Errorf("FindRoot() = %v, want %v", got, tt.wantRoot)
			}
		})
	}
}
