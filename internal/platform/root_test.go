package platform

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindOutputRoot(t *testing.T) {
	// /tmp/
	//   out/ (.emlapp/manifest.json)
	//     assets/
	//       nested/
	//   empty/

	baseDir := t.TempDir()
	outDir := filepath.Join(baseDir, "out")
	subDir := filepath.Join(outDir, "assets")
	nestedDir := filepath.Join(subDir, "nested")
	emptyDir := filepath.Join(baseDir, "empty")

	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(emptyDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(outDir, ".emlapp"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(outDir, ".emlapp", "manifest.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		startPath string
		wantRoot  string
		wantErr   bool
	}{
		{
			name:      "Start at Root",
			startPath: outDir,
			wantRoot:  outDir,
		},
		{
			name:      "Start in Subdir",
			startPath: subDir,
			wantRoot:  outDir,
		},
		{
			name:      "Start Nested Deeply",
			startPath: nestedDir,
			wantRoot:  outDir,
		},
		{
			name:      "No Root Found",
			startPath: emptyDir,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindOutputRoot(tt.startPath, "")
			if (err != nil) != tt.wantErr {
				t.Errorf("FindOutputRoot() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if got != "" && filepath.Clean(got) != filepath.Clean(tt.wantRoot) {
				t.Errorf("FindOutputRoot() = %v, want %v", got, tt.wantRoot)
			}
		})
	}
}
