package testing

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

// ExtractTree writes the files of a txtar archive below a fresh temporary
// directory and returns that directory. Archive names ending in "/" create
// empty directories.
func ExtractTree(t *testing.T, archive string) string {
	t.Helper()
	root := t.TempDir()
	WriteArchive(t, root, archive)
	return root
}

// WriteArchive writes the files of a txtar archive below root, replacing
// any existing file of the same name.
func WriteArchive(t *testing.T, root, archive string) {
	t.Helper()
	for _, f := range txtar.Parse([]byte(archive)).Files {
		p := filepath.Join(root, filepath.FromSlash(f.Name))
		if f.Name[len(f.Name)-1] == '/' {
			if err := os.MkdirAll(p, 0o755); err != nil {
				t.Fatalf("mkdir %s: %v", p, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", filepath.Dir(p), err)
		}
		if err := os.WriteFile(p, f.Data, 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}
}

// RequireGit skips the test when no git executable is on PATH.
func RequireGit(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("git")
	if err != nil {
		t.Skip("git not found on PATH")
	}
	return path
}

// InitRepo turns root into a git repository with everything below it committed.
func InitRepo(t *testing.T, root string) {
	t.Helper()
	Git(t, root, "init", "-q")
	Git(t, root, "add", "-A")
	Git(t, root, "commit", "-q", "--allow-empty", "-m", "baseline")
}

// Git runs git in dir with a fixed identity and fails the test on error.
func Git(t *testing.T, dir string, args ...string) {
	t.Helper()
	full := append([]string{
		"-c", "user.name=protobind",
		"-c", "user.email=protobind@example.invalid",
		"-c", "commit.gpgsign=false",
	}, args...)
	cmd := exec.Command(RequireGit(t), full...)
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git %v: %v\n%s", args, err, out)
	}
}
