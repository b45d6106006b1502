package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	fs, err := NewFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("---\nuuid: A\n---\n\nWorld\n")
	if err := s.Write("entries/note.md", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("entries/note.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteFromStreams(t *testing.T) {
	s := tempVault(t)
	if err := s.WriteFrom("attachments/a.jpeg", strings.NewReader("binary")); err != nil {
		t.Fatalf("WriteFrom: %v", err)
	}
	got, err := s.Read("attachments/a.jpeg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "binary" {
		t.Errorf("content = %q", got)
	}
	info, err := os.Stat(filepath.Join(s.Root(), "attachments", "a.jpeg"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Errorf("mode = %v, want 0644", info.Mode().Perm())
	}
}

func TestExists(t *testing.T) {
	s := tempVault(t)
	ok, err := s.Exists("missing.md")
	if err != nil || ok {
		t.Fatalf("Exists(missing) = %v, %v", ok, err)
	}
	_ = s.Write("here.md", []byte("x"))
	ok, err = s.Exists("here.md")
	if err != nil || !ok {
		t.Fatalf("Exists(here) = %v, %v", ok, err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("entries/a.md", []byte("a"))
	_ = s.Write("entries/sub/b.md", []byte("b"))
	_ = s.Write("attachments/c.jpeg", []byte("c"))

	items, err := s.List("entries", ".md")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("len = %d, want 2", len(items))
	}
	all, err := s.List("", "")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("len(all) = %d, want 3", len(all))
	}
	for _, it := range all {
		if strings.Contains(it.Path, `\`) {
			t.Errorf("path not slash separated: %q", it.Path)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.md",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.md", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.md", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.md")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.root, tmpPrefix+"*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_CreatesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "vault")
	s, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	if info, err := os.Stat(s.Root()); err != nil || !info.IsDir() {
		t.Fatalf("root not created: %v", err)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp(t.TempDir(), "dayvault-test-*")
	_ = f.Close()
	if _, err := NewFS(f.Name()); err == nil {
		t.Error("expected error when root is a file")
	}
}
