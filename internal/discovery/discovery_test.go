package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

// writeFile creates path and any missing parent directories.
func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func names(found []DiscoveredDataset) []string {
	out := make([]string, len(found))
	for i, d := range found {
		out[i] = d.Name
	}
	return out
}

func TestDiscoverNestedDatasets(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "train.jsonl"), "{}\n")
	writeFile(t, filepath.Join(root, "support", "tickets.jsonl.gz"), "x")
	writeFile(t, filepath.Join(root, "support", "deep", "chat.JSONL.zst"), "x")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignore me")
	writeFile(t, filepath.Join(root, "data.json"), "{}")

	found, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}

	got := names(found)
	want := []string{"support/deep/chat.JSONL.zst", "support/tickets.jsonl.gz", "train.jsonl"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDiscoverRecordsPathAndSize(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jsonl"), "12345")

	found, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(found))
	}
	if !filepath.IsAbs(found[0].Path) {
		t.Errorf("expected absolute path, got %s", found[0].Path)
	}
	if found[0].Size != 5 {
		t.Errorf("expected size 5, got %d", found[0].Size)
	}
	if found[0].Compressed() {
		t.Error("plain jsonl should not be compressed")
	}
}

func TestDiscoverCompressed(t *testing.T) {
	d := DiscoveredDataset{Path: "/tmp/x.jsonl.gz"}
	if !d.Compressed() {
		t.Error("expected .jsonl.gz to be compressed")
	}
}

func TestDiscoverSkipsHiddenAndVendoredDirs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".cache", "old.jsonl"), "{}")
	writeFile(t, filepath.Join(root, "node_modules", "pkg", "fixture.jsonl"), "{}")
	writeFile(t, filepath.Join(root, "vendor", "x.jsonl"), "{}")
	writeFile(t, filepath.Join(root, "keep.jsonl"), "{}")

	found, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].Name != "keep.jsonl" {
		t.Fatalf("expected only keep.jsonl, got %v", names(found))
	}
}

func TestDiscoverHiddenRootIsSearched(t *testing.T) {
	root := filepath.Join(t.TempDir(), ".datasets")
	writeFile(t, filepath.Join(root, "a.jsonl"), "{}")

	found, err := Discover(root)
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("expected 1 dataset, got %d", len(found))
	}
}

func TestDiscoverEmptyDirectory(t *testing.T) {
	found, err := Discover(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 0 {
		t.Errorf("expected no datasets, got %d", len(found))
	}
}

func TestDiscoverNonexistentRoot(t *testing.T) {
	_, err := Discover(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Fatal("expected error for nonexistent root")
	}
}
