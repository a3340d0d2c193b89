package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"trustdebt/internal/config"
	"trustdebt/internal/errors"
	"trustdebt/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for path, content := range files {
		full := filepath.Join(root, filepath.FromSlash(path))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func testCorpusConfig() config.CorpusConfig {
	return config.CorpusConfig{
		Intent:  []string{"README.md", "docs/**/*.md"},
		Reality: []string{"src/**/*.go"},
		Exclude: []string{"vendor/**"},
	}
}

func TestLoadSplitsDomains(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"README.md":      "# readme",
		"docs/design.md": "design",
		"src/main.go":    "package main",
		"src/util.go":    "package main",
		"notes.txt":      "unmatched",
	})

	c, err := NewLoader(root, testCorpusConfig(), testLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	wantIntent := []string{"README.md", "docs/design.md"}
	if !reflect.DeepEqual(c.Intent.Files, wantIntent) {
		t.Errorf("intent files = %v, want %v", c.Intent.Files, wantIntent)
	}
	wantReality := []string{"src/main.go", "src/util.go"}
	if !reflect.DeepEqual(c.Reality.Files, wantReality) {
		t.Errorf("reality files = %v, want %v", c.Reality.Files, wantReality)
	}
}

func TestLoadDeterministicOrdering(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"src/z.go": "z",
		"src/a.go": "a",
		"src/m.go": "m",
		"README.md": "r",
	})

	loader := NewLoader(root, testCorpusConfig(), testLogger())
	first, err := loader.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := loader.Load()
		if err != nil {
			t.Fatalf("Load %d: %v", i, err)
		}
		if !reflect.DeepEqual(first.Reality.Files, again.Reality.Files) {
			t.Fatalf("ordering unstable: %v vs %v", first.Reality.Files, again.Reality.Files)
		}
	}
}

func TestLoadOverlapIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"src/main.go": "package main", "README.md": "r"})

	cfg := testCorpusConfig()
	cfg.Intent = append(cfg.Intent, "src/**/*.go")

	_, err := NewLoader(root, cfg, testLogger()).Load()
	if err == nil {
		t.Fatal("expected overlap error")
	}
	if errors.CodeOf(err) != errors.CorpusOverlap {
		t.Errorf("code = %v, want CORPUS_OVERLAP", errors.CodeOf(err))
	}
}

func TestLoadEmptyCorpusIsFatal(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"README.md": "r"})

	_, err := NewLoader(root, testCorpusConfig(), testLogger()).Load()
	if err == nil {
		t.Fatal("expected empty-corpus error")
	}
	if errors.CodeOf(err) != errors.CorpusEmpty {
		t.Errorf("code = %v, want CORPUS_EMPTY", errors.CodeOf(err))
	}
}

func TestLoadExcludesAndSizeCap(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"README.md":        "r",
		"src/main.go":      "package main",
		"vendor/dep.go":    "package dep",
		"src/generated.go": string(make([]byte, 2048)),
	})

	cfg := testCorpusConfig()
	cfg.Reality = []string{"src/**/*.go", "vendor/**/*.go"}
	cfg.MaxFileSizeBytes = 1024

	c, err := NewLoader(root, cfg, testLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	for _, f := range c.Reality.Files {
		if f == "vendor/dep.go" {
			t.Error("excluded vendor file leaked into corpus")
		}
		if f == "src/generated.go" {
			t.Error("oversized file leaked into corpus")
		}
	}
	found := false
	for _, s := range c.Reality.Skipped {
		if s.Path == "src/generated.go" {
			found = true
		}
	}
	if !found {
		t.Error("oversized file not recorded in skipped list")
	}
}

func TestTreeSourceRead(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{"README.md": "hello", "src/main.go": "package main"})

	c, err := NewLoader(root, testCorpusConfig(), testLogger()).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	src := NewTreeSource(root, c)
	if got := src.Files(DomainIntent); len(got) != 1 || got[0] != "README.md" {
		t.Errorf("Files(intent) = %v", got)
	}
	data, err := src.Read("README.md")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("Read = %q", data)
	}
}

func TestClassifyPath(t *testing.T) {
	cfg := config.CorpusConfig{
		Intent:  []string{"README.md", "docs/**/*.md"},
		Reality: []string{"**/*.go"},
		Exclude: []string{"vendor/**"},
	}

	tests := []struct {
		path   string
		domain Domain
		ok     bool
	}{
		{"README.md", DomainIntent, true},
		{"docs/design.md", DomainIntent, true},
		{"main.go", DomainReality, true},
		{"internal/a/b.go", DomainReality, true},
		{"vendor/dep/dep.go", "", false},
		{"Makefile", "", false},
	}

	for _, tt := range tests {
		domain, ok := ClassifyPath(cfg, tt.path)
		if ok != tt.ok || domain != tt.domain {
			t.Errorf("ClassifyPath(%q) = (%q, %v), want (%q, %v)", tt.path, domain, ok, tt.domain, tt.ok)
		}
	}

	// A path matching both domains classifies as nothing; replay skips
	// it instead of failing.
	both := config.CorpusConfig{Intent: []string{"**/*"}, Reality: []string{"**/*.go"}}
	if _, ok := ClassifyPath(both, "main.go"); ok {
		t.Error("overlapping path should not classify")
	}
}
