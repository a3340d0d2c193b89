package corpus

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"trustdebt/internal/config"
	"trustdebt/internal/errors"
	"trustdebt/internal/logging"
)

// Loader resolves corpus globs against a repository working tree.
type Loader struct {
	repoRoot string
	cfg      config.CorpusConfig
	logger   *logging.Logger
}

// NewLoader creates a Loader for the given repository root.
func NewLoader(repoRoot string, cfg config.CorpusConfig, logger *logging.Logger) *Loader {
	return &Loader{repoRoot: repoRoot, cfg: cfg, logger: logger}
}

// Load walks the repository once and classifies every file against the
// Intent and Reality globs. A file matching both sets is a fatal
// configuration problem: the corpora must stay disjoint or the
// asymmetric matrix loses its meaning.
func (l *Loader) Load() (*Corpus, error) {
	var intent, reality []string
	var skipped []SkippedFile
	var overlap []string

	err := filepath.WalkDir(l.repoRoot, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable directory entries are skipped, not fatal.
			skipped = append(skipped, SkippedFile{Path: l.rel(path), Reason: walkErr.Error()})
			l.logger.Warn("Skipping unreadable path", map[string]interface{}{
				"path":  path,
				"error": walkErr.Error(),
			})
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel := l.rel(path)
		if d.IsDir() {
			if rel != "." && (l.matchAny(l.cfg.Exclude, rel) || l.matchAny(l.cfg.Exclude, rel+"/")) {
				return filepath.SkipDir
			}
			if strings.HasPrefix(d.Name(), ".") && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}

		if l.matchAny(l.cfg.Exclude, rel) {
			return nil
		}

		inIntent := l.matchAny(l.cfg.Intent, rel)
		inReality := l.matchAny(l.cfg.Reality, rel)

		switch {
		case inIntent && inReality:
			overlap = append(overlap, rel)
		case inIntent:
			intent = append(intent, rel)
		case inReality:
			reality = append(reality, rel)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.InternalError, "corpus walk failed", err)
	}

	if len(overlap) > 0 {
		sort.Strings(overlap)
		return nil, errors.New(errors.CorpusOverlap,
			"files match both intent and reality globs", nil).
			WithDetails(map[string]interface{}{"files": overlap}).
			WithFixes(errors.FixAction{
				Type:        errors.EditConfig,
				Description: "Make corpus.intent and corpus.reality globs disjoint",
			})
	}

	intentSet, intentSkipped := l.filterReadable(intent)
	realitySet, realitySkipped := l.filterReadable(reality)

	if len(intentSet) == 0 {
		return nil, errors.New(errors.CorpusEmpty, "intent corpus matched no readable files", nil).
			WithDetails(map[string]interface{}{"globs": l.cfg.Intent})
	}
	if len(realitySet) == 0 {
		return nil, errors.New(errors.CorpusEmpty, "reality corpus matched no readable files", nil).
			WithDetails(map[string]interface{}{"globs": l.cfg.Reality})
	}

	sort.Strings(intentSet)
	sort.Strings(realitySet)

	return &Corpus{
		Intent:  FileSet{Domain: DomainIntent, Files: intentSet, Skipped: append(skipped, intentSkipped...)},
		Reality: FileSet{Domain: DomainReality, Files: realitySet, Skipped: realitySkipped},
	}, nil
}

// filterReadable drops files that cannot be opened or exceed the size
// cap, recording each skip.
func (l *Loader) filterReadable(paths []string) ([]string, []SkippedFile) {
	var kept []string
	var skipped []SkippedFile

	for _, rel := range paths {
		info, err := os.Stat(filepath.Join(l.repoRoot, rel))
		if err != nil {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: err.Error()})
			l.logger.Warn("Skipping unreadable file", map[string]interface{}{
				"path":  rel,
				"error": err.Error(),
			})
			continue
		}
		if l.cfg.MaxFileSizeBytes > 0 && info.Size() > int64(l.cfg.MaxFileSizeBytes) {
			skipped = append(skipped, SkippedFile{Path: rel, Reason: "exceeds maxFileSizeBytes"})
			continue
		}
		kept = append(kept, rel)
	}

	return kept, skipped
}

func (l *Loader) matchAny(patterns []string, rel string) bool {
	return matchAny(patterns, rel)
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// ClassifyPath maps a repo-relative path onto a domain using the corpus
// globs. Excluded paths, unmatched paths, and paths matching both
// domains all classify as nothing; overlap is only fatal when loading
// the working tree, not when replaying history.
func ClassifyPath(cfg config.CorpusConfig, rel string) (Domain, bool) {
	if matchAny(cfg.Exclude, rel) {
		return "", false
	}
	inIntent := matchAny(cfg.Intent, rel)
	inReality := matchAny(cfg.Reality, rel)
	switch {
	case inIntent && inReality:
		return "", false
	case inIntent:
		return DomainIntent, true
	case inReality:
		return DomainReality, true
	}
	return "", false
}

func (l *Loader) rel(path string) string {
	rel, err := filepath.Rel(l.repoRoot, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

// TreeSource adapts a loaded Corpus into a corpus.Source reading from
// the working tree.
type TreeSource struct {
	repoRoot string
	corpus   *Corpus
}

// NewTreeSource wraps a Corpus for working-tree reads.
func NewTreeSource(repoRoot string, c *Corpus) *TreeSource {
	return &TreeSource{repoRoot: repoRoot, corpus: c}
}

// Files implements Source.
func (s *TreeSource) Files(d Domain) []string {
	return s.corpus.Set(d).Files
}

// Read implements Source.
func (s *TreeSource) Read(path string) ([]byte, error) {
	return os.ReadFile(filepath.Join(s.repoRoot, filepath.FromSlash(path)))
}
