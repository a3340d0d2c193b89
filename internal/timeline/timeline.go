// Package timeline replays drift measurement across git history. Each
// sampled commit is re-indexed from git object content and graded
// against the frozen HEAD taxonomy, so the series measures corpus
// drift, not taxonomy churn.
package timeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	"trustdebt/internal/config"
	"trustdebt/internal/corpus"
	"trustdebt/internal/errors"
	"trustdebt/internal/gitrepo"
	"trustdebt/internal/grading"
	"trustdebt/internal/keywords"
	"trustdebt/internal/logging"
	"trustdebt/internal/matrix"
	"trustdebt/internal/output"
	"trustdebt/internal/taxonomy"
)

// Repository is the slice of the git adapter the replay needs.
type Repository interface {
	ListCommits(limit int) ([]gitrepo.Commit, error)
	FilesAt(hash string) ([]string, error)
	FileAt(hash, path string) ([]byte, error)
}

// ReplayCache persists per-commit replay results. *storage.DB satisfies
// it; a nil cache disables caching.
type ReplayCache interface {
	GetReplay(commitHash, taxonomyFP string) ([]byte, bool, error)
	PutReplay(commitHash, taxonomyFP string, payload []byte) error
}

// Entry is one sampled commit's grade summary.
type Entry struct {
	CommitHash     string  `json:"commitHash"`
	Timestamp      string  `json:"timestamp"`
	Message        string  `json:"message"`
	TotalUnits     float64 `json:"totalUnits"`
	Letter         string  `json:"letter"`
	AsymmetryRatio float64 `json:"asymmetryRatio"`
}

// Gap records a commit that could not be replayed. Gaps never abort the
// walk.
type Gap struct {
	CommitHash string `json:"commitHash"`
	Reason     string `json:"reason"`
}

// Result is the timeline artifact payload. Entries run oldest to
// newest.
type Result struct {
	Entries   []Entry `json:"entries"`
	Gaps      []Gap   `json:"gaps,omitempty"`
	Sampled   int     `json:"sampled"`
	CacheHits int     `json:"cacheHits"`
}

// Analyzer replays history over a worker pool.
type Analyzer struct {
	cfg       config.TimelineConfig
	corpusCfg config.CorpusConfig
	builder   *matrix.Builder
	calc      *grading.Calculator
	cache     ReplayCache
	logger    *logging.Logger
}

// NewAnalyzer builds an Analyzer from the full configuration. cache may
// be nil.
func NewAnalyzer(cfg *config.Config, cache ReplayCache, logger *logging.Logger) (*Analyzer, error) {
	calc, err := grading.NewCalculator(cfg.Grades, logger)
	if err != nil {
		return nil, err
	}
	return &Analyzer{
		cfg:       cfg.Timeline,
		corpusCfg: cfg.Corpus,
		builder:   matrix.NewBuilder(cfg.Matrix, logger),
		calc:      calc,
		cache:     cache,
		logger:    logger,
	}, nil
}

// Fingerprint identifies a taxonomy for cache partitioning: any change
// to category IDs or keyword sets yields a new fingerprint.
func Fingerprint(tax *taxonomy.Taxonomy) string {
	h := sha256.New()
	for _, c := range tax.Categories {
		h.Write([]byte(c.ID))
		h.Write([]byte{0})
		kws := append([]string(nil), c.Keywords...)
		sort.Strings(kws)
		h.Write([]byte(strings.Join(kws, ",")))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// History samples every Nth commit (plus the newest) and replays each
// against the frozen taxonomy. Unreadable historical states become
// gaps; only context cancellation aborts the walk.
func (a *Analyzer) History(ctx context.Context, repo Repository, tax *taxonomy.Taxonomy) (*Result, error) {
	commits, err := repo.ListCommits(a.cfg.MaxCommits)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return &Result{Entries: []Entry{}}, nil
	}

	sampled := sampleCommits(commits, a.cfg.SampleInterval)
	fp := Fingerprint(tax)

	a.logger.Info("Replaying timeline", map[string]interface{}{
		"commits": len(commits),
		"sampled": len(sampled),
		"workers": a.cfg.Workers,
	})

	type slot struct {
		entry *Entry
		gap   *Gap
		hit   bool
	}
	slots := make([]slot, len(sampled))

	jobCh := make(chan int)
	var wg sync.WaitGroup

	workers := a.cfg.Workers
	if workers < 1 {
		workers = 1
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobCh {
				if ctx.Err() != nil {
					continue
				}
				entry, hit, err := a.replay(repo, sampled[i], fp, tax)
				if err != nil {
					slots[i] = slot{gap: &Gap{CommitHash: sampled[i].Hash, Reason: err.Error()}}
					a.logger.Warn("Timeline gap", map[string]interface{}{
						"commit": sampled[i].Hash,
						"error":  err.Error(),
					})
					continue
				}
				slots[i] = slot{entry: entry, hit: hit}
			}
		}()
	}

	for i := range sampled {
		jobCh <- i
	}
	close(jobCh)
	wg.Wait()

	if ctx.Err() != nil {
		return nil, errors.New(errors.Timeout, "timeline replay canceled", ctx.Err())
	}

	result := &Result{Entries: []Entry{}, Sampled: len(sampled)}
	for _, s := range slots {
		switch {
		case s.entry != nil:
			result.Entries = append(result.Entries, *s.entry)
			if s.hit {
				result.CacheHits++
			}
		case s.gap != nil:
			result.Gaps = append(result.Gaps, *s.gap)
		}
	}

	return result, nil
}

// replay grades one commit, consulting the cache first.
func (a *Analyzer) replay(repo Repository, commit gitrepo.Commit, fp string, tax *taxonomy.Taxonomy) (*Entry, bool, error) {
	if a.cache != nil {
		if payload, hit, err := a.cache.GetReplay(commit.Hash, fp); err == nil && hit {
			var entry Entry
			if err := json.Unmarshal(payload, &entry); err == nil {
				return &entry, true, nil
			}
			// Corrupt cache rows are recomputed, not fatal.
		}
	}

	idx, err := a.indexAt(repo, commit.Hash)
	if err != nil {
		return nil, false, err
	}

	m, err := a.builder.Build(tax, idx)
	if err != nil {
		return nil, false, err
	}
	grade, err := a.calc.Grade(m, tax)
	if err != nil {
		return nil, false, err
	}

	entry := &Entry{
		CommitHash:     commit.Hash,
		Timestamp:      commit.Timestamp,
		Message:        commit.Message,
		TotalUnits:     output.RoundFloat(grade.TotalUnits),
		Letter:         grade.Letter,
		AsymmetryRatio: output.RoundFloat(grade.AsymmetryRatio),
	}

	if a.cache != nil {
		if payload, err := output.DeterministicEncode(entry); err == nil {
			if err := a.cache.PutReplay(commit.Hash, fp, payload); err != nil {
				a.logger.Warn("Failed to cache replay", map[string]interface{}{
					"commit": commit.Hash,
					"error":  err.Error(),
				})
			}
		}
	}

	return entry, false, nil
}

// indexAt re-indexes the corpus as it existed at one commit. Files that
// cannot be read at that commit are skipped quietly; replay is an
// approximation, not an audit.
func (a *Analyzer) indexAt(repo Repository, hash string) (*keywords.Index, error) {
	paths, err := repo.FilesAt(hash)
	if err != nil {
		return nil, err
	}

	var occurrences []keywords.Occurrence
	for _, rel := range paths {
		domain, ok := corpus.ClassifyPath(a.corpusCfg, rel)
		if !ok {
			continue
		}
		content, err := repo.FileAt(hash, rel)
		if err != nil {
			continue
		}
		occurrences = append(occurrences, keywords.ScanContent(rel, domain, string(content))...)
	}

	sort.Slice(occurrences, func(i, j int) bool {
		x, y := occurrences[i], occurrences[j]
		if x.SourcePath != y.SourcePath {
			return x.SourcePath < y.SourcePath
		}
		if x.Keyword != y.Keyword {
			return x.Keyword < y.Keyword
		}
		return x.Domain < y.Domain
	})

	return &keywords.Index{Occurrences: occurrences}, nil
}

// sampleCommits keeps every intervalth commit plus the newest.
func sampleCommits(commits []gitrepo.Commit, interval int) []gitrepo.Commit {
	if interval < 1 {
		interval = 1
	}
	var sampled []gitrepo.Commit
	for i, c := range commits {
		if i%interval == 0 || i == len(commits)-1 {
			sampled = append(sampled, c)
		}
	}
	return sampled
}
