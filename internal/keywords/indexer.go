package keywords

import (
	"sort"
	"strings"
	"sync"

	"trustdebt/internal/corpus"
	"trustdebt/internal/logging"
)

const contextLimit = 100

// Indexer scans corpus files with the fixed pattern table.
type Indexer struct {
	src     corpus.Source
	logger  *logging.Logger
	workers int
}

// NewIndexer creates an Indexer over a corpus source. workers bounds the
// file-read fan-out; values below 1 fall back to serial scanning.
func NewIndexer(src corpus.Source, logger *logging.Logger, workers int) *Indexer {
	if workers < 1 {
		workers = 1
	}
	return &Indexer{src: src, logger: logger, workers: workers}
}

// fileResult carries one file's occurrences out of the worker pool.
type fileResult struct {
	path        string
	occurrences []Occurrence
	skipped     bool
	reason      string
}

// Index scans both domains and returns the merged, sorted index plus
// the paths skipped for data-quality reasons. Per-file scanning is pure,
// so files fan out over a worker pool; the merge and the final sort
// keep the output deterministic regardless of completion order.
func (ix *Indexer) Index() (*Index, []corpus.SkippedFile, error) {
	type job struct {
		path   string
		domain corpus.Domain
	}

	var jobs []job
	for _, d := range corpus.Domains {
		for _, path := range ix.src.Files(d) {
			jobs = append(jobs, job{path: path, domain: d})
		}
	}

	jobCh := make(chan job)
	resultCh := make(chan fileResult, len(jobs))

	var wg sync.WaitGroup
	for w := 0; w < ix.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobCh {
				content, err := ix.src.Read(j.path)
				if err != nil {
					resultCh <- fileResult{path: j.path, skipped: true, reason: err.Error()}
					continue
				}
				resultCh <- fileResult{
					path:        j.path,
					occurrences: ScanContent(j.path, j.domain, string(content)),
				}
			}
		}()
	}

	go func() {
		for _, j := range jobs {
			jobCh <- j
		}
		close(jobCh)
		wg.Wait()
		close(resultCh)
	}()

	merged := make(map[occurrenceKey]*Occurrence)
	var skipped []corpus.SkippedFile

	for res := range resultCh {
		if res.skipped {
			skipped = append(skipped, corpus.SkippedFile{Path: res.path, Reason: res.reason})
			ix.logger.Warn("Skipping unreadable file during indexing", map[string]interface{}{
				"path":  res.path,
				"error": res.reason,
			})
			continue
		}
		for _, occ := range res.occurrences {
			key := occurrenceKey{occ.Keyword, occ.Domain, occ.SourcePath}
			if existing, ok := merged[key]; ok {
				existing.Frequency += occ.Frequency
			} else {
				copied := occ
				merged[key] = &copied
			}
		}
	}

	occurrences := make([]Occurrence, 0, len(merged))
	for _, occ := range merged {
		occurrences = append(occurrences, *occ)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if a.SourcePath != b.SourcePath {
			return a.SourcePath < b.SourcePath
		}
		if a.Keyword != b.Keyword {
			return a.Keyword < b.Keyword
		}
		return a.Domain < b.Domain
	})

	sort.Slice(skipped, func(i, j int) bool { return skipped[i].Path < skipped[j].Path })

	ix.logger.Debug("Keyword indexing complete", map[string]interface{}{
		"occurrences": len(occurrences),
		"skipped":     len(skipped),
	})

	return &Index{Occurrences: occurrences}, skipped, nil
}

type occurrenceKey struct {
	keyword string
	domain  corpus.Domain
	path    string
}

// ScanContent applies the fixed pattern table to one file's content.
// Pure function: same content, same result.
func ScanContent(path string, domain corpus.Domain, content string) []Occurrence {
	found := make(map[string]*Occurrence)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		for _, group := range patternGroups {
			for _, match := range group.Pattern.FindAllString(line, -1) {
				keyword := Normalize(match)
				if len(keyword) < MinKeywordLength {
					continue
				}
				if occ, ok := found[keyword]; ok {
					occ.Frequency++
					continue
				}
				found[keyword] = &Occurrence{
					Keyword:    keyword,
					Domain:     domain,
					SourcePath: path,
					Frequency:  1,
					Area:       group.Area,
					Context:    snippet(line),
				}
			}
		}
	}

	occurrences := make([]Occurrence, 0, len(found))
	for _, occ := range found {
		occurrences = append(occurrences, *occ)
	}
	sort.Slice(occurrences, func(i, j int) bool {
		return occurrences[i].Keyword < occurrences[j].Keyword
	})
	return occurrences
}

// snippet trims a context line for traceability.
func snippet(line string) string {
	line = strings.TrimSpace(line)
	if len(line) <= contextLimit {
		return line
	}
	return line[:contextLimit] + "..."
}
