// Package keywords extracts normalized keyword occurrences from the two
// corpora. Its output is the first persisted pipeline artifact and must
// be deterministic: identical corpus input yields an identical index.
package keywords

import (
	"sort"
	"strings"

	"trustdebt/internal/corpus"
)

// MinKeywordLength is the shortest keyword recorded after normalization.
const MinKeywordLength = 3

// Occurrence is one deduplicated (keyword, domain, sourcePath) triple
// with a running frequency and a context snippet for traceability.
// Occurrences are read-only once the index is built.
type Occurrence struct {
	Keyword    string        `json:"keyword"`
	Domain     corpus.Domain `json:"domain"`
	SourcePath string        `json:"sourcePath"`
	Frequency  int           `json:"frequency"`
	Area       string        `json:"area"`
	Context    string        `json:"context,omitempty"`
}

// Index is the keyword-frequency index over both corpora.
type Index struct {
	Occurrences []Occurrence `json:"occurrences"`
}

// Normalize lowercases and trims a raw match. Callers must reject
// results shorter than MinKeywordLength.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// TotalFrequency sums all occurrence frequencies in one domain.
func (ix *Index) TotalFrequency(d corpus.Domain) int {
	total := 0
	for _, o := range ix.Occurrences {
		if o.Domain == d {
			total += o.Frequency
		}
	}
	return total
}

// KeywordFrequencies aggregates frequency per keyword for one domain.
func (ix *Index) KeywordFrequencies(d corpus.Domain) map[string]int {
	freqs := make(map[string]int)
	for _, o := range ix.Occurrences {
		if o.Domain == d {
			freqs[o.Keyword] += o.Frequency
		}
	}
	return freqs
}

// FileFrequencies returns per-file keyword frequencies for one domain,
// used for co-occurrence strength in the matrix builder.
func (ix *Index) FileFrequencies(d corpus.Domain) map[string]map[string]int {
	files := make(map[string]map[string]int)
	for _, o := range ix.Occurrences {
		if o.Domain != d {
			continue
		}
		m, ok := files[o.SourcePath]
		if !ok {
			m = make(map[string]int)
			files[o.SourcePath] = m
		}
		m[o.Keyword] += o.Frequency
	}
	return files
}

// Keywords returns the distinct keywords across both domains, ordered by
// total frequency descending, then alphabetically. The ordering is part
// of the determinism contract: taxonomy seeding consumes it.
func (ix *Index) Keywords() []string {
	totals := make(map[string]int)
	for _, o := range ix.Occurrences {
		totals[o.Keyword] += o.Frequency
	}

	keywords := make([]string, 0, len(totals))
	for k := range totals {
		keywords = append(keywords, k)
	}
	sort.Slice(keywords, func(i, j int) bool {
		if totals[keywords[i]] != totals[keywords[j]] {
			return totals[keywords[i]] > totals[keywords[j]]
		}
		return keywords[i] < keywords[j]
	})
	return keywords
}
