// Package corpus resolves the two disjoint file sets the pipeline
// measures: the Intent corpus (documentation, specs, READMEs) and the
// Reality corpus (source files). Membership is decided by doublestar
// globs from the configuration.
package corpus

// Domain tags which corpus a file or keyword occurrence belongs to.
type Domain string

const (
	// DomainIntent marks documentation/specification signals.
	DomainIntent Domain = "intent"
	// DomainReality marks source-code/commit signals.
	DomainReality Domain = "reality"
)

// Domains lists both domains in canonical order.
var Domains = []Domain{DomainIntent, DomainReality}

// SkippedFile records an input excluded from a run, for artifact notes.
type SkippedFile struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// FileSet is one resolved corpus: sorted repo-relative paths plus the
// inputs that had to be skipped.
type FileSet struct {
	Domain  Domain        `json:"domain"`
	Files   []string      `json:"files"`
	Skipped []SkippedFile `json:"skipped,omitempty"`
}

// Corpus bundles both file sets for a single pipeline run.
type Corpus struct {
	Intent  FileSet `json:"intent"`
	Reality FileSet `json:"reality"`
}

// Set returns the file set for a domain.
func (c *Corpus) Set(d Domain) *FileSet {
	if d == DomainIntent {
		return &c.Intent
	}
	return &c.Reality
}

// Source abstracts where corpus content comes from, so the keyword
// indexer can read the working tree for a live run and a historical
// commit for timeline replay.
type Source interface {
	// Files returns the sorted repo-relative paths for a domain.
	Files(d Domain) []string
	// Read returns the content of one file. A read failure is a
	// data-quality condition; callers skip the file with a warning.
	Read(path string) ([]byte, error)
}
