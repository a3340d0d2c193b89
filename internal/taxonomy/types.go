// Package taxonomy derives the category set the matrix is built over.
// Categories are generated in bulk, refined in a bounded loop, and
// immutable once ranks are assigned; a refinement iteration regenerates
// the whole set rather than mutating it in place.
package taxonomy

import "sort"

// Category is one node of the two-level taxonomy. IDs are plain string
// codes (parent "A", child "A1"); display text lives in Label so the
// ShortLex comparator stays purely string-based.
type Category struct {
	ID           string   `json:"id"`
	ParentID     string   `json:"parentId,omitempty"`
	Label        string   `json:"label"`
	ShortLexRank int      `json:"shortlexRank"`
	Keywords     []string `json:"keywords"`
	// UnitBudget is the target share of total units (1/N), used to
	// judge balance.
	UnitBudget float64 `json:"unitBudget"`
	// Units is the observed total keyword frequency across both domains.
	Units int `json:"units"`
}

// Depth returns 0 for parents and 1 for children.
func (c *Category) Depth() int {
	if c.ParentID == "" {
		return 0
	}
	return 1
}

// Taxonomy is the finalized category set plus the convergence verdict.
// Converged=false is a first-class, reportable outcome — never a silent
// success.
type Taxonomy struct {
	Categories    []Category `json:"categories"`
	Converged     bool       `json:"converged"`
	Iterations    int        `json:"iterations"`
	Orthogonality float64    `json:"orthogonality"`
	BalanceCV     float64    `json:"balanceCv"`

	byKeyword map[string]string
}

// ShortLexLess is the canonical category order: shorter IDs first, then
// lexicographic. Locale-independent byte comparison.
func ShortLexLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// SortCategories orders categories by ShortLex ID and reassigns ranks.
// Because parent IDs are strictly shorter than child IDs, all parents
// precede all children.
func SortCategories(categories []Category) {
	sort.Slice(categories, func(i, j int) bool {
		return ShortLexLess(categories[i].ID, categories[j].ID)
	})
	for i := range categories {
		categories[i].ShortLexRank = i
	}
}

// Classify returns the category ID owning a keyword, or "" when the
// keyword is unclassified.
func (t *Taxonomy) Classify(keyword string) string {
	if t.byKeyword == nil {
		t.byKeyword = make(map[string]string)
		for _, c := range t.Categories {
			for _, k := range c.Keywords {
				t.byKeyword[k] = c.ID
			}
		}
	}
	return t.byKeyword[keyword]
}

// Category returns the category with the given ID, or nil.
func (t *Taxonomy) Category(id string) *Category {
	for i := range t.Categories {
		if t.Categories[i].ID == id {
			return &t.Categories[i]
		}
	}
	return nil
}

// KeywordSets returns each category's keyword set, in rank order.
func (t *Taxonomy) KeywordSets() [][]string {
	sets := make([][]string, len(t.Categories))
	for i, c := range t.Categories {
		sets[i] = c.Keywords
	}
	return sets
}
