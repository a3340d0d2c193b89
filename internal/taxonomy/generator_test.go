package taxonomy

import (
	"fmt"
	"reflect"
	"testing"

	"trustdebt/internal/config"
	"trustdebt/internal/corpus"
	"trustdebt/internal/errors"
	"trustdebt/internal/keywords"
	"trustdebt/internal/logging"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.Config{Format: logging.HumanFormat, Level: logging.ErrorLevel})
}

func testTaxonomyConfig() config.TaxonomyConfig {
	return config.TaxonomyConfig{
		TargetCount:            20,
		OrthogonalityThreshold: 0.95,
		BalanceCVThreshold:     0.30,
		MaxIterations:          7,
		MinCategories:          2,
	}
}

// balancedIndex builds an index with count distinct keywords of equal
// frequency spread over a few files.
func balancedIndex(count int) *keywords.Index {
	idx := &keywords.Index{}
	for i := 0; i < count; i++ {
		kw := fmt.Sprintf("keyword%02d", i)
		idx.Occurrences = append(idx.Occurrences,
			keywords.Occurrence{Keyword: kw, Domain: corpus.DomainIntent, SourcePath: fmt.Sprintf("doc%d.md", i%3), Frequency: 5},
			keywords.Occurrence{Keyword: kw, Domain: corpus.DomainReality, SourcePath: fmt.Sprintf("src%d.go", i%3), Frequency: 5},
		)
	}
	return idx
}

func TestGenerateBalancedConverges(t *testing.T) {
	tax, err := NewGenerator(testTaxonomyConfig(), testLogger()).Generate(balancedIndex(40))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !tax.Converged {
		t.Errorf("balanced index should converge (orth=%v cv=%v)", tax.Orthogonality, tax.BalanceCV)
	}
	if len(tax.Categories) != 20 {
		t.Errorf("categories = %d, want targetCount 20", len(tax.Categories))
	}
	for _, c := range tax.Categories {
		if len(c.Keywords) == 0 {
			t.Errorf("category %s has empty keyword set", c.ID)
		}
		if c.Depth() > 1 {
			t.Errorf("category %s exceeds depth 1", c.ID)
		}
	}
}

func TestGenerateDeterministic(t *testing.T) {
	idx := balancedIndex(30)
	gen := NewGenerator(testTaxonomyConfig(), testLogger())

	first, err := gen.Generate(idx)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for i := 0; i < 5; i++ {
		next, err := gen.Generate(idx)
		if err != nil {
			t.Fatalf("Generate %d: %v", i, err)
		}
		if !reflect.DeepEqual(first.Categories, next.Categories) {
			t.Fatalf("run %d produced different taxonomy", i)
		}
	}
}

func TestShortLexOrdering(t *testing.T) {
	tax, err := NewGenerator(testTaxonomyConfig(), testLogger()).Generate(balancedIndex(40))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	lastParentRank := -1
	firstChildRank := len(tax.Categories)
	for _, c := range tax.Categories {
		if c.Depth() == 0 && c.ShortLexRank > lastParentRank {
			lastParentRank = c.ShortLexRank
		}
		if c.Depth() == 1 && c.ShortLexRank < firstChildRank {
			firstChildRank = c.ShortLexRank
		}
	}
	if lastParentRank >= firstChildRank {
		t.Errorf("ranks interleave by depth: last parent %d, first child %d", lastParentRank, firstChildRank)
	}

	for i := 1; i < len(tax.Categories); i++ {
		prev, cur := tax.Categories[i-1], tax.Categories[i]
		if cur.ShortLexRank != prev.ShortLexRank+1 {
			t.Errorf("ranks not contiguous: %s=%d then %s=%d", prev.ID, prev.ShortLexRank, cur.ID, cur.ShortLexRank)
		}
		if !ShortLexLess(prev.ID, cur.ID) {
			t.Errorf("IDs violate ShortLex order: %q before %q", prev.ID, cur.ID)
		}
	}
}

func TestShortLexLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"A", "B", true},
		{"B", "A", false},
		{"A", "A1", true},  // shorter first
		{"A9", "A10", true}, // length beats lexicographic
		{"A1", "A2", true},
		{"B1", "A2", false},
	}
	for _, tt := range tests {
		if got := ShortLexLess(tt.a, tt.b); got != tt.want {
			t.Errorf("ShortLexLess(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

// Two dominant semantic clusters plus a long tail of singletons, with
// targetCount far above what the signal supports: the loop must stop at
// the iteration cap with an honest converged=false and a bounded size.
func TestGenerateSparseClustersDoesNotConverge(t *testing.T) {
	idx := &keywords.Index{}
	idx.Occurrences = append(idx.Occurrences,
		keywords.Occurrence{Keyword: "performance", Domain: corpus.DomainIntent, SourcePath: "a.md", Frequency: 80},
		keywords.Occurrence{Keyword: "security", Domain: corpus.DomainIntent, SourcePath: "b.md", Frequency: 80},
	)
	for i := 0; i < 28; i++ {
		idx.Occurrences = append(idx.Occurrences, keywords.Occurrence{
			Keyword:    fmt.Sprintf("rare%02d", i),
			Domain:     corpus.DomainReality,
			SourcePath: "c.go",
			Frequency:  1,
		})
	}

	cfg := testTaxonomyConfig()
	tax, err := NewGenerator(cfg, testLogger()).Generate(idx)
	if err != nil {
		t.Fatalf("must terminate without error, got: %v", err)
	}

	if tax.Converged {
		t.Error("sparse clusters with targetCount=20 should not claim convergence")
	}
	if tax.Iterations > cfg.MaxIterations {
		t.Errorf("iterations %d exceeded cap %d", tax.Iterations, cfg.MaxIterations)
	}
	if len(tax.Categories) < cfg.MinCategories || len(tax.Categories) > cfg.TargetCount {
		t.Errorf("size %d outside [%d, %d]", len(tax.Categories), cfg.MinCategories, cfg.TargetCount)
	}
}

func TestGenerateRejectsDegenerateIndex(t *testing.T) {
	idx := &keywords.Index{Occurrences: []keywords.Occurrence{
		{Keyword: "performance", Domain: corpus.DomainIntent, SourcePath: "a.md", Frequency: 10},
	}}

	_, err := NewGenerator(testTaxonomyConfig(), testLogger()).Generate(idx)
	if err == nil {
		t.Fatal("expected error for single-keyword index")
	}
	if errors.CodeOf(err) != errors.CorpusEmpty {
		t.Errorf("code = %v", errors.CodeOf(err))
	}
}

func TestClassify(t *testing.T) {
	tax, err := NewGenerator(testTaxonomyConfig(), testLogger()).Generate(balancedIndex(12))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for _, c := range tax.Categories {
		for _, kw := range c.Keywords {
			if got := tax.Classify(kw); got != c.ID {
				t.Errorf("Classify(%q) = %q, want %q", kw, got, c.ID)
			}
		}
	}
	if got := tax.Classify("neverseen"); got != "" {
		t.Errorf("Classify(unknown) = %q, want empty", got)
	}
}
