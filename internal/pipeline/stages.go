package pipeline

import (
	"context"
	"fmt"

	"trustdebt/internal/artifact"
	"trustdebt/internal/corpus"
	"trustdebt/internal/gitrepo"
	"trustdebt/internal/grading"
	"trustdebt/internal/keywords"
	"trustdebt/internal/matrix"
	"trustdebt/internal/narrative"
	"trustdebt/internal/storage"
	"trustdebt/internal/taxonomy"
	"trustdebt/internal/timeline"
)

// CorpusPayload is the corpus stage artifact.
type CorpusPayload struct {
	Intent  []string             `json:"intent"`
	Reality []string             `json:"reality"`
	Skipped []corpus.SkippedFile `json:"skipped,omitempty"`
}

// IndexPayload is the keyword index stage artifact.
type IndexPayload struct {
	Index   *keywords.Index      `json:"index"`
	Skipped []corpus.SkippedFile `json:"skipped,omitempty"`
}

// RunCorpus resolves the corpus globs against the working tree.
func (pc *Context) RunCorpus() (*CorpusPayload, error) {
	loader := corpus.NewLoader(pc.Cfg.RepoRoot, pc.Cfg.Corpus, pc.Logger)
	c, err := loader.Load()
	if err != nil {
		return nil, err
	}

	payload := &CorpusPayload{
		Intent:  c.Intent.Files,
		Reality: c.Reality.Files,
		Skipped: append(append([]corpus.SkippedFile{}, c.Intent.Skipped...), c.Reality.Skipped...),
	}

	status, notes := artifact.StatusOK, []string(nil)
	if len(payload.Skipped) > 0 {
		status = artifact.StatusDegraded
		notes = append(notes, fmt.Sprintf("skipped %d unreadable or oversized files", len(payload.Skipped)))
	}

	if err := pc.Store.Save(artifact.StageCorpus, pc.RunID, status, notes, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RunIndex scans the corpus files recorded by the corpus stage.
func (pc *Context) RunIndex() (*IndexPayload, error) {
	var upstream CorpusPayload
	env, err := pc.Store.LoadPayload(artifact.StageCorpus, &upstream)
	if err != nil {
		return nil, err
	}

	c := &corpus.Corpus{
		Intent:  corpus.FileSet{Domain: corpus.DomainIntent, Files: upstream.Intent},
		Reality: corpus.FileSet{Domain: corpus.DomainReality, Files: upstream.Reality},
	}
	src := corpus.NewTreeSource(pc.Cfg.RepoRoot, c)

	indexer := keywords.NewIndexer(src, pc.Logger, pc.Cfg.Timeline.Workers)
	idx, skipped, err := indexer.Index()
	if err != nil {
		return nil, err
	}

	payload := &IndexPayload{Index: idx, Skipped: skipped}

	status, notes := env.Status, []string(nil)
	if len(skipped) > 0 {
		status = worse(status, artifact.StatusDegraded)
		notes = append(notes, fmt.Sprintf("skipped %d files during indexing", len(skipped)))
	}

	if err := pc.Store.Save(artifact.StageKeywordIndex, pc.RunID, status, notes, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// RunTaxonomy derives categories from the keyword index. A
// non-converged taxonomy is saved degraded, never discarded.
func (pc *Context) RunTaxonomy() (*taxonomy.Taxonomy, error) {
	var upstream IndexPayload
	env, err := pc.Store.LoadPayload(artifact.StageKeywordIndex, &upstream)
	if err != nil {
		return nil, err
	}

	gen := taxonomy.NewGenerator(pc.Cfg.Taxonomy, pc.Logger)
	tax, err := gen.Generate(upstream.Index)
	if err != nil {
		return nil, err
	}

	status, notes := env.Status, []string(nil)
	if !tax.Converged {
		status = worse(status, artifact.StatusDegraded)
		notes = append(notes, fmt.Sprintf(
			"taxonomy did not converge after %d iterations (orthogonality %.3f, balance CV %.3f)",
			tax.Iterations, tax.Orthogonality, tax.BalanceCV))
	}

	if err := pc.Store.Save(artifact.StageTaxonomy, pc.RunID, status, notes, tax); err != nil {
		return nil, err
	}
	return tax, nil
}

// RunMatrix builds the drift matrix from the taxonomy and index.
func (pc *Context) RunMatrix() (*matrix.Matrix, error) {
	var tax taxonomy.Taxonomy
	taxEnv, err := pc.Store.LoadPayload(artifact.StageTaxonomy, &tax)
	if err != nil {
		return nil, err
	}
	var idxPayload IndexPayload
	idxEnv, err := pc.Store.LoadPayload(artifact.StageKeywordIndex, &idxPayload)
	if err != nil {
		return nil, err
	}

	builder := matrix.NewBuilder(pc.Cfg.Matrix, pc.Logger)
	m, err := builder.Build(&tax, idxPayload.Index)
	if err != nil {
		return nil, err
	}

	status := worse(taxEnv.Status, idxEnv.Status)
	if err := pc.Store.Save(artifact.StageMatrix, pc.RunID, status, nil, m); err != nil {
		return nil, err
	}
	return m, nil
}

// RunGrade collapses the matrix into a letter grade.
func (pc *Context) RunGrade() (*grading.GradeResult, error) {
	var m matrix.Matrix
	mEnv, err := pc.Store.LoadPayload(artifact.StageMatrix, &m)
	if err != nil {
		return nil, err
	}
	var tax taxonomy.Taxonomy
	taxEnv, err := pc.Store.LoadPayload(artifact.StageTaxonomy, &tax)
	if err != nil {
		return nil, err
	}

	calc, err := grading.NewCalculator(pc.Cfg.Grades, pc.Logger)
	if err != nil {
		return nil, err
	}
	grade, err := calc.Grade(&m, &tax)
	if err != nil {
		return nil, err
	}

	status := worse(mEnv.Status, taxEnv.Status)
	if err := pc.Store.Save(artifact.StageGrade, pc.RunID, status, nil, grade); err != nil {
		return nil, err
	}
	return grade, nil
}

// RunTimeline replays git history against the frozen HEAD taxonomy.
func (pc *Context) RunTimeline(ctx context.Context) (*timeline.Result, error) {
	var tax taxonomy.Taxonomy
	taxEnv, err := pc.Store.LoadPayload(artifact.StageTaxonomy, &tax)
	if err != nil {
		return nil, err
	}

	repo, err := gitrepo.NewRepo(pc.Cfg.RepoRoot, pc.Cfg.Timeline.GitTimeoutMs, pc.Logger)
	if err != nil {
		return nil, err
	}

	var cache timeline.ReplayCache
	if db, err := storage.Open(pc.Cfg.RepoRoot, pc.Logger); err == nil {
		defer db.Close()
		if _, err := db.PruneReplays(timeline.Fingerprint(&tax)); err != nil {
			pc.Logger.Warn("Failed to prune replay cache", map[string]interface{}{
				"error": err.Error(),
			})
		}
		cache = db
	} else {
		pc.Logger.Warn("Replay cache unavailable, recomputing every commit", map[string]interface{}{
			"error": err.Error(),
		})
	}

	analyzer, err := timeline.NewAnalyzer(pc.Cfg, cache, pc.Logger)
	if err != nil {
		return nil, err
	}
	result, err := analyzer.History(ctx, repo, &tax)
	if err != nil {
		return nil, err
	}

	status, notes := taxEnv.Status, []string(nil)
	if len(result.Gaps) > 0 {
		status = worse(status, artifact.StatusDegraded)
		notes = append(notes, fmt.Sprintf("%d commits skipped during replay", len(result.Gaps)))
	}

	if err := pc.Store.Save(artifact.StageTimeline, pc.RunID, status, notes, result); err != nil {
		return nil, err
	}
	return result, nil
}

// RunNarrative renders recommendations from the matrix and grade.
func (pc *Context) RunNarrative() (*narrative.Report, error) {
	var m matrix.Matrix
	mEnv, err := pc.Store.LoadPayload(artifact.StageMatrix, &m)
	if err != nil {
		return nil, err
	}
	var grade grading.GradeResult
	gEnv, err := pc.Store.LoadPayload(artifact.StageGrade, &grade)
	if err != nil {
		return nil, err
	}
	var tax taxonomy.Taxonomy
	taxEnv, err := pc.Store.LoadPayload(artifact.StageTaxonomy, &tax)
	if err != nil {
		return nil, err
	}

	gen := narrative.NewGenerator(pc.Cfg.Matrix, pc.Logger)
	report, err := gen.Narrate(&m, &grade, &tax)
	if err != nil {
		return nil, err
	}

	status := worse(worse(mEnv.Status, gEnv.Status), taxEnv.Status)
	if err := pc.Store.Save(artifact.StageNarrative, pc.RunID, status, nil, report); err != nil {
		return nil, err
	}
	return report, nil
}

// RunAll executes the full pipeline in order. withTimeline controls the
// history replay, which needs a git repository.
func (pc *Context) RunAll(ctx context.Context, withTimeline bool) (*narrative.Report, error) {
	if _, err := pc.RunCorpus(); err != nil {
		return nil, err
	}
	if _, err := pc.RunIndex(); err != nil {
		return nil, err
	}
	if _, err := pc.RunTaxonomy(); err != nil {
		return nil, err
	}
	if _, err := pc.RunMatrix(); err != nil {
		return nil, err
	}
	if _, err := pc.RunGrade(); err != nil {
		return nil, err
	}
	if withTimeline {
		if _, err := pc.RunTimeline(ctx); err != nil {
			return nil, err
		}
	}
	return pc.RunNarrative()
}
