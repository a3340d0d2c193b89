package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"trustdebt/internal/grading"
	"trustdebt/internal/narrative"
	"trustdebt/internal/pipeline"
	"trustdebt/internal/taxonomy"
	"trustdebt/internal/timeline"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatYAML  OutputFormat = "yaml"
)

// FormatResponse formats a response according to the specified format
func FormatResponse(resp interface{}, format OutputFormat) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(resp)
	case FormatYAML:
		return formatYAML(resp)
	case FormatHuman:
		return formatHuman(resp)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

func formatJSON(resp interface{}) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// formatYAML round-trips through JSON so YAML keys match the JSON
// artifact field names.
func formatYAML(resp interface{}) (string, error) {
	data, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return "", fmt.Errorf("failed to normalize response: %w", err)
	}
	out, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return strings.TrimRight(string(out), "\n"), nil
}

func formatHuman(resp interface{}) (string, error) {
	switch v := resp.(type) {
	case *grading.GradeResult:
		return formatGradeHuman(v), nil
	case *narrative.Report:
		return formatNarrativeHuman(v), nil
	case *timeline.Result:
		return formatTimelineHuman(v), nil
	case *taxonomy.Taxonomy:
		return formatTaxonomyHuman(v), nil
	case []pipeline.StageState:
		return formatStatusHuman(v), nil
	default:
		// For unknown types, fall back to JSON
		return formatJSON(resp)
	}
}

func formatGradeHuman(g *grading.GradeResult) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Trust Debt Grade: %s\n", g.Letter))
	b.WriteString(strings.Repeat("=", 40) + "\n")
	b.WriteString(fmt.Sprintf("Total drift:     %.2f units\n", g.TotalUnits))
	b.WriteString(fmt.Sprintf("  diagonal:      %.2f\n", g.DiagonalUnits))
	b.WriteString(fmt.Sprintf("  upper (code):  %.2f\n", g.UpperUnits))
	b.WriteString(fmt.Sprintf("  lower (docs):  %.2f\n", g.LowerUnits))
	b.WriteString(fmt.Sprintf("Asymmetry ratio: %.3f\n", g.AsymmetryRatio))
	b.WriteString(fmt.Sprintf("Orthogonality:   %.3f\n", g.Orthogonality))
	if !g.Converged {
		b.WriteString("\nNote: taxonomy did not converge; treat the grade as approximate.\n")
	}
	return b.String()
}

func formatNarrativeHuman(r *narrative.Report) string {
	var b strings.Builder
	b.WriteString(r.Summary + "\n")
	if len(r.Recommendations) == 0 {
		return b.String()
	}
	b.WriteString("\nFindings (worst first):\n")
	for i, rec := range r.Recommendations {
		marker := "!"
		if rec.Benign {
			marker = "-"
		}
		b.WriteString(fmt.Sprintf("%3d. %s %s", i+1, marker, rec.Direction))
		if !rec.Benign {
			b.WriteString(fmt.Sprintf(" (%.1f units, %s effort)", rec.DriftUnits, rec.Effort))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatTimelineHuman(r *timeline.Result) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Timeline: %d sampled commits, %d cache hits\n", r.Sampled, r.CacheHits))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, e := range r.Entries {
		hash := e.CommitHash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		b.WriteString(fmt.Sprintf("%s  %s  %-5s %8.1f  %s\n",
			hash, e.Timestamp, e.Letter, e.TotalUnits, e.Message))
	}
	for _, g := range r.Gaps {
		hash := g.CommitHash
		if len(hash) > 8 {
			hash = hash[:8]
		}
		b.WriteString(fmt.Sprintf("%s  skipped: %s\n", hash, g.Reason))
	}
	return b.String()
}

func formatTaxonomyHuman(t *taxonomy.Taxonomy) string {
	var b strings.Builder
	state := "converged"
	if !t.Converged {
		state = "NOT converged"
	}
	b.WriteString(fmt.Sprintf("Taxonomy: %d categories, %s after %d iteration(s)\n",
		len(t.Categories), state, t.Iterations))
	b.WriteString(fmt.Sprintf("Orthogonality %.3f, balance CV %.3f\n", t.Orthogonality, t.BalanceCV))
	b.WriteString(strings.Repeat("=", 60) + "\n")
	for _, c := range t.Categories {
		indent := ""
		if c.Depth() > 0 {
			indent = "  "
		}
		keywords := strings.Join(c.Keywords, ", ")
		if len(keywords) > 60 {
			keywords = keywords[:60] + "..."
		}
		b.WriteString(fmt.Sprintf("%s%-4s %-16s %5d units  [%s]\n", indent, c.ID, c.Label, c.Units, keywords))
	}
	return b.String()
}

func formatStatusHuman(states []pipeline.StageState) string {
	var b strings.Builder
	b.WriteString("Pipeline status:\n")
	for _, s := range states {
		if !s.Present {
			b.WriteString(fmt.Sprintf("  %-14s (not run)\n", s.Stage))
			continue
		}
		b.WriteString(fmt.Sprintf("  %-14s %-9s %s  run %s\n", s.Stage, s.Status, s.GeneratedAt, s.RunID))
		for _, note := range s.Notes {
			b.WriteString(fmt.Sprintf("  %-14s   note: %s\n", "", note))
		}
	}
	return b.String()
}
