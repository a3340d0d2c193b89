package keywords

import "regexp"

// PatternGroup ties a semantic area to the lexical pattern that detects
// it. The area is traceability metadata only; category membership is
// decided later by the taxonomy generator.
type PatternGroup struct {
	Area    string
	Pattern *regexp.Regexp
}

// patternGroups is the fixed set of domain-tagged lexical patterns the
// indexer applies to every corpus file. Keep alternations word-bounded:
// the indexer records the matched word itself as the keyword.
var patternGroups = []PatternGroup{
	{
		Area:    "performance",
		Pattern: regexp.MustCompile(`(?i)\b(performance|latency|throughput|benchmark\w*|optimi[sz]\w+|cache|caching|memory|allocation\w*|profiling)\b`),
	},
	{
		Area:    "security",
		Pattern: regexp.MustCompile(`(?i)\b(security|auth\w*|encrypt\w*|credential\w*|sanitiz\w+|vulnerab\w+|permission\w*|token\w*)\b`),
	},
	{
		Area:    "intent",
		Pattern: regexp.MustCompile(`(?i)\b(intent\w*|specification\w*|documented|promise\w*|goal\w*|requirement\w*|design\w*|contract\w*)\b`),
	},
	{
		Area:    "reality",
		Pattern: regexp.MustCompile(`(?i)\b(reality|implement\w*|actual\w*|behavior\w*|commit\w*|codebase|runtime|execution)\b`),
	},
	{
		Area:    "measurement",
		Pattern: regexp.MustCompile(`(?i)\b(measure\w*|metric\w*|score\w*|grade\w*|drift\w*|orthogonal\w*|matrix|asymmetr\w+|quantif\w+)\b`),
	},
	{
		Area:    "timeline",
		Pattern: regexp.MustCompile(`(?i)\b(timeline\w*|history|historical|trend\w*|evolution|regression\w*|snapshot\w*|replay\w*)\b`),
	},
	{
		Area:    "quality",
		Pattern: regexp.MustCompile(`(?i)\b(test\w*|coverage|assert\w*|valid\w*|lint\w*|review\w*|refactor\w*|maintain\w*|reliab\w+)\b`),
	},
	{
		Area:    "architecture",
		Pattern: regexp.MustCompile(`(?i)\b(architecture|module\w*|pipeline\w*|interface\w*|dependenc\w+|component\w*|service\w*|boundar\w+)\b`),
	},
}

// Patterns exposes the fixed pattern table (read-only by convention).
func Patterns() []PatternGroup {
	return patternGroups
}
