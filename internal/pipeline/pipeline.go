// Package pipeline wires the stages together. Stages communicate only
// through persisted artifacts: each stage loads its predecessor's
// envelope, validates it, computes, and saves its own. Reruns of a
// single stage therefore never depend on in-process state.
package pipeline

import (
	"github.com/google/uuid"

	"trustdebt/internal/artifact"
	"trustdebt/internal/config"
	"trustdebt/internal/logging"
)

// Context carries one run's identity and wiring. It is immutable after
// construction; stages receive it by value semantics and never mutate
// another stage's artifact.
type Context struct {
	RunID  string
	Cfg    *config.Config
	Store  *artifact.Store
	Logger *logging.Logger
}

// NewContext creates a run context with a fresh run ID. namespace
// isolates concurrent runs; empty selects the configured default.
func NewContext(cfg *config.Config, namespace string, logger *logging.Logger) *Context {
	if namespace == "" {
		namespace = cfg.Artifacts.Namespace
	}
	return &Context{
		RunID:  uuid.NewString(),
		Cfg:    cfg,
		Store:  artifact.NewStore(cfg.RepoRoot, namespace, cfg.Artifacts.CompressMinBytes, logger),
		Logger: logger,
	}
}

// Stages lists the pipeline stages in execution order.
var Stages = []string{
	artifact.StageCorpus,
	artifact.StageKeywordIndex,
	artifact.StageTaxonomy,
	artifact.StageMatrix,
	artifact.StageGrade,
	artifact.StageTimeline,
	artifact.StageNarrative,
}

// StageState summarizes one stage's artifact for status reporting.
type StageState struct {
	Stage       string   `json:"stage"`
	Present     bool     `json:"present"`
	Status      string   `json:"status,omitempty"`
	RunID       string   `json:"runId,omitempty"`
	GeneratedAt string   `json:"generatedAt,omitempty"`
	Notes       []string `json:"notes,omitempty"`
}

// Status inspects each stage's artifact without failing on problems;
// unreadable artifacts report as absent.
func (pc *Context) Status() []StageState {
	states := make([]StageState, 0, len(Stages))
	for _, stage := range Stages {
		state := StageState{Stage: stage, Present: pc.Store.Exists(stage)}
		if state.Present {
			if env, err := pc.Store.Load(stage); err == nil {
				state.Status = string(env.Status)
				state.RunID = env.RunID
				state.GeneratedAt = env.GeneratedAt
				state.Notes = env.Notes
			}
		}
		states = append(states, state)
	}
	return states
}

// worse merges stage statuses: a degraded input degrades the output.
func worse(a, b artifact.Status) artifact.Status {
	if a == artifact.StatusFailed || b == artifact.StatusFailed {
		return artifact.StatusFailed
	}
	if a == artifact.StatusDegraded || b == artifact.StatusDegraded {
		return artifact.StatusDegraded
	}
	return artifact.StatusOK
}
