// Package artifact implements the bucket handoff between pipeline
// stages: versioned JSON envelopes under
// .trustdebt/artifacts/<namespace>/. Stages communicate only through
// these files, never through shared memory.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"trustdebt/internal/config"
	"trustdebt/internal/errors"
	"trustdebt/internal/logging"
	"trustdebt/internal/output"
)

// SchemaVersion is the envelope schema; readers reject anything else.
const SchemaVersion = 1

// Stage identifiers. Artifact filenames derive from these.
const (
	StageCorpus       = "corpus"
	StageKeywordIndex = "keyword_index"
	StageTaxonomy     = "taxonomy"
	StageMatrix       = "matrix"
	StageGrade        = "grade"
	StageTimeline     = "timeline"
	StageNarrative    = "narrative"
)

// Status is the stage outcome recorded in the envelope.
type Status string

const (
	// StatusOK means the stage completed cleanly.
	StatusOK Status = "ok"
	// StatusDegraded means the stage completed with recorded caveats
	// (skipped files, non-converged taxonomy). Downstream stages run.
	StatusDegraded Status = "degraded"
	// StatusFailed means the stage did not produce a usable payload.
	// Downstream stages must refuse to read it.
	StatusFailed Status = "failed"
)

// Envelope is the on-disk artifact shape.
type Envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	StageID       string          `json:"stageId"`
	RunID         string          `json:"runId"`
	GeneratedAt   string          `json:"generatedAt"`
	Status        Status          `json:"status"`
	Notes         []string        `json:"notes,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// Store reads and writes one namespace's artifacts.
type Store struct {
	dir         string
	compressMin int
	logger      *logging.Logger
	now         func() time.Time
}

// NewStore creates a Store rooted at
// <repoRoot>/.trustdebt/artifacts/<namespace>. compressMinBytes <= 0
// disables compression.
func NewStore(repoRoot, namespace string, compressMinBytes int, logger *logging.Logger) *Store {
	if namespace == "" {
		namespace = "default"
	}
	return &Store{
		dir:         filepath.Join(repoRoot, config.ConfigDir, "artifacts", namespace),
		compressMin: compressMinBytes,
		logger:      logger,
		now:         time.Now,
	}
}

// Dir returns the namespace directory.
func (s *Store) Dir() string {
	return s.dir
}

// envelope mirrors Envelope with an open payload slot so the
// deterministic encoder normalizes the payload structurally instead of
// treating it as raw bytes.
type envelope struct {
	SchemaVersion int         `json:"schemaVersion"`
	StageID       string      `json:"stageId"`
	RunID         string      `json:"runId"`
	GeneratedAt   string      `json:"generatedAt"`
	Status        Status      `json:"status"`
	Notes         []string    `json:"notes,omitempty"`
	Payload       interface{} `json:"payload"`
}

// Save writes one stage's artifact. The payload goes through the
// deterministic encoder, so identical stage output yields byte-identical
// payload bytes regardless of map iteration order. Large artifacts are
// written zstd-compressed.
func (s *Store) Save(stageID, runID string, status Status, notes []string, payload interface{}) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return errors.New(errors.InternalError, "failed to create artifact directory", err)
	}

	env := envelope{
		SchemaVersion: SchemaVersion,
		StageID:       stageID,
		RunID:         runID,
		GeneratedAt:   s.now().UTC().Format(time.RFC3339),
		Status:        status,
		Notes:         notes,
		Payload:       payload,
	}

	data, err := output.DeterministicEncodeIndented(env, "  ")
	if err != nil {
		return errors.New(errors.InternalError, "failed to encode artifact", err)
	}

	plain := s.path(stageID)
	compressed := plain + ".zst"

	if s.compressMin > 0 && len(data) >= s.compressMin {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return errors.New(errors.InternalError, "failed to create zstd writer", err)
		}
		packed := enc.EncodeAll(data, nil)
		enc.Close()

		if err := writeAtomic(compressed, packed); err != nil {
			return err
		}
		os.Remove(plain)

		s.logger.Debug("Artifact saved compressed", map[string]interface{}{
			"stage":      stageID,
			"bytes":      len(data),
			"compressed": len(packed),
		})
		return nil
	}

	if err := writeAtomic(plain, data); err != nil {
		return err
	}
	os.Remove(compressed)

	s.logger.Debug("Artifact saved", map[string]interface{}{
		"stage": stageID,
		"bytes": len(data),
	})
	return nil
}

// Load reads and validates one stage's envelope. A failed upstream
// stage is itself a fatal error for the reader.
func (s *Store) Load(stageID string) (*Envelope, error) {
	data, err := s.read(stageID)
	if err != nil {
		return nil, err
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.New(errors.ArtifactInvalid,
			fmt.Sprintf("artifact %q is not valid JSON", stageID), err)
	}

	if err := validate(&env, stageID); err != nil {
		return nil, err
	}

	if env.Status == StatusFailed {
		return nil, errors.New(errors.ArtifactFailed,
			fmt.Sprintf("upstream stage %q recorded a failed status", stageID), nil).
			WithDetails(map[string]interface{}{"notes": env.Notes})
	}

	return &env, nil
}

// LoadPayload loads an envelope and unmarshals its payload into v.
func (s *Store) LoadPayload(stageID string, v interface{}) (*Envelope, error) {
	env, err := s.Load(stageID)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(env.Payload, v); err != nil {
		return nil, errors.New(errors.ArtifactInvalid,
			fmt.Sprintf("artifact %q payload has unexpected shape", stageID), err)
	}
	return env, nil
}

// Exists reports whether a stage artifact is present.
func (s *Store) Exists(stageID string) bool {
	if _, err := os.Stat(s.path(stageID)); err == nil {
		return true
	}
	_, err := os.Stat(s.path(stageID) + ".zst")
	return err == nil
}

func (s *Store) path(stageID string) string {
	return filepath.Join(s.dir, stageID+".json")
}

// read returns the artifact bytes, transparently decompressing.
func (s *Store) read(stageID string) ([]byte, error) {
	plain := s.path(stageID)
	if data, err := os.ReadFile(plain); err == nil {
		return data, nil
	}

	packed, err := os.ReadFile(plain + ".zst")
	if err != nil {
		return nil, errors.New(errors.ArtifactMissing,
			fmt.Sprintf("artifact %q not found; run the upstream stage first", stageID), nil).
			WithDetails(map[string]interface{}{"path": plain})
	}

	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.New(errors.InternalError, "failed to create zstd reader", err)
	}
	defer dec.Close()

	data, err := dec.DecodeAll(packed, nil)
	if err != nil {
		return nil, errors.New(errors.ArtifactInvalid,
			fmt.Sprintf("artifact %q is corrupt", stageID), err)
	}
	return data, nil
}

func validate(env *Envelope, stageID string) error {
	switch {
	case env.SchemaVersion != SchemaVersion:
		return invalid(stageID, fmt.Sprintf("unsupported schema version %d", env.SchemaVersion))
	case env.StageID != stageID:
		return invalid(stageID, fmt.Sprintf("envelope names stage %q", env.StageID))
	case env.Status != StatusOK && env.Status != StatusDegraded && env.Status != StatusFailed:
		return invalid(stageID, fmt.Sprintf("unknown status %q", env.Status))
	case len(env.Payload) == 0 && env.Status != StatusFailed:
		return invalid(stageID, "payload is missing")
	}
	return nil
}

func invalid(stageID, reason string) error {
	return errors.New(errors.ArtifactInvalid,
		fmt.Sprintf("artifact %q is malformed: %s", stageID, reason), nil)
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.New(errors.InternalError, "failed to write artifact", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.New(errors.InternalError, "failed to finalize artifact", err)
	}
	return nil
}
