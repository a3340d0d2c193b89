// Package errors defines the stable error codes shared by all pipeline
// stages. Data-quality problems (missing files, unparseable commits) are
// recovered locally and never use these codes; anything that reaches a
// PipelineError is meant to surface to the top level.
package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// ConfigInvalid indicates the configuration failed startup validation
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// CorpusEmpty indicates a corpus glob matched no readable files
	CorpusEmpty ErrorCode = "CORPUS_EMPTY"
	// CorpusOverlap indicates a file matched both Intent and Reality globs
	CorpusOverlap ErrorCode = "CORPUS_OVERLAP"
	// ArtifactMissing indicates a required upstream artifact does not exist
	ArtifactMissing ErrorCode = "ARTIFACT_MISSING"
	// ArtifactInvalid indicates an upstream artifact is structurally malformed
	ArtifactInvalid ErrorCode = "ARTIFACT_INVALID"
	// ArtifactFailed indicates the upstream stage recorded a failed status
	ArtifactFailed ErrorCode = "ARTIFACT_FAILED"
	// GitUnavailable indicates git is missing or the directory is not a repository
	GitUnavailable ErrorCode = "GIT_UNAVAILABLE"
	// Timeout indicates an external command timed out
	Timeout ErrorCode = "TIMEOUT"
	// InternalError indicates an unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditConfig suggests editing the configuration file
	EditConfig FixActionType = "edit-config"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Safe        bool          `json:"safe,omitempty"`
	Description string        `json:"description,omitempty"`
}

// PipelineError represents a pipeline error with code, message, and suggestions
type PipelineError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Details        interface{} `json:"details,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new PipelineError
func New(code ErrorCode, message string, cause error) *PipelineError {
	return &PipelineError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.cause
}

// WithDetails adds details to the error
func (e *PipelineError) WithDetails(details interface{}) *PipelineError {
	e.Details = details
	return e
}

// WithFixes adds suggested fixes to the error
func (e *PipelineError) WithFixes(fixes ...FixAction) *PipelineError {
	e.SuggestedFixes = append(e.SuggestedFixes, fixes...)
	return e
}

// CodeOf returns the ErrorCode carried by err, or InternalError for
// errors that did not originate in this package.
func CodeOf(err error) ErrorCode {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return InternalError
}

// IsFatal reports whether an error code represents a structural failure
// that must abort the stage, as opposed to a data-quality condition a
// stage may degrade around.
func IsFatal(code ErrorCode) bool {
	switch code {
	case ConfigInvalid, ArtifactMissing, ArtifactInvalid, ArtifactFailed, CorpusOverlap:
		return true
	}
	return false
}
