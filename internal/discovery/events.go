// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discovery orchestrates a reviewer discovery run: per-candidate
// bibliographic search, identity verification, conflict detection,
// independent database discovery, and ranking. Partial results always
// beat total failure; a candidate that cannot be verified is surfaced
// with a reason, never dropped.
package discovery

import "fmt"

// Stage labels the pipeline stage an event or error belongs to.
type Stage string

const (
	StageAnalysis     Stage = "analysis"
	StageVerification Stage = "verification"
	StageDiscovery    Stage = "discovery"
	StageRanking      Stage = "ranking"
)

// EventKind classifies progress events.
type EventKind string

const (
	EventStageStarted        EventKind = "stage_started"
	EventCandidateVerified   EventKind = "candidate_verified"
	EventCandidateUnverified EventKind = "candidate_unverified"
	EventCandidateDiscovered EventKind = "candidate_discovered"
	EventSourceDegraded      EventKind = "source_degraded"
)

// Event is one structured progress update. Events are an observability
// convenience: losing one never affects the final result.
type Event struct {
	Stage     Stage
	Kind      EventKind
	Candidate string
	Message   string

	// Confidence is set for candidate_verified events.
	Confidence float64
}

// String renders the event as a one-line progress message.
func (e Event) String() string {
	switch e.Kind {
	case EventCandidateVerified:
		return fmt.Sprintf("[%s] %s: verified (confidence %.2f)", e.Stage, e.Candidate, e.Confidence)
	case EventCandidateUnverified:
		return fmt.Sprintf("[%s] %s: unverified: %s", e.Stage, e.Candidate, e.Message)
	case EventCandidateDiscovered:
		return fmt.Sprintf("[%s] %s: %s", e.Stage, e.Candidate, e.Message)
	case EventSourceDegraded:
		return fmt.Sprintf("[%s] warning: %s", e.Stage, e.Message)
	default:
		return fmt.Sprintf("[%s] %s", e.Stage, e.Message)
	}
}

// ProgressFunc receives progress events. May be nil.
type ProgressFunc func(Event)

// emit delivers an event when a sink is attached.
func emit(progress ProgressFunc, e Event) {
	if progress != nil {
		progress(e)
	}
}

// StageError labels a fatal error with the stage it occurred in, so the
// caller can report which part of the run failed without inspecting
// error text.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
