// Package mine runs the candidate funnel: mutate a seed program,
// execute it, match its terms against the OEIS index and emit the
// survivors.
package mine

import "github.com/golang/glog"

// EventKind enumerates everything a worker reports to the metrics
// recorder.
type EventKind int

const (
	EventIterations EventKind = iota
	EventCacheHit
	EventCacheMissOeis
	EventCacheMissAnonymous
	EventErrorSeedLoad
	EventRejectCannotParse
	EventRejectNoOutput
	EventRejectComputeError
	EventRejectMutateNoImpact
	EventRejectNoMatch
	EventRejectFloodGuard
	EventFunnelSurvivor // one per survived stage, Value = term count
	EventCandidate
)

var eventNames = map[EventKind]string{
	EventIterations:           "iterations",
	EventCacheHit:             "cache_hit",
	EventCacheMissOeis:        "cache_miss_oeis",
	EventCacheMissAnonymous:   "cache_miss_anonymous",
	EventErrorSeedLoad:        "error_seed_load",
	EventRejectCannotParse:    "reject_cannot_parse",
	EventRejectNoOutput:       "reject_no_output",
	EventRejectComputeError:   "reject_compute_error",
	EventRejectMutateNoImpact: "reject_mutate_without_impact",
	EventRejectNoMatch:        "reject_no_match",
	EventRejectFloodGuard:     "reject_preventing_flooding",
	EventFunnelSurvivor:       "funnel_survivor",
	EventCandidate:            "candidate_programs",
}

func (k EventKind) String() string {
	if name, ok := eventNames[k]; ok {
		return name
	}
	return "unknown_event"
}

// MetricEvent is one observation from a worker.
type MetricEvent struct {
	Kind  EventKind
	Value uint64
}

// Recorder receives metric events. Implementations must tolerate calls
// from multiple worker goroutines.
type Recorder interface {
	Record(event MetricEvent)
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) Record(MetricEvent) {}

// GlogRecorder logs events at verbosity 2; useful when no metrics
// endpoint is running.
type GlogRecorder struct{}

func (GlogRecorder) Record(event MetricEvent) {
	glog.V(2).Infof("metric %s += %d", event.Kind, event.Value)
}
