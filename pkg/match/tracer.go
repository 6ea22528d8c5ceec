package match

import (
	"github.com/go-logr/logr"

	"github.com/akihikokuroda/typematch/pkg/sat"
)

type EventKind int

const (
	// EventRound starts a round of the fixpoint; Variables is the batch
	// size.
	EventRound EventKind = iota
	// EventVariable reports an Equality discovered after the initial
	// batch.
	EventVariable
	// EventUniverse reports the final number of Types and Variables.
	EventUniverse
	// EventAssignment reports a solved Equality whose value is not false.
	EventAssignment
	// EventConflict reports an incomplete class assigned to more than one
	// complete type. Current replaces Previous in the result.
	EventConflict
	// EventSkipped reports a true Equality that does not translate into a
	// substitution entry.
	EventSkipped
)

func (k EventKind) String() string {
	switch k {
	case EventRound:
		return "round"
	case EventVariable:
		return "variable"
	case EventUniverse:
		return "universe"
	case EventAssignment:
		return "assignment"
	case EventConflict:
		return "conflict"
	case EventSkipped:
		return "skipped"
	}
	return "unknown"
}

// Event is emitted by the Encoder at notable points of a session.
type Event struct {
	Kind      EventKind
	Round     int
	Equality  Equality
	Value     sat.Value
	Types     int
	Variables int
	Class     *ClassType
	Previous  Type
	Current   Type
}

type Tracer interface {
	Trace(e Event)
}

type DefaultTracer struct{}

func (DefaultTracer) Trace(_ Event) {
}

// LoggingTracer writes events to a logr.Logger. Per-variable events are
// logged at V(1) and conflicts as errors with a nil error.
type LoggingTracer struct {
	Logger logr.Logger
}

func (t LoggingTracer) Trace(e Event) {
	switch e.Kind {
	case EventRound:
		t.Logger.V(1).Info("processing variables", "round", e.Round, "variables", e.Variables)
	case EventVariable:
		t.Logger.V(1).Info("new variable", "variable", e.Equality.String())
	case EventUniverse:
		t.Logger.Info("universe stable", "types", e.Types, "variables", e.Variables)
	case EventAssignment:
		t.Logger.V(1).Info("sat result", "variable", e.Equality.String(), "value", e.Value.String())
	case EventConflict:
		t.Logger.Error(nil, "incomplete class is assigned more than once to a complete type",
			"class", e.Class.String(), "previous", e.Previous.String(), "current", e.Current.String())
	case EventSkipped:
		t.Logger.V(1).Info("no substitution for variable", "variable", e.Equality.String())
	}
}

// Collector records every event it is given.
type Collector struct {
	Events []Event
}

func (c *Collector) Trace(e Event) {
	c.Events = append(c.Events, e)
}

// Of returns the recorded events of kind k.
func (c *Collector) Of(k EventKind) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}
