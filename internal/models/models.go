package models

import "encoding/json"

// Score is a single label/confidence pair returned by the inference service
type Score struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result represents a recognized classification, probabilities sorted by score descending
type Result struct {
	PredictedClass string  `json:"predicted_class"`
	Probabilities  []Score `json:"probabilities"`
}

type OutcomeKind int

const (
	Recognized OutcomeKind = iota
	Unrecognized
)

// Outcome is either a recognized Result or the raw body the service returned.
type Outcome struct {
	kind   OutcomeKind
	result Result
	raw    json.RawMessage
}

func NewRecognized(result Result) Outcome {
	return Outcome{kind: Recognized, result: result}
}

func NewUnrecognized(raw json.RawMessage) Outcome {
	return Outcome{kind: Unrecognized, raw: raw}
}

func (o Outcome) Kind() OutcomeKind { return o.kind }

func (o Outcome) Result() (Result, bool) {
	if o.kind != Recognized {
		return Result{}, false
	}
	return o.result, true
}

func (o Outcome) Raw() (json.RawMessage, bool) {
	if o.kind != Unrecognized {
		return nil, false
	}
	return o.raw, true
}

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseError
	PhaseSuccess
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseError:
		return "error"
	case PhaseSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// State is the request lifecycle of a single controller. Only one phase is active;
// Message is set for PhaseError and Outcome for PhaseSuccess.
type State struct {
	phase     Phase
	seq       uint64
	requestID string
	message   string
	outcome   Outcome
}

func Idle() State {
	return State{phase: PhaseIdle}
}

func Loading(seq uint64, requestID string) State {
	return State{phase: PhaseLoading, seq: seq, requestID: requestID}
}

func Failed(seq uint64, requestID, message string) State {
	return State{phase: PhaseError, seq: seq, requestID: requestID, message: message}
}

func Succeeded(seq uint64, requestID string, outcome Outcome) State {
	return State{phase: PhaseSuccess, seq: seq, requestID: requestID, outcome: outcome}
}

func (s State) Phase() Phase { return s.phase }

// Seq is the submit sequence number that produced this state, 0 for Idle.
func (s State) Seq() uint64 { return s.seq }

func (s State) RequestID() string { return s.requestID }

func (s State) Message() (string, bool) {
	if s.phase != PhaseError {
		return "", false
	}
	return s.message, true
}

func (s State) Outcome() (Outcome, bool) {
	if s.phase != PhaseSuccess {
		return Outcome{}, false
	}
	return s.outcome, true
}
