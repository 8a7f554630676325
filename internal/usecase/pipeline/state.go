package pipeline

import (
	"errors"

	domret "github.com/kailas-cloud/inquirydesk/internal/domain/retrieval"
	"github.com/kailas-cloud/inquirydesk/internal/domain/triage"
)

// Step is the position of a run in the Retrieving -> Generating -> Done machine.
type Step string

const (
	// StepRetrieving is the initial step.
	StepRetrieving Step = "retrieving"
	// StepGenerating follows a completed retrieval.
	StepGenerating Step = "generating"
	// StepDone is terminal.
	StepDone Step = "done"
)

var (
	// ErrContextAlreadySet signals a second write to the retrieved documents.
	ErrContextAlreadySet = errors.New("pipeline: context already set")
	// ErrResponseAlreadySet signals a second write to the response.
	ErrResponseAlreadySet = errors.New("pipeline: response already set")
	// ErrOutOfOrder signals a write in the wrong step.
	ErrOutOfOrder = errors.New("pipeline: stage out of order")
	// ErrNoResponse signals a run that finished without a response.
	ErrNoResponse = errors.New("pipeline: no response produced")
)

// State carries one inquiry through the pipeline. Each field is written at most once
// and only by the stage that owns it. A State is never shared between runs.
type State struct {
	userMessage string
	context     []domret.Document
	response    *triage.Result
	step        Step
}

// NewState starts a run for the given inquiry.
func NewState(userMessage string) *State {
	return &State{userMessage: userMessage, step: StepRetrieving}
}

// UserMessage returns the inquiry text.
func (s *State) UserMessage() string { return s.userMessage }

// Context returns the retrieved documents (empty until retrieval completes).
func (s *State) Context() []domret.Document { return s.context }

// Step returns the current step.
func (s *State) Step() Step { return s.step }

// SetContext records the retrieval output and advances to StepGenerating.
func (s *State) SetContext(docs []domret.Document) error {
	if s.context != nil {
		return ErrContextAlreadySet
	}
	if s.step != StepRetrieving {
		return ErrOutOfOrder
	}
	if docs == nil {
		docs = []domret.Document{}
	}
	s.context = docs
	s.step = StepGenerating
	return nil
}

// SetResponse records the generation output and advances to StepDone.
func (s *State) SetResponse(res triage.Result) error {
	if s.response != nil {
		return ErrResponseAlreadySet
	}
	if s.step != StepGenerating {
		return ErrOutOfOrder
	}
	s.response = &res
	s.step = StepDone
	return nil
}

// Response returns the final result once the run is done.
func (s *State) Response() (triage.Result, error) {
	if s.response == nil {
		return triage.Result{}, ErrNoResponse
	}
	return *s.response, nil
}
