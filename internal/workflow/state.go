// Package workflow implements the photo restoration workflow as an explicit
// state machine.
//
// Transition is a pure function from (State, Event) to (State, Effect). The
// Controller owns one State, applies events one at a time and runs the
// effects (the two remote calls) as cancellable tasks whose results are fed
// back as events.
package workflow

import "github.com/fpang/photo-restorer/internal/filehandler"

// Step is the single phase the workflow is in.
type Step string

const (
	StepUpload     Step = "upload"
	StepAnalyzing  Step = "analyzing"
	StepEditPrompt Step = "edit_prompt"
	StepRestoring  Step = "restoring"
	StepResult     Step = "result"
)

// PreviewTarget selects which image is shown enlarged.
type PreviewTarget string

const (
	PreviewNone     PreviewTarget = ""
	PreviewOriginal PreviewTarget = "original"
	PreviewRestored PreviewTarget = "restored"
)

// ErrorKind classifies the message held in State.Error.
type ErrorKind string

const (
	KindMissingImage      ErrorKind = "MissingImage"
	KindEmptyPrompt       ErrorKind = "EmptyPrompt"
	KindAnalysisFailed    ErrorKind = "AnalysisFailed"
	KindRestorationFailed ErrorKind = "RestorationFailed"
)

// State is the complete workflow state. It is a plain value: copying it is
// a snapshot.
type State struct {
	Step     Step               `json:"step"`
	Original *filehandler.Image `json:"original,omitempty"`

	// OriginalPreviewURL is filled by the Controller from its preview
	// registry; Transition only ever clears it.
	OriginalPreviewURL string `json:"originalPreviewUrl,omitempty"`

	Prompt    string              `json:"prompt"`
	Restored  filehandler.DataURI `json:"restored,omitempty"`
	Error     string              `json:"error,omitempty"`
	ErrorKind ErrorKind           `json:"errorKind,omitempty"`
	Preview   PreviewTarget       `json:"preview,omitempty"`

	// Busy is true while a remote call is in flight.
	Busy bool `json:"busy"`
}

// Initial returns the state of a fresh workflow.
func Initial() State {
	return State{Step: StepUpload}
}

// HasImage reports whether an original image is selected.
func (s State) HasImage() bool {
	return s.Original != nil
}

func (s State) withError(kind ErrorKind, msg string) State {
	s.Error, s.ErrorKind = msg, kind
	return s
}

func (s State) clearError() State {
	s.Error, s.ErrorKind = "", ""
	return s
}

func (s State) at(step Step) State {
	s.Step = step
	s.Busy = step == StepAnalyzing || step == StepRestoring
	return s
}
