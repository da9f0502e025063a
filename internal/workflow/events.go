package workflow

import "github.com/fpang/photo-restorer/internal/filehandler"

// Event is an input to Transition. User actions and task results are both
// events.
type Event interface {
	EventName() string
}

// SelectImage selects or replaces the original image.
type SelectImage struct{ Image *filehandler.Image }

// ClearImage drops the selected image and resets the workflow.
type ClearImage struct{}

// Analyze requests the restoration instruction for the selected image.
type Analyze struct{}

// AnalysisSucceeded carries the generated instruction.
type AnalysisSucceeded struct{ Prompt string }

// AnalysisFailed carries the user-facing failure message.
type AnalysisFailed struct{ Message string }

// EditPrompt replaces the instruction text.
type EditPrompt struct{ Text string }

// Restore submits the instruction and the original image.
type Restore struct{}

// RestorationSucceeded carries the restored image.
type RestorationSucceeded struct{ Image filehandler.DataURI }

// RestorationFailed carries the user-facing failure message.
type RestorationFailed struct{ Message string }

// Reset returns to the initial state.
type Reset struct{}

// ShowPreview selects an image for enlarged display.
type ShowPreview struct{ Target PreviewTarget }

// ClosePreview clears the preview selection.
type ClosePreview struct{}

func (SelectImage) EventName() string          { return "SelectImage" }
func (ClearImage) EventName() string           { return "ClearImage" }
func (Analyze) EventName() string              { return "Analyze" }
func (AnalysisSucceeded) EventName() string    { return "AnalysisSucceeded" }
func (AnalysisFailed) EventName() string       { return "AnalysisFailed" }
func (EditPrompt) EventName() string           { return "EditPrompt" }
func (Restore) EventName() string              { return "Restore" }
func (RestorationSucceeded) EventName() string { return "RestorationSucceeded" }
func (RestorationFailed) EventName() string    { return "RestorationFailed" }
func (Reset) EventName() string                { return "Reset" }
func (ShowPreview) EventName() string          { return "ShowPreview" }
func (ClosePreview) EventName() string         { return "ClosePreview" }

// Effect is the work a transition asks the Controller to start.
type Effect int

const (
	EffectNone Effect = iota
	EffectStartAnalysis
	EffectStartRestoration
)

func (e Effect) String() string {
	switch e {
	case EffectStartAnalysis:
		return "startAnalysis"
	case EffectStartRestoration:
		return "startRestoration"
	default:
		return "none"
	}
}
