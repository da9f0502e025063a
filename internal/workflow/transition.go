package workflow

import (
	"errors"
	"fmt"
	"strings"
)

// User-facing validation messages.
const (
	MsgMissingImage         = "Por favor, envie uma imagem primeiro."
	MsgPromptAndImageNeeded = "Um prompt e uma imagem são necessários."
)

var (
	// ErrInvalidTransition is returned for an event the current step does
	// not accept. The state is left unchanged.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrMissingImage is returned when analysis or restoration is requested
	// without a selected image. The state records the message.
	ErrMissingImage = errors.New("missing image")

	// ErrEmptyPrompt is returned when restoration is requested with a blank
	// instruction. The state records the message.
	ErrEmptyPrompt = errors.New("empty prompt")
)

// Transition applies ev to s. It never performs I/O: starting a remote call
// is returned as an Effect. On ErrInvalidTransition the returned state is s.
// Validation errors return a state that records the message.
func Transition(s State, ev Event) (State, Effect, error) {
	switch ev := ev.(type) {
	case Reset:
		return Initial(), EffectNone, nil

	case ClosePreview:
		s.Preview = PreviewNone
		return s, EffectNone, nil

	case ShowPreview:
		switch {
		case ev.Target == PreviewOriginal && s.Original != nil,
			ev.Target == PreviewRestored && s.Restored != "":
			s.Preview = ev.Target
			return s, EffectNone, nil
		}
		return s, EffectNone, invalid(s, ev, "nothing to preview for target %q", ev.Target)

	case SelectImage:
		if s.Step != StepUpload {
			return s, EffectNone, invalid(s, ev, "")
		}
		if ev.Image == nil {
			return Transition(s, ClearImage{})
		}
		if ev.Image == s.Original {
			return s, EffectNone, nil
		}
		s.Original = ev.Image
		s.OriginalPreviewURL = ""
		s.Preview = PreviewNone
		return s, EffectNone, nil

	case ClearImage:
		if s.Step != StepUpload {
			return s, EffectNone, invalid(s, ev, "")
		}
		return Initial(), EffectNone, nil

	case Analyze:
		if s.Step != StepUpload {
			return s, EffectNone, invalid(s, ev, "")
		}
		if s.Original == nil {
			return s.withError(KindMissingImage, MsgMissingImage), EffectNone, ErrMissingImage
		}
		return s.clearError().at(StepAnalyzing), EffectStartAnalysis, nil

	case AnalysisSucceeded:
		if s.Step != StepAnalyzing {
			return s, EffectNone, invalid(s, ev, "")
		}
		s.Prompt = ev.Prompt
		return s.at(StepEditPrompt), EffectNone, nil

	case AnalysisFailed:
		if s.Step != StepAnalyzing {
			return s, EffectNone, invalid(s, ev, "")
		}
		return s.withError(KindAnalysisFailed, ev.Message).at(StepUpload), EffectNone, nil

	case EditPrompt:
		if s.Step != StepEditPrompt {
			return s, EffectNone, invalid(s, ev, "")
		}
		s.Prompt = ev.Text
		return s, EffectNone, nil

	case Restore:
		if s.Step != StepEditPrompt {
			return s, EffectNone, invalid(s, ev, "")
		}
		if s.Original == nil {
			return s.withError(KindMissingImage, MsgPromptAndImageNeeded), EffectNone, ErrMissingImage
		}
		if strings.TrimSpace(s.Prompt) == "" {
			return s.withError(KindEmptyPrompt, MsgPromptAndImageNeeded), EffectNone, ErrEmptyPrompt
		}
		return s.clearError().at(StepRestoring), EffectStartRestoration, nil

	case RestorationSucceeded:
		if s.Step != StepRestoring {
			return s, EffectNone, invalid(s, ev, "")
		}
		s.Restored = ev.Image
		return s.at(StepResult), EffectNone, nil

	case RestorationFailed:
		if s.Step != StepRestoring {
			return s, EffectNone, invalid(s, ev, "")
		}
		return s.withError(KindRestorationFailed, ev.Message).at(StepEditPrompt), EffectNone, nil
	}

	return s, EffectNone, fmt.Errorf("%w: unknown event %T", ErrInvalidTransition, ev)
}

func invalid(s State, ev Event, format string, args ...any) error {
	if format == "" {
		return fmt.Errorf("%w: %s in step %s", ErrInvalidTransition, ev.EventName(), s.Step)
	}
	return fmt.Errorf("%w: %s in step %s: %s", ErrInvalidTransition, ev.EventName(), s.Step, fmt.Sprintf(format, args...))
}
