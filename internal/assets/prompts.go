package assets

import (
	_ "embed"
	"strings"
)

//go:embed prompts/restoration-analysis.txt
var restorationAnalysisPrompt string

// RestorationAnalysisPrompt returns the fixed analysis instruction. It asks
// the model to list the defects of an old photo (scratches, tears, fading,
// blur) and to answer with a directive restoration instruction that starts
// with "Restaure esta foto...".
func RestorationAnalysisPrompt() string {
	return strings.TrimSpace(restorationAnalysisPrompt)
}

// RestorationLeadPhrase is the imperative phrase generated instructions begin with.
const RestorationLeadPhrase = "Restaure esta foto"
