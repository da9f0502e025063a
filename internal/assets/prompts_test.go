package assets

import (
	"strings"
	"testing"
)

func TestRestorationAnalysisPrompt(t *testing.T) {
	p := RestorationAnalysisPrompt()
	if p == "" {
		t.Fatal("embedded prompt is empty")
	}
	if p != strings.TrimSpace(p) {
		t.Error("prompt should be trimmed")
	}
	for _, want := range []string{"arranhões", "rasgos", "desbotamento", "nitidez", RestorationLeadPhrase} {
		if !strings.Contains(p, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
