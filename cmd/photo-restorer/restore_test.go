package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fpang/photo-restorer/internal/chat"
	"github.com/fpang/photo-restorer/internal/cli"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/workflow"
)

// scriptedRestorer fails the first failures calls and records every prompt.
type scriptedRestorer struct {
	failures int

	mu      sync.Mutex
	prompts []string
}

func (r *scriptedRestorer) Restore(ctx context.Context, prompt string, img *filehandler.Image) (filehandler.DataURI, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.prompts = append(r.prompts, prompt)
	if len(r.prompts) <= r.failures {
		return "", &chat.Error{Kind: chat.KindRestorationFailed, Message: chat.MsgRestorationFailed, Err: errors.New("503")}
	}
	return testRestored, nil
}

func runTerminal(t *testing.T, analyzer workflow.Analyzer, restorer workflow.Restorer, ro *restoreOptions, input string) (string, string, error) {
	t.Helper()

	img, err := filehandler.NewImage("old.png", "image/png", pngBytes(t))
	if err != nil {
		t.Fatal(err)
	}

	ctrl := workflow.NewController(analyzer, restorer)
	defer ctrl.Close()

	var out bytes.Buffer
	outDir := t.TempDir()
	ts := &terminalSession{
		ctrl:     ctrl,
		prompter: cli.NewPrompter(strings.NewReader(input), &out),
		out:      &out,
		opts:     ro,
		now:      func() time.Time { return time.UnixMilli(1700000000000) },
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = ts.run(ctx, img, outDir)
	return out.String(), outDir, err
}

func TestTerminalRestoreAcceptsPrompt(t *testing.T) {
	restorer := &scriptedRestorer{}
	out, dir, err := runTerminal(t, stubAnalyzer{prompt: "Restaure esta foto."}, restorer,
		&restoreOptions{acceptPrompt: true, maxRetries: 3}, "")
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}

	data, err := os.ReadFile(filepath.Join(dir, "restored-photo-1700000000000.png"))
	if err != nil {
		t.Fatalf("restored photo not written: %v", err)
	}
	if string(data) != "ABC" {
		t.Errorf("restored photo = %q, want %q", data, "ABC")
	}
	if len(restorer.prompts) != 1 || restorer.prompts[0] != "Restaure esta foto." {
		t.Errorf("prompts = %q", restorer.prompts)
	}
	for _, want := range []string{"Analisando sua foto...", "Restaurando sua obra-prima...", "Foto restaurada salva em"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestTerminalRestoreEditedPrompt(t *testing.T) {
	restorer := &scriptedRestorer{}
	input := "Remova os arranhões.\nMantenha o sépia.\n.\n"
	out, _, err := runTerminal(t, stubAnalyzer{prompt: "Restaure esta foto."}, restorer,
		&restoreOptions{maxRetries: 3}, input)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if want := "Remova os arranhões.\nMantenha o sépia."; len(restorer.prompts) != 1 || restorer.prompts[0] != want {
		t.Errorf("prompts = %q, want [%q]", restorer.prompts, want)
	}
}

func TestTerminalRestoreRetriesFailures(t *testing.T) {
	restorer := &scriptedRestorer{failures: 1}
	// Keep the prompt, accept the retry, keep the prompt again.
	input := "\ny\n\n"
	out, _, err := runTerminal(t, stubAnalyzer{prompt: "Restaure esta foto."}, restorer,
		&restoreOptions{maxRetries: 3}, input)
	if err != nil {
		t.Fatalf("run: %v\n%s", err, out)
	}
	if len(restorer.prompts) != 2 {
		t.Errorf("restore calls = %d, want 2", len(restorer.prompts))
	}
	if !strings.Contains(out, chat.MsgRestorationFailed) {
		t.Errorf("output missing failure message:\n%s", out)
	}
}

func TestTerminalRestoreGivesUp(t *testing.T) {
	analysisErr := &chat.Error{Kind: chat.KindAnalysisFailed, Message: chat.MsgAnalysisFailed, Err: errors.New("quota")}
	restorer := &scriptedRestorer{}
	out, _, err := runTerminal(t, stubAnalyzer{err: analysisErr}, restorer,
		&restoreOptions{acceptPrompt: true, maxRetries: 2}, "")
	if err == nil || err.Error() != chat.MsgAnalysisFailed {
		t.Fatalf("err = %v, want %q", err, chat.MsgAnalysisFailed)
	}
	if strings.Count(out, "Analisando sua foto...") != 3 {
		t.Errorf("expected 3 analysis attempts:\n%s", out)
	}
	if len(restorer.prompts) != 0 {
		t.Errorf("restorer called %d times after failed analysis", len(restorer.prompts))
	}
}

func TestTerminalRestoreBlankPromptStops(t *testing.T) {
	restorer := &scriptedRestorer{}
	out, _, err := runTerminal(t, stubAnalyzer{prompt: "   "}, restorer,
		&restoreOptions{acceptPrompt: true, maxRetries: 3}, "")
	if !errors.Is(err, workflow.ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
	if !strings.Contains(out, workflow.MsgPromptAndImageNeeded) {
		t.Errorf("output missing validation message:\n%s", out)
	}
	if len(restorer.prompts) != 0 {
		t.Errorf("restorer called with blank prompt")
	}
}
