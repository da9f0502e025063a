package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/fpang/photo-restorer/internal/cli"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/workflow"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type restoreOptions struct {
	outputDir    string
	acceptPrompt bool
	noDialog     bool
	maxRetries   int
}

func newRestoreCmd(opts *globalOptions) *cobra.Command {
	ro := &restoreOptions{}

	cmd := &cobra.Command{
		Use:   "restore [image]",
		Short: "Restore one photo from the terminal",
		Long: `Restore runs the restoration workflow in the terminal: the photo is
analyzed, the suggested instruction is shown for editing, and the restored
photo is written as restored-photo-<timestamp>.png.

Without an image argument a native file dialog is opened; if no dialog is
available the path is asked on the terminal.`,
		Example: `  photo-restorer restore grandparents-1952.jpg
  photo-restorer restore scan.png --output ./restored --yes
  photo-restorer restore  # pick the file in a dialog`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			return runRestore(cmd.Context(), opts, ro, path, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&ro.outputDir, "output", "o", ".", "Directory the restored photo is written to")
	f.BoolVarP(&ro.acceptPrompt, "yes", "y", false, "Use the generated instruction without editing and do not ask to retry")
	f.BoolVar(&ro.noDialog, "no-dialog", false, "Ask for the image path on the terminal instead of opening a dialog")
	f.IntVar(&ro.maxRetries, "max-retries", 3, "How many times a failed call may be retried")

	return cmd
}

func runRestore(ctx context.Context, opts *globalOptions, ro *restoreOptions, path string, in io.Reader, out io.Writer) error {
	prompter := cli.NewPrompter(in, out)

	outDir, err := cli.ResolveOutputDirectory(ro.outputDir)
	if err != nil {
		return err
	}

	if path == "" {
		path, err = choosePath(prompter, ro.noDialog)
		if err != nil {
			return err
		}
	}

	img, err := filehandler.LoadImage(path)
	if err != nil {
		return err
	}

	start := time.Now()
	analyzer, restorer := opts.clients(ctx)
	opts.startupLogger("restore", analyzer, restorer).
		Config("output", outDir).
		InitDuration(time.Since(start)).
		Log()

	ctrl := workflow.NewController(analyzer, restorer, workflow.WithCallTimeout(opts.callTimeout))
	defer ctrl.Close()

	t := &terminalSession{
		ctrl:     ctrl,
		prompter: prompter,
		out:      out,
		opts:     ro,
		now:      time.Now,
	}
	return t.run(ctx, img, outDir)
}

// choosePath asks for the photo with the native dialog, falling back to the
// terminal when no dialog can be shown.
func choosePath(p *cli.Prompter, noDialog bool) (string, error) {
	if !noDialog {
		path, err := cli.SelectImageFile()
		if err == nil {
			return path, nil
		}
		if errors.Is(err, cli.ErrNoSelection) {
			return "", err
		}
		log.Warn().Err(err).Msg("Native file dialog unavailable, asking on the terminal")
	}
	path := p.Line("Image file (PNG, JPG, WEBP)", "")
	if path == "" {
		return "", cli.ErrNoSelection
	}
	return path, nil
}

// terminalSession drives one workflow from terminal input.
type terminalSession struct {
	ctrl     *workflow.Controller
	prompter *cli.Prompter
	out      io.Writer
	opts     *restoreOptions
	now      func() time.Time
}

func (t *terminalSession) run(ctx context.Context, img *filehandler.Image, outDir string) error {
	started := t.now()
	t.describe(img)

	if _, err := t.ctrl.Dispatch(workflow.SelectImage{Image: img}); err != nil {
		return err
	}

	if err := t.analyze(ctx); err != nil {
		return err
	}
	if err := t.restore(ctx); err != nil {
		return err
	}

	st := t.ctrl.State()
	data, _, err := st.Restored.Bytes()
	if err != nil {
		return fmt.Errorf("restored image is unreadable: %w", err)
	}

	outPath := filepath.Join(outDir, filehandler.RestoredFilename(t.now()))
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write restored photo: %w", err)
	}

	log.Info().Str("path", outPath).Int("bytes", len(data)).Msg("Restored photo saved")
	fmt.Fprintf(t.out, "\nFoto restaurada salva em %s (%s, %s)\n",
		outPath, cli.FormatBytes(len(data)), cli.FormatDurationShort(t.now().Sub(started)))
	return nil
}

func (t *terminalSession) describe(img *filehandler.Image) {
	fmt.Fprintf(t.out, "Foto: %s (%s", img.Name, cli.FormatBytes(img.Size))
	if img.Width > 0 {
		fmt.Fprintf(t.out, ", %dx%d", img.Width, img.Height)
	}
	fmt.Fprintln(t.out, ")")
	if summary := img.Metadata.Summary(); summary != "" {
		fmt.Fprintf(t.out, "      %s\n", summary)
	}
}

// analyze runs analysis until it succeeds or the user gives up.
func (t *terminalSession) analyze(ctx context.Context) error {
	for attempt := 0; ; attempt++ {
		if _, err := t.ctrl.Dispatch(workflow.Analyze{}); err != nil {
			return err
		}
		fmt.Fprintln(t.out, "\nAnalisando sua foto... Isso pode levar alguns instantes.")

		st, err := t.wait(ctx)
		if err != nil {
			return err
		}
		if st.Step == workflow.StepEditPrompt {
			return nil
		}

		fmt.Fprintln(t.out, st.Error)
		if !t.retry(attempt) {
			return errors.New(st.Error)
		}
	}
}

// restore edits the instruction and restores until it succeeds or the user
// gives up.
func (t *terminalSession) restore(ctx context.Context) error {
	for attempt := 0; ; {
		st := t.ctrl.State()
		text := st.Prompt
		if !t.opts.acceptPrompt {
			text = t.prompter.EditText("\nPrompt de Restauração Sugerido", st.Prompt)
		}
		if _, err := t.ctrl.Dispatch(workflow.EditPrompt{Text: text}); err != nil {
			return err
		}

		st, err := t.ctrl.Dispatch(workflow.Restore{})
		if errors.Is(err, workflow.ErrEmptyPrompt) || errors.Is(err, workflow.ErrMissingImage) {
			fmt.Fprintln(t.out, st.Error)
			if t.opts.acceptPrompt || !t.retry(attempt) {
				return err
			}
			attempt++
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(t.out, "\nRestaurando sua obra-prima... Isso pode levar alguns instantes.")

		st, err = t.wait(ctx)
		if err != nil {
			return err
		}
		if st.Step == workflow.StepResult {
			return nil
		}

		fmt.Fprintln(t.out, st.Error)
		if !t.retry(attempt) {
			return errors.New(st.Error)
		}
		attempt++
	}
}

func (t *terminalSession) retry(attempt int) bool {
	if attempt >= t.opts.maxRetries {
		return false
	}
	if t.opts.acceptPrompt {
		return true
	}
	return t.prompter.Confirm("Tentar novamente?", true)
}

func (t *terminalSession) wait(ctx context.Context) (workflow.State, error) {
	if err := t.ctrl.Wait(ctx); err != nil {
		return workflow.State{}, err
	}
	return t.ctrl.State(), nil
}
