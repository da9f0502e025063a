package main

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/fpang/photo-restorer/internal/auth"
	"github.com/fpang/photo-restorer/internal/chat"
	"github.com/fpang/photo-restorer/internal/cli"
	"github.com/fpang/photo-restorer/internal/logging"
	"github.com/fpang/photo-restorer/internal/metrics"
	"github.com/spf13/cobra"
)

// globalOptions holds the persistent flags shared by every subcommand.
type globalOptions struct {
	envFiles         []string
	metrics          bool
	backend          string
	restTimeout      time.Duration
	callTimeout      time.Duration
	analysisModel    string
	restorationModel string
	validateKey      bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "photo-restorer",
		Short: "AI-powered restoration of old photos",
		Long: `Photo Restorer gives new life to old photos. Gemini analyzes the photo,
describes its defects (scratches, tears, fading, blur) and writes a
restoration instruction. You review and edit the instruction, then an
image model produces the restored photo.

The API key is read from GEMINI_API_KEY (or API_KEY). A .env file in the
current directory is loaded first.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupEnvironment(os.Stderr, opts.envFiles); err != nil {
				return err
			}
			if opts.metrics {
				metrics.Enable(nil, "photo-restorer")
			}
			return nil
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringSliceVar(&opts.envFiles, "env-file", nil, "Environment files to load (default .env)")
	pf.BoolVar(&opts.metrics, "metrics", false, "Emit Embedded Metric Format lines on stdout")
	pf.StringVar(&opts.backend, "backend", chat.BackendSDK, "Gemini transport: sdk or rest")
	pf.DurationVar(&opts.restTimeout, "rest-timeout", 5*time.Minute, "HTTP timeout of the rest backend")
	pf.DurationVar(&opts.callTimeout, "call-timeout", 0, "Timeout of each analysis or restoration call (0 = none)")
	pf.StringVar(&opts.analysisModel, "analysis-model", "", "Analysis model (default $GEMINI_MODEL or "+chat.DefaultAnalysisModel+")")
	pf.StringVar(&opts.restorationModel, "restoration-model", "", "Restoration model (default $GEMINI_IMAGE_MODEL or "+chat.DefaultRestorationModel+")")
	pf.BoolVar(&opts.validateKey, "validate-key", false, "Validate the API key with a test request at startup")

	cmd.AddCommand(newServeCmd(opts), newRestoreCmd(opts))
	return cmd
}

// setupEnvironment installs the console logger, then loads the .env files.
// The log level is read again afterwards since a .env file may set it.
func setupEnvironment(logOut io.Writer, envFiles []string) error {
	logging.InitWithWriter(logOut, os.Getenv("GEMINI_LOG_LEVEL"))
	if err := auth.LoadDotEnv(envFiles...); err != nil {
		return err
	}
	logging.ReloadLevel()
	return nil
}

// clients creates the analysis and restoration clients over one backend.
// It exits fatally when no credential is configured.
func (o *globalOptions) clients(ctx context.Context) (*chat.Analyzer, *chat.Restorer) {
	analysisModel := o.analysisModel
	if analysisModel == "" {
		analysisModel = chat.AnalysisModelName()
	}

	backend := cli.InitBackend(ctx, cli.BackendConfig{
		Name:            o.backend,
		RESTTimeout:     o.restTimeout,
		ValidateKey:     o.validateKey,
		ValidationModel: analysisModel,
	})
	return chat.NewAnalyzer(backend, analysisModel), chat.NewRestorer(backend, o.restorationModel)
}

// startupLogger pre-fills the fields every command logs at startup.
func (o *globalOptions) startupLogger(name string, analyzer *chat.Analyzer, restorer *chat.Restorer) *logging.StartupLogger {
	return logging.NewStartupLogger(name).
		Version(version).
		CommitHash(commitHash).
		Model("analysis", analyzer.Model()).
		Model("restoration", restorer.Model()).
		Feature("metrics", o.metrics).
		Feature("validateKey", o.validateKey).
		Config("backend", o.backend).
		Config("callTimeout", o.callTimeout.String())
}
