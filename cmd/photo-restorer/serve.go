package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/fpang/photo-restorer/internal/cli"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/fpang/photo-restorer/internal/preview"
	"github.com/fpang/photo-restorer/internal/workflow"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

//go:embed all:frontend_dist
var frontendFS embed.FS

type serveOptions struct {
	addr          string
	sessionTTL    time.Duration
	sweepInterval time.Duration
	maxUploadMB   int
	previewMaxDim int
	nativeDialog  bool
}

func newServeCmd(opts *globalOptions) *cobra.Command {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the local web UI",
		Long: `Serve starts a local web server with the restoration UI. Each browser
session gets its own workflow: upload a photo, let Gemini analyze it, edit
the suggested instruction, restore, then view and download the result.`,
		Example: `  photo-restorer serve
  photo-restorer serve --addr 127.0.0.1:9090 --session-ttl 1h
  photo-restorer serve --backend rest --call-timeout 3m`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts, so)
		},
	}

	f := cmd.Flags()
	f.StringVar(&so.addr, "addr", "127.0.0.1:8080", "Address to listen on")
	f.DurationVar(&so.sessionTTL, "session-ttl", 30*time.Minute, "Close sessions idle for longer than this")
	f.DurationVar(&so.sweepInterval, "sweep-interval", time.Minute, "How often idle sessions are checked")
	f.IntVar(&so.maxUploadMB, "max-upload-mb", 20, "Maximum upload size in MiB")
	f.IntVar(&so.previewMaxDim, "preview-max-dim", filehandler.DefaultThumbnailMaxDimension, "Downscale previews to this many pixels per side (0 = original)")
	f.BoolVar(&so.nativeDialog, "native-dialog", true, "Allow the UI to open a native file dialog on this machine")

	return cmd
}

func runServe(ctx context.Context, opts *globalOptions, so *serveOptions) error {
	start := time.Now()
	analyzer, restorer := opts.clients(ctx)

	registry := preview.NewRegistry(previewPath, so.previewMaxDim)
	sessions := newSessionStore(func() *workflow.Controller {
		return workflow.NewController(analyzer, restorer,
			workflow.WithPreviews(registry),
			workflow.WithCallTimeout(opts.callTimeout),
		)
	}, so.sessionTTL)

	frontend, err := fs.Sub(frontendFS, "frontend_dist")
	if err != nil {
		return fmt.Errorf("failed to access embedded frontend: %w", err)
	}

	srv := &server{
		sessions:  sessions,
		previews:  registry,
		frontend:  frontend,
		maxUpload: int64(so.maxUploadMB) << 20,
		now:       time.Now,
	}
	if so.nativeDialog {
		srv.pickFile = cli.SelectImageFile
	}

	httpSrv := &http.Server{
		Addr:              so.addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	opts.startupLogger("serve", analyzer, restorer).
		Feature("nativeDialog", so.nativeDialog).
		Config("addr", so.addr).
		Config("sessionTTL", so.sessionTTL.String()).
		InitDuration(time.Since(start)).
		Log()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", so.addr).Msg("Starting web server")
		fmt.Printf("\n  Photo Restorer UI: http://%s\n\n", so.addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return sessions.run(gctx, so.sweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Int("live_previews", registry.Len()).Msg("Server stopped")
	return nil
}
