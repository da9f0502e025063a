// Command photo-restorer restores old photos with Gemini: it asks a text
// model to describe the photo's defects and write a restoration instruction,
// lets the user edit that instruction, then asks an image model for the
// restored photo.
//
// Two front ends drive the same workflow:
//
//	photo-restorer serve            # local web UI
//	photo-restorer restore old.jpg  # terminal
package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"
)

// Set at build time via -ldflags "-X main.version=... -X main.commitHash=...".
var (
	version    = "dev"
	commitHash = ""
)

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
