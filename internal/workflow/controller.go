package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fpang/photo-restorer/internal/chat"
	"github.com/fpang/photo-restorer/internal/filehandler"
	"github.com/rs/zerolog/log"
)

// ErrClosed is returned by Dispatch after Close.
var ErrClosed = errors.New("workflow closed")

// Analyzer produces the restoration instruction for an image.
type Analyzer interface {
	Analyze(ctx context.Context, img *filehandler.Image) (string, error)
}

// Restorer produces the restored image.
type Restorer interface {
	Restore(ctx context.Context, prompt string, img *filehandler.Image) (filehandler.DataURI, error)
}

// Previews hands out a URL for image bytes and a function that revokes it.
type Previews interface {
	Acquire(data []byte, mimeType string) (url string, release func())
}

// Option configures a Controller.
type Option func(*Controller)

// WithPreviews makes the controller publish a preview URL for the selected
// image. Without it OriginalPreviewURL stays empty.
func WithPreviews(p Previews) Option {
	return func(c *Controller) { c.previews = p }
}

// WithCallTimeout bounds each remote call. Zero means no timeout.
func WithCallTimeout(d time.Duration) Option {
	return func(c *Controller) { c.callTimeout = d }
}

// Controller owns one workflow. All events, user actions and task results
// alike, are applied under one mutex.
type Controller struct {
	analyzer    Analyzer
	restorer    Restorer
	previews    Previews
	callTimeout time.Duration

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	state      State
	release    func()
	generation uint64
	cancelTask context.CancelFunc
	taskDone   chan struct{}
	closed     bool
}

// NewController creates a controller in the initial state.
func NewController(analyzer Analyzer, restorer Restorer, opts ...Option) *Controller {
	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		analyzer: analyzer,
		restorer: restorer,
		ctx:      ctx,
		stop:     stop,
		state:    Initial(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dispatch applies a user event and returns the resulting state. Validation
// errors (ErrMissingImage, ErrEmptyPrompt) are returned together with the
// state that records them; ErrInvalidTransition leaves the state unchanged.
func (c *Controller) Dispatch(ev Event) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return c.state, ErrClosed
	}
	err := c.apply(ev)
	return c.state, err
}

// Wait blocks until the in-flight remote call, if any, has been applied.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.taskDone
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight call, releases the preview and waits for the
// task goroutines to exit. It is safe to call more than once.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.cancelInFlight()
	c.releasePreview()
	c.mu.Unlock()

	c.stop()
	c.wg.Wait()
	return nil
}

// apply must be called with c.mu held.
func (c *Controller) apply(ev Event) error {
	prev := c.state
	next, effect, err := Transition(prev, ev)
	if errors.Is(err, ErrInvalidTransition) {
		log.Debug().
			Err(err).
			Str("event", ev.EventName()).
			Str("step", string(prev.Step)).
			Msg("Ignoring event")
		return err
	}

	if _, ok := ev.(Reset); ok {
		c.cancelInFlight()
	}

	c.state = next
	if next.Original != prev.Original {
		c.syncPreview()
	}

	if prev.Step != next.Step {
		log.Info().
			Str("event", ev.EventName()).
			Str("from", string(prev.Step)).
			Str("to", string(next.Step)).
			Str("effect", effect.String()).
			Msg("Workflow step changed")
	}

	switch effect {
	case EffectStartAnalysis:
		c.startTask(c.runAnalysis(next.Original))
	case EffectStartRestoration:
		c.startTask(c.runRestoration(next.Prompt, next.Original))
	}
	return err
}

type task func(ctx context.Context) Event

func (c *Controller) runAnalysis(img *filehandler.Image) task {
	return func(ctx context.Context) Event {
		prompt, err := c.analyzer.Analyze(ctx, img)
		if err != nil {
			return AnalysisFailed{Message: userMessage(err, chat.MsgAnalysisFailed)}
		}
		return AnalysisSucceeded{Prompt: prompt}
	}
}

func (c *Controller) runRestoration(prompt string, img *filehandler.Image) task {
	return func(ctx context.Context) Event {
		uri, err := c.restorer.Restore(ctx, prompt, img)
		if err != nil {
			return RestorationFailed{Message: userMessage(err, chat.MsgRestorationFailed)}
		}
		return RestorationSucceeded{Image: uri}
	}
}

// startTask runs t in its own goroutine. Its result is applied only if no
// reset happened in the meantime. Must be called with c.mu held.
func (c *Controller) startTask(t task) {
	c.generation++
	gen := c.generation

	var ctx context.Context
	var cancel context.CancelFunc
	if c.callTimeout > 0 {
		ctx, cancel = context.WithTimeout(c.ctx, c.callTimeout)
	} else {
		ctx, cancel = context.WithCancel(c.ctx)
	}
	done := make(chan struct{})
	c.cancelTask = cancel
	c.taskDone = done

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer close(done)
		defer cancel()

		ev := t(ctx)

		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed || gen != c.generation {
			log.Debug().Str("event", ev.EventName()).Msg("Dropping result of a cancelled call")
			return
		}
		c.cancelTask = nil
		c.apply(ev)
	}()
}

// cancelInFlight must be called with c.mu held.
func (c *Controller) cancelInFlight() {
	if c.cancelTask == nil {
		return
	}
	c.generation++
	c.cancelTask()
	c.cancelTask = nil
	log.Info().Msg("Cancelled in-flight remote call")
}

// syncPreview releases the handle of the previous image and acquires one for
// the current image. Must be called with c.mu held.
func (c *Controller) syncPreview() {
	c.releasePreview()
	img := c.state.Original
	if img == nil || c.previews == nil {
		return
	}
	url, release := c.previews.Acquire(img.Data, img.MIMEType)
	c.state.OriginalPreviewURL = url
	c.release = release
}

func (c *Controller) releasePreview() {
	if c.release != nil {
		c.release()
		c.release = nil
	}
}

// userMessage returns the sanitized message of a remote client error.
func userMessage(err error, fallback string) string {
	var chatErr *chat.Error
	if errors.As(err, &chatErr) && chatErr.Message != "" {
		return chatErr.Message
	}
	return fallback
}
