// Package app wires the console, controller, agent runner, checkpoint store,
// and observers into the interactive human-in-the-loop console.
//
// The app initializes from configuration via New, creating all subsystems
// internally. Functional options replace any subsystem, mainly for tests.
//
//	a, err := app.New(ctx, cfg, app.WithTools(reg))
//	defer a.Close()
//	err = a.Run(ctx)
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tailored-agentic-units/hitl/agent"
	"github.com/tailored-agentic-units/hitl/checkpoint"
	"github.com/tailored-agentic-units/hitl/console"
	"github.com/tailored-agentic-units/hitl/controller"
	"github.com/tailored-agentic-units/hitl/model"
	"github.com/tailored-agentic-units/hitl/observability"
	"github.com/tailored-agentic-units/hitl/session"
	"github.com/tailored-agentic-units/hitl/tools"
)

const exitCommand = "exit"

// Option configures an App before its subsystems are built.
type Option func(*options)

type options struct {
	in       io.Reader
	out      io.Writer
	logOut   io.Writer
	model    model.Model
	tools    agent.ToolExecutor
	store    checkpoint.Store
	observer observability.Observer
}

// WithIO sets the console streams. Defaults are stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(o *options) { o.in, o.out = in, out }
}

// WithLogOutput sets where log events are written. Default is stderr.
func WithLogOutput(w io.Writer) Option {
	return func(o *options) { o.logOut = w }
}

// WithModel overrides the scripted model.
func WithModel(m model.Model) Option {
	return func(o *options) { o.model = m }
}

func WithTools(e agent.ToolExecutor) Option {
	return func(o *options) { o.tools = e }
}

// WithStore overrides the config-created checkpoint store.
func WithStore(s checkpoint.Store) Option {
	return func(o *options) { o.store = s }
}

// WithObserver adds an observer next to the configured log sink.
func WithObserver(obs observability.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// App is the running console application.
type App struct {
	console    *console.Console
	runner     *agent.Runner
	session    *session.Session
	controller *controller.Controller
	observer   observability.Observer
	closers    []func() error
}

// New builds every subsystem from cfg. Call Close when done.
func New(ctx context.Context, cfg *Config, opts ...Option) (*App, error) {
	o := options{
		in:     os.Stdin,
		out:    os.Stdout,
		logOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{}

	logObs, flush, err := newLogObserver(cfg.Log, o.logOut)
	if err != nil {
		return nil, fmt.Errorf("failed to create observer: %w", err)
	}
	a.closers = append(a.closers, flush)

	sinks := []observability.Observer{logObs}
	if o.observer != nil {
		sinks = append(sinks, o.observer)
	}
	if cfg.Log.MetricsAddr != "" {
		metricsObs, server, err := startMetrics(cfg.Log.MetricsAddr, cfg.Log.Namespace)
		if err != nil {
			a.Close()
			return nil, err
		}
		sinks = append(sinks, metricsObs)
		a.closers = append(a.closers, server.Close)
	}
	a.observer = observability.NewMultiObserver(sinks...)

	store := o.store
	if store == nil {
		store, err = checkpoint.New(ctx, &cfg.Checkpoint)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		if c, ok := store.(io.Closer); ok {
			a.closers = append(a.closers, c.Close)
		}
	}

	m := o.model
	if m == nil {
		m = model.NewScripted(model.DefaultRules())
	}
	toolset := o.tools
	if toolset == nil {
		toolset = tools.NewRegistry()
	}

	a.runner, err = agent.New(&cfg.Agent, m,
		agent.WithTools(toolset),
		agent.WithStore(store),
		agent.WithObserver(a.observer),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create agent runner: %w", err)
	}

	a.session, err = session.FromConfig(&cfg.Session, a.runner)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	a.console = console.New(o.in, o.out)
	a.controller, err = controller.New(&cfg.Controller, a.console, a.console,
		controller.WithObserver(a.observer),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create controller: %w", err)
	}

	return a, nil
}

// Session returns the conversation the app drives.
func (a *App) Session() *session.Session {
	return a.session
}

// Run reads user lines and runs one turn per line until "exit", end of
// input, or cancellation. Turn errors are reported and the loop continues;
// a failure to read the console ends it. An interrupt still pending on the
// thread is offered again before the next line is read.
func (a *App) Run(ctx context.Context) error {
	a.greet(ctx)

	for {
		if ctx.Err() != nil {
			return nil
		}

		answered, err := a.answerPending(ctx)
		if err != nil {
			return a.stop(ctx, err)
		}
		if answered {
			continue
		}

		line, err := a.console.Prompt(ctx, "\n>>> ")
		if err != nil {
			return a.stop(ctx, err)
		}

		text := strings.TrimSpace(line)
		if strings.EqualFold(text, exitCommand) {
			return nil
		}
		if text == "" {
			continue
		}

		_, err = a.controller.RunTurn(ctx, a.session, text)
		if errors.Is(err, controller.ErrReadInput) {
			return a.stop(ctx, err)
		}
		a.report(err)
	}
}

// stop ends Run after a console read failure. End of input and
// cancellation are normal exits.
func (a *App) stop(ctx context.Context, err error) error {
	fmt.Fprintln(a.console)
	if errors.Is(err, io.EOF) || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}

// answerPending runs a resume turn when the thread holds an unanswered
// interrupt. It reports whether it did. A console read failure is returned.
func (a *App) answerPending(ctx context.Context) (bool, error) {
	signal, err := a.session.Pending(ctx)
	if err != nil {
		fmt.Fprintf(a.console, "\n%s\n", describe(err))
		return false, nil
	}
	if signal == nil {
		return false, nil
	}

	fmt.Fprintf(a.console, "\nInterrupt %s is still awaiting a decision.", signal.ID)
	_, err = a.controller.ResumeTurn(ctx, a.session, *signal)
	if errors.Is(err, controller.ErrReadInput) {
		return false, err
	}
	a.report(err)
	return true, nil
}

func (a *App) report(err error) {
	if err != nil {
		fmt.Fprintf(a.console, "\n%s\n", describe(err))
	}
	fmt.Fprintln(a.console)
}

// greet reports the thread and how much history it carries.
func (a *App) greet(ctx context.Context) {
	fmt.Fprintf(a.console, "Thread %s (type %q to quit)\n", a.session.ID(), exitCommand)

	history, err := a.session.History(ctx)
	if err != nil {
		fmt.Fprintf(a.console, "%s\n", describe(err))
		return
	}
	if len(history) > 0 {
		fmt.Fprintf(a.console, "Resuming conversation with %d earlier messages.\n", len(history))
	}
}

func describe(err error) string {
	var streamErr *controller.RunnerStreamError
	switch {
	case errors.Is(err, controller.ErrInvalidDecisionInput):
		return fmt.Sprintf("⚠️  %v. Nothing was sent; the action is still pending.", err)
	case errors.Is(err, controller.ErrUnsupportedEditTarget):
		return fmt.Sprintf("⚠️  Cannot edit: %v. Nothing was sent; the action is still pending.", err)
	case errors.As(err, &streamErr):
		return fmt.Sprintf("⚠️  Agent error: %v", streamErr.Err)
	default:
		return fmt.Sprintf("⚠️  Error: %v", err)
	}
}

// Close releases the store, the metrics server, and log buffers. The first
// error is returned.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}
