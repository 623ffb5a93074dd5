package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/tailored-agentic-units/hitl/agent"
	"github.com/tailored-agentic-units/hitl/app"
)

func main() {
	var (
		configFile    = flag.String("config", "", "Path to JSON or YAML config file")
		threadID      = flag.String("thread", "", "Conversation thread ID (overrides config)")
		checkpoint    = flag.String("checkpoint", "", "Checkpoint backend: memory, file, redis, sql (overrides config)")
		redisURL      = flag.String("redis-url", "", "Redis URL for the redis checkpoint backend (overrides config)")
		interruptOn   = flag.String("interrupt-on", "internet_search", "Comma-separated tools that require approval; empty to approve none")
		streamMode    = flag.String("stream-mode", "", "Runner stream mode: values or messages (overrides config)")
		maxInterrupts = flag.Int("max-interrupts", -1, "Maximum interrupts per turn; 0 for unlimited (overrides config)")
		systemPrompt  = flag.String("system-prompt", "", "System prompt (overrides config)")
		logFormat     = flag.String("log", "", "Event log format: slog, zap, noop (overrides config)")
		metricsAddr   = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (overrides config)")
		verbose       = flag.Bool("verbose", false, "Enable verbose logging to stderr")
	)
	flag.Parse()

	cfg := app.DefaultConfig()
	if *configFile != "" {
		loaded, err := app.LoadConfig(*configFile)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = *loaded
	}

	cfg.ApplyEnv(os.Getenv)

	if *threadID != "" {
		cfg.Session.ThreadID = *threadID
	}
	if *checkpoint != "" {
		cfg.Checkpoint.Backend = *checkpoint
	}
	if *redisURL != "" {
		cfg.Checkpoint.Redis.URL = *redisURL
	}
	if flagSet("interrupt-on") || len(cfg.Agent.InterruptOn) == 0 {
		cfg.Agent.InterruptOn = parseToolList(*interruptOn)
	}
	if *streamMode != "" {
		cfg.Agent.StreamMode = agent.StreamMode(*streamMode)
	}
	if *maxInterrupts >= 0 {
		cfg.Controller.MaxInterrupts = *maxInterrupts
	}
	if *systemPrompt != "" {
		cfg.Agent.SystemPrompt = *systemPrompt
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *metricsAddr != "" {
		cfg.Log.MetricsAddr = *metricsAddr
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		// The first interrupt cancels ctx; restore the default so a second one kills.
		<-ctx.Done()
		stop()
	}()

	a, err := app.New(ctx, &cfg, app.WithTools(builtinTools()))
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		log.Fatalf("Session failed: %v", err)
	}
}

func flagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func parseToolList(list string) map[string]bool {
	guarded := map[string]bool{}
	for name := range strings.SplitSeq(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			guarded[name] = true
		}
	}
	return guarded
}
