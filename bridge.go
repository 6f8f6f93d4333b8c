package lmbridge

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/filegrind/lmbridge-go/capability"
	"github.com/filegrind/lmbridge-go/metrics"
	"github.com/filegrind/lmbridge-go/program"
	"github.com/filegrind/lmbridge-go/wire"
)

const (
	defaultLMTimeout    = 60 * time.Second
	defaultProbeTimeout = 15 * time.Second
)

// LMFactory builds the language model client configure_lm installs.
// The bridge validates provider and model before calling it.
type LMFactory func(provider, model, apiKey string) (capability.LMClient, error)

// Bridge owns the state of one worker process: the program registry,
// the execution engines keyed by program kind, and the session's
// language model. It is driven by a single Runtime goroutine, so its
// state needs no locking.
type Bridge struct {
	logger        *slog.Logger
	workerID      string
	registry      *program.Registry
	engines       map[program.Kind]capability.Capability
	collector     *metrics.Collector
	lmFactory     LMFactory
	envCredential string
	lmTimeout     time.Duration
	probeTimeout  time.Duration

	registryCapacity int
	customRegistry   bool
	customEngines    bool

	lm       capability.LMClient
	started  time.Time
	requests int64
}

// Option configures a Bridge at construction time.
type Option func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithWorkerID sets the worker identity reported by ping when the
// request does not carry one.
func WithWorkerID(id string) Option {
	return func(b *Bridge) { b.workerID = id }
}

// WithRegistry replaces the default program registry.
func WithRegistry(r *program.Registry) Option {
	return func(b *Bridge) {
		b.registry = r
		b.customRegistry = true
	}
}

// WithRegistryCapacity bounds the default registry.
func WithRegistryCapacity(n int) Option {
	return func(b *Bridge) { b.registryCapacity = n }
}

// WithMetrics attaches a metrics collector. A nil collector records
// nothing.
func WithMetrics(c *metrics.Collector) Option {
	return func(b *Bridge) { b.collector = c }
}

// WithEnvCredential supplies the API key configure_lm falls back to
// when the request carries none.
func WithEnvCredential(key string) Option {
	return func(b *Bridge) { b.envCredential = key }
}

// WithCapability registers an execution engine for a program kind,
// replacing the default engine set.
func WithCapability(kind program.Kind, c capability.Capability) Option {
	return func(b *Bridge) {
		if !b.customEngines {
			b.engines = make(map[program.Kind]capability.Capability)
			b.customEngines = true
		}
		b.engines[kind] = c
	}
}

// WithLMFactory replaces how configure_lm builds model clients.
func WithLMFactory(f LMFactory) Option {
	return func(b *Bridge) { b.lmFactory = f }
}

// WithLMTimeout bounds individual language model calls.
func WithLMTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.lmTimeout = d }
}

// WithProbeTimeout bounds the test call configure_lm makes before
// accepting a model.
func WithProbeTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.probeTimeout = d }
}

// NewBridge assembles a worker bridge. Without options it carries a
// predict engine backed by the Gemini client, an LRU registry at the
// default capacity, and a generated worker id.
func NewBridge(opts ...Option) (*Bridge, error) {
	b := &Bridge{
		logger:           slog.Default(),
		registryCapacity: program.DefaultRegistryCapacity,
		lmTimeout:        defaultLMTimeout,
		probeTimeout:     defaultProbeTimeout,
		started:          time.Now(),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.workerID == "" {
		b.workerID = uuid.NewString()
	}
	if b.registry == nil {
		reg, err := program.NewRegistry(b.registryCapacity,
			program.WithInsertHook(func(*program.Record) {
				b.collector.AddActivePrograms(1)
			}),
			program.WithRemoveHook(func(rec *program.Record) {
				b.collector.AddActivePrograms(-1)
				b.logger.Debug("program removed from registry", "program_id", rec.ID)
			}),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build program registry: %w", err)
		}
		b.registry = reg
	}
	if b.engines == nil {
		b.engines = map[program.Kind]capability.Capability{
			program.KindPredict: capability.NewPredictEngine(b.LMSource(),
				capability.WithPredictLogger(b.logger)),
		}
	}
	if b.lmFactory == nil {
		b.lmFactory = func(_, model, apiKey string) (capability.LMClient, error) {
			return capability.NewGeminiClient(model, apiKey,
				capability.WithHTTPClient(&http.Client{Timeout: b.lmTimeout}),
				capability.WithGeminiLogger(b.logger))
		}
	}
	return b, nil
}

// WorkerID returns the worker identity used in ping responses and
// logs.
func (b *Bridge) WorkerID() string { return b.workerID }

// LMSource exposes the session's language model for engines. The
// returned source observes configure_lm swaps, so units built before
// configuration pick up the model afterwards.
func (b *Bridge) LMSource() capability.LMSource {
	return func() capability.LMClient { return b.lm }
}

func (b *Bridge) capabilityAvailable() bool {
	for _, engine := range b.engines {
		if engine.Available() {
			return true
		}
	}
	return false
}

// Dispatch answers one request. Handler errors come back as result
// level error statuses with Success still true; only a panic in the
// dispatch machinery produces a Success false envelope.
func (b *Bridge) Dispatch(ctx context.Context, req *wire.Request) (resp *wire.Response) {
	start := time.Now()
	b.requests++

	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("handler panicked", "command", req.Command, "panic", r)
			b.collector.RecordRequest(req.Command, "fault", time.Since(start))
			resp = wire.NewFaultResponse(req.ID, fmt.Sprintf("internal dispatch fault: %v", r))
		}
	}()

	result := b.handle(ctx, req.Command, req.Args)
	status, _ := result["status"].(string)
	b.collector.RecordRequest(req.Command, status, time.Since(start))
	return wire.NewResponse(req.ID, result)
}

func (b *Bridge) handle(ctx context.Context, command string, args map[string]any) map[string]any {
	cmd, ok := ParseCommand(command)
	if !ok {
		err := NewUnknownCommandError(command)
		b.logger.Warn("unknown command", "command", command)
		return map[string]any{
			"status":             "error",
			"error":              err.Message,
			"supported_commands": SupportedCommands(),
		}
	}

	var result map[string]any
	var err error
	switch cmd {
	case CommandPing:
		result = b.handlePing(args)
	case CommandConfigureLM:
		result, err = b.handleConfigureLM(ctx, args)
	case CommandCreateProgram:
		result, err = b.handleCreateProgram(args)
	case CommandExecuteProgram:
		result, err = b.handleExecuteProgram(ctx, args)
	case CommandGetProgram:
		result, err = b.handleGetProgram(args)
	case CommandListPrograms:
		result = b.handleListPrograms()
	case CommandDeleteProgram:
		result, err = b.handleDeleteProgram(args)
	case CommandClearSession:
		result = b.handleClearSession()
	}
	if err != nil {
		return b.errorResult(cmd, err)
	}
	return result
}

// errorResult converts a handler error into the wire result shape.
// Diagnostic detail stays in the log; the wire sees the classified
// message only.
func (b *Bridge) errorResult(cmd Command, err error) map[string]any {
	var bridgeErr *Error
	if !errors.As(err, &bridgeErr) {
		bridgeErr = NewExecutionFailedError(fmt.Sprintf("Command '%s' failed: %v", cmd, err), err)
	}
	b.logger.Warn("command failed",
		"command", string(cmd),
		"kind", string(bridgeErr.Kind),
		"error", err)
	return map[string]any{
		"status": "error",
		"error":  bridgeErr.Message,
	}
}

// instrumentedLM decorates a model client with call metrics.
type instrumentedLM struct {
	client    capability.LMClient
	collector *metrics.Collector
}

func (w *instrumentedLM) Complete(ctx context.Context, req capability.CompletionRequest) (*capability.CompletionResponse, error) {
	start := time.Now()
	resp, err := w.client.Complete(ctx, req)
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	w.collector.RecordLMRequest(w.client.Model(), outcome, time.Since(start))
	return resp, err
}

func (w *instrumentedLM) Model() string { return w.client.Model() }
