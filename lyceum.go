// Package lyceum provides a high-level façade over the forum core: persona
// registry, generation gateway, turn router and the live forum store.
// Most applications interact with this package by:
//  1. Creating a Lyceum via New() or FromConfig()
//  2. Creating forums through Forums().Create()
//  3. Dispatching chair actions with Dispatch()
//
// All defaults are safe for local development and testing: the embedded
// persona contracts, an in-memory forum store and a no-op logger.
package lyceum

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/hupe1980/lyceum/config"
	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/gateway"
	"github.com/hupe1980/lyceum/ingest"
	"github.com/hupe1980/lyceum/logging"
	"github.com/hupe1980/lyceum/model"
	"github.com/hupe1980/lyceum/model/anthropic"
	"github.com/hupe1980/lyceum/model/gemini"
	"github.com/hupe1980/lyceum/model/openai"
	"github.com/hupe1980/lyceum/persona"
	"github.com/hupe1980/lyceum/session"
)

// Options configures the Lyceum instance.
type Options struct {
	// Registry defaults to the embedded persona contracts.
	Registry *persona.Registry
	// Model may be nil; generation then fails with a configuration error
	// while every read-only operation keeps working.
	Model model.Model
	// Forums defaults to an in-memory store.
	Forums *session.Store

	PollInterval      time.Duration
	GenerationTimeout time.Duration
	MaxTokens         int64
	TruncateAt        int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Lyceum is the high-level façade aggregating the forum services.
type Lyceum struct {
	opts      Options
	registry  *persona.Registry
	gateway   *gateway.Gateway
	router    *forum.Router
	forums    *session.Store
	extractor *ingest.Extractor
}

// New creates a Lyceum instance with optional overrides.
func New(optFns ...func(o *Options)) (*Lyceum, error) {
	opts := Options{
		PollInterval:      forum.DefaultPollInterval,
		GenerationTimeout: gateway.DefaultTimeout,
		TruncateAt:        forum.DefaultTruncateAt,
		Logger:            logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	if opts.Registry == nil {
		reg, err := persona.New()
		if err != nil {
			return nil, err
		}
		opts.Registry = reg
	}

	if opts.Forums == nil {
		opts.Forums = session.NewStore(func(o *session.Options) { o.Logger = opts.Logger })
	}

	gw := gateway.New(opts.Model, func(o *gateway.Options) {
		o.Timeout = opts.GenerationTimeout
		o.MaxTokens = opts.MaxTokens
		o.Logger = opts.Logger
	})

	router := forum.NewRouter(opts.Registry, gw, func(o *forum.RouterOptions) {
		o.PollInterval = opts.PollInterval
		o.TruncateAt = opts.TruncateAt
		o.Logger = opts.Logger
	})

	return &Lyceum{
		opts:      opts,
		registry:  opts.Registry,
		gateway:   gw,
		router:    router,
		forums:    opts.Forums,
		extractor: ingest.NewExtractor(),
	}, nil
}

// FromConfig wires a Lyceum from loaded configuration. Missing credentials
// are logged and leave the instance without a model rather than failing.
func FromConfig(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Lyceum, error) {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	regOpts := func(o *persona.Options) { o.DisableModes = cfg.Forum.DisableModes }

	var (
		reg *persona.Registry
		err error
	)
	if cfg.Forum.PersonaFile != "" {
		reg, err = persona.LoadFile(cfg.Forum.PersonaFile, regOpts)
	} else {
		reg, err = persona.New(regOpts)
	}
	if err != nil {
		return nil, err
	}

	m, err := NewModel(ctx, cfg)
	if err != nil {
		if !errors.Is(err, core.ErrConfiguration) {
			return nil, err
		}
		logger.Warn("Generation disabled", "provider", cfg.Provider, "error", err.Error())
		m = nil
	}

	mode := cfg.Mode()
	forums := session.NewStore(func(o *session.Options) {
		o.TTL = cfg.Forum.TTL
		o.Logger = logger
		o.ForumOptions = []func(o *forum.Options){func(o *forum.Options) { o.Mode = mode }}
	})

	return New(func(o *Options) {
		o.Registry = reg
		o.Model = m
		o.Forums = forums
		o.PollInterval = cfg.Forum.PollInterval
		o.GenerationTimeout = cfg.Forum.GenerationTimeout
		o.MaxTokens = cfg.MaxTokens
		o.TruncateAt = cfg.Forum.TruncateAt
		o.Logger = logger
	})
}

// NewModel builds the model of the configured provider.
func NewModel(ctx context.Context, cfg *config.Config) (model.Model, error) {
	key := cfg.APIKey()

	switch cfg.Provider {
	case config.ProviderAnthropic:
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
		})
	case config.ProviderOpenAI:
		return openai.NewModel(func(o *openai.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature > 0 {
				o.Temperature = cfg.Temperature
			}
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.Stream = cfg.Stream
		})
	case config.ProviderGemini:
		return gemini.NewModel(ctx, func(o *gemini.Options) {
			o.APIKey = key
			if cfg.Model != "" {
				o.Model = cfg.Model
			}
			if cfg.Temperature > 0 {
				o.Temperature = float32(cfg.Temperature)
			}
			if cfg.MaxTokens > 0 {
				o.MaxOutputTokens = int32(cfg.MaxTokens)
			}
		})
	case config.ProviderMock:
		name := cfg.Model
		if name == "" {
			name = "mock"
		}
		return model.NewMockModel(name, config.ProviderMock), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", core.ErrConfiguration, cfg.Provider)
	}
}

// NewLogger builds the logger described by cfg, writing console output to
// w. The returned function flushes buffered entries.
func NewLogger(cfg config.LogConfig, w io.Writer) (logging.Logger, func() error) {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "zap" || cfg.File != "" {
		z := logging.NewZapLogger(logging.ZapConfig{Level: level, File: cfg.File, Output: w})
		return z, z.Sync
	}
	return logging.NewSlogLogger(level, cfg.Format, w), func() error { return nil }
}

// Registry returns the persona registry.
func (l *Lyceum) Registry() *persona.Registry { return l.registry }

// Router returns the turn router.
func (l *Lyceum) Router() *forum.Router { return l.router }

// Gateway returns the generation gateway.
func (l *Lyceum) Gateway() *gateway.Gateway { return l.gateway }

// Forums returns the live forum store.
func (l *Lyceum) Forums() *session.Store { return l.forums }

// Extractor returns the document extractor.
func (l *Lyceum) Extractor() *ingest.Extractor { return l.extractor }

// Dispatch runs a chair action on the forum with the given id.
func (l *Lyceum) Dispatch(ctx context.Context, forumID string, a forum.Action) (forum.Result, error) {
	f, err := l.forums.Get(forumID)
	if err != nil {
		return forum.Result{}, err
	}
	return l.router.Dispatch(ctx, f, a)
}
