package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/logging"
	"github.com/hupe1980/lyceum/model"
)

// DefaultTimeout bounds one generation call.
const DefaultTimeout = 2 * time.Minute

var errEmptyReply = errors.New("model returned empty text")

// Options configures a Gateway.
type Options struct {
	// Timeout bounds each call. Zero disables the gateway deadline; the
	// caller's context still applies.
	Timeout time.Duration
	// MaxTokens is forwarded on every request when positive.
	MaxTokens int64
	Logger    logging.Logger
}

// Gateway wraps a model.Model with the forum's failure discipline.
type Gateway struct {
	model  model.Model
	opts   Options
	logger logging.Logger
}

// New creates a Gateway. A nil model is accepted so read-only surfaces can
// run without credentials; every Generate then fails with a configuration error.
func New(m model.Model, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Gateway{
		model:  m,
		opts:   opts,
		logger: logging.WithComponent(opts.Logger, "gateway"),
	}
}

// Info describes the underlying model. Without a model it reports provider "none".
func (g *Gateway) Info() model.Info {
	if g.model == nil {
		return model.Info{Name: "none", Provider: "none"}
	}
	return g.model.Info()
}

// Ready reports whether the gateway can generate at all.
func (g *Gateway) Ready() error {
	if g.model == nil {
		return fmt.Errorf("%w: no generation model configured", core.ErrConfiguration)
	}
	return nil
}

// Generate produces the reply text for instruction and message. It is a
// blocking call; partial responses are ignored and only the final text is
// returned.
func (g *Gateway) Generate(ctx context.Context, instruction, message string) (string, error) {
	info := g.Info()

	if err := g.Ready(); err != nil {
		return "", &core.GenerationError{Provider: info.Provider, Cause: err}
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, usage, err := g.drain(ctx, model.Request{
		Instructions: instruction,
		Message:      message,
		MaxTokens:    g.opts.MaxTokens,
	})

	tokens := 0
	if usage != nil {
		tokens = usage.TotalTokens
	}
	logging.LogLLMCall(g.logger, info.Provider, info.Name, tokens, time.Since(start), err)

	if err != nil {
		var genErr *core.GenerationError
		if errors.As(err, &genErr) {
			return "", genErr
		}
		return "", &core.GenerationError{Provider: info.Provider, Cause: err}
	}

	return text, nil
}

func (g *Gateway) drain(ctx context.Context, req model.Request) (string, *model.TokenUsage, error) {
	respCh, errCh := g.model.Generate(ctx, req)

	var (
		final *model.Response
		err   error
	)

	for respCh != nil || errCh != nil {
		select {
		case resp, ok := <-respCh:
			if !ok {
				respCh = nil
				continue
			}
			if !resp.Partial {
				r := resp
				final = &r
			}
		case e, ok := <-errCh:
			if !ok {
				errCh = nil
				continue
			}
			if e != nil && err == nil {
				err = e
			}
		}
	}

	if err != nil {
		return "", nil, err
	}

	// A deadline that fired after the model finished still counts as a timeout.
	if ctxErr := ctx.Err(); ctxErr != nil && final == nil {
		return "", nil, ctxErr
	}

	if final == nil || final.Text == "" {
		return "", nil, errEmptyReply
	}

	return final.Text, final.Usage, nil
}
