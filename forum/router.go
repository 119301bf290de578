package forum

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/drilldown"
	"github.com/hupe1980/lyceum/logging"
	"github.com/hupe1980/lyceum/persona"
)

const (
	// DefaultPollInterval spaces consecutive generations of a poll-all broadcast.
	DefaultPollInterval = 15 * time.Second
	// DefaultTruncateAt bounds the passage quoted in a drill-down chair turn.
	DefaultTruncateAt = 120
)

// Generator produces a persona reply for an instruction and a message.
type Generator interface {
	Generate(ctx context.Context, instruction, message string) (string, error)
}

// readiness is implemented by generators that can tell up front that every
// call would fail, e.g. for missing credentials.
type readiness interface {
	Ready() error
}

// RouterOptions configures a Router.
type RouterOptions struct {
	Logger logging.Logger
	// PollInterval is the cooldown after each poll-all reply before the next
	// persona is called.
	// Zero disables pacing.
	PollInterval time.Duration
	// TruncateAt bounds, in runes, the passage quoted in drill-down chair turns.
	TruncateAt int
}

// Result lists the turns an action appended, in order.
type Result struct {
	Turns []core.Turn
}

// Router dispatches chair actions against forums. It is stateless apart
// from its read-only collaborators and may be shared between forums.
type Router struct {
	registry  *persona.Registry
	generator Generator
	opts      RouterOptions
	logger    logging.Logger
}

// NewRouter creates a Router.
func NewRouter(registry *persona.Registry, generator Generator, optFns ...func(o *RouterOptions)) *Router {
	opts := RouterOptions{
		Logger:       logging.NoOpLogger{},
		PollInterval: DefaultPollInterval,
		TruncateAt:   DefaultTruncateAt,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Router{
		registry:  registry,
		generator: generator,
		opts:      opts,
		logger:    logging.WithComponent(opts.Logger, "router"),
	}
}

// Registry returns the persona registry the router composes instructions from.
func (r *Router) Registry() *persona.Registry { return r.registry }

// Dispatch executes one action on f. Invalid actions are rejected before
// anything is appended. On generation failure the returned Result still
// lists the turns that were appended, including the failure marker.
func (r *Router) Dispatch(ctx context.Context, f *Forum, a Action) (Result, error) {
	f.action.Lock()
	defer f.action.Unlock()

	start := time.Now()

	var (
		res Result
		err error
	)

	switch act := a.(type) {
	case DirectAddress:
		res, err = r.address(ctx, f, act)
	case *DirectAddress:
		res, err = r.address(ctx, f, *act)
	case PollAll:
		res, err = r.poll(ctx, f, act)
	case *PollAll:
		res, err = r.poll(ctx, f, *act)
	case DrillDown:
		res, err = r.drillDown(ctx, f, act)
	case *DrillDown:
		res, err = r.drillDown(ctx, f, *act)
	case PaperDraft, *PaperDraft:
		res, err = r.paper(ctx, f)
	default:
		err = fmt.Errorf("unsupported forum action %T", a)
	}

	name := "unknown"
	if a != nil {
		name = a.Name()
	}
	logging.LogAction(logging.WithForum(r.logger, f.ID), name, len(res.Turns), time.Since(start), err)

	return res, err
}

// Flag queues a passage of a specialist turn for a later drill-down. It holds
// the forum's action lock so a concurrent Clear cannot strand the item.
func (r *Router) Flag(f *Forum, turnIndex int, passage string) (drilldown.Item, error) {
	passage = strings.TrimSpace(passage)
	if passage == "" {
		return drilldown.Item{}, fmt.Errorf("%w: flagged passage", core.ErrEmptyInput)
	}

	f.action.Lock()
	defer f.action.Unlock()

	turn, err := f.Turn(turnIndex)
	if err != nil {
		return drilldown.Item{}, err
	}
	if !turn.Speaker.IsSpecialist() || turn.IsFailure() {
		return drilldown.Item{}, fmt.Errorf("%w: turn %d is not a specialist reply", core.ErrInvalidReference, turnIndex)
	}
	if !strings.Contains(turn.Text, passage) {
		return drilldown.Item{}, fmt.Errorf("%w: turn %d", core.ErrPassageNotFound, turnIndex)
	}

	item := f.queue.Enqueue(drilldown.Item{
		SourceSpeaker: turn.Speaker,
		SourceLabel:   r.registry.Label(turn.Speaker),
		SourceTurnID:  turn.ID,
		FlaggedText:   passage,
	})

	r.logger.Debug("Passage flagged", "forum_id", f.ID, "item_id", item.ID, "source", turn.Speaker)

	return item, nil
}

func (r *Router) address(ctx context.Context, f *Forum, act DirectAddress) (Result, error) {
	query := strings.TrimSpace(act.Text)
	if query == "" {
		return Result{}, fmt.Errorf("%w: chair query", core.ErrEmptyInput)
	}

	mode := f.Mode()

	instruction, err := r.registry.Compose(act.Target, mode)
	if err != nil {
		return Result{}, err
	}

	message := withAnchor(query, f.documentText(act.Document))

	if act.PriorTurn != nil {
		prior, err := f.Turn(*act.PriorTurn)
		if err != nil {
			return Result{}, err
		}
		if !prior.Speaker.IsSpecialist() || prior.IsFailure() {
			return Result{}, fmt.Errorf("%w: turn %d is not a specialist reply", core.ErrInvalidReference, *act.PriorTurn)
		}
		message = reinject(message, prior.Text)
	}

	if err := r.ready(); err != nil {
		return Result{}, err
	}

	chair := f.turns.Append(core.NewChairTurn(act.Text, mode))

	return r.exchange(ctx, f, Result{Turns: []core.Turn{chair}}, act.Target, core.TurnChat, instruction, message, act.Text)
}

func (r *Router) poll(ctx context.Context, f *Forum, act PollAll) (Result, error) {
	query := strings.TrimSpace(act.Text)
	if query == "" {
		return Result{}, fmt.Errorf("%w: chair query", core.ErrEmptyInput)
	}

	mode := f.Mode()
	order := append([]core.Speaker{core.SpeakerOrchestrator}, core.Specialists()...)

	instructions := make(map[core.Speaker]string, len(order))
	for _, id := range order {
		instruction, err := r.registry.Compose(id, mode)
		if err != nil {
			return Result{}, err
		}
		instructions[id] = instruction
	}

	if err := r.ready(); err != nil {
		return Result{}, err
	}

	message := withAnchor(query, f.documentText(act.Document))
	res := Result{Turns: []core.Turn{f.turns.Append(core.NewChairTurn(act.Text, mode))}}

	pacer := core.NewPacer(r.opts.PollInterval)

	for i, id := range order {
		if err := pacer.Wait(ctx); err != nil {
			if i == 0 {
				return r.fail(f, res, id, mode, act.Text, err)
			}
			// The chair turn already has replies; id was never called.
			r.logger.Warn("Poll interrupted", "forum_id", f.ID, "persona", id, "error", err.Error())
			return res, asGenerationError(err, id, act.Text)
		}

		var err error
		res, err = r.exchange(ctx, f, res, id, core.TurnChat, instructions[id], message, act.Text)
		if err != nil {
			return res, err
		}
		pacer.Done()
	}

	return res, nil
}

func (r *Router) drillDown(ctx context.Context, f *Forum, act DrillDown) (Result, error) {
	instructionText := strings.TrimSpace(act.Instruction)
	if instructionText == "" {
		return Result{}, fmt.Errorf("%w: drill-down instruction", core.ErrEmptyInput)
	}

	item, err := f.queue.Peek(act.ItemID)
	if err != nil {
		return Result{}, err
	}

	target := act.Target
	if target == "" {
		target = item.SourceSpeaker
	}

	mode := f.Mode()

	instruction, err := r.registry.Compose(target, mode)
	if err != nil {
		return Result{}, err
	}

	if err := r.ready(); err != nil {
		return Result{}, err
	}

	item, err = f.queue.Take(item.ID)
	if err != nil {
		return Result{}, err
	}

	summary := drillSummary(r.registry.Label(item.SourceSpeaker), item.FlaggedText, instructionText, r.opts.TruncateAt)
	chair := f.turns.Append(core.NewPersonaTurn(core.SpeakerChair, core.TurnDrillDown, summary, mode))

	res, err := r.exchange(ctx, f, Result{Turns: []core.Turn{chair}}, target, core.TurnChat,
		instruction, reinject(instructionText, item.FlaggedText), summary)
	if err != nil {
		f.queue.Restore(item)
	}

	return res, err
}

func (r *Router) paper(ctx context.Context, f *Forum) (Result, error) {
	turns := f.Turns()
	if len(turns) == 0 {
		return Result{}, core.ErrEmptyTranscript
	}

	mode := f.Mode()

	instruction, err := r.registry.Compose(core.SpeakerOrchestrator, mode)
	if err != nil {
		return Result{}, err
	}

	if err := r.ready(); err != nil {
		return Result{}, err
	}

	text, err := r.generator.Generate(ctx, instruction, paperMessage(turns, r.registry))
	if err != nil {
		return Result{}, asGenerationError(err, core.SpeakerOrchestrator, "")
	}

	turn := f.turns.Append(core.NewPersonaTurn(core.SpeakerOrchestrator, core.TurnPaper, text, mode))

	return Result{Turns: []core.Turn{turn}}, nil
}

// exchange generates one reply from target and appends it, or appends a
// failure marker when generation fails.
func (r *Router) exchange(ctx context.Context, f *Forum, res Result, target core.Speaker, kind core.TurnKind, instruction, message, chairText string) (Result, error) {
	mode := f.Mode()
	if len(res.Turns) > 0 {
		mode = res.Turns[0].Mode
	}

	text, err := r.generator.Generate(ctx, instruction, message)
	if err != nil {
		return r.fail(f, res, target, mode, chairText, err)
	}

	res.Turns = append(res.Turns, f.turns.Append(core.NewPersonaTurn(target, kind, text, mode)))

	return res, nil
}

func (r *Router) fail(f *Forum, res Result, target core.Speaker, mode core.Mode, chairText string, cause error) (Result, error) {
	shown := cause
	var genErr *core.GenerationError
	if errors.As(cause, &genErr) && genErr.Cause != nil {
		shown = genErr.Cause
	}

	marker := f.turns.Append(core.NewFailureTurn(target, shown, mode))
	res.Turns = append(res.Turns, marker)

	r.logger.Warn("Generation failed", "forum_id", f.ID, "persona", target, "error", cause.Error())

	return res, asGenerationError(cause, target, chairText)
}

func (r *Router) ready() error {
	if rd, ok := r.generator.(readiness); ok {
		return rd.Ready()
	}
	if r.generator == nil {
		return fmt.Errorf("%w: no generator configured", core.ErrConfiguration)
	}
	return nil
}

// asGenerationError returns a GenerationError naming the persona and
// carrying the chair text for resubmission.
func asGenerationError(err error, target core.Speaker, chairText string) error {
	out := &core.GenerationError{Persona: target, ChairText: chairText, Cause: err}

	var genErr *core.GenerationError
	if errors.As(err, &genErr) {
		out.Provider = genErr.Provider
		out.Cause = genErr.Cause
	}

	return out
}
