package forum

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/gateway"
	"github.com/hupe1980/lyceum/model"
	"github.com/hupe1980/lyceum/persona"
)

// MockGenerator for asserting generator interactions.
type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, instruction, message string) (string, error) {
	args := m.Called(ctx, instruction, message)
	return args.String(0), args.Error(1)
}

// recordingGenerator remembers the message and start time of every call.
type recordingGenerator struct {
	mu     sync.Mutex
	starts []time.Time
	msgs   []string
	fail   map[int]error
}

func (g *recordingGenerator) Generate(ctx context.Context, _, message string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.starts = append(g.starts, time.Now())
	g.msgs = append(g.msgs, message)
	if err, ok := g.fail[len(g.starts)]; ok {
		return "", err
	}
	return "reply", ctx.Err()
}

// slowRecordingGenerator takes delay per call and records when each call
// started and finished.
type slowRecordingGenerator struct {
	delay  time.Duration
	starts []time.Time
	ends   []time.Time
}

func (g *slowRecordingGenerator) Generate(ctx context.Context, _, _ string) (string, error) {
	g.starts = append(g.starts, time.Now())
	time.Sleep(g.delay)
	g.ends = append(g.ends, time.Now())
	return "reply", ctx.Err()
}

func newRegistry(t *testing.T) *persona.Registry {
	t.Helper()
	reg, err := persona.New()
	require.NoError(t, err)
	return reg
}

func newRouter(t *testing.T, m model.Model, optFns ...func(o *RouterOptions)) *Router {
	t.Helper()
	return NewRouter(newRegistry(t), gateway.New(m), optFns...)
}

func speakers(turns []core.Turn) []core.Speaker {
	out := make([]core.Speaker, len(turns))
	for i, t := range turns {
		out[i] = t.Speaker
	}
	return out
}

func TestRouter_DirectAddress(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Genes set the pace.")
	r := newRouter(t, m)
	f := New(func(o *Options) { o.Mode = core.ModeLab })

	res, err := r.Dispatch(context.Background(), f, DirectAddress{
		Target: core.SpeakerGeneticist,
		Text:   "What explains the vocabulary spurt?",
	})
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)

	chair, reply := res.Turns[0], res.Turns[1]
	assert.Equal(t, core.SpeakerChair, chair.Speaker)
	assert.Equal(t, "What explains the vocabulary spurt?", chair.Text)
	assert.Equal(t, core.SpeakerGeneticist, reply.Speaker)
	assert.Equal(t, "Genes set the pace.", reply.Text)
	assert.Equal(t, core.ModeLab, chair.Mode)
	assert.Equal(t, core.ModeLab, reply.Mode)

	req, ok := m.LastRequest()
	require.True(t, ok)
	want, err := r.Registry().Compose(core.SpeakerGeneticist, core.ModeLab)
	require.NoError(t, err)
	assert.Equal(t, want, req.Instructions)
	assert.Equal(t, "What explains the vocabulary spurt?", req.Message)
}

func TestRouter_NAddressesDoubleTheTranscript(t *testing.T) {
	r := newRouter(t, model.NewMockModel("mock", "mock"))
	f := New()

	for i, target := range []core.Speaker{core.SpeakerOrchestrator, core.SpeakerGeneticist, core.SpeakerSystems, core.SpeakerPredictive} {
		_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: target, Text: "q"})
		require.NoError(t, err)
		assert.Equal(t, 2*(i+1), f.Len())
	}
}

func TestRouter_DirectAddressWithAnchorDocument(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	r := newRouter(t, m)
	f := New()
	f.StageDocument("paper.txt", "Staged body")

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "  Discuss  "})
	require.NoError(t, err)

	req, _ := m.LastRequest()
	assert.Equal(t, "Discuss\n\n---\nANCHOR PAPER:\n\nStaged body", req.Message)
	assert.Equal(t, "  Discuss  ", f.Turns()[0].Text, "chair turn keeps only the typed text")

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "Again", Document: "Explicit body"})
	require.NoError(t, err)

	req, _ = m.LastRequest()
	assert.True(t, strings.HasSuffix(req.Message, "ANCHOR PAPER:\n\nExplicit body"))
	for _, turn := range f.Turns() {
		assert.NotContains(t, turn.Text, "body")
	}
}

func TestRouter_CrossReference(t *testing.T) {
	prior := "Attractor states shift.\nThe lexicon reorganises."
	m := model.NewMockModel("mock", "mock").AddResponse(prior).AddResponse("Prediction error explains it.")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "Why now?"})
	require.NoError(t, err)

	res, err := r.Dispatch(context.Background(), f, DirectAddress{
		Target:    core.SpeakerPredictive,
		Text:      "Respond to this.",
		PriorTurn: Ref(1),
	})
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)

	req, _ := m.LastRequest()
	assert.True(t, strings.HasPrefix(req.Message, "Respond to this.\n\n---\nThe specific turn you are being asked to respond to is the following."))
	assert.Contains(t, req.Message, prior)
	assert.Equal(t, "Respond to this.", f.Turns()[2].Text)
}

func TestRouter_CrossReferenceValidation(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerOrchestrator, Text: "Open"})
	require.NoError(t, err)
	calls := m.Calls()

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "x", PriorTurn: Ref(7)})
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "x", PriorTurn: Ref(0)})
	assert.ErrorIs(t, err, core.ErrInvalidReference, "chair turns cannot be referenced")

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "x", PriorTurn: Ref(1)})
	assert.ErrorIs(t, err, core.ErrInvalidReference, "moderator turns cannot be referenced")

	assert.Equal(t, 2, f.Len())
	assert.Equal(t, calls, m.Calls())
}

func TestRouter_RejectsBeforeAppending(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "   "})
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.Speaker("historian"), Text: "q"})
	assert.ErrorIs(t, err, core.ErrUnknownPersona)

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerChair, Text: "q"})
	assert.ErrorIs(t, err, core.ErrUnknownPersona)

	_, err = r.Dispatch(context.Background(), f, PollAll{Text: ""})
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	_, err = r.Dispatch(context.Background(), f, nil)
	assert.Error(t, err)

	assert.Equal(t, 0, f.Len())
	assert.Equal(t, 0, m.Calls())
}

func TestRouter_MissingCredentialsRejectsWithoutAppending(t *testing.T) {
	r := NewRouter(newRegistry(t), gateway.New(nil))
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
	assert.ErrorIs(t, err, core.ErrConfiguration)
	assert.Equal(t, 0, f.Len())
}

func TestRouter_GenerationFailureAppendsMarker(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddFailure(errors.New("overloaded"))
	r := newRouter(t, m)
	f := New()

	res, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "Why?"})
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrGeneration)

	var genErr *core.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, core.SpeakerSystems, genErr.Persona)
	assert.Equal(t, "Why?", genErr.ChairText)
	assert.Equal(t, "mock", genErr.Provider)

	require.Len(t, res.Turns, 2)
	turns := f.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.SpeakerChair, turns[0].Speaker)
	assert.True(t, turns[1].IsFailure())
	assert.Equal(t, core.SpeakerSystems, turns[1].Speaker)
	assert.Equal(t, "[generation failed: overloaded]", turns[1].Text)
}

func TestRouter_DrillDownScenario(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddResponse("The spurt follows a shift in the gene expression profile of cortical tissue.").
		AddResponse("No single profile explains a phase transition.")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{
		Target: core.SpeakerGeneticist,
		Text:   "What explains the vocabulary spurt?",
	})
	require.NoError(t, err)

	item, err := r.Flag(f, 1, "gene expression profile")
	require.NoError(t, err)
	assert.Equal(t, core.SpeakerGeneticist, item.SourceSpeaker)
	assert.Equal(t, "Geneticist", item.SourceLabel)

	_, err = f.SelectFlag(0)
	require.NoError(t, err)

	res, err := r.Dispatch(context.Background(), f, DrillDown{
		Instruction: "Respond directly",
		Target:      core.SpeakerSystems,
	})
	require.NoError(t, err)
	require.Len(t, res.Turns, 2)

	assert.Empty(t, f.Flags())
	_, pending := f.Pending()
	assert.False(t, pending)
	assert.Equal(t, 4, f.Len())

	chair := res.Turns[0]
	assert.Equal(t, core.TurnDrillDown, chair.Kind)
	assert.Equal(t, `Drill-down on Geneticist: "gene expression profile" — Respond directly`, chair.Text)
	assert.Equal(t, core.SpeakerSystems, res.Turns[1].Speaker)

	req, _ := m.LastRequest()
	assert.Contains(t, req.Message, "gene expression profile")
	assert.Contains(t, req.Message, "Respond directly")

	want, err := r.Registry().Compose(core.SpeakerSystems, f.Mode())
	require.NoError(t, err)
	assert.Equal(t, want, req.Instructions)
}

func TestRouter_DrillDownDefaultsToSourceAndTruncates(t *testing.T) {
	long := strings.Repeat("é", 130)
	m := model.NewMockModel("mock", "mock").AddResponse("start " + long + " end")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerPredictive, Text: "q"})
	require.NoError(t, err)

	item, err := r.Flag(f, 1, long)
	require.NoError(t, err)

	res, err := r.Dispatch(context.Background(), f, DrillDown{ItemID: item.ID, Instruction: "Expand"})
	require.NoError(t, err)
	assert.Equal(t, core.SpeakerPredictive, res.Turns[1].Speaker)
	assert.Contains(t, res.Turns[0].Text, strings.Repeat("é", 120)+"…\"")
	assert.NotContains(t, res.Turns[0].Text, strings.Repeat("é", 121))

	req, _ := m.LastRequest()
	assert.Contains(t, req.Message, long)
}

func TestRouter_DrillDownFailureRestoresItem(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddResponse("the gene expression profile matters").
		AddFailure(errors.New("timeout"))
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
	require.NoError(t, err)
	_, err = r.Flag(f, 1, "gene expression profile")
	require.NoError(t, err)
	selected, err := f.SelectFlag(0)
	require.NoError(t, err)

	res, err := r.Dispatch(context.Background(), f, DrillDown{Instruction: "Respond directly"})
	assert.ErrorIs(t, err, core.ErrGeneration)
	require.Len(t, res.Turns, 2)
	assert.True(t, res.Turns[1].IsFailure())

	pending, ok := f.Pending()
	require.True(t, ok)
	assert.Equal(t, selected.ID, pending.ID)
}

func TestRouter_DrillDownValidation(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("a passage here")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DrillDown{Instruction: "go"})
	assert.ErrorIs(t, err, core.ErrNoPending)

	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "q"})
	require.NoError(t, err)

	_, err = r.Flag(f, 0, "q")
	assert.ErrorIs(t, err, core.ErrInvalidReference)
	_, err = r.Flag(f, 1, "absent words")
	assert.ErrorIs(t, err, core.ErrPassageNotFound)
	_, err = r.Flag(f, 9, "passage")
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
	_, err = r.Flag(f, 1, " ")
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	item, err := r.Flag(f, 1, "passage")
	require.NoError(t, err)

	_, err = r.Dispatch(context.Background(), f, DrillDown{ItemID: item.ID, Instruction: ""})
	assert.ErrorIs(t, err, core.ErrEmptyInput)
	_, err = r.Dispatch(context.Background(), f, DrillDown{ItemID: item.ID, Instruction: "go", Target: core.SpeakerChair})
	assert.ErrorIs(t, err, core.ErrUnknownPersona)

	assert.Len(t, f.Flags(), 1, "rejected drill-downs keep the item queued")
	assert.Equal(t, 2, f.Len())
}

func TestRouter_PaperDraft(t *testing.T) {
	m := model.NewMockModel("mock", "mock").
		AddResponse("first reply").
		AddResponse("second reply").
		AddResponse("Abstract. ...")
	r := newRouter(t, m)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "first question"})
	require.NoError(t, err)
	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "second question"})
	require.NoError(t, err)

	before := f.Turns()

	res, err := r.Dispatch(context.Background(), f, PaperDraft{})
	require.NoError(t, err)
	require.Len(t, res.Turns, 1)
	assert.Equal(t, core.SpeakerOrchestrator, res.Turns[0].Speaker)
	assert.Equal(t, core.TurnPaper, res.Turns[0].Kind)
	assert.Equal(t, 5, f.Len())

	req, _ := m.LastRequest()
	assert.True(t, strings.HasPrefix(req.Message, persona.PaperMarker+"\n\nBelow is the full transcript"))

	last := -1
	for _, turn := range before {
		assert.Equal(t, 1, strings.Count(req.Message, turn.Text), turn.Text)
		idx := strings.Index(req.Message, turn.Text)
		assert.Greater(t, idx, last, "turns appear in chronological order")
		last = idx
	}
	assert.Contains(t, req.Message, "[Forum Chair] ["+before[0].Clock()+"]\nfirst question")
	assert.Contains(t, req.Message, "\n\n---\n\n")
}

func TestRouter_PaperDraftOnEmptyTranscript(t *testing.T) {
	gen := new(MockGenerator)
	r := NewRouter(newRegistry(t), gen)
	f := New()

	res, err := r.Dispatch(context.Background(), f, PaperDraft{})
	assert.ErrorIs(t, err, core.ErrEmptyTranscript)
	assert.Empty(t, res.Turns)
	assert.Equal(t, 0, f.Len())
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestRouter_PaperDraftFailureAppendsNothing(t *testing.T) {
	gen := new(MockGenerator)
	gen.On("Generate", mock.Anything, mock.Anything, "q").Return("reply", nil).Once()
	gen.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("quota")).Once()

	r := NewRouter(newRegistry(t), gen)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
	require.NoError(t, err)

	_, err = r.Dispatch(context.Background(), f, PaperDraft{})
	assert.ErrorIs(t, err, core.ErrGeneration)
	assert.Equal(t, 2, f.Len())
	gen.AssertExpectations(t)
}

func TestRouter_PollAllOrderAndPacing(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &recordingGenerator{}
	r := NewRouter(newRegistry(t), gen, func(o *RouterOptions) { o.PollInterval = 20 * time.Millisecond })
	f := New()
	f.StageDocument("a.txt", "doc")

	res, err := r.Dispatch(context.Background(), f, PollAll{Text: "Open question"})
	require.NoError(t, err)

	assert.Equal(t, []core.Speaker{
		core.SpeakerChair,
		core.SpeakerOrchestrator,
		core.SpeakerGeneticist,
		core.SpeakerSystems,
		core.SpeakerPredictive,
	}, speakers(res.Turns))

	require.Len(t, gen.starts, 4)
	for i := 1; i < len(gen.starts); i++ {
		assert.GreaterOrEqual(t, gen.starts[i].Sub(gen.starts[i-1]), 15*time.Millisecond)
	}
	for _, msg := range gen.msgs {
		assert.Equal(t, "Open question\n\n---\nANCHOR PAPER:\n\ndoc", msg)
	}
}

func TestRouter_PollAllStopsOnFailure(t *testing.T) {
	gen := &recordingGenerator{fail: map[int]error{3: errors.New("rate limited")}}
	r := NewRouter(newRegistry(t), gen, func(o *RouterOptions) { o.PollInterval = 0 })
	f := New()

	res, err := r.Dispatch(context.Background(), f, PollAll{Text: "q"})
	assert.ErrorIs(t, err, core.ErrGeneration)

	var genErr *core.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, core.SpeakerSystems, genErr.Persona)

	assert.Equal(t, []core.Speaker{
		core.SpeakerChair,
		core.SpeakerOrchestrator,
		core.SpeakerGeneticist,
		core.SpeakerSystems,
	}, speakers(res.Turns))
	assert.True(t, res.Turns[3].IsFailure())
	assert.Len(t, gen.starts, 3)
}

func TestRouter_PollAllCancellation(t *testing.T) {
	defer goleak.VerifyNone(t)

	gen := &recordingGenerator{}
	r := NewRouter(newRegistry(t), gen, func(o *RouterOptions) { o.PollInterval = time.Hour })
	f := New()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	res, err := r.Dispatch(ctx, f, PollAll{Text: "q"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, core.ErrGeneration)

	var genErr *core.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, core.SpeakerGeneticist, genErr.Persona)

	// The geneticist was never called, so no marker is recorded for it.
	assert.Equal(t, []core.Speaker{
		core.SpeakerChair,
		core.SpeakerOrchestrator,
	}, speakers(res.Turns))
	assert.Equal(t, 2, f.Len())
	assert.Len(t, gen.starts, 1)
}

func TestRouter_PollAllCancelledBeforeFirstCall(t *testing.T) {
	gen := &recordingGenerator{}
	r := NewRouter(newRegistry(t), gen, func(o *RouterOptions) { o.PollInterval = 0 })
	f := New()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Dispatch(ctx, f, PollAll{Text: "q"})
	assert.ErrorIs(t, err, context.Canceled)

	require.Len(t, res.Turns, 2)
	assert.Equal(t, core.SpeakerChair, res.Turns[0].Speaker)
	assert.True(t, res.Turns[1].IsFailure())
	assert.Empty(t, gen.starts)
}

func TestRouter_PollAllCooldownFollowsCompletion(t *testing.T) {
	gen := &slowRecordingGenerator{delay: 30 * time.Millisecond}
	r := NewRouter(newRegistry(t), gen, func(o *RouterOptions) { o.PollInterval = 20 * time.Millisecond })
	f := New()

	_, err := r.Dispatch(context.Background(), f, PollAll{Text: "q"})
	require.NoError(t, err)

	require.Len(t, gen.starts, 4)
	require.Len(t, gen.ends, 4)
	for i := 1; i < len(gen.starts); i++ {
		assert.GreaterOrEqual(t, gen.starts[i].Sub(gen.ends[i-1]), 15*time.Millisecond)
	}
}

func TestRouter_PaperDraftSkipsFailureMarkers(t *testing.T) {
	gen := &recordingGenerator{fail: map[int]error{1: errors.New("quota exceeded")}}
	r := NewRouter(newRegistry(t), gen)
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "What explains the vocabulary spurt?"})
	require.ErrorIs(t, err, core.ErrGeneration)
	require.Equal(t, 2, f.Len())

	res, err := r.Dispatch(context.Background(), f, PaperDraft{})
	require.NoError(t, err)
	require.Len(t, res.Turns, 1)

	require.Len(t, gen.msgs, 2)
	paper := gen.msgs[1]
	assert.Contains(t, paper, "What explains the vocabulary spurt?")
	assert.NotContains(t, paper, "quota exceeded")
	assert.NotContains(t, paper, "[Geneticist]")
}

func TestRouter_ModeStampedAtGenerationTime(t *testing.T) {
	r := newRouter(t, model.NewMockModel("mock", "mock"))
	f := New(func(o *Options) { o.Mode = core.ModeConference })

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
	require.NoError(t, err)
	require.NoError(t, f.SetMode(core.ModeLab))
	_, err = r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
	require.NoError(t, err)

	turns := f.Turns()
	assert.Equal(t, core.ModeConference, turns[1].Mode)
	assert.Equal(t, core.ModeLab, turns[3].Mode)
}

func TestRouter_ForumsAreIsolated(t *testing.T) {
	r := newRouter(t, model.NewMockModel("mock", "mock"))
	a, b := New(), New()

	var wg sync.WaitGroup
	for _, f := range []*Forum{a, b} {
		wg.Add(1)
		go func(f *Forum) {
			defer wg.Done()
			for i := 0; i < 5; i++ {
				_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "q"})
				assert.NoError(t, err)
			}
		}(f)
	}
	wg.Wait()

	assert.Equal(t, 10, a.Len())
	assert.Equal(t, 10, b.Len())
}

func TestRouter_FlagWaitsForInFlightAction(t *testing.T) {
	r := newRouter(t, model.NewMockModel("mock", "mock").AddResponse("Noise is signal."))
	f := New()

	_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerSystems, Text: "q"})
	require.NoError(t, err)

	f.action.Lock()

	done := make(chan error, 1)
	go func() {
		_, err := r.Flag(f, 1, "Noise")
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("flag completed while an action held the forum")
	case <-time.After(30 * time.Millisecond):
	}

	// A clear running under the held lock removes the referenced turn.
	f.turns.Clear()
	f.queue.Clear()
	f.action.Unlock()

	assert.ErrorIs(t, <-done, core.ErrIndexOutOfRange)
	assert.Empty(t, f.Flags())
}

func TestRouter_FlagAndClearConcurrently(t *testing.T) {
	r := newRouter(t, model.NewMockModel("mock", "mock"))
	f := New()

	for i := 0; i < 50; i++ {
		_, err := r.Dispatch(context.Background(), f, DirectAddress{Target: core.SpeakerGeneticist, Text: "q"})
		require.NoError(t, err)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = r.Flag(f, 1, "Mock reply")
		}()
		go func() {
			defer wg.Done()
			f.Clear()
		}()
		wg.Wait()

		for _, item := range f.Flags() {
			_, err := f.turns.Find(item.SourceTurnID)
			assert.NoError(t, err, "queued item points at a cleared turn")
		}
		f.Clear()
	}
}
