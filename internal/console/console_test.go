package console

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/lyceum"
	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/model"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func newConsole(t *testing.T, m model.Model) (*Console, *forum.Forum, *bytes.Buffer) {
	t.Helper()

	lyc, err := lyceum.New(func(o *lyceum.Options) {
		o.Model = m
		o.PollInterval = 0
	})
	require.NoError(t, err)

	f := lyc.Forums().Create()
	out := &bytes.Buffer{}

	return New(lyc, f, out), f, out
}

func lastMessage(t *testing.T, m *model.MockModel) string {
	t.Helper()

	req, ok := m.LastRequest()
	require.True(t, ok)

	return req.Message
}

func TestConsole_PlainTextAddressesOrchestrator(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Welcome, chair.")
	c, f, out := newConsole(t, m)

	quit, err := c.Execute(context.Background(), "Open the session.")
	require.NoError(t, err)
	assert.False(t, quit)

	turns := f.Turns()
	require.Len(t, turns, 2)
	assert.Equal(t, core.SpeakerChair, turns[0].Speaker)
	assert.Equal(t, core.SpeakerOrchestrator, turns[1].Speaker)
	assert.Contains(t, out.String(), "Welcome, chair.")
	assert.Contains(t, out.String(), "Orchestrator")
}

func TestConsole_ToSwitchesTarget(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	c, f, _ := newConsole(t, m)
	ctx := context.Background()

	_, err := c.Execute(ctx, "/to genetics What constrains the phenotype?")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "And the genotype?")
	require.NoError(t, err)

	turns := f.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, core.SpeakerGeneticist, turns[1].Speaker)
	assert.Equal(t, core.SpeakerGeneticist, turns[3].Speaker)

	_, err = c.Execute(ctx, "/to nobody hello")
	assert.ErrorIs(t, err, core.ErrUnknownPersona)
	assert.Len(t, f.Turns(), 4)
}

func TestConsole_CrossReference(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Attractors dominate.")
	c, f, _ := newConsole(t, m)
	ctx := context.Background()

	_, err := c.Execute(ctx, "/to systems Describe the landscape.")
	require.NoError(t, err)

	_, err = c.Execute(ctx, "/ref 0")
	assert.ErrorIs(t, err, core.ErrInvalidReference)

	_, err = c.Execute(ctx, "/ref 1")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/to genetics Respond to that.")
	require.NoError(t, err)

	msg := lastMessage(t, m)
	assert.Contains(t, msg, "Attractors dominate.")
	assert.Contains(t, msg, "Respond to that.")
	assert.Nil(t, c.ref)
	assert.Len(t, f.Turns(), 4)
}

func TestConsole_FlagSelectDrill(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Canalization buffers variation.")
	c, f, out := newConsole(t, m)
	ctx := context.Background()

	_, err := c.Execute(ctx, "/to genetics Explain robustness.")
	require.NoError(t, err)

	_, err = c.Execute(ctx, "/flag 1 buffers variation")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/queue")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "buffers variation")

	_, err = c.Execute(ctx, "/drill expand")
	assert.ErrorIs(t, err, core.ErrNoPending)

	_, err = c.Execute(ctx, "/select 0")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/drill predictive Reframe this as prediction error.")
	require.NoError(t, err)

	turns := f.Turns()
	require.Len(t, turns, 4)
	assert.Equal(t, core.TurnDrillDown, turns[2].Kind)
	assert.Equal(t, core.SpeakerPredictive, turns[3].Speaker)
	assert.Contains(t, lastMessage(t, m), "buffers variation")
	assert.Empty(t, f.Flags())
}

func TestConsole_CancelPending(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Noise is signal.")
	c, f, _ := newConsole(t, m)
	ctx := context.Background()

	_, err := c.Execute(ctx, "/to systems Go.")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/flag 1 Noise")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/select 0")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/cancel")
	require.NoError(t, err)

	_, ok := f.Pending()
	assert.False(t, ok)
	_, err = c.Execute(ctx, "/cancel")
	assert.ErrorIs(t, err, core.ErrNoPending)
}

func TestConsole_PollAndPaper(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	c, f, _ := newConsole(t, m)
	ctx := context.Background()

	_, err := c.Execute(ctx, "/paper")
	assert.ErrorIs(t, err, core.ErrEmptyTranscript)

	_, err = c.Execute(ctx, "/poll What is development?")
	require.NoError(t, err)
	assert.Len(t, f.Turns(), 5)

	_, err = c.Execute(ctx, "/paper")
	require.NoError(t, err)
	turns := f.Turns()
	assert.Equal(t, core.TurnPaper, turns[len(turns)-1].Kind)
}

func TestConsole_Mode(t *testing.T) {
	c, f, out := newConsole(t, model.NewMockModel("mock", "mock"))
	ctx := context.Background()

	_, err := c.Execute(ctx, "/mode")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Conference")

	_, err = c.Execute(ctx, "/mode lab")
	require.NoError(t, err)
	assert.Equal(t, core.ModeLab, f.Mode())

	_, err = c.Execute(ctx, "/mode seminar")
	assert.ErrorIs(t, err, core.ErrUnknownMode)
	assert.Equal(t, core.ModeLab, f.Mode())
}

func TestConsole_AttachAndSave(t *testing.T) {
	m := model.NewMockModel("mock", "mock")
	c, f, _ := newConsole(t, m)
	ctx := context.Background()
	dir := t.TempDir()

	doc := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(doc, []byte("Waddington landscape notes"), 0o600))

	_, err := c.Execute(ctx, "/attach "+doc)
	require.NoError(t, err)
	_, ok := f.Document()
	assert.True(t, ok)

	_, err = c.Execute(ctx, "Discuss the attachment.")
	require.NoError(t, err)
	assert.Contains(t, lastMessage(t, m), "Waddington landscape notes")

	bad := filepath.Join(dir, "image.png")
	require.NoError(t, os.WriteFile(bad, []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), 0o600))
	_, err = c.Execute(ctx, "/attach "+bad)
	assert.ErrorIs(t, err, core.ErrIngestion)
	_, ok = f.Document()
	assert.False(t, ok)

	target := filepath.Join(dir, "session.md")
	_, err = c.Execute(ctx, "/save "+target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Discuss the attachment.")
}

func TestConsole_SaveEmpty(t *testing.T) {
	c, _, _ := newConsole(t, model.NewMockModel("mock", "mock"))

	_, err := c.Execute(context.Background(), "/save")
	assert.ErrorIs(t, err, core.ErrEmptyTranscript)
}

func TestConsole_ClearAndUnknown(t *testing.T) {
	c, f, _ := newConsole(t, model.NewMockModel("mock", "mock"))
	ctx := context.Background()

	_, err := c.Execute(ctx, "hello")
	require.NoError(t, err)
	_, err = c.Execute(ctx, "/clear")
	require.NoError(t, err)
	assert.Equal(t, 0, f.Len())

	_, err = c.Execute(ctx, "/bogus")
	assert.Error(t, err)
}

func TestConsole_Run(t *testing.T) {
	m := model.NewMockModel("mock", "mock").AddResponse("Hello back.")
	c, f, out := newConsole(t, m)

	in := strings.NewReader("hello\n/nonsense\n/quit\nnever reached\n")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Run(ctx, in))
	assert.Len(t, f.Turns(), 2)
	assert.Contains(t, out.String(), "Hello back.")
	assert.Contains(t, out.String(), "unknown command /nonsense")
}

func TestConsole_GenerationFailureKeepsText(t *testing.T) {
	c, f, out := newConsole(t, nil)

	in := strings.NewReader("Please answer.\n")
	require.NoError(t, c.Run(context.Background(), in))

	assert.Equal(t, 0, f.Len())
	assert.Contains(t, out.String(), "✗")
}
