package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/hupe1980/lyceum"
	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/drilldown"
	"github.com/hupe1980/lyceum/forum"
	"github.com/hupe1980/lyceum/transcript"
)

const helpText = `Commands:
  <text>                     address the current target
  /to <persona> <text>       address a persona and make it the current target
  /ref [index]               reference a prior specialist turn in the next address (no index clears)
  /refs                      list turns that can be referenced
  /poll <text>               moderator first, then every specialist in turn
  /flag <index> <passage>    flag a passage of a specialist turn
  /queue                     list flagged passages
  /select <i>                select a flagged passage for drill-down
  /remove <i>                drop a flagged passage
  /cancel                    discard the selected passage
  /drill [persona] <instr>   fire the selected passage
  /paper                     draft the output paper
  /mode [mode]               show or change the discourse mode
  /attach <file>             stage an anchor document (/attach with no file clears it)
  /save [file]               write the transcript to a file
  /show                      print the transcript
  /clear                     clear transcript and flagged passages
  /personas                  list personas
  /help                      show this help
  /quit                      leave`

// Console is one interactive chair session bound to a forum.
type Console struct {
	lyc    *lyceum.Lyceum
	forum  *forum.Forum
	out    io.Writer
	target core.Speaker
	ref    *int
	now    func() time.Time
}

// New creates a Console writing to out.
func New(lyc *lyceum.Lyceum, f *forum.Forum, out io.Writer) *Console {
	return &Console{
		lyc:    lyc,
		forum:  f,
		out:    out,
		target: core.SpeakerOrchestrator,
		now:    time.Now,
	}
}

// Run reads commands from in until /quit, end of input or ctx cancellation.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	fmt.Fprintf(c.out, "%s · mode %s · type /help for commands\n", color.CyanString("The Lyceum"), c.forum.Mode())

	for {
		fmt.Fprintf(c.out, "%s ", c.prompt())
		if !scanner.Scan() {
			return scanner.Err()
		}

		quit, err := c.Execute(ctx, scanner.Text())
		if err != nil {
			c.report(err)
		}
		if quit {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func (c *Console) prompt() string {
	p := fmt.Sprintf("[%s]", c.lyc.Registry().Label(c.target))
	if c.ref != nil {
		p += fmt.Sprintf(" ↪%d", *c.ref)
	}
	return speakerColor(c.target).Sprint(p + " >")
}

func (c *Console) report(err error) {
	failure(c.out, err)
	var genErr *core.GenerationError
	if errors.As(err, &genErr) && genErr.ChairText != "" {
		warn(c.out, "your text was kept, resubmit with: %s", genErr.ChairText)
	}
}

// Execute runs one input line. It reports whether the session should end.
func (c *Console) Execute(ctx context.Context, line string) (bool, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return false, nil
	}

	if !strings.HasPrefix(line, "/") {
		return false, c.address(ctx, c.target, line)
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case "/quit", "/exit":
		return true, nil
	case "/help":
		fmt.Fprintln(c.out, helpText)
	case "/to":
		return false, c.to(ctx, rest)
	case "/ref":
		return false, c.arm(rest)
	case "/refs":
		c.refs()
	case "/poll":
		return false, c.dispatch(ctx, forum.PollAll{Text: rest})
	case "/flag":
		return false, c.flag(rest)
	case "/queue":
		c.queue()
	case "/select":
		return false, c.indexed(rest, c.forum.SelectFlag, "selected")
	case "/remove":
		return false, c.indexed(rest, c.forum.RemoveFlag, "removed")
	case "/cancel":
		item, err := c.forum.CancelPending()
		if err != nil {
			return false, err
		}
		success(c.out, "discarded %q", item.FlaggedText)
	case "/drill":
		return false, c.drill(ctx, rest)
	case "/paper":
		return false, c.dispatch(ctx, forum.PaperDraft{})
	case "/mode":
		return false, c.mode(rest)
	case "/attach":
		return false, c.attach(rest)
	case "/save":
		return false, c.save(rest)
	case "/show":
		renderTurns(c.out, c.lyc.Registry(), c.forum.Turns())
	case "/clear":
		c.forum.Clear()
		c.ref = nil
		success(c.out, "transcript cleared")
	case "/personas":
		c.personas()
	default:
		return false, fmt.Errorf("unknown command %s (try /help)", cmd)
	}

	return false, nil
}

func (c *Console) dispatch(ctx context.Context, a forum.Action) error {
	res, err := c.lyc.Router().Dispatch(ctx, c.forum, a)
	renderTurns(c.out, c.lyc.Registry(), res.Turns)
	return err
}

func (c *Console) address(ctx context.Context, target core.Speaker, text string) error {
	act := forum.DirectAddress{Target: target, Text: text, PriorTurn: c.ref}
	if err := c.dispatch(ctx, act); err != nil {
		return err
	}
	c.ref = nil
	return nil
}

func (c *Console) to(ctx context.Context, rest string) error {
	name, text, _ := strings.Cut(rest, " ")
	target, err := c.lyc.Registry().Lookup(name)
	if err != nil {
		return err
	}
	c.target = target
	if strings.TrimSpace(text) == "" {
		success(c.out, "now addressing %s", c.lyc.Registry().Label(target))
		return nil
	}
	return c.address(ctx, target, strings.TrimSpace(text))
}

func (c *Console) arm(rest string) error {
	if rest == "" {
		c.ref = nil
		success(c.out, "reference cleared")
		return nil
	}
	i, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, rest)
	}
	turn, err := c.forum.Turn(i)
	if err != nil {
		return err
	}
	if !turn.Speaker.IsSpecialist() || turn.IsFailure() {
		return fmt.Errorf("%w: turn %d is not a specialist reply", core.ErrInvalidReference, i)
	}
	c.ref = &i
	success(c.out, "next address responds to %s [%s]", c.lyc.Registry().Label(turn.Speaker), turn.Clock())
	return nil
}

func (c *Console) refs() {
	opts := transcript.SpecialistOptions(c.forum.Turns(), c.lyc.Registry())
	if len(opts) == 0 {
		fmt.Fprintln(c.out, "no specialist turns yet")
		return
	}
	for _, o := range opts {
		fmt.Fprintf(c.out, "  %3d  %s\n", o.Index, o.Label)
	}
}

func (c *Console) flag(rest string) error {
	idx, passage, _ := strings.Cut(rest, " ")
	i, err := strconv.Atoi(idx)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, idx)
	}
	item, err := c.lyc.Router().Flag(c.forum, i, passage)
	if err != nil {
		return err
	}
	success(c.out, "flagged from %s: %q", item.SourceLabel, item.FlaggedText)
	return nil
}

func (c *Console) queue() {
	if p, ok := c.forum.Pending(); ok {
		fmt.Fprintf(c.out, "  selected  %s: %q\n", p.SourceLabel, transcript.Preview(p.FlaggedText, 80))
	}
	items := c.forum.Flags()
	if len(items) == 0 {
		fmt.Fprintln(c.out, "  no flagged passages")
		return
	}
	for i, it := range items {
		fmt.Fprintf(c.out, "  %3d  %s: %q\n", i, it.SourceLabel, transcript.Preview(it.FlaggedText, 80))
	}
}

func (c *Console) indexed(rest string, fn func(int) (drilldown.Item, error), verb string) error {
	i, err := strconv.Atoi(rest)
	if err != nil {
		return fmt.Errorf("%w: %q", core.ErrIndexOutOfRange, rest)
	}
	item, err := fn(i)
	if err != nil {
		return err
	}
	success(c.out, "%s %q", verb, item.FlaggedText)
	return nil
}

func (c *Console) drill(ctx context.Context, rest string) error {
	act := forum.DrillDown{Instruction: rest}
	if first, tail, ok := strings.Cut(rest, " "); ok {
		if target, err := c.lyc.Registry().Lookup(first); err == nil {
			act.Target = target
			act.Instruction = strings.TrimSpace(tail)
		}
	}
	return c.dispatch(ctx, act)
}

func (c *Console) mode(rest string) error {
	if rest == "" {
		for _, m := range c.lyc.Registry().Modes() {
			marker := " "
			if m.Mode == c.forum.Mode() {
				marker = "*"
			}
			fmt.Fprintf(c.out, " %s %-10s %s\n", marker, m.Mode, m.Description)
		}
		return nil
	}
	m, err := core.ParseMode(rest)
	if err != nil {
		return err
	}
	if err := c.forum.SetMode(m); err != nil {
		return err
	}
	success(c.out, "mode set to %s", m)
	return nil
}

func (c *Console) attach(path string) error {
	if path == "" {
		c.forum.ClearDocument()
		success(c.out, "anchor document cleared")
		return nil
	}
	doc, err := c.lyc.Extractor().ExtractFile(path)
	if err != nil {
		c.forum.ClearDocument()
		warn(c.out, "continuing without an anchor document")
		return err
	}
	c.forum.StageDocument(doc.Name, doc.Text)
	success(c.out, "anchor document %s staged (%d bytes)", doc.Name, doc.Size)
	return nil
}

func (c *Console) save(path string) error {
	if c.forum.Len() == 0 {
		return core.ErrEmptyTranscript
	}
	if path == "" {
		path = transcript.Filename(c.now(), transcript.FormatText)
	}
	format, err := transcript.ParseFormat(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
	if err != nil {
		format = transcript.FormatText
	}
	data, err := c.forum.Export(format, c.lyc.Registry())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	success(c.out, "transcript written to %s", path)
	return nil
}

func (c *Console) personas() {
	for _, p := range c.lyc.Registry().Contracts() {
		fmt.Fprintf(c.out, "  %s %-24s %s\n", p.Icon, speakerColor(p.ID).Sprint(p.DisplayName), p.Summary)
	}
}
