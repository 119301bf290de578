package console

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/transcript"
)

var speakerColors = map[core.Speaker]*color.Color{
	core.SpeakerGeneticist:   color.New(color.FgGreen, color.Bold),
	core.SpeakerSystems:      color.New(color.FgBlue, color.Bold),
	core.SpeakerPredictive:   color.New(color.FgYellow, color.Bold),
	core.SpeakerOrchestrator: color.New(color.FgMagenta, color.Bold),
	core.SpeakerChair:        color.New(color.FgWhite, color.Bold),
}

func speakerColor(s core.Speaker) *color.Color {
	if c, ok := speakerColors[s]; ok {
		return c
	}
	return color.New(color.Bold)
}

// renderTurn writes one turn: a coloured header line, then the text.
func renderTurn(w io.Writer, l transcript.Labeler, t core.Turn) {
	header := fmt.Sprintf("%s %s", l.Icon(t.Speaker), l.Label(t.Speaker))
	meta := t.Clock()
	if t.Speaker != core.SpeakerChair && t.Mode != "" {
		meta += " · " + string(t.Mode)
	}

	fmt.Fprintf(w, "\n%s %s\n", speakerColor(t.Speaker).Sprint(header), color.HiBlackString(meta))

	if t.IsFailure() {
		fmt.Fprintln(w, color.RedString(t.Text))
		return
	}
	fmt.Fprintln(w, t.Text)
}

func renderTurns(w io.Writer, l transcript.Labeler, turns []core.Turn) {
	for _, t := range turns {
		renderTurn(w, l, t)
	}
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", color.YellowString("!"), fmt.Sprintf(format, args...))
}

func failure(w io.Writer, err error) {
	fmt.Fprintf(w, "%s %v\n", color.RedString("✗"), err)
}
