package transcript

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/lyceum/core"
)

// Format selects an export rendering.
type Format string

const (
	// FormatText is the plain transcript download.
	FormatText Format = "text"
	// FormatMarkdown renders one section per turn.
	FormatMarkdown Format = "markdown"
	// FormatJSON is the machine readable form.
	FormatJSON Format = "json"
)

// ParseFormat resolves a format name; empty selects text.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown export format %q", name)
	}
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatJSON:
		return "json"
	default:
		return "txt"
	}
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	switch f {
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatJSON:
		return "application/json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Export renders turns in format f. Output depends only on its inputs.
func Export(f Format, turns []core.Turn, l Labeler) ([]byte, error) {
	switch f {
	case FormatMarkdown:
		return []byte(ExportMarkdown(turns, l)), nil
	case FormatJSON:
		return ExportJSON(turns, l)
	case FormatText, "":
		return []byte(ExportText(turns, l)), nil
	default:
		return nil, fmt.Errorf("unknown export format %q", f)
	}
}

// ExportText renders each turn as a "[Label] [HH:MM] [Mode]" header, the
// text and a blank line. Failure markers carry an extra "[failed]" tag.
func ExportText(turns []core.Turn, l Labeler) string {
	lines := make([]string, 0, len(turns)*3)
	for _, t := range turns {
		header := fmt.Sprintf("[%s] [%s] [%s]", l.Label(t.Speaker), t.Clock(), t.Mode)
		if t.IsFailure() {
			header += " [failed]"
		}
		lines = append(lines, header, t.Text, "")
	}
	return strings.Join(lines, "\n")
}

// ExportMarkdown renders the transcript as a markdown document.
func ExportMarkdown(turns []core.Turn, l Labeler) string {
	var b strings.Builder
	b.WriteString("# Lyceum transcript\n")
	for _, t := range turns {
		fmt.Fprintf(&b, "\n## %s %s\n\n", l.Icon(t.Speaker), l.Label(t.Speaker))
		if t.IsFailure() {
			fmt.Fprintf(&b, "_%s · %s · failed_\n\n", t.Clock(), t.Mode)
		} else {
			fmt.Fprintf(&b, "_%s · %s_\n\n", t.Clock(), t.Mode)
		}
		b.WriteString(t.Text)
		b.WriteString("\n")
	}
	return b.String()
}

type exportedTurn struct {
	core.Turn
	Label string `json:"label"`
}

// ExportJSON renders the transcript as an indented JSON array.
func ExportJSON(turns []core.Turn, l Labeler) ([]byte, error) {
	out := make([]exportedTurn, len(turns))
	for i, t := range turns {
		out[i] = exportedTurn{Turn: t, Label: l.Label(t.Speaker)}
	}
	return json.MarshalIndent(out, "", "  ")
}

// Filename returns the download name for an export produced at now.
func Filename(now time.Time, f Format) string {
	return fmt.Sprintf("lyceum_transcript_%s.%s", now.Format("20060102_150405"), f.Extension())
}
