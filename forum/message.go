package forum

import (
	"fmt"
	"strings"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/persona"
	"github.com/hupe1980/lyceum/transcript"
)

const (
	anchorDelimiter = "\n\n---\nANCHOR PAPER:\n\n"

	reinjectPreamble = "\n\n---\nThe specific turn you are being asked to respond to is the following. " +
		"Engage directly with what is said here — not with a general characterisation of that framework, " +
		"but with the particular claims, moves, and formulations in this text:\n\n"

	paperPreamble = "\n\nBelow is the full transcript of the forum discussion. " +
		"Please write the academic paper as instructed in your paper-writing mode.\n\n"

	paperSeparator = "\n\n---\n\n"
)

// withAnchor appends an anchor document to a chair query.
func withAnchor(query, document string) string {
	if document == "" {
		return query
	}
	return query + anchorDelimiter + document
}

// reinject appends quoted text so the recipient engages with it verbatim.
// Cross-references and drill-downs share it.
func reinject(message, quoted string) string {
	return message + reinjectPreamble + quoted
}

// paperMessage lists every turn chronologically under the paper marker.
// Failure markers are not contributions and are left out.
func paperMessage(turns []core.Turn, l transcript.Labeler) string {
	entries := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.IsFailure() {
			continue
		}
		entries = append(entries, fmt.Sprintf("[%s] [%s]\n%s", l.Label(t.Speaker), t.Clock(), t.Text))
	}
	return persona.PaperMarker + paperPreamble + strings.Join(entries, paperSeparator)
}

// drillSummary is the chair turn recorded when a drill-down fires.
func drillSummary(label, passage, instruction string, limit int) string {
	return fmt.Sprintf("Drill-down on %s: \"%s\" — %s", label, truncate(passage, limit), instruction)
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if limit <= 0 || len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "…"
}
