package forum

import (
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/lyceum/core"
	"github.com/hupe1980/lyceum/drilldown"
	"github.com/hupe1980/lyceum/transcript"
)

// Options configures a Forum.
type Options struct {
	// ID defaults to a fresh uuid.
	ID string
	// Mode defaults to core.DefaultMode.
	Mode core.Mode
	// Clock stamps turns and flagged items; defaults to time.Now.
	Clock func() time.Time
}

// Document is an anchor text staged for the next chair queries.
type Document struct {
	Name string `json:"name"`
	Text string `json:"-"`
	Size int    `json:"size"`
}

// Summary is a point-in-time view of a forum.
type Summary struct {
	ID         string    `json:"id"`
	Mode       core.Mode `json:"mode"`
	Created    time.Time `json:"created"`
	Turns      int       `json:"turns"`
	Flags      int       `json:"flags"`
	HasPending bool      `json:"has_pending"`
	Document   string    `json:"document,omitempty"`
}

// Forum is one chair's discussion session.
type Forum struct {
	ID      string
	Created time.Time

	// action serialises chair actions that append turns.
	action sync.Mutex

	mu       sync.RWMutex
	mode     core.Mode
	document *Document

	turns *transcript.Store
	queue *drilldown.Queue
}

// New creates an empty forum.
func New(optFns ...func(o *Options)) *Forum {
	opts := Options{
		Mode:  core.DefaultMode,
		Clock: time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.ID == "" {
		opts.ID = core.NewID()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if !opts.Mode.Valid() {
		opts.Mode = core.DefaultMode
	}

	return &Forum{
		ID:      opts.ID,
		Created: opts.Clock(),
		mode:    opts.Mode,
		turns:   transcript.NewStore(func(o *transcript.Options) { o.Clock = opts.Clock }),
		queue:   drilldown.NewQueue(opts.Clock),
	}
}

// Mode returns the active discourse mode.
func (f *Forum) Mode() core.Mode {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.mode
}

// SetMode changes the discourse mode for subsequent generations. Existing
// turns keep the mode they were produced under.
func (f *Forum) SetMode(m core.Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %q", core.ErrUnknownMode, m)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode = m
	return nil
}

// Turns returns the transcript in chronological order.
func (f *Forum) Turns() []core.Turn { return f.turns.All() }

// DisplayTurns returns the transcript newest first.
func (f *Forum) DisplayTurns() []core.Turn { return f.turns.Reversed() }

// Turn returns the turn at chronological position i.
func (f *Forum) Turn(i int) (core.Turn, error) { return f.turns.At(i) }

// Len returns the number of turns.
func (f *Forum) Len() int { return f.turns.Len() }

// Flags returns the queued drill-down items, excluding the pending one.
func (f *Forum) Flags() []drilldown.Item { return f.queue.Items() }

// Pending returns the drill-down item selected for firing.
func (f *Forum) Pending() (drilldown.Item, bool) { return f.queue.Pending() }

// SelectFlag promotes the queued item at position i to pending.
func (f *Forum) SelectFlag(i int) (drilldown.Item, error) { return f.queue.MarkPending(i) }

// RemoveFlag drops the queued item at position i.
func (f *Forum) RemoveFlag(i int) (drilldown.Item, error) { return f.queue.RemoveAt(i) }

// CancelPending discards the pending item.
func (f *Forum) CancelPending() (drilldown.Item, error) {
	item, ok := f.queue.CancelPending()
	if !ok {
		return drilldown.Item{}, core.ErrNoPending
	}
	return item, nil
}

// Clear empties the transcript and the drill-down queue together. It waits
// for an in-flight action to finish.
func (f *Forum) Clear() {
	f.action.Lock()
	defer f.action.Unlock()
	f.turns.Clear()
	f.queue.Clear()
}

// StageDocument sets the anchor text appended to subsequent chair queries
// that do not carry their own document.
func (f *Forum) StageDocument(name, text string) Document {
	doc := Document{Name: name, Text: text, Size: len(text)}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.document = &doc
	return doc
}

// Document returns the staged anchor document.
func (f *Forum) Document() (Document, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.document == nil {
		return Document{}, false
	}
	return *f.document, true
}

// ClearDocument removes the staged anchor document.
func (f *Forum) ClearDocument() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.document = nil
}

// Export renders the transcript in the given format.
func (f *Forum) Export(format transcript.Format, l transcript.Labeler) ([]byte, error) {
	return transcript.Export(format, f.turns.All(), l)
}

// Summarize returns a point-in-time view of the forum.
func (f *Forum) Summarize() Summary {
	s := Summary{
		ID:      f.ID,
		Mode:    f.Mode(),
		Created: f.Created,
		Turns:   f.turns.Len(),
		Flags:   len(f.queue.Items()),
	}
	_, s.HasPending = f.queue.Pending()
	if doc, ok := f.Document(); ok {
		s.Document = doc.Name
	}
	return s
}

func (f *Forum) documentText(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if doc, ok := f.Document(); ok {
		return doc.Text
	}
	return ""
}
