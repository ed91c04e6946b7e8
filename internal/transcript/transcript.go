// Package transcript stores the rendered units of the conversation in display order.
package transcript

import (
	"mcpchat/internal/render"
	"mcpchat/pkg/chattypes"
)

// Entry is one unit with its current markup.
type Entry struct {
	Unit   chattypes.Unit
	Markup string
	// Blocks are the fenced code blocks of an answer, for copying.
	Blocks []render.CodeBlock
}

// ChangeKind identifies what a Change did.
type ChangeKind int

const (
	// Inserted means a new entry was appended at Index.
	Inserted ChangeKind = iota
	// Updated means the entry at Index was replaced.
	Updated
	// Cleared means every entry was removed.
	Cleared
	// Restyled means every entry's markup was recomputed.
	Restyled
	// PendingChanged means the awaiting-response flag flipped.
	PendingChanged
)

// Change describes one modification, delivered to the observer.
type Change struct {
	Kind    ChangeKind
	Index   int
	Entry   Entry
	Pending bool
}

// Transcript implements stream.Renderer. It is not safe for concurrent use.
type Transcript struct {
	entries  []Entry
	index    map[string]int
	pending  bool
	observer func(Change)
}

// New creates an empty transcript.
func New() *Transcript {
	return &Transcript{index: make(map[string]int)}
}

// Observe registers the single change observer, replacing any previous one.
func (t *Transcript) Observe(fn func(Change)) {
	t.observer = fn
}

// Render inserts the unit, or replaces it when a unit with the same id exists.
func (t *Transcript) Render(unit chattypes.Unit, markup string) {
	entry := Entry{Unit: unit, Markup: markup}
	if unit.Kind == chattypes.UnitAnswer {
		entry.Blocks = render.ExtractCodeBlocks(unit.Source)
	}

	if i, ok := t.index[unit.ID]; ok {
		t.entries[i] = entry
		t.notify(Change{Kind: Updated, Index: i, Entry: entry})
		return
	}

	t.index[unit.ID] = len(t.entries)
	t.entries = append(t.entries, entry)
	t.notify(Change{Kind: Inserted, Index: len(t.entries) - 1, Entry: entry})
}

// Pending sets the awaiting-response flag, notifying only on a change.
func (t *Transcript) Pending(waiting bool) {
	if t.pending == waiting {
		return
	}
	t.pending = waiting
	t.notify(Change{Kind: PendingChanged, Index: -1, Pending: waiting})
}

// IsPending reports the awaiting-response flag.
func (t *Transcript) IsPending() bool {
	return t.pending
}

// Clear removes every entry and lowers the pending flag.
func (t *Transcript) Clear() {
	t.entries = nil
	t.index = make(map[string]int)
	t.pending = false
	t.notify(Change{Kind: Cleared, Index: -1})
}

// Restyle recomputes the markup of every entry, e.g. after a theme change.
func (t *Transcript) Restyle(format func(chattypes.Unit) string) {
	for i := range t.entries {
		t.entries[i].Markup = format(t.entries[i].Unit)
	}
	t.notify(Change{Kind: Restyled, Index: -1})
}

// Len returns the number of entries.
func (t *Transcript) Len() int {
	return len(t.entries)
}

// Entries returns a snapshot of the entries in display order.
func (t *Transcript) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Entry returns the entry of a unit id.
func (t *Transcript) Entry(id string) (Entry, bool) {
	i, ok := t.index[id]
	if !ok {
		return Entry{}, false
	}
	return t.entries[i], true
}

// CodeBlock returns block n (1-based) of the most recent entry that has code blocks.
// n <= 0 selects that entry's last block.
func (t *Transcript) CodeBlock(n int) (render.CodeBlock, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		blocks := t.entries[i].Blocks
		if len(blocks) == 0 {
			continue
		}
		if n <= 0 {
			return blocks[len(blocks)-1], true
		}
		if n > len(blocks) {
			return render.CodeBlock{}, false
		}
		return blocks[n-1], true
	}
	return render.CodeBlock{}, false
}

func (t *Transcript) notify(c Change) {
	if t.observer != nil {
		t.observer(c)
	}
}
