// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package block

// Direction is the direction of a move operation.
type Direction string

// Move directions.
const (
	Up   Direction = "up"
	Down Direction = "down"
)

// Editor holds the block list of a page being edited.
// It never persists anything; callers save Blocks themselves.
type Editor struct {
	Blocks []Block
	// Expanded is the ID of the block whose form is open, or "".
	Expanded string

	newID func() string
}

// NewEditor returns an editor working on a copy of blocks.
func NewEditor(blocks []Block) *Editor {
	return &Editor{
		Blocks: Clone(blocks),
		newID:  NewID,
	}
}

// Len returns the number of blocks.
func (e *Editor) Len() int {
	return len(e.Blocks)
}

// Index returns the position of the block with the given ID, or -1.
func (e *Editor) Index(id string) int {
	for i := range e.Blocks {
		if e.Blocks[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns the block with the given ID.
func (e *Editor) Get(id string) (Block, bool) {
	if i := e.Index(id); i >= 0 {
		return e.Blocks[i], true
	}
	return Block{}, false
}

// Append adds a new block of type t with its default payload at the end
// and expands it. Unknown types return ErrUnknownType and add nothing.
func (e *Editor) Append(t Type) (Block, error) {
	b, err := New(t, len(e.Blocks))
	if err != nil {
		return Block{}, err
	}
	if e.newID != nil {
		b.ID = e.newID()
	}
	e.Blocks = append(e.Blocks, b)
	e.Expanded = b.ID
	return b, nil
}

// Update replaces the payload of the block with the given ID.
// A missing ID is a no-op. The payload must match the block's type.
func (e *Editor) Update(id string, data Payload) error {
	i := e.Index(id)
	if i < 0 {
		return nil
	}
	if data == nil || data.Type() != e.Blocks[i].Type {
		return ErrTypeMismatch
	}
	e.Blocks[i].Data = clonePayload(data)
	return nil
}

// Remove deletes the block with the given ID and reports whether it existed.
// Sibling order values are left as they are; call Renumber to close the gap.
func (e *Editor) Remove(id string) bool {
	i := e.Index(id)
	if i < 0 {
		return false
	}
	e.Blocks = append(e.Blocks[:i:i], e.Blocks[i+1:]...)
	if e.Expanded == id {
		e.Expanded = ""
	}
	return true
}

// Move swaps the block at index with its neighbour in direction dir and
// renumbers every block. Moves past either end are no-ops.
func (e *Editor) Move(index int, dir Direction) bool {
	var target int
	switch dir {
	case Up:
		target = index - 1
	case Down:
		target = index + 1
	default:
		return false
	}
	if index < 0 || index >= len(e.Blocks) || target < 0 || target >= len(e.Blocks) {
		return false
	}

	e.Blocks[index], e.Blocks[target] = e.Blocks[target], e.Blocks[index]
	e.Renumber()
	return true
}

// Renumber sets every block's order to its array position.
func (e *Editor) Renumber() {
	for i := range e.Blocks {
		e.Blocks[i].Order = i
	}
}

// Toggle expands the block with the given ID, or collapses it when already expanded.
func (e *Editor) Toggle(id string) {
	if e.Expanded == id {
		e.Expanded = ""
		return
	}
	if e.Index(id) >= 0 {
		e.Expanded = id
	}
}

// AddFAQItem appends an empty question to an FAQ block.
func (e *Editor) AddFAQItem(id string) bool {
	return e.editFAQ(id, func(items []FAQItem) []FAQItem {
		return append(items, FAQItem{})
	})
}

// RemoveFAQItem removes question i from an FAQ block.
func (e *Editor) RemoveFAQItem(id string, i int) bool {
	return e.editFAQ(id, func(items []FAQItem) []FAQItem {
		if i < 0 || i >= len(items) {
			return nil
		}
		return append(items[:i:i], items[i+1:]...)
	})
}

// AddListItem appends an empty entry to a list block.
func (e *Editor) AddListItem(id string) bool {
	return e.editList(id, func(items []string) []string {
		return append(items, "")
	})
}

// RemoveListItem removes entry i from a list block.
func (e *Editor) RemoveListItem(id string, i int) bool {
	return e.editList(id, func(items []string) []string {
		if i < 0 || i >= len(items) {
			return nil
		}
		return append(items[:i:i], items[i+1:]...)
	})
}

// editFAQ applies fn to a copy of the block's items; a nil result means no change.
func (e *Editor) editFAQ(id string, fn func([]FAQItem) []FAQItem) bool {
	i := e.Index(id)
	if i < 0 {
		return false
	}
	faq, ok := e.Blocks[i].Data.(FAQ)
	if !ok {
		return false
	}
	items := make([]FAQItem, len(faq.Items))
	copy(items, faq.Items)
	updated := fn(items)
	if updated == nil {
		return false
	}
	faq.Items = updated
	e.Blocks[i].Data = faq
	return true
}

// editList applies fn to a copy of the block's items; a nil result means no change.
func (e *Editor) editList(id string, fn func([]string) []string) bool {
	i := e.Index(id)
	if i < 0 {
		return false
	}
	list, ok := e.Blocks[i].Data.(List)
	if !ok {
		return false
	}
	items := make([]string, len(list.Items))
	copy(items, list.Items)
	updated := fn(items)
	if updated == nil {
		return false
	}
	list.Items = updated
	e.Blocks[i].Data = list
	return true
}
