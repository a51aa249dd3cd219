// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package block

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ActionKind names an editor form action.
type ActionKind string

// Editor form actions. The form value is "kind" or "kind:arg[:arg]".
const (
	ActionSave       ActionKind = "save"
	ActionPublish    ActionKind = "publish"
	ActionAdd        ActionKind = "add"         // add:{type}
	ActionMove       ActionKind = "move"        // move:{index}:{up|down}
	ActionRemove     ActionKind = "remove"      // remove:{id}
	ActionToggle     ActionKind = "toggle"      // toggle:{id}
	ActionFAQAdd     ActionKind = "faq-add"     // faq-add:{id}
	ActionFAQRemove  ActionKind = "faq-remove"  // faq-remove:{id}:{item}
	ActionListAdd    ActionKind = "list-add"    // list-add:{id}
	ActionListRemove ActionKind = "list-remove" // list-remove:{id}:{item}
	ActionMarkdown   ActionKind = "markdown"    // markdown:{id}
)

const actionSeparator = ":"

// ErrInvalidAction is returned for malformed action values.
var ErrInvalidAction = errors.New("invalid editor action")

// Action is a parsed editor form action.
type Action struct {
	Kind      ActionKind
	Type      Type
	ID        string
	Index     int
	Item      int
	Direction Direction
}

// String formats the action as a form value.
func (a Action) String() string {
	switch a.Kind {
	case ActionAdd:
		return join(a.Kind, string(a.Type))
	case ActionMove:
		return join(a.Kind, strconv.Itoa(a.Index), string(a.Direction))
	case ActionRemove, ActionToggle, ActionFAQAdd, ActionListAdd, ActionMarkdown:
		return join(a.Kind, a.ID)
	case ActionFAQRemove, ActionListRemove:
		return join(a.Kind, a.ID, strconv.Itoa(a.Item))
	default:
		return string(a.Kind)
	}
}

func join(kind ActionKind, args ...string) string {
	return string(kind) + actionSeparator + strings.Join(args, actionSeparator)
}

// IsPersist reports whether the action writes the page to the store.
func (a Action) IsPersist() bool {
	return a.Kind == ActionSave || a.Kind == ActionPublish
}

// ParseAction parses an editor form action value. An empty value means save.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Action{Kind: ActionSave}, nil
	}

	parts := strings.Split(s, actionSeparator)
	kind := ActionKind(parts[0])
	args := parts[1:]

	invalid := func() (Action, error) {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}

	switch kind {
	case ActionSave, ActionPublish:
		if len(args) != 0 {
			return invalid()
		}
		return Action{Kind: kind}, nil

	case ActionAdd:
		if len(args) != 1 || args[0] == "" {
			return invalid()
		}
		return Action{Kind: kind, Type: Type(args[0])}, nil

	case ActionMove:
		if len(args) != 2 {
			return invalid()
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return invalid()
		}
		dir := Direction(args[1])
		if dir != Up && dir != Down {
			return invalid()
		}
		return Action{Kind: kind, Index: idx, Direction: dir}, nil

	case ActionRemove, ActionToggle, ActionFAQAdd, ActionListAdd, ActionMarkdown:
		if len(args) != 1 || args[0] == "" {
			return invalid()
		}
		return Action{Kind: kind, ID: args[0]}, nil

	case ActionFAQRemove, ActionListRemove:
		if len(args) != 2 || args[0] == "" {
			return invalid()
		}
		item, err := strconv.Atoi(args[1])
		if err != nil {
			return invalid()
		}
		return Action{Kind: kind, ID: args[0], Item: item}, nil

	default:
		return invalid()
	}
}

// Apply performs a structural action on the editor.
// It reports false for actions the editor does not handle itself
// (save, publish and markdown import), which are left to the caller.
func (e *Editor) Apply(a Action) (bool, error) {
	switch a.Kind {
	case ActionAdd:
		if _, err := e.Append(a.Type); err != nil {
			return true, err
		}
	case ActionMove:
		e.Move(a.Index, a.Direction)
	case ActionRemove:
		e.Remove(a.ID)
		e.Renumber()
	case ActionToggle:
		e.Toggle(a.ID)
	case ActionFAQAdd:
		e.AddFAQItem(a.ID)
	case ActionFAQRemove:
		e.RemoveFAQItem(a.ID, a.Item)
	case ActionListAdd:
		e.AddListItem(a.ID)
	case ActionListRemove:
		e.RemoveListItem(a.ID, a.Item)
	default:
		return false, nil
	}
	return true, nil
}
