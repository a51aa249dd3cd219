// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package richtext

// Command is one toolbar button of the rich-text editor.
// Exec and Arg are passed to document.execCommand by the editor script.
type Command struct {
	Name   string
	Label  string
	Title  string
	Exec   string
	Arg    string
	Prompt bool // ask for a value (link URL) before executing
}

var toolbar = []Command{
	{Name: "bold", Label: "B", Title: "Bold", Exec: "bold"},
	{Name: "italic", Label: "I", Title: "Italic", Exec: "italic"},
	{Name: "h1", Label: "H1", Title: "Heading 1", Exec: "formatBlock", Arg: "h1"},
	{Name: "h2", Label: "H2", Title: "Heading 2", Exec: "formatBlock", Arg: "h2"},
	{Name: "h3", Label: "H3", Title: "Heading 3", Exec: "formatBlock", Arg: "h3"},
	{Name: "bullet-list", Label: "•", Title: "Bullet list", Exec: "insertUnorderedList"},
	{Name: "ordered-list", Label: "1.", Title: "Numbered list", Exec: "insertOrderedList"},
	{Name: "blockquote", Label: "❝", Title: "Quote", Exec: "formatBlock", Arg: "blockquote"},
	{Name: "link", Label: "Link", Title: "Insert link", Exec: "createLink", Prompt: true},
	{Name: "unlink", Label: "Unlink", Title: "Remove link", Exec: "unlink"},
	{Name: "undo", Label: "↶", Title: "Undo", Exec: "undo"},
	{Name: "redo", Label: "↷", Title: "Redo", Exec: "redo"},
}

// Toolbar returns the editor toolbar commands in display order.
func Toolbar() []Command {
	out := make([]Command, len(toolbar))
	copy(out, toolbar)
	return out
}
