// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package block implements the page content model: an ordered list of typed
// content blocks, their default payloads, their JSON representation and the
// editing operations used by the admin page editor.
//
// A block's payload is a closed set of variants. Every variant is handled by a
// Visitor, so a new variant without a matching visitor method does not compile.
// Blocks of a type this package does not know are kept as Unknown payloads and
// survive decoding, editing and encoding unchanged.
package block

import (
	"errors"

	"github.com/google/uuid"
)

// Type identifies a block variant.
type Type string

// Block types.
const (
	TypeHero    Type = "hero"
	TypeHeading Type = "heading"
	TypeText    Type = "text"
	TypeImage   Type = "image"
	TypeCTA     Type = "cta"
	TypeFAQ     Type = "faq"
	TypeQuote   Type = "quote"
	TypeDivider Type = "divider"
	TypeList    Type = "list"
)

// Errors returned by block operations.
var (
	ErrUnknownType  = errors.New("unknown block type")
	ErrTypeMismatch = errors.New("payload type does not match block type")
)

// paletteTypes is the order in which block types are offered in the editor.
var paletteTypes = []Type{
	TypeHero, TypeHeading, TypeText, TypeImage, TypeQuote,
	TypeFAQ, TypeCTA, TypeList, TypeDivider,
}

var typeLabels = map[Type]string{
	TypeHero:    "Hero Section",
	TypeHeading: "Heading",
	TypeText:    "Text Block",
	TypeImage:   "Image",
	TypeQuote:   "Quote",
	TypeFAQ:     "FAQ Section",
	TypeCTA:     "Call to Action",
	TypeList:    "List",
	TypeDivider: "Divider",
}

// Types returns the known block types in palette order.
func Types() []Type {
	out := make([]Type, len(paletteTypes))
	copy(out, paletteTypes)
	return out
}

// IsKnown reports whether t is one of the known block types.
func (t Type) IsKnown() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label returns the human-readable name of the block type.
func (t Type) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return string(t)
}

// Block is one addressable unit of page content.
// ID and Type never change after creation; Order changes only when blocks are reordered.
type Block struct {
	ID    string
	Type  Type
	Order int
	Data  Payload
}

// Payload is the type-specific content of a block.
// The set of implementations is closed to this package.
type Payload interface {
	// Type returns the block type this payload belongs to.
	Type() Type
	// Accept dispatches to the visitor method for the concrete payload.
	Accept(v Visitor) error

	isPayload()
}

// Visitor handles every payload variant.
type Visitor interface {
	VisitHero(p Hero) error
	VisitHeading(p Heading) error
	VisitText(p Text) error
	VisitImage(p Image) error
	VisitCTA(p CTA) error
	VisitFAQ(p FAQ) error
	VisitQuote(p Quote) error
	VisitDivider(p Divider) error
	VisitList(p List) error
	VisitUnknown(p Unknown) error
}

// Hero is a page-opening headline section.
type Hero struct {
	Headline        string `json:"headline"`
	Subheadline     string `json:"subheadline,omitempty"`
	CTAText         string `json:"ctaText,omitempty"`
	CTALink         string `json:"ctaLink,omitempty"`
	BackgroundImage string `json:"backgroundImage,omitempty"`
	Alignment       string `json:"alignment,omitempty"`
}

// Heading is a section heading with level 1-4.
type Heading struct {
	Text  string `json:"text"`
	Level int    `json:"level"`
}

// Text holds rich-text HTML produced by the rich-text editor.
type Text struct {
	Content string `json:"content"`
}

// Image references an externally hosted image.
type Image struct {
	Src     string `json:"src"`
	Alt     string `json:"alt"`
	Caption string `json:"caption,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
}

// CTA is a call-to-action panel with up to two links.
type CTA struct {
	Headline            string `json:"headline"`
	Description         string `json:"description,omitempty"`
	PrimaryButtonText   string `json:"primaryButtonText"`
	PrimaryButtonLink   string `json:"primaryButtonLink"`
	SecondaryButtonText string `json:"secondaryButtonText,omitempty"`
	SecondaryButtonLink string `json:"secondaryButtonLink,omitempty"`
}

// FAQItem is one question/answer pair.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// FAQ is a list of collapsible questions.
type FAQ struct {
	Title string    `json:"title,omitempty"`
	Items []FAQItem `json:"items"`
}

// Quote is a block quotation.
type Quote struct {
	Text        string `json:"text"`
	Attribution string `json:"attribution,omitempty"`
	Style       string `json:"style,omitempty"`
}

// Divider separates sections.
type Divider struct {
	Style string `json:"style,omitempty"`
}

// List is a bullet, numbered or check list of plain strings.
type List struct {
	Style string   `json:"style"`
	Items []string `json:"items"`
}

// Unknown preserves a block whose type is not recognised.
// Raw is the complete JSON object of the block as it was stored.
type Unknown struct {
	Raw []byte
}

// Allowed option values.
const (
	HeadingLevelDefault = 2

	QuoteStyleDefault   = "default"
	QuoteStyleHighlight = "highlight"

	DividerStyleLine  = "line"
	DividerStyleDots  = "dots"
	DividerStyleSpace = "space"

	ListStyleBullet   = "bullet"
	ListStyleNumbered = "numbered"
	ListStyleCheck    = "check"

	AlignLeft   = "left"
	AlignCenter = "center"
	AlignRight  = "right"
)

// Option lists for editor selects.
var (
	HeadingLevels = []int{1, 2, 3, 4}
	QuoteStyles   = []string{QuoteStyleDefault, QuoteStyleHighlight}
	DividerStyles = []string{DividerStyleLine, DividerStyleDots, DividerStyleSpace}
	ListStyles    = []string{ListStyleBullet, ListStyleNumbered, ListStyleCheck}
	Alignments    = []string{AlignLeft, AlignCenter, AlignRight}
)

func (Hero) Type() Type    { return TypeHero }
func (Heading) Type() Type { return TypeHeading }
func (Text) Type() Type    { return TypeText }
func (Image) Type() Type   { return TypeImage }
func (CTA) Type() Type     { return TypeCTA }
func (FAQ) Type() Type     { return TypeFAQ }
func (Quote) Type() Type   { return TypeQuote }
func (Divider) Type() Type { return TypeDivider }
func (List) Type() Type    { return TypeList }

// Type returns the type recorded in the raw JSON.
func (u Unknown) Type() Type { return Type(rawType(u.Raw)) }

func (p Hero) Accept(v Visitor) error    { return v.VisitHero(p) }
func (p Heading) Accept(v Visitor) error { return v.VisitHeading(p) }
func (p Text) Accept(v Visitor) error    { return v.VisitText(p) }
func (p Image) Accept(v Visitor) error   { return v.VisitImage(p) }
func (p CTA) Accept(v Visitor) error     { return v.VisitCTA(p) }
func (p FAQ) Accept(v Visitor) error     { return v.VisitFAQ(p) }
func (p Quote) Accept(v Visitor) error   { return v.VisitQuote(p) }
func (p Divider) Accept(v Visitor) error { return v.VisitDivider(p) }
func (p List) Accept(v Visitor) error    { return v.VisitList(p) }
func (p Unknown) Accept(v Visitor) error { return v.VisitUnknown(p) }

func (Hero) isPayload()    {}
func (Heading) isPayload() {}
func (Text) isPayload()    {}
func (Image) isPayload()   {}
func (CTA) isPayload()     {}
func (FAQ) isPayload()     {}
func (Quote) isPayload()   {}
func (Divider) isPayload() {}
func (List) isPayload()    {}
func (Unknown) isPayload() {}

// DefaultPayload returns the empty payload a new block of type t starts with.
func DefaultPayload(t Type) (Payload, error) {
	switch t {
	case TypeHero:
		return Hero{}, nil
	case TypeHeading:
		return Heading{Level: HeadingLevelDefault}, nil
	case TypeText:
		return Text{}, nil
	case TypeImage:
		return Image{}, nil
	case TypeQuote:
		return Quote{}, nil
	case TypeFAQ:
		return FAQ{Items: []FAQItem{}}, nil
	case TypeCTA:
		return CTA{}, nil
	case TypeList:
		return List{Style: ListStyleBullet, Items: []string{}}, nil
	case TypeDivider:
		return Divider{Style: DividerStyleLine}, nil
	default:
		return nil, ErrUnknownType
	}
}

// NewID returns a fresh unique block identifier.
func NewID() string {
	return uuid.NewString()
}

// New creates a block of type t with its default payload and a fresh ID.
func New(t Type, order int) (Block, error) {
	data, err := DefaultPayload(t)
	if err != nil {
		return Block{}, err
	}
	return Block{
		ID:    NewID(),
		Type:  t,
		Order: order,
		Data:  data,
	}, nil
}

// IsUnknown reports whether the block holds a preserved unknown payload.
func (b Block) IsUnknown() bool {
	_, ok := b.Data.(Unknown)
	return ok
}

// Clone returns a copy of the blocks whose slices do not alias the input.
func Clone(blocks []Block) []Block {
	if blocks == nil {
		return []Block{}
	}
	out := make([]Block, len(blocks))
	for i, b := range blocks {
		out[i] = b
		out[i].Data = clonePayload(b.Data)
	}
	return out
}

func clonePayload(p Payload) Payload {
	switch v := p.(type) {
	case FAQ:
		items := make([]FAQItem, len(v.Items))
		copy(items, v.Items)
		v.Items = items
		return v
	case List:
		items := make([]string, len(v.Items))
		copy(items, v.Items)
		v.Items = items
		return v
	case Unknown:
		raw := make([]byte, len(v.Raw))
		copy(raw, v.Raw)
		return Unknown{Raw: raw}
	default:
		return p
	}
}
