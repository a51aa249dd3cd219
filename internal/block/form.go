// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package block

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Limits applied when reading blocks from a submitted form.
const (
	MaxBlocks = 500
	MaxItems  = 200
)

// Form field layout:
//
//	blocks.{i}.id / blocks.{i}.type / blocks.{i}.order
//	blocks.{i}.data.{field}
//	blocks.{i}.data.items.{j}.question / .answer   (faq)
//	blocks.{i}.data.items.{j}                      (list)
//	blocks.{i}.raw                                 (unknown types)
const formPrefix = "blocks"

// BlockField returns the form name of a top-level block field (id, type, order, raw).
func BlockField(i int, field string) string {
	return fmt.Sprintf("%s.%d.%s", formPrefix, i, field)
}

// DataField returns the form name of a payload field.
func DataField(i int, field string) string {
	return fmt.Sprintf("%s.%d.data.%s", formPrefix, i, field)
}

// ItemField returns the form name of a list entry, or of an FAQ item field when field is set.
func ItemField(i, j int, field string) string {
	name := fmt.Sprintf("%s.%d.data.items.%d", formPrefix, i, j)
	if field != "" {
		name += "." + field
	}
	return name
}

// FormValues encodes blocks into the form fields the editor template renders.
// ParseForm(FormValues(b)) reproduces b.
func FormValues(blocks []Block) url.Values {
	values := url.Values{}
	for i, b := range blocks {
		values.Set(BlockField(i, "id"), b.ID)
		values.Set(BlockField(i, "type"), string(b.Type))
		values.Set(BlockField(i, "order"), strconv.Itoa(b.Order))
		if b.Data == nil {
			continue
		}
		_ = b.Data.Accept(&formEncoder{values: values, index: i})
	}
	return values
}

// formEncoder writes one block's payload into form values.
type formEncoder struct {
	values url.Values
	index  int
}

func (f *formEncoder) set(field, value string) {
	f.values.Set(DataField(f.index, field), value)
}

func (f *formEncoder) setInt(field string, value int) {
	if value == 0 {
		f.set(field, "")
		return
	}
	f.set(field, strconv.Itoa(value))
}

func (f *formEncoder) VisitHero(p Hero) error {
	f.set("headline", p.Headline)
	f.set("subheadline", p.Subheadline)
	f.set("ctaText", p.CTAText)
	f.set("ctaLink", p.CTALink)
	f.set("backgroundImage", p.BackgroundImage)
	f.set("alignment", p.Alignment)
	return nil
}

func (f *formEncoder) VisitHeading(p Heading) error {
	f.set("text", p.Text)
	f.set("level", strconv.Itoa(p.Level))
	return nil
}

func (f *formEncoder) VisitText(p Text) error {
	f.set("content", p.Content)
	return nil
}

func (f *formEncoder) VisitImage(p Image) error {
	f.set("src", p.Src)
	f.set("alt", p.Alt)
	f.set("caption", p.Caption)
	f.setInt("width", p.Width)
	f.setInt("height", p.Height)
	return nil
}

func (f *formEncoder) VisitCTA(p CTA) error {
	f.set("headline", p.Headline)
	f.set("description", p.Description)
	f.set("primaryButtonText", p.PrimaryButtonText)
	f.set("primaryButtonLink", p.PrimaryButtonLink)
	f.set("secondaryButtonText", p.SecondaryButtonText)
	f.set("secondaryButtonLink", p.SecondaryButtonLink)
	return nil
}

func (f *formEncoder) VisitFAQ(p FAQ) error {
	f.set("title", p.Title)
	for j, item := range p.Items {
		f.values.Set(ItemField(f.index, j, "question"), item.Question)
		f.values.Set(ItemField(f.index, j, "answer"), item.Answer)
	}
	return nil
}

func (f *formEncoder) VisitQuote(p Quote) error {
	f.set("text", p.Text)
	f.set("attribution", p.Attribution)
	f.set("style", p.Style)
	return nil
}

func (f *formEncoder) VisitDivider(p Divider) error {
	f.set("style", p.Style)
	return nil
}

func (f *formEncoder) VisitList(p List) error {
	f.set("style", p.Style)
	for j, item := range p.Items {
		f.values.Set(ItemField(f.index, j, ""), item)
	}
	return nil
}

func (f *formEncoder) VisitUnknown(p Unknown) error {
	f.values.Set(BlockField(f.index, "raw"), string(p.Raw))
	return nil
}

// ParseForm reads the block list back from submitted editor fields.
// Blocks are read in index order until the first missing type field.
func ParseForm(values url.Values) ([]Block, error) {
	blocks := []Block{}
	for i := 0; ; i++ {
		if _, ok := values[BlockField(i, "type")]; !ok {
			break
		}
		if i >= MaxBlocks {
			return nil, fmt.Errorf("too many blocks (max %d)", MaxBlocks)
		}

		b, err := parseFormBlock(values, i)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

func parseFormBlock(values url.Values, i int) (Block, error) {
	t := Type(values.Get(BlockField(i, "type")))
	b := Block{
		ID:    values.Get(BlockField(i, "id")),
		Type:  t,
		Order: atoi(values.Get(BlockField(i, "order"))),
	}

	get := func(field string) string {
		return values.Get(DataField(i, field))
	}

	switch t {
	case TypeHero:
		b.Data = Hero{
			Headline:        get("headline"),
			Subheadline:     get("subheadline"),
			CTAText:         get("ctaText"),
			CTALink:         get("ctaLink"),
			BackgroundImage: get("backgroundImage"),
			Alignment:       get("alignment"),
		}
	case TypeHeading:
		b.Data = Heading{
			Text:  get("text"),
			Level: atoi(get("level")),
		}
	case TypeText:
		b.Data = Text{Content: get("content")}
	case TypeImage:
		b.Data = Image{
			Src:     get("src"),
			Alt:     get("alt"),
			Caption: get("caption"),
			Width:   atoi(get("width")),
			Height:  atoi(get("height")),
		}
	case TypeCTA:
		b.Data = CTA{
			Headline:            get("headline"),
			Description:         get("description"),
			PrimaryButtonText:   get("primaryButtonText"),
			PrimaryButtonLink:   get("primaryButtonLink"),
			SecondaryButtonText: get("secondaryButtonText"),
			SecondaryButtonLink: get("secondaryButtonLink"),
		}
	case TypeFAQ:
		faq := FAQ{Title: get("title"), Items: []FAQItem{}}
		for j := 0; j < MaxItems; j++ {
			q, hasQ := values[ItemField(i, j, "question")]
			a, hasA := values[ItemField(i, j, "answer")]
			if !hasQ && !hasA {
				break
			}
			faq.Items = append(faq.Items, FAQItem{Question: first(q), Answer: first(a)})
		}
		b.Data = faq
	case TypeQuote:
		b.Data = Quote{
			Text:        get("text"),
			Attribution: get("attribution"),
			Style:       get("style"),
		}
	case TypeDivider:
		b.Data = Divider{Style: get("style")}
	case TypeList:
		list := List{Style: get("style"), Items: []string{}}
		for j := 0; j < MaxItems; j++ {
			item, ok := values[ItemField(i, j, "")]
			if !ok {
				break
			}
			list.Items = append(list.Items, first(item))
		}
		b.Data = list
	default:
		raw := values.Get(BlockField(i, "raw"))
		if !gjson.Valid(raw) || !gjson.Parse(raw).IsObject() {
			return Block{}, fmt.Errorf("block %d: unknown type %q without valid raw content", i, t)
		}
		b.Data = Unknown{Raw: []byte(raw)}
	}
	return b, nil
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

func first(v []string) string {
	if len(v) == 0 {
		return ""
	}
	return v[0]
}
