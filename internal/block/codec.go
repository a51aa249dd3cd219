// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package block

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// blockJSON is the stored shape of a known block.
type blockJSON struct {
	ID    string          `json:"id"`
	Type  Type            `json:"type"`
	Order int             `json:"order"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Decode parses a stored content column into blocks.
// Empty input and JSON null decode to an empty slice.
func Decode(data []byte) ([]Block, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []Block{}, nil
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("decoding content array: %w", err)
	}

	blocks := make([]Block, 0, len(raws))
	for i, raw := range raws {
		var b Block
		if err := b.UnmarshalJSON(raw); err != nil {
			return nil, fmt.Errorf("decoding block %d: %w", i, err)
		}
		blocks = append(blocks, b)
	}
	return blocks, nil
}

// DecodeString is Decode for string columns.
func DecodeString(s string) ([]Block, error) {
	return Decode([]byte(s))
}

// Encode serialises blocks in array order. Nil and empty slices encode to "[]".
func Encode(blocks []Block) ([]byte, error) {
	if len(blocks) == 0 {
		return []byte("[]"), nil
	}
	data, err := json.Marshal(blocks)
	if err != nil {
		return nil, fmt.Errorf("encoding content: %w", err)
	}
	return data, nil
}

// EncodeString is Encode for string columns.
func EncodeString(blocks []Block) (string, error) {
	data, err := Encode(blocks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MarshalJSON implements json.Marshaler.
// Unknown blocks are written back verbatim with their order updated.
func (b Block) MarshalJSON() ([]byte, error) {
	if u, ok := b.Data.(Unknown); ok {
		return u.withOrder(b.Order)
	}
	if b.Data == nil {
		return nil, fmt.Errorf("block %s has no payload", b.ID)
	}
	if b.Data.Type() != b.Type {
		return nil, fmt.Errorf("block %s: %w", b.ID, ErrTypeMismatch)
	}

	data, err := json.Marshal(b.Data)
	if err != nil {
		return nil, err
	}
	return json.Marshal(blockJSON{
		ID:    b.ID,
		Type:  b.Type,
		Order: b.Order,
		Data:  data,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
// Missing payload fields keep the type's default values. Fields whose JSON
// type does not fit are decoded leniently: numeric strings and fractions
// become ints, anything else keeps the default.
func (b *Block) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return fmt.Errorf("block is not a JSON object")
	}

	head := gjson.ParseBytes(data)
	t := Type(head.Get("type").String())
	id := head.Get("id").String()
	order := intField(head, "order", 0)

	if !t.IsKnown() {
		raw := make([]byte, len(data))
		copy(raw, data)
		*b = Block{ID: id, Type: t, Order: order, Data: Unknown{Raw: raw}}
		return nil
	}

	payload, err := decodePayload(t, head.Get("data"))
	if err != nil {
		return fmt.Errorf("block %s (%s): %w", id, t, err)
	}
	*b = Block{ID: id, Type: t, Order: order, Data: payload}
	return nil
}

// decodePayload unmarshals the data object of a known type over its defaults.
func decodePayload(t Type, data gjson.Result) (Payload, error) {
	def, err := DefaultPayload(t)
	if err != nil {
		return nil, err
	}
	if !data.IsObject() {
		return def, nil
	}
	raw := []byte(data.Raw)

	switch p := def.(type) {
	case Hero:
		err = unmarshalLenient(raw, &p)
		return p, err
	case Heading:
		err = unmarshalLenient(raw, &p)
		p.Level = intField(data, "level", p.Level)
		return p, err
	case Text:
		err = unmarshalLenient(raw, &p)
		return p, err
	case Image:
		err = unmarshalLenient(raw, &p)
		p.Width = intField(data, "width", p.Width)
		p.Height = intField(data, "height", p.Height)
		return p, err
	case CTA:
		err = unmarshalLenient(raw, &p)
		return p, err
	case FAQ:
		err = unmarshalLenient(raw, &p)
		if p.Items == nil {
			p.Items = []FAQItem{}
		}
		return p, err
	case Quote:
		err = unmarshalLenient(raw, &p)
		return p, err
	case Divider:
		err = unmarshalLenient(raw, &p)
		return p, err
	case List:
		err = unmarshalLenient(raw, &p)
		if p.Items == nil {
			p.Items = []string{}
		}
		return p, err
	default:
		return nil, ErrUnknownType
	}
}

// unmarshalLenient is json.Unmarshal that ignores field type mismatches.
// encoding/json still fills every field that fits.
func unmarshalLenient(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return nil
	}
	return err
}

// intField reads key of obj as an int, accepting numbers (rounded) and
// numeric strings. Absent or unparsable values return def.
func intField(obj gjson.Result, key string, def int) int {
	r := obj.Get(key)
	switch r.Type {
	case gjson.Number:
		return int(math.Round(r.Num))
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(r.Str), 64)
		if err != nil {
			return def
		}
		return int(math.Round(f))
	default:
		return def
	}
}

// withOrder returns the raw JSON with its "order" key set to order.
func (u Unknown) withOrder(order int) ([]byte, error) {
	if len(u.Raw) == 0 {
		return nil, fmt.Errorf("unknown block has no raw content")
	}
	if gjson.GetBytes(u.Raw, "order").Int() == int64(order) && gjson.GetBytes(u.Raw, "order").Exists() {
		return u.Raw, nil
	}
	return sjson.SetBytes(u.Raw, "order", order)
}

// rawType reads the "type" discriminator of a raw block object.
func rawType(data []byte) string {
	return gjson.GetBytes(data, "type").String()
}
