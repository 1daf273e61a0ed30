// Package codec encodes the persisted destination set as a JSON array.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Encode serialises ids as a JSON array of strings, keeping order.
func Encode(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to encode destinations: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of ids. Numeric elements are accepted and kept
// in their textual form so large chat ids survive untouched.
// An empty payload decodes to an empty set.
func Decode(data []byte) ([]string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []string{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw []interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode destinations: %w", err)
	}

	ids := make([]string, 0, len(raw))
	for i, v := range raw {
		switch id := v.(type) {
		case string:
			ids = append(ids, id)
		case json.Number:
			ids = append(ids, id.String())
		default:
			return nil, fmt.Errorf("invalid destination at index %d: %v", i, v)
		}
	}
	return Normalize(ids), nil
}

// Normalize trims ids, drops blanks and keeps the first occurrence of duplicates.
func Normalize(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
