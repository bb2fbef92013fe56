// Package slots declares the trip-planning fields the bot collects and the
// keyword rules used to pull each field out of free text.
package slots

import (
	"errors"
	"fmt"
	"strings"
)

// Key identifies a slot.
type Key string

// Slot keys in question order.
const (
	Destination  Key = "destination"
	Dates        Key = "dates"
	Travelers    Key = "travelers"
	VacationType Key = "vacation_type"
	Budget       Key = "budget"
)

// Definition is one required field: the question to ask and how to read the answer.
type Definition struct {
	Key    Key
	Prompt string
	// Options are suggested answers offered as reply buttons. Each must satisfy Rules.
	Options []string
	Rules   []Rule
}

// Extract applies the rules in order; the first match wins.
func (d Definition) Extract(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, r := range d.Rules {
		if v, ok := r.apply(text); ok {
			return v, true
		}
	}
	return "", false
}

// Schema is the fixed, ordered list of slot definitions.
type Schema struct {
	defs  []Definition
	index map[Key]int
}

// NewSchema validates defs and returns them as a Schema.
func NewSchema(defs ...Definition) (Schema, error) {
	if len(defs) == 0 {
		return Schema{}, errors.New("slots: empty schema")
	}
	s := Schema{
		defs:  make([]Definition, len(defs)),
		index: make(map[Key]int, len(defs)),
	}
	for i, d := range defs {
		if d.Key == "" {
			return Schema{}, fmt.Errorf("slots: definition %d has no key", i)
		}
		if _, dup := s.index[d.Key]; dup {
			return Schema{}, fmt.Errorf("slots: duplicate key %q", d.Key)
		}
		if strings.TrimSpace(d.Prompt) == "" {
			return Schema{}, fmt.Errorf("slots: %s has no prompt", d.Key)
		}
		s.index[d.Key] = i
		s.defs[i] = d
	}
	return s, nil
}

// MustSchema is NewSchema that panics on invalid input.
func MustSchema(defs ...Definition) Schema {
	s, err := NewSchema(defs...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of slots.
func (s Schema) Len() int { return len(s.defs) }

// Keys returns slot keys in question order.
func (s Schema) Keys() []Key {
	keys := make([]Key, len(s.defs))
	for i, d := range s.defs {
		keys[i] = d.Key
	}
	return keys
}

// Definitions returns a copy of the ordered definitions.
func (s Schema) Definitions() []Definition {
	out := make([]Definition, len(s.defs))
	copy(out, s.defs)
	return out
}

// Lookup returns the definition for key.
func (s Schema) Lookup(key Key) (Definition, bool) {
	i, ok := s.index[key]
	if !ok {
		return Definition{}, false
	}
	return s.defs[i], true
}

// NextUnfilled returns the first definition whose key is absent from collected.
// false means every slot is filled.
func (s Schema) NextUnfilled(collected map[Key]string) (Definition, bool) {
	for _, d := range s.defs {
		if _, ok := collected[d.Key]; !ok {
			return d, true
		}
	}
	return Definition{}, false
}

// Extract runs the rules of the slot named key against text.
// Unknown keys never match.
func (s Schema) Extract(key Key, text string) (string, bool) {
	d, ok := s.Lookup(key)
	if !ok {
		return "", false
	}
	return d.Extract(text)
}
