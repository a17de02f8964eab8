// Package chart holds the chart-of-accounts model and the processing
// rules that turn the upstream account listing into the client-facing
// lookup table.
package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is a single account code mapped to its display name.
type Entry struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// Chart is an ordered chart of accounts. Order is significant: the
// upstream listing order decides which duplicate wins and how the
// processed output is arranged, so a plain map cannot carry it.
//
// A Chart serializes as a JSON object whose member order follows the
// slice order, matching the shape consumers already depend on.
type Chart []Entry

// Has reports whether the chart contains the given code.
func (c Chart) Has(code string) bool {
	for _, e := range c {
		if e.Code == code {
			return true
		}
	}
	return false
}

// Get returns the name for the given code, and whether it is present.
func (c Chart) Get(code string) (string, bool) {
	for _, e := range c {
		if e.Code == code {
			return e.Name, true
		}
	}
	return "", false
}

// MarshalJSON renders the chart as an ordered JSON object.
func (c Chart) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Code)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the chart, preserving the
// member order of the document.
func (c *Chart) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chart: expected JSON object, got %v", tok)
	}

	out := Chart{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("chart: expected string key, got %v", keyTok)
		}
		var val string
		if err := dec.Decode(&val); err != nil {
			return fmt.Errorf("chart: value for %q: %w", key, err)
		}
		out = append(out, Entry{Code: key, Name: val})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}
