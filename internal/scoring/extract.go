package scoring

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Score is a normalized percentage together with where it was found.
type Score struct {
	Percentage float64
	Source     string
}

// document is a decoded JSON object whose members are decoded lazily.
// It is nil when the detector body is not an object.
type document map[string]json.RawMessage

// locator is one place a detector may report its score. A locator only
// succeeds on a JSON number; other value types count as absent.
type locator interface {
	locate(doc document) (value float64, source string, ok bool)
}

// field reads a top-level member.
type field string

func (f field) locate(doc document) (float64, string, bool) {
	v, ok := number(doc[string(f)])
	return v, string(f), ok
}

// nestedField reads a member of a top-level object.
type nestedField struct {
	parent string
	name   string
}

func (n nestedField) locate(doc document) (float64, string, bool) {
	inner := object(doc[n.parent])
	v, ok := number(inner[n.name])
	return v, n.parent + "." + n.name, ok
}

// firstInList reads the first element of a top-level array exposing a numeric member.
type firstInList struct {
	list string
	name string
}

func (l firstInList) locate(doc document) (float64, string, bool) {
	var items []json.RawMessage
	if raw := doc[l.list]; raw != nil {
		if err := json.Unmarshal(raw, &items); err != nil {
			return 0, "", false
		}
	}
	for i, item := range items {
		if v, ok := number(object(item)[l.name]); ok {
			return v, fmt.Sprintf("%s[%d].%s", l.list, i, l.name), true
		}
	}
	return 0, "", false
}

// locators lists score locations in priority order; the first hit wins.
var locators = []locator{
	field("ai_probability"),
	field("aiProbability"),
	field("score"),
	field("confidence"),
	nestedField{parent: "result", name: "score"},
	firstInList{list: "tasks", name: "score"},
	firstInList{list: "models", name: "score"},
}

// Extract locates the score in a detector response and normalizes it.
// A located value that fails normalization is an error; later locations are
// not consulted.
func Extract(raw json.RawMessage) (Score, error) {
	doc := object(raw)
	for _, loc := range locators {
		v, source, ok := loc.locate(doc)
		if !ok {
			continue
		}
		pct, err := Normalize(v)
		if err != nil {
			var invalid *InvalidScoreError
			if errors.As(err, &invalid) {
				invalid.Source = source
			}
			return Score{}, err
		}
		return Score{Percentage: pct, Source: source}, nil
	}
	return Score{}, &ScoreNotFoundError{}
}

func object(raw json.RawMessage) document {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var doc document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil
	}
	return doc
}

// number reports whether raw is a JSON number literal. Literals beyond the
// float64 range are returned as ±Inf so normalization can reject them.
func number(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	if c := raw[0]; c != '-' && (c < '0' || c > '9') {
		return 0, false
	}
	v, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return v, true
		}
		return 0, false
	}
	return v, true
}
