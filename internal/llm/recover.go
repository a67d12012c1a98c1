package llm

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// Shape is the top-level JSON kind of a recovered payload
type Shape int

const (
	ShapeNone Shape = iota
	ShapeObject
	ShapeArray
)

func (s Shape) String() string {
	switch s {
	case ShapeObject:
		return "object"
	case ShapeArray:
		return "array"
	}
	return "none"
}

// Recovered is the JSON payload found in a model response. When OK is
// false nothing usable was found and callers must use their default.
type Recovered struct {
	OK    bool
	Shape Shape
	Raw   string
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*([\\[{].*?[\\]}])\\s*```")

// Recover extracts a JSON object or array from free-form model output.
// It tries a fenced code block first, then the span from the first '{' or
// '[' to the last '}' or ']'. Anything else yields the sentinel.
func Recover(raw string) Recovered {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		if r, ok := parse(m[1]); ok {
			return r
		}
	}

	start := firstIndex(raw, '{', '[')
	end := max(strings.LastIndexByte(raw, '}'), strings.LastIndexByte(raw, ']'))
	if start >= 0 && end > start {
		if r, ok := parse(raw[start : end+1]); ok {
			return r
		}
	}

	return Recovered{}
}

// Expect returns r unchanged when it has the given shape and the sentinel
// otherwise
func (r Recovered) Expect(shape Shape) Recovered {
	if !r.OK || r.Shape != shape {
		return Recovered{}
	}
	return r
}

// Result exposes the payload for path queries
func (r Recovered) Result() gjson.Result {
	if !r.OK {
		return gjson.Result{}
	}
	return gjson.Parse(r.Raw)
}

// DecodeObject recovers a JSON object from raw and decodes it into T
func DecodeObject[T any](raw string) (T, bool) {
	return decode[T](Recover(raw).Expect(ShapeObject))
}

// DecodeArray recovers a JSON array from raw and decodes it into T, which
// should be a slice type
func DecodeArray[T any](raw string) (T, bool) {
	return decode[T](Recover(raw).Expect(ShapeArray))
}

func decode[T any](r Recovered) (T, bool) {
	var out T
	if !r.OK {
		return out, false
	}
	if err := json.Unmarshal([]byte(r.Raw), &out); err != nil {
		var zero T
		return zero, false
	}
	return out, true
}

func parse(candidate string) (Recovered, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || !gjson.Valid(candidate) {
		return Recovered{}, false
	}
	switch candidate[0] {
	case '{':
		return Recovered{OK: true, Shape: ShapeObject, Raw: candidate}, true
	case '[':
		return Recovered{OK: true, Shape: ShapeArray, Raw: candidate}, true
	}
	return Recovered{}, false
}

func firstIndex(s string, chars ...byte) int {
	first := -1
	for _, c := range chars {
		if i := strings.IndexByte(s, c); i >= 0 && (first < 0 || i < first) {
			first = i
		}
	}
	return first
}
