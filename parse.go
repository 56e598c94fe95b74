package main

import (
	"bytes"
	"errors"
	"io"
	"iter"
	"path/filepath"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Session logs are best effort: accept duplicate names and bad UTF-8 inside strings.
var decodeOptions = json.JoinOptions(
	jsontext.AllowDuplicateNames(true),
	jsontext.AllowInvalidUTF8(true),
)

// IsLogFile reports whether path has an extension the parser accepts
func IsLogFile(path string) bool {
	switch filepath.Ext(path) {
	case ".json", ".jsonl":
		return true
	}
	return false
}

// ParseContent yields the raw JSON values held in content.
//
// If the first non-blank line is a JSON value on its own, content is treated as
// JSON Lines and every line is parsed independently. Otherwise the whole content
// is parsed as a single document. Values that fail to parse are skipped.
func ParseContent(content []byte) iter.Seq[jsontext.Value] {
	return func(yield func(jsontext.Value) bool) {
		first := firstNonBlankLine(content)
		if first == nil {
			return
		}

		if !isValidValue(first) {
			doc := bytes.TrimSpace(content)
			if isValidValue(doc) {
				yield(jsontext.Value(doc))
			}
			return
		}

		for line := range bytes.Lines(content) {
			line = bytes.TrimSpace(line)
			if len(line) == 0 {
				continue
			}
			if !isValidValue(line) {
				// Skip corrupted/partial lines
				continue
			}
			if !yield(jsontext.Value(line)) {
				return
			}
		}
	}
}

func firstNonBlankLine(content []byte) []byte {
	for line := range bytes.Lines(content) {
		if line = bytes.TrimSpace(line); len(line) > 0 {
			return line
		}
	}
	return nil
}

// isValidValue reports whether b holds exactly one JSON value
func isValidValue(b []byte) bool {
	dec := jsontext.NewDecoder(bytes.NewReader(b), decodeOptions)
	if _, err := dec.ReadValue(); err != nil {
		return false
	}
	_, err := dec.ReadToken()
	return errors.Is(err, io.EOF)
}
