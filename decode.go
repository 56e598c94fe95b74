package main

import (
	"time"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Timestamp layouts tried in order when bucketing records by day
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// DecodeRecord interprets v as a log entry.
// It returns false when v has the wrong shape or carries no model name.
func DecodeRecord(v jsontext.Value) (Record, bool) {
	var entry logEntry
	if err := json.Unmarshal(v, &entry, decodeOptions); err != nil {
		return Record{}, false
	}
	if entry.Timestamp == nil || entry.Message == nil {
		return Record{}, false
	}

	msg := entry.Message
	if msg.Model == nil || *msg.Model == "" {
		return Record{}, false
	}

	usage := msg.Usage
	if usage != nil && usage.IsEmpty() {
		usage = nil
	}

	return Record{
		Model:     *msg.Model,
		Timestamp: *entry.Timestamp,
		Usage:     usage,
	}, true
}

// DateBucket returns the UTC calendar day of the record's timestamp.
// Unparseable timestamps are returned verbatim.
func (r Record) DateBucket() string {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, r.Timestamp); err == nil {
			return t.UTC().Format("2006-01-02")
		}
	}
	return r.Timestamp
}

// Key returns the aggregation key for the record
func (r Record) Key() Key {
	return Key{Model: r.Model, Date: r.DateBucket()}
}
