package main

import (
	"fmt"
	"strings"
)

// Add merges two counters field by field.
// A field is present in the result iff it is present in at least one operand.
func (u Usage) Add(other Usage) Usage {
	return Usage{
		InputTokens:              addCount(u.InputTokens, other.InputTokens),
		OutputTokens:             addCount(u.OutputTokens, other.OutputTokens),
		CacheCreationInputTokens: addCount(u.CacheCreationInputTokens, other.CacheCreationInputTokens),
		CacheReadInputTokens:     addCount(u.CacheReadInputTokens, other.CacheReadInputTokens),
	}
}

// clone returns a copy of u that shares no counters with it
func (u Usage) clone() Usage {
	return u.Add(Usage{})
}

// addCount always returns a fresh pointer so merged counters never alias their operands.
func addCount(a, b *uint64) *uint64 {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		v := *b
		return &v
	case b == nil:
		v := *a
		return &v
	default:
		v := *a + *b
		return &v
	}
}

// IsEmpty reports whether no counter was observed
func (u Usage) IsEmpty() bool {
	return u.InputTokens == nil && u.OutputTokens == nil &&
		u.CacheCreationInputTokens == nil && u.CacheReadInputTokens == nil
}

// IsZero reports whether every counter is absent or zero
func (u Usage) IsZero() bool {
	return u.Total() == 0
}

// Total returns the sum of all present counters
func (u Usage) Total() uint64 {
	return countOf(u.InputTokens) + countOf(u.OutputTokens) +
		countOf(u.CacheCreationInputTokens) + countOf(u.CacheReadInputTokens)
}

func countOf(p *uint64) uint64 {
	if p == nil {
		return 0
	}
	return *p
}

func (u Usage) String() string {
	var parts []string
	if u.InputTokens != nil {
		parts = append(parts, fmt.Sprintf("input: %d", *u.InputTokens))
	}
	if u.OutputTokens != nil {
		parts = append(parts, fmt.Sprintf("output: %d", *u.OutputTokens))
	}
	if u.CacheCreationInputTokens != nil {
		parts = append(parts, fmt.Sprintf("cache_creation: %d", *u.CacheCreationInputTokens))
	}
	if u.CacheReadInputTokens != nil {
		parts = append(parts, fmt.Sprintf("cache_read: %d", *u.CacheReadInputTokens))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
