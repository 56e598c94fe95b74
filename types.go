package main

// logEntry represents a single value in a session log file.
// Only the fields needed for usage aggregation are decoded; the rest are ignored.
type logEntry struct {
	Timestamp *string  `json:"timestamp"`
	Message   *message `json:"message"`
}

// message represents the message field - only keeping model and usage
type message struct {
	Model *string `json:"model"`
	Usage *Usage  `json:"usage"`
}

// Usage represents token usage information.
// A nil field was never observed; a zero field was observed and measured as zero.
type Usage struct {
	InputTokens              *uint64 `json:"input_tokens,omitzero"`
	OutputTokens             *uint64 `json:"output_tokens,omitzero"`
	CacheCreationInputTokens *uint64 `json:"cache_creation_input_tokens,omitzero"`
	CacheReadInputTokens     *uint64 `json:"cache_read_input_tokens,omitzero"`
}

// Record is a decoded log entry that carries a model name
type Record struct {
	Model     string
	Timestamp string
	Usage     *Usage // nil when the entry had no usage counters
}

// Key identifies one row of the aggregation table
type Key struct {
	Model string `json:"model"`
	Date  string `json:"date"`
}

// Entry is one aggregated (model, date) row
type Entry struct {
	Key   Key   `json:"key"`
	Usage Usage `json:"usage"`
}
