package main

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func line(model, timestamp, usage string) string {
	if usage == "" {
		return fmt.Sprintf(`{"timestamp":%q,"message":{"model":%q}}`, timestamp, model)
	}
	return fmt.Sprintf(`{"timestamp":%q,"message":{"model":%q,"usage":%s}}`, timestamp, model, usage)
}

func TestKeyCompare(t *testing.T) {
	a := Key{Model: "claude", Date: "2024-01-01"}
	b := Key{Model: "gpt", Date: "2024-02-01"}
	c := Key{Model: "claude", Date: "2024-01-02"}

	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Negative(t, a.Compare(c))
	require.Zero(t, a.Compare(a))
}

func TestTableMergeAndSnapshot(t *testing.T) {
	table := NewTable()
	table.Merge(Key{"gpt", "2024-02-01"}, Usage{InputTokens: count(1)})
	table.Merge(Key{"claude", "2024-01-01"}, Usage{OutputTokens: count(2)})
	table.Merge(Key{"claude", "2024-01-01"}, Usage{OutputTokens: count(3), InputTokens: count(4)})
	table.Merge(Key{"claude", "2023-12-31"}, Usage{})

	require.Equal(t, 3, table.Len())
	require.Equal(t, []Entry{
		{Key{"claude", "2023-12-31"}, Usage{}},
		{Key{"claude", "2024-01-01"}, Usage{InputTokens: count(4), OutputTokens: count(5)}},
		{Key{"gpt", "2024-02-01"}, Usage{InputTokens: count(1)}},
	}, table.Snapshot())
}

func TestTableSnapshotIsIndependent(t *testing.T) {
	table := NewTable()
	k := Key{"m", "2024-01-01"}
	table.Merge(k, Usage{InputTokens: count(1)})

	snap := table.Snapshot()
	*snap[0].Usage.InputTokens = 99
	table.Merge(k, Usage{InputTokens: count(1)})

	require.Equal(t, uint64(99), *snap[0].Usage.InputTokens)
	require.Equal(t, uint64(2), *table.Snapshot()[0].Usage.InputTokens)
}

func TestTableConcurrentMerge(t *testing.T) {
	table := NewTable()
	keys := []Key{{"a", "2024-01-01"}, {"a", "2024-01-02"}, {"b", "2024-01-01"}}

	var wg sync.WaitGroup
	for range 50 {
		wg.Go(func() {
			for i := range 100 {
				table.Merge(keys[i%len(keys)], Usage{InputTokens: count(1)})
			}
		})
	}
	wg.Wait()

	var total uint64
	for _, e := range table.Snapshot() {
		total += *e.Usage.InputTokens
	}
	require.Equal(t, uint64(50*100), total)
	require.Equal(t, len(keys), table.Len())
}

func TestProcessJSONLinesAggregation(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/session.jsonl",
		line("m", "2024-01-01T08:00:00Z", `{"input_tokens":10}`)+"\n"+
			line("m", "2024-01-01T20:00:00Z", `{"output_tokens":20}`)+"\n")

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "2024-01-01"}, Usage{InputTokens: count(10), OutputTokens: count(20)}},
	}, p.Process())
}

func TestProcessSingleDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/one.json",
		`{"timestamp":"2024-01-01T00:00:00Z","message":{"model":"m","usage":{"input_tokens":5}}}`)

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "2024-01-01"}, Usage{InputTokens: count(5)}},
	}, p.Process())
}

func TestProcessPrettyPrintedDocument(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/one.json", `{
  "timestamp": "2024-05-05T00:00:00Z",
  "message": {"model": "m", "usage": {"cache_read_input_tokens": 9}}
}`)

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "2024-05-05"}, Usage{CacheReadInputTokens: count(9)}},
	}, p.Process())
}

func TestProcessMalformedLineTolerance(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/session.jsonl",
		line("a", "2024-01-01T00:00:00Z", `{"input_tokens":1}`)+"\n"+
			`{"timestamp":"2024-01-01T00:00:00Z","message":{`+"\n"+
			line("c", "2024-01-01T00:00:00Z", `{"input_tokens":3}`)+"\n")

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"a", "2024-01-01"}, Usage{InputTokens: count(1)}},
		{Key{"c", "2024-01-01"}, Usage{InputTokens: count(3)}},
	}, p.Process())
	require.Equal(t, int64(2), p.Stats.Values)
	require.Equal(t, int64(2), p.Stats.Records)
}

func TestProcessMissingModelDiscarded(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/session.jsonl",
		`{"timestamp":"2024-01-01T00:00:00Z","message":{"usage":{"input_tokens":1}}}`+"\n"+
			`{"timestamp":"2024-01-01T00:00:00Z","message":{"role":"user","content":"hi"}}`+"\n")

	p := &Processor{Dir: root}
	require.Empty(t, p.Process())
	require.Equal(t, int64(2), p.Stats.Values)
	require.Zero(t, p.Stats.Records)
}

func TestProcessRecordWithoutUsageCreatesKey(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/session.jsonl",
		line("m", "2024-01-01T00:00:00Z", "")+"\n"+
			line("m", "2024-01-02T00:00:00Z", `{}`)+"\n")

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "2024-01-01"}, Usage{}},
		{Key{"m", "2024-01-02"}, Usage{}},
	}, p.Process())
}

func TestProcessUnparseableTimestampBucket(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/session.jsonl",
		line("m", "not a time", `{"input_tokens":1}`)+"\n"+
			line("m", "not a time", `{"input_tokens":2}`)+"\n")

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "not a time"}, Usage{InputTokens: count(3)}},
	}, p.Process())
}

func TestProcessSortOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "p1/a.jsonl", line("gpt", "2024-02-01T00:00:00Z", `{"input_tokens":1}`))
	writeFile(t, root, "p2/b.jsonl", line("claude", "2024-01-01T00:00:00Z", `{"input_tokens":1}`))

	p := &Processor{Dir: root}
	entries := p.Process()
	require.Len(t, entries, 2)
	require.Equal(t, Key{"claude", "2024-01-01"}, entries[0].Key)
	require.Equal(t, Key{"gpt", "2024-02-01"}, entries[1].Key)
}

func TestProcessIgnoresFilesOutsideDepthAndExtension(t *testing.T) {
	root := t.TempDir()
	rec := line("m", "2024-01-01T00:00:00Z", `{"input_tokens":1}`)
	writeFile(t, root, "top.jsonl", rec)
	writeFile(t, root, "proj/notes.txt", rec)
	writeFile(t, root, "proj/nested/deep.jsonl", rec)
	writeFile(t, root, "proj/kept.jsonl", rec)

	p := &Processor{Dir: root}
	require.Equal(t, []Entry{
		{Key{"m", "2024-01-01"}, Usage{InputTokens: count(1)}},
	}, p.Process())
	require.Equal(t, int64(2), p.Stats.FilesScanned)
	require.Equal(t, int64(1), p.Stats.FilesRead)
}

func TestProcessSkipsInvalidUTF8File(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "proj/bad.jsonl", line("bad", "2024-01-01T00:00:00Z", `{"input_tokens":1}`)+"\n\xff\xfe\n")
	writeFile(t, root, "proj/good.jsonl", line("good", "2024-01-01T00:00:00Z", `{"input_tokens":1}`))

	p := &Processor{Dir: root}
	entries := p.Process()
	require.Len(t, entries, 1)
	require.Equal(t, "good", entries[0].Key.Model)
	require.Equal(t, int64(1), p.Stats.FilesFailed)
}

func TestProcessEmptyAndMissingRoot(t *testing.T) {
	p := &Processor{Dir: t.TempDir()}
	require.Empty(t, p.Process())

	p = &Processor{Dir: t.TempDir() + "/missing"}
	require.Empty(t, p.Process())
}

func TestProcessManyFilesIsDeterministic(t *testing.T) {
	root := t.TempDir()
	models := []string{"claude-opus-4-5", "claude-sonnet-4-5-20250929", "gpt"}
	for i := range 40 {
		var content string
		for j := range 25 {
			model := models[(i+j)%len(models)]
			day := fmt.Sprintf("2024-01-%02dT12:00:00Z", j%5+1)
			content += line(model, day, `{"input_tokens":1,"output_tokens":2}`) + "\n"
		}
		writeFile(t, root, fmt.Sprintf("proj%d/session%d.jsonl", i%7, i), content)
	}

	p := &Processor{Dir: root, Workers: 8}
	first := p.Process()
	second := (&Processor{Dir: root, Workers: 1}).Process()
	require.Equal(t, first, second)

	var input, output uint64
	for i, e := range first {
		if i > 0 {
			require.Negative(t, first[i-1].Key.Compare(e.Key))
		}
		input += *e.Usage.InputTokens
		output += *e.Usage.OutputTokens
	}
	require.Equal(t, uint64(40*25), input)
	require.Equal(t, uint64(40*25*2), output)
	require.Equal(t, int64(40*25), p.Stats.Records)
}
