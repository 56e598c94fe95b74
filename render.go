package main

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"golang.org/x/term"
)

// DisplayMode determines how much detail to show in table output
type DisplayMode int

const (
	DisplayWide   DisplayMode = iota // All token columns + Total
	DisplayNarrow                    // Just labels + Total
)

var labelColumns = []string{"Model", "Date"}

// renderOptions controls table output
type renderOptions struct {
	TermWidth int  // 0 when stdout is not a terminal
	MaxWidth  int  // overrides TermWidth when > 0
	Color     bool // colour the Total column
}

// getTerminalWidth returns the terminal width, or 0 if not a terminal
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 0 // Not a terminal or error
	}
	return width
}

// formatTokens formats a token count in a human-readable way
func formatTokens(tokens uint64) string {
	switch {
	case tokens >= 1_000_000_000:
		return fmt.Sprintf("%.1fb", float64(tokens)/1_000_000_000.0)
	case tokens >= 1_000_000:
		return fmt.Sprintf("%.1fm", float64(tokens)/1_000_000.0)
	case tokens >= 1_000:
		return fmt.Sprintf("%.1fk", float64(tokens)/1_000.0)
	default:
		return fmt.Sprintf("%d", tokens)
	}
}

// Model name patterns, most specific first:
// claude-sonnet-4-5-20250929 -> sonnet-4-5, claude-opus-4-5 -> opus-4-5,
// anthropic/claude-opus-4.5 -> opus-4.5
var modelPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^claude-(\w+)-([\d-]+)-(\d{8})$`),
	regexp.MustCompile(`^claude-(\w+)-([\d-]+)$`),
	regexp.MustCompile(`^anthropic/claude-(\w+)-([\d.]+)$`),
}

// simplifyModel shortens well-known model identifiers for display
func simplifyModel(name string) string {
	for _, re := range modelPatterns {
		if m := re.FindStringSubmatch(name); m != nil {
			return m[1] + "-" + m[2]
		}
	}
	return name
}

// prepareRows drops zero rows, simplifies model names and merges rows that
// end up sharing a (model, date) label
func prepareRows(entries []Entry) []Entry {
	merged := make(map[Key]Usage)
	for _, e := range entries {
		if e.Usage.IsZero() {
			continue
		}
		k := Key{Model: simplifyModel(e.Key.Model), Date: e.Key.Date}
		merged[k] = merged[k].Add(e.Usage)
	}

	rows := make([]Entry, 0, len(merged))
	for k, u := range merged {
		rows = append(rows, Entry{Key: k, Usage: u})
	}
	slices.SortFunc(rows, func(a, b Entry) int {
		return a.Key.Compare(b.Key)
	})
	return rows
}

// tokenColumns returns the token counts shown for u, in column order
func tokenColumns(u Usage) []uint64 {
	return []uint64{
		countOf(u.InputTokens),
		countOf(u.OutputTokens),
		countOf(u.CacheCreationInputTokens),
		countOf(u.CacheReadInputTokens),
		u.Total(),
	}
}

// ColumnWidths stores the maximum width of each token column
// (Input, Output, Cache Create, Cache Read, Total)
type ColumnWidths [5]int

// calculateColumnWidths determines the maximum width needed for each column
func calculateColumnWidths(usages []Usage) ColumnWidths {
	var widths ColumnWidths
	for _, u := range usages {
		for i, n := range tokenColumns(u) {
			widths[i] = max(widths[i], len(formatTokens(n)))
		}
	}
	return widths
}

// calculateTableWidth estimates the total table width for a given display mode
// Table structure: │ col1 │ col2 │ ... │ colN │
// Width = (N+1) borders + N*(2 padding) + sum(content widths)
func calculateTableWidth(labelWidths []int, widths ColumnWidths, mode DisplayMode) int {
	contentWidth := 0
	for _, w := range labelWidths {
		contentWidth += w
	}

	numCols := len(labelWidths)
	switch mode {
	case DisplayWide:
		for _, w := range widths {
			contentWidth += w
		}
		numCols += len(widths)
	case DisplayNarrow:
		contentWidth += widths[len(widths)-1]
		numCols++
	}

	return contentWidth + (numCols + 1) + (numCols * 2)
}

// chooseDisplayMode selects the widest display mode that fits the terminal width
func chooseDisplayMode(labelWidths []int, widths ColumnWidths, termWidth int) DisplayMode {
	// If no terminal (piped output), use wide mode
	if termWidth == 0 {
		return DisplayWide
	}
	if calculateTableWidth(labelWidths, widths, DisplayWide) <= termWidth {
		return DisplayWide
	}
	return DisplayNarrow
}

// calculateIntensity returns a value between 0.0 and 1.0 based on position between min and max
func calculateIntensity(value, lo, hi uint64) float64 {
	if hi <= lo {
		return 0.0
	}
	intensity := float64(value-min(value, lo)) / float64(hi-lo)
	return min(intensity, 1.0)
}

// colorize wraps s in an ANSI colour running from dim to bright orange
func colorize(s string, intensity float64) string {
	var r, g, b int
	if intensity < 0.5 {
		t := intensity * 2
		r = int(120 + (80 * t))
		g = int(80 + (60 * t))
		b = int(40 + (20 * t))
	} else {
		// Medium to BRIGHT (this is where it pops)
		t := (intensity - 0.5) * 2
		r = int(200 + (55 * t))
		g = int(140 + (60 * t))
		b = int(60 * (1 - t))
	}
	return fmt.Sprintf("\033[38;2;%d;%d;%dm%s\033[0m", r, g, b, s)
}

// buildTokenCells formats the token cells of one row for the given mode
func buildTokenCells(u Usage, widths ColumnWidths, mode DisplayMode) []string {
	counts := tokenColumns(u)
	var cells []string
	for i, n := range counts {
		if mode == DisplayNarrow && i != len(counts)-1 {
			continue
		}
		cells = append(cells, fmt.Sprintf("%*s", widths[i], formatTokens(n)))
	}
	return cells
}

// renderTable writes entries as a Model | Date table with a Total footer
func renderTable(w io.Writer, entries []Entry, opts renderOptions) error {
	rows := prepareRows(entries)
	if len(rows) == 0 {
		_, err := fmt.Fprintln(w, "No usage data to display.")
		return err
	}

	// Accumulate totals first (needed for width calculations)
	var total Usage
	usages := make([]Usage, 0, len(rows)+1)
	labelWidths := []int{len(labelColumns[0]), len(labelColumns[1])}
	var minTotal, maxTotal uint64
	for i, row := range rows {
		total = total.Add(row.Usage)
		usages = append(usages, row.Usage)
		labelWidths[0] = max(labelWidths[0], len(row.Key.Model))
		labelWidths[1] = max(labelWidths[1], len(row.Key.Date), len("Total"))

		t := row.Usage.Total()
		if i == 0 || t < minTotal {
			minTotal = t
		}
		maxTotal = max(maxTotal, t)
	}
	usages = append(usages, total)
	widths := calculateColumnWidths(usages)

	termWidth := opts.TermWidth
	if opts.MaxWidth > 0 {
		termWidth = opts.MaxWidth
	}
	mode := chooseDisplayMode(labelWidths, widths, termWidth)

	table := tablewriter.NewTable(w,
		tablewriter.WithRenderer(renderer.NewBlueprint(tw.Rendition{
			Settings: tw.Settings{Separators: tw.Separators{BetweenRows: tw.On}},
		})))

	headers := slices.Clone(labelColumns)
	if mode == DisplayWide {
		headers = append(headers, "Input", "Output", "Cache Create", "Cache Read")
	}
	headers = append(headers, "Total")
	table.Header(headers)

	// Configure alignment (labels left, metrics right)
	alignments := make([]tw.Align, len(headers))
	for i := range alignments {
		if i < len(labelColumns) {
			alignments[i] = tw.AlignLeft
		} else {
			alignments[i] = tw.AlignRight
		}
	}
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = alignments
		c.Row.Formatting = tw.CellFormatting{MergeMode: tw.MergeHierarchical}
	})

	for _, row := range rows {
		cells := buildTokenCells(row.Usage, widths, mode)
		if opts.Color {
			last := len(cells) - 1
			cells[last] = colorize(cells[last], calculateIntensity(row.Usage.Total(), minTotal, maxTotal))
		}
		if err := table.Append(append([]string{row.Key.Model, row.Key.Date}, cells...)); err != nil {
			return fmt.Errorf("appending row: %w", err)
		}
	}

	table.Footer(append([]string{"", "Total"}, buildTokenCells(total, widths, mode)...))

	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

// renderJSON writes the sorted entries as indented JSON
func renderJSON(w io.Writer, entries []Entry) error {
	enc := jsontext.NewEncoder(w, jsontext.WithIndent("  "))
	if err := json.MarshalEncode(enc, entries); err != nil {
		return fmt.Errorf("encoding entries: %w", err)
	}
	return nil
}
