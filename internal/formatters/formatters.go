package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"candidatelens/internal/analysis"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// PresetTable is the preset listing printed by the presets command
type PresetTable map[string]map[string]float64

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// GlobalRegistry is the registry used by the CLI
var GlobalRegistry = NewFormatterRegistry()

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "Snapshot", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "Snapshot", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "PresetTable", &PresetTextFormatter{})
	registry.RegisterFormatter("markdown", "PresetTable", &PresetMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case analysis.Snapshot:
		return "Snapshot"
	case PresetTable:
		return "PresetTable"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter renders a run for the terminal
type AnalysisTextFormatter struct{}

func (f *AnalysisTextFormatter) Format(data any) (string, error) {
	snap, ok := data.(analysis.Snapshot)
	if !ok {
		return "", fmt.Errorf("expected analysis.Snapshot, got %T", data)
	}

	var output strings.Builder
	fmt.Fprintf(&output, "=== CANDIDATE ANALYSIS %s ===\n", snap.AnalysisID)
	fmt.Fprintf(&output, "Candidate: %s\n", orDash(snap.Resume.Name))
	fmt.Fprintf(&output, "Role: %s\n", roleLine(snap))

	final := snap.FinalResult
	if final == nil {
		fmt.Fprintf(&output, "Status: in progress (%.1f%%)\n", snap.OverallProgress())
	} else {
		fmt.Fprintf(&output, "Overall score: %.1f/100\n", final.OverallScore)
		fmt.Fprintf(&output, "Recommendation: %s\n", final.Recommendation)
		if final.Incomplete {
			output.WriteString("Note: the score was produced from partial results\n")
		}
	}

	output.WriteString("\n=== TASKS ===\n")
	for _, rec := range snap.Progress {
		line := fmt.Sprintf("- %-24s %-11s", rec.TaskName, rec.Status)
		if rec.Score != nil {
			line += fmt.Sprintf(" %5.1f", *rec.Score)
		}
		if rec.Message != nil && *rec.Message != "" {
			line += "  " + *rec.Message
		}
		output.WriteString(strings.TrimRight(line, " ") + "\n")
	}

	if final != nil {
		output.WriteString("\n=== SCORE BREAKDOWN ===\n")
		for _, key := range analysis.WeightKeys {
			sub, ok := final.ScoreBreakdown[key]
			if !ok {
				continue
			}
			fmt.Fprintf(&output, "- %-18s %5.1f  (weight %.0f%%)\n", analysis.WeightLabel(key), sub, final.Weights[key]*100)
		}

		if final.ExecutiveSummary != "" {
			output.WriteString("\n=== SUMMARY ===\n")
			output.WriteString(final.ExecutiveSummary + "\n")
		}
		writeList(&output, "\n=== STRENGTHS ===\n", final.Strengths)
		writeList(&output, "\n=== CONCERNS ===\n", final.Concerns)
	}

	writeList(&output, "\n=== ERRORS ===\n", snap.ErrorMessages())
	return output.String(), nil
}

func (f *AnalysisTextFormatter) SupportedType() string {
	return "Snapshot"
}

// AnalysisMarkdownFormatter renders a run as a markdown document
type AnalysisMarkdownFormatter struct{}

func (f *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	snap, ok := data.(analysis.Snapshot)
	if !ok {
		return "", fmt.Errorf("expected analysis.Snapshot, got %T", data)
	}

	final := snap.FinalResult
	if final != nil && strings.TrimSpace(final.DetailedReport) != "" {
		var output strings.Builder
		output.WriteString(strings.TrimRight(final.DetailedReport, "\n"))
		output.WriteString("\n")
		writeList(&output, "\n## Strengths\n\n", final.Strengths)
		writeList(&output, "\n## Concerns\n\n", final.Concerns)
		return output.String(), nil
	}

	var output strings.Builder
	output.WriteString("# Candidate Analysis\n\n")
	fmt.Fprintf(&output, "**Candidate:** %s  \n", orDash(snap.Resume.Name))
	fmt.Fprintf(&output, "**Role:** %s  \n", roleLine(snap))
	if final == nil {
		fmt.Fprintf(&output, "**Status:** in progress (%.1f%%)\n", snap.OverallProgress())
	} else {
		fmt.Fprintf(&output, "**Overall score:** %.1f/100  \n", final.OverallScore)
		fmt.Fprintf(&output, "**Recommendation:** %s\n", final.Recommendation)
	}

	output.WriteString("\n## Tasks\n\n| Task | Status | Score |\n|---|---|---|\n")
	for _, rec := range snap.Progress {
		score := "-"
		if rec.Score != nil {
			score = fmt.Sprintf("%.1f", *rec.Score)
		}
		fmt.Fprintf(&output, "| %s | %s | %s |\n", rec.TaskName, rec.Status, score)
	}

	if final != nil {
		writeList(&output, "\n## Strengths\n\n", final.Strengths)
		writeList(&output, "\n## Concerns\n\n", final.Concerns)
	}
	writeList(&output, "\n## Errors\n\n", snap.ErrorMessages())
	return output.String(), nil
}

func (f *AnalysisMarkdownFormatter) SupportedType() string {
	return "Snapshot"
}

// PresetTextFormatter prints each preset's weights
type PresetTextFormatter struct{}

func (f *PresetTextFormatter) Format(data any) (string, error) {
	table, ok := data.(PresetTable)
	if !ok {
		return "", fmt.Errorf("expected PresetTable, got %T", data)
	}

	var output strings.Builder
	for _, name := range sortedKeys(table) {
		fmt.Fprintf(&output, "%s:\n", name)
		for _, key := range analysis.WeightKeys {
			fmt.Fprintf(&output, "  %-18s %.2f\n", key, table[name][key])
		}
	}
	return output.String(), nil
}

func (f *PresetTextFormatter) SupportedType() string {
	return "PresetTable"
}

// PresetMarkdownFormatter prints presets as one table, a column per preset
type PresetMarkdownFormatter struct{}

func (f *PresetMarkdownFormatter) Format(data any) (string, error) {
	table, ok := data.(PresetTable)
	if !ok {
		return "", fmt.Errorf("expected PresetTable, got %T", data)
	}

	names := sortedKeys(table)
	var output strings.Builder
	output.WriteString("| Weight |")
	for _, n := range names {
		output.WriteString(" " + n + " |")
	}
	output.WriteString("\n|---|" + strings.Repeat("---|", len(names)) + "\n")
	for _, key := range analysis.WeightKeys {
		output.WriteString("| " + key + " |")
		for _, n := range names {
			fmt.Fprintf(&output, " %.2f |", table[n][key])
		}
		output.WriteString("\n")
	}
	return output.String(), nil
}

func (f *PresetMarkdownFormatter) SupportedType() string {
	return "PresetTable"
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	b.WriteString(heading)
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

func roleLine(snap analysis.Snapshot) string {
	job := snap.JobDescription
	switch {
	case job.Title != "" && job.Company != "":
		return job.Title + " at " + job.Company
	case job.Title != "":
		return job.Title
	default:
		return orDash(job.Company)
	}
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func sortedKeys(m PresetTable) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
