package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/wricardo/pyramid-puzzle/game/engine"
)

// maxPromptChars caps how much of each prompt is echoed into a report
const maxPromptChars = 1000

// WriteMarkdownReport renders the full evaluation of one model on one
// scenario and returns the file it was written to.
func (l *Logger) WriteMarkdownReport(model string, scenario *engine.Scenario, interactions []Interaction, final FinalResult) (string, error) {
	path := l.MarkdownPath(model, scenario.ID)
	content := RenderMarkdown(model, scenario, interactions, final, time.Now())

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write markdown report: %w", err)
	}
	return path, nil
}

// RenderMarkdown builds the report text
func RenderMarkdown(model string, scenario *engine.Scenario, interactions []Interaction, final FinalResult, generated time.Time) string {
	var b strings.Builder
	stamp := generated.Format(time.RFC3339)

	fmt.Fprintf(&b, "# Benchmark Report: %s - Scenario %s\n\n", model, scenario.ID)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", stamp)
	if len(interactions) > 0 && interactions[0].RunID != "" {
		fmt.Fprintf(&b, "**Run:** %s\n\n", interactions[0].RunID)
	}

	writeSummary(&b, model, scenario, interactions, final)
	writeScenario(&b, scenario)

	b.WriteString("## Interaction Log\n\n")
	for i, it := range interactions {
		writeInteraction(&b, i+1, it)
	}

	b.WriteString("## Final Assessment\n\n")
	switch {
	case final.Success && final.IsOptimal:
		b.WriteString("🎉 **SUCCESS:** Model found the optimal solution!\n\n")
	case final.Success:
		b.WriteString("✅ **PARTIAL SUCCESS:** Model found a valid solution, but not optimal.\n\n")
	default:
		b.WriteString("❌ **FAILURE:** Model failed to find a valid solution.\n\n")
	}

	var hints []string
	for _, it := range interactions {
		if strings.HasPrefix(it.Type, TypeHint+"_") {
			hints = append(hints, it.Type)
		}
	}
	if len(hints) > 0 {
		fmt.Fprintf(&b, "**Hints Used:** %s\n\n", strings.Join(hints, ", "))
	}

	fmt.Fprintf(&b, "**Report Generated:** %s\n", stamp)
	return b.String()
}

func writeSummary(b *strings.Builder, model string, scenario *engine.Scenario, interactions []Interaction, final FinalResult) {
	var promptTokens, completionTokens, totalTokens int
	var elapsed time.Duration
	for _, it := range interactions {
		promptTokens += it.PromptTokens
		completionTokens += it.CompletionTokens
		totalTokens += it.TotalTokens
		elapsed += it.ResponseTime
	}

	b.WriteString("## Summary\n\n")
	fmt.Fprintf(b, "- **Model:** %s\n", model)
	fmt.Fprintf(b, "- **Scenario:** %s\n", scenario.ID)
	fmt.Fprintf(b, "- **Total Interactions:** %d\n", len(interactions))
	fmt.Fprintf(b, "- **Final Result:** %s\n", yesNo(final.Success, "SUCCESS", "FAILED"))
	fmt.Fprintf(b, "- **Optimal Solution Found:** %s\n", yesNo(final.IsOptimal, "YES", "NO"))
	if final.TotalMP != nil {
		fmt.Fprintf(b, "- **Final MP:** %d\n", *final.TotalMP)
	}
	if scenario.Solution.OptimalMP != nil {
		fmt.Fprintf(b, "- **Optimal MP:** %d\n", *scenario.Solution.OptimalMP)
	}
	fmt.Fprintf(b, "- **Total Tokens Used:** %d (Prompt: %d, Completion: %d)\n", totalTokens, promptTokens, completionTokens)
	fmt.Fprintf(b, "- **Total Response Time:** %.2f seconds\n\n", elapsed.Seconds())
}

func writeScenario(b *strings.Builder, scenario *engine.Scenario) {
	cfg := scenario.Configuration

	b.WriteString("## Scenario Configuration\n\n")
	b.WriteString("### Blocked Tiles\n")
	if len(cfg.Blocked) > 0 {
		b.WriteString(strings.Join(cfg.BlockedTiles(), ", ") + "\n\n")
	} else {
		b.WriteString("None\n\n")
	}

	b.WriteString("### Collectibles\n")
	for _, item := range cfg.Collectibles {
		fmt.Fprintf(b, "- **%s:** %s\n", capitalize(item.Type), item.Location)
	}
	b.WriteString("\n")
}

func writeInteraction(b *strings.Builder, n int, it Interaction) {
	fmt.Fprintf(b, "### Interaction %d: %s\n\n", n, capitalize(it.Type))

	prompt := it.Prompt
	if len(prompt) > maxPromptChars {
		prompt = prompt[:maxPromptChars] + "...[truncated]"
	}
	fmt.Fprintf(b, "**Prompt:** \n```\n%s\n```\n\n", prompt)
	fmt.Fprintf(b, "**Raw Response:** \n```\n%s\n```\n\n", it.RawResponse)

	if it.ParsedJSON != "" {
		fmt.Fprintf(b, "**Path:** `%s`\n\n", orNA(it.Path))
		fmt.Fprintf(b, "**Analysis:** %s\n\n", orNA(it.Analysis))
	}

	b.WriteString("**Validation Results:**\n")
	fmt.Fprintf(b, "- Format Valid: %s\n", yesNo(it.IsValidFormat, "✓", "✗"))
	if !it.IsValidFormat {
		fmt.Fprintf(b, "  - Error: %s\n", orNA(it.FormatError))
	}
	fmt.Fprintf(b, "- Path Valid: %s\n", yesNo(it.IsValidPath, "✓", "✗"))
	if !it.IsValidPath {
		fmt.Fprintf(b, "  - Error: %s\n", orNA(it.PathError))
	}
	if it.TotalMP > 0 {
		fmt.Fprintf(b, "- MP Count: %d\n", it.TotalMP)
		fmt.Fprintf(b, "- Optimal: %s\n", yesNo(it.IsOptimal, "✓", "✗"))
	}

	fmt.Fprintf(b, "- Tokens: %d (P: %d, C: %d)\n", it.TotalTokens, it.PromptTokens, it.CompletionTokens)
	fmt.Fprintf(b, "- Response Time: %.2fs\n\n", it.ResponseTime.Seconds())
	b.WriteString("---\n\n")
}

func yesNo(ok bool, yes, no string) string {
	if ok {
		return yes
	}
	return no
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
