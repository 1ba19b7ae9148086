package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const (
	exampleOpen  = "<output_example>"
	exampleClose = "</output_example>"
)

// SystemPrompt provides strict directions for JSON output in the given schema.
func SystemPrompt(schema analysis.Schema) string {
	return fmt.Sprintf(`You are a startup consultant and market analysis expert. You evaluate business ideas and produce a structured report covering similar services, market size, SWOT, PESTEL and TOWS analysis, the team required, and scores.

Requirements:
- Output must be one valid JSON object only (no markdown, no commentary, no code fences).
- The object must contain every one of these top-level keys: %s.
- Follow the shape of the example given in the user message.
- Scores are numbers between 0 and 10. Similarity values are numbers between 0 and 1.
- If reference data is provided, prefer it over general knowledge.`, strings.Join(schema.RequiredKeys, ", "))
}

// BuildAnalysisPrompt renders the idea, any reference data, and the literal output
// example into one user message. It has no side effects.
func BuildAnalysisPrompt(req analysis.Request, ref *analysis.ReferenceRecord, schema analysis.Schema) string {
	var b strings.Builder

	b.WriteString("Analyze the following business idea.\n\n[IDEA]\n")
	field(&b, "Idea Name", req.IdeaName)
	field(&b, "Summary", req.Summary)
	if len(req.Features) > 0 {
		quoted := make([]string, 0, len(req.Features))
		for _, f := range req.Features {
			if strings.TrimSpace(f) != "" {
				quoted = append(quoted, quote(f))
			}
		}
		if len(quoted) > 0 {
			fmt.Fprintf(&b, "- Features: %s\n", strings.Join(quoted, ", "))
		}
	}
	field(&b, "Target Audience", req.TargetAudience)
	field(&b, "Problem", req.Problem)
	field(&b, "Solution", req.Solution)
	field(&b, "Team", req.Team)

	b.WriteString("\n[REFERENCE DATA]\n")
	if ref == nil || (ref.MarketSize == "" && len(ref.Services) == 0) {
		b.WriteString("No reference data was retrieved. Rely on general knowledge and say so where figures are estimates.\n")
	} else {
		field(&b, "Market size note", ref.MarketSize)
		for _, s := range ref.Services {
			fmt.Fprintf(&b, "- Comparable service: %s (similarity %.0f%%", quote(s.Name), s.Similarity*100)
			if s.Source != "" {
				fmt.Fprintf(&b, ", source: %s", s.Source)
			}
			b.WriteString(")\n")
		}
	}

	b.WriteString("\n[OUTPUT]\n")
	fmt.Fprintf(&b, "Respond with a JSON object containing exactly these top-level keys: %s.\n", strings.Join(schema.RequiredKeys, ", "))
	fmt.Fprintf(&b, "Schema version %s. Example with placeholder values:\n", schema.Version)
	b.WriteString(exampleOpen)
	b.WriteString("\n")
	b.WriteString(schema.Example)
	b.WriteString("\n")
	b.WriteString(exampleClose)
	b.WriteString("\n")

	return b.String()
}

// ExtractExample returns the output example embedded by BuildAnalysisPrompt.
func ExtractExample(prompt string) (string, bool) {
	start := strings.Index(prompt, exampleOpen)
	if start < 0 {
		return "", false
	}
	rest := prompt[start+len(exampleOpen):]
	end := strings.Index(rest, exampleClose)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

func field(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "- %s: %s\n", label, quote(value))
}

func quote(s string) string { return `"` + s + `"` }
