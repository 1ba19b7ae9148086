package prompt

import (
	"fmt"
	"strings"

	"github.com/bryanwahyu/sparklens/internal/domain/analysis"
)

const SummarySystemPrompt = "You are an expert at summarizing business ideas in five words or fewer. Reply with the summary only."

// SummaryPrompt asks for a five-word summary built from the problem and
// solution, falling back to the idea name and summary.
func SummaryPrompt(req analysis.Request) string {
	var parts []string
	if req.Problem != "" {
		parts = append(parts, "Problem: "+req.Problem)
	}
	if req.Solution != "" {
		parts = append(parts, "Solution: "+req.Solution)
	}
	if len(parts) == 0 {
		if req.IdeaName != "" {
			parts = append(parts, "Idea: "+req.IdeaName)
		}
		if req.Summary != "" {
			parts = append(parts, "Summary: "+req.Summary)
		}
		if len(parts) == 0 && len(req.Features) > 0 {
			parts = append(parts, "Features: "+strings.Join(req.Features, ", "))
		}
	}
	return fmt.Sprintf("Summarize the following idea in five words or fewer: %s", strings.Join(parts, ", "))
}
