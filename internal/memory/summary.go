package memory

import (
	"fmt"
	"strings"
)

// SessionSummary is the structured accumulator a session builds up as it
// works: what was done, what comes next, which tools ran, and any context
// worth carrying forward. It is merged incrementally and read wholesale
// when a handover is written.
type SessionSummary struct {
	WorkDone  []string `json:"work_done,omitempty"`
	NextSteps []string `json:"next_steps,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`
	Context   string   `json:"context,omitempty"`
}

// Empty reports whether nothing has been recorded yet.
func (s SessionSummary) Empty() bool {
	return len(s.WorkDone) == 0 && len(s.NextSteps) == 0 &&
		len(s.ToolsUsed) == 0 && s.Context == ""
}

// Merge folds patch into s and returns the result. Work items and tool
// names accumulate with duplicates dropped, so repeated patches are safe.
// Next steps and context are replaced when the patch provides them: they
// describe the latest state, not history. Merge never removes anything an
// earlier patch recorded.
func (s SessionSummary) Merge(patch SessionSummary) SessionSummary {
	out := s
	out.WorkDone = appendUnique(out.WorkDone, patch.WorkDone...)
	out.ToolsUsed = appendUnique(out.ToolsUsed, patch.ToolsUsed...)
	if len(patch.NextSteps) > 0 {
		out.NextSteps = patch.NextSteps
	}
	if patch.Context != "" {
		out.Context = patch.Context
	}
	return out
}

// Format renders the summary as markdown for tool responses and handover
// reads.
func (s SessionSummary) Format() string {
	if s.Empty() {
		return "(empty summary)"
	}

	var b strings.Builder
	if s.Context != "" {
		fmt.Fprintf(&b, "**Context:** %s\n\n", s.Context)
	}
	writeList(&b, "Work done", s.WorkDone)
	writeList(&b, "Next steps", s.NextSteps)
	if len(s.ToolsUsed) > 0 {
		fmt.Fprintf(&b, "**Tools used:** %s\n", strings.Join(s.ToolsUsed, ", "))
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "**%s:**\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func appendUnique(dst []string, items ...string) []string {
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		seen := false
		for _, have := range dst {
			if have == item {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, item)
		}
	}
	return dst
}
