package memory

import (
	"strings"
	"testing"
)

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"summary", DetailSummary},
		{"standard", DetailStandard},
		{"full", DetailFull},
		{"", DetailStandard},
		{"invalid", DetailStandard},
		{"SUMMARY", DetailStandard}, // case-sensitive — only lowercase accepted
		{"Summary", DetailStandard},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseDetailLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseDetailLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetailLevelValues(t *testing.T) {
	vals := DetailLevelValues()
	if len(vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vals))
	}

	expected := map[string]bool{
		DetailSummary:  true,
		DetailStandard: true,
		DetailFull:     true,
	}

	for _, v := range vals {
		if !expected[v] {
			t.Errorf("unexpected value: %q", v)
		}
	}
}

func TestSnippet(t *testing.T) {
	long := strings.Repeat("x", snippetLength+100)

	tests := []struct {
		name    string
		content string
		level   string
		want    string
	}{
		{"summary hides content", long, DetailSummary, ""},
		{"full keeps everything", long, DetailFull, long},
		{"standard truncates", long, DetailStandard, long[:snippetLength] + "..."},
		{"standard keeps short content", "short note", DetailStandard, "short note"},
		{"unknown level acts as standard", long, "bogus", long[:snippetLength] + "..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Snippet(tt.content, tt.level)
			if got != tt.want {
				t.Errorf("Snippet(level=%q) = %q, want %q", tt.level, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 10); got != "hello" {
		t.Errorf("Truncate under max = %q, want unchanged", got)
	}
	if got := Truncate("hello world", 5); got != "hello..." {
		t.Errorf("Truncate over max = %q, want %q", got, "hello...")
	}
}

func TestNavigationHint(t *testing.T) {
	tests := []struct {
		name    string
		showing int
		total   int
		hint    string
		want    string
	}{
		{"all results fit", 10, 10, "hint", ""},
		{"showing more than total", 15, 10, "hint", ""},
		{"total is zero", 0, 0, "hint", ""},
		{"total is negative", 5, -1, "hint", ""},
		{"capped with hint", 10, 47, "Narrow the query to see the rest.", "\n📊 Showing 10 of 47. Narrow the query to see the rest."},
		{"capped without hint", 5, 20, "", "\n📊 Showing 5 of 20."},
		{"showing zero of many", 0, 100, "Try different filters.", "\n📊 Showing 0 of 100. Try different filters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NavigationHint(tt.showing, tt.total, tt.hint)
			if got != tt.want {
				t.Errorf("NavigationHint(%d, %d, %q) =\n  %q\nwant:\n  %q",
					tt.showing, tt.total, tt.hint, got, tt.want)
			}
		})
	}
}

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"ab", 1}, // shorter than one token still counts as one
		{strings.Repeat("a", 400), 100},
	}

	for _, tt := range tests {
		if got := EstimateTokens(tt.text); got != tt.want {
			t.Errorf("EstimateTokens(len=%d) = %d, want %d", len(tt.text), got, tt.want)
		}
	}
}

func TestTokenFooter(t *testing.T) {
	if got := TokenFooter(950); !strings.Contains(got, "~950 tokens") {
		t.Errorf("TokenFooter(950) = %q", got)
	}
	if got := TokenFooter(12345); !strings.Contains(got, "~12,345 tokens") {
		t.Errorf("TokenFooter(12345) = %q", got)
	}
}
