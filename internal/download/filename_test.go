package download

import (
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"clean title passes through", "Intro to Modeling", "Intro to Modeling"},
		{"illegal chars become dashes", `Lesson: "What/Why?"`, "Lesson- -What-Why--"},
		{"stray chars are dropped", "Rigging (part one)!", "Rigging part one"},
		{"backslash and pipe", `a\b|c`, "a-b-c"},
		{"dots and dashes survive", "v2.1-final", "v2.1-final"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeFilename(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeFilenameIdempotent(t *testing.T) {
	inputs := []string{
		`Lesson: "What/Why?"`,
		"plain title",
		`<>:"/\|?*`,
		"Mixed: file<name> with |pipes|",
	}

	for _, input := range inputs {
		once := SanitizeFilename(input)
		twice := SanitizeFilename(once)
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
		if strings.ContainsAny(once, `<>:"/\|?*`) {
			t.Errorf("illegal characters survived in %q", once)
		}
	}
}

func TestBuildFilename(t *testing.T) {
	tests := []struct {
		name   string
		index  int
		title  string
		ext    string
		prefix bool
		want   string
	}{
		{"with prefix", 3, "Shading Basics", ".mp4", true, "03-Shading Basics.mp4"},
		{"without prefix", 3, "Shading Basics", ".mp4", false, "Shading Basics.mp4"},
		{"double digit index", 12, "Render", ".html", true, "12-Render.html"},
		{"title gets sanitized", 1, "Q&A: Setup", ".mp4", true, "01-QA- Setup.mp4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFilename(tt.index, tt.title, tt.ext, tt.prefix)
			if got != tt.want {
				t.Errorf("BuildFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
